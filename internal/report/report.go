// Package report renders the findings of a scan to the console and to a
// flat text report file. It only reads the immutable snapshot.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/montanaflynn/stats"

	"github.com/keegan31/GitScan/internal/domain"
)

const timeLayout = "2006-01-02 15:04:05"

var (
	bannerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	headingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
	emailStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// Banner returns the styled start-up banner.
func Banner() string {
	banner := strings.Join([]string{
		"╔══════════════════════════════════╗",
		"║☆          GITSCAN               ~║",
		"║          OSINT TOOL              ║",
		"║~   TARGET & EMAIL DISCOVERY     ☆║",
		"╚══════════════════════════════════╝",
	}, "\n")
	return bannerStyle.Render(banner)
}

// Render writes the interactive console summary.
func Render(w io.Writer, rep *domain.Report) {
	rule := strings.Repeat("=", 60)
	sub := strings.Repeat("-", 40)

	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, headingStyle.Render("GITSCAN OSINT REPORT"))
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "\nTARGET: %s\n", rep.Target)
	fmt.Fprintf(w, "DATE: %s\n", rep.GeneratedAt.Format(timeLayout))

	fmt.Fprintf(w, "\nFOUND EMAILS (%d)\n%s\n", len(rep.Emails), sub)
	for _, email := range rep.Emails {
		fmt.Fprintf(w, "  %s\n", emailStyle.Render(email))
	}

	fmt.Fprintf(w, "\nREPOSITORIES (%d)\n%s\n", len(rep.Repositories), sub)
	for i, repo := range rep.Repositories {
		if i == 5 {
			break
		}
		fmt.Fprintf(w, "  %s\n", repo.Name)
		fmt.Fprintf(w, "     Stars: %d | Forks: %d | Language: %s\n", repo.Stars, repo.Forks, orNA(repo.Language))
	}
	if line := starSummary(rep.Repositories); line != "" {
		fmt.Fprintf(w, "  %s\n", line)
	}

	fmt.Fprintf(w, "\nORGANIZATIONS (%d)\n%s\n", len(rep.Organizations), sub)
	for _, org := range rep.Organizations {
		fmt.Fprintf(w, "  %s\n", org.Name)
	}

	fmt.Fprintf(w, "\nRECENT ACTIVITIES (%d)\n%s\n", len(rep.Events), sub)
	for i, event := range rep.Events {
		if i == 5 {
			break
		}
		fmt.Fprintf(w, "  %s - %s\n", event.Type, event.Repo)
	}
}

// Save writes the full flat-text report to path.
func Save(rep *domain.Report, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	rule := strings.Repeat("=", 60)
	sub := strings.Repeat("-", 40)
	sep := strings.Repeat("-", 20)

	fmt.Fprintf(f, "%s\nGITSCAN OSINT REPORT\n%s\n", rule, rule)
	fmt.Fprintf(f, "\nTARGET: %s\n", rep.Target)
	fmt.Fprintf(f, "DATE: %s\n", rep.GeneratedAt.Format(timeLayout))

	fmt.Fprintf(f, "\nUSER INFORMATION\n%s\n", sub)
	if p := rep.Profile; p != nil {
		fmt.Fprintf(f, "Username: %s\n", orNA(p.Login))
		fmt.Fprintf(f, "Name: %s\n", orNA(p.Name))
		fmt.Fprintf(f, "Company: %s\n", orNA(p.Company))
		fmt.Fprintf(f, "Location: %s\n", orNA(p.Location))
		fmt.Fprintf(f, "Blog: %s\n", orNA(p.Blog))
		fmt.Fprintf(f, "Bio: %s\n", orNA(p.Bio))
		fmt.Fprintf(f, "Followers: %d\n", p.Followers)
		fmt.Fprintf(f, "Following: %d\n", p.Following)
		fmt.Fprintf(f, "Public Repos: %d\n", p.PublicRepos)
		fmt.Fprintf(f, "Account Created: %s\n", p.CreatedAt.Format(timeLayout))
	} else {
		fmt.Fprintln(f, "unavailable")
	}

	fmt.Fprintf(f, "\nFOUND EMAILS (%d)\n%s\n", len(rep.Emails), sub)
	for _, email := range rep.Emails {
		fmt.Fprintln(f, email)
	}

	fmt.Fprintf(f, "\nREPOSITORIES (%d)\n%s\n", len(rep.Repositories), sub)
	for _, repo := range rep.Repositories {
		fmt.Fprintf(f, "Name: %s\n", repo.Name)
		fmt.Fprintf(f, "Description: %s\n", orNA(repo.Description))
		fmt.Fprintf(f, "Language: %s\n", orNA(repo.Language))
		fmt.Fprintf(f, "Stars: %d | Forks: %d\n", repo.Stars, repo.Forks)
		fmt.Fprintf(f, "URL: %s\n", repo.URL)
		fmt.Fprintf(f, "Last Updated: %s\n", repo.UpdatedAt.Format(timeLayout))
		fmt.Fprintln(f, sep)
	}
	if line := starSummary(rep.Repositories); line != "" {
		fmt.Fprintln(f, line)
	}

	fmt.Fprintf(f, "\nORGANIZATIONS (%d)\n%s\n", len(rep.Organizations), sub)
	for _, org := range rep.Organizations {
		fmt.Fprintln(f, org.Name)
	}

	fmt.Fprintf(f, "\nRECENT ACTIVITIES (%d)\n%s\n", len(rep.Events), sub)
	for i, event := range rep.Events {
		if i == 10 {
			break
		}
		fmt.Fprintf(f, "%s - %s - %s\n", event.Type, event.Repo, event.CreatedAt.Format(timeLayout))
	}

	fmt.Fprintf(f, "\nGISTS (%d)\n%s\n", len(rep.Gists), sub)
	for _, gist := range rep.Gists {
		fmt.Fprintf(f, "ID: %s\n", gist.ID)
		fmt.Fprintf(f, "Description: %s\n", orNA(gist.Description))
		fmt.Fprintf(f, "Files: %s\n", strings.Join(gist.Files, ", "))
		fmt.Fprintf(f, "Created: %s\n", gist.CreatedAt.Format(timeLayout))
		fmt.Fprintln(f, sep)
	}

	return nil
}

// starSummary aggregates star and fork counts across all repositories.
func starSummary(repos []domain.Repository) string {
	if len(repos) == 0 {
		return ""
	}
	starData := make(stats.Float64Data, 0, len(repos))
	totalForks := 0
	for _, r := range repos {
		starData = append(starData, float64(r.Stars))
		totalForks += r.Forks
	}
	total, _ := stats.Sum(starData)
	mean, _ := stats.Mean(starData)
	median, _ := stats.Median(starData)
	return fmt.Sprintf("Stars: %.0f total, %.1f avg, %.0f median | Forks: %d total", total, mean, median, totalForks)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
