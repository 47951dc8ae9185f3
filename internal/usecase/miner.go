package usecase

import (
	"context"
	"log"
	"strings"

	"github.com/keegan31/GitScan/internal/domain"
	"github.com/keegan31/GitScan/internal/gateway"
)

const (
	// commitScanLimit caps how many commits of the first page are
	// inspected per repository. Recall/cost trade-off.
	commitScanLimit = 50

	// codeSearchLimit caps how many code-search hits are fetched per
	// repository.
	codeSearchLimit = 10
)

// Miner extracts personal e-mail addresses from a single repository. Both
// sub-scans are best-effort: a failure degrades to an empty contribution
// and is logged, never raised past the miner.
type Miner struct {
	fetcher gateway.Fetcher
	logger  *log.Logger
}

// NewMiner creates a new Miner instance.
func NewMiner(fetcher gateway.Fetcher, logger *log.Logger) *Miner {
	return &Miner{
		fetcher: fetcher,
		logger:  logger,
	}
}

// Mine runs the commit scan and the code-search scan to completion and
// returns the union of the personal addresses they found.
func (m *Miner) Mine(ctx context.Context, owner, repo string) map[string]struct{} {
	emails := make(map[string]struct{})
	m.scanCommits(ctx, owner, repo, emails)
	m.scanCode(ctx, owner, repo, emails)
	return emails
}

// scanCommits inspects the author and committer e-mail of the most recent
// commits.
func (m *Miner) scanCommits(ctx context.Context, owner, repo string, emails map[string]struct{}) {
	commits, err := m.fetcher.ListCommits(ctx, owner, repo)
	if err != nil {
		m.logger.Printf("[WARN] commit scan of %s failed: %v", repo, err)
		return
	}
	for i, c := range commits {
		if i == commitScanLimit {
			break
		}
		if c.AuthorEmail != "" && domain.IsPersonalEmail(c.AuthorEmail) {
			emails[c.AuthorEmail] = struct{}{}
		}
		if c.CommitterEmail != "" && domain.IsPersonalEmail(c.CommitterEmail) {
			emails[c.CommitterEmail] = struct{}{}
		}
	}
}

// scanCode searches the repository for files likely to contain an e-mail
// address, fetches each hit's raw content and extracts matches. A failure
// on an individual file is skipped and scanning continues.
func (m *Miner) scanCode(ctx context.Context, owner, repo string, emails map[string]struct{}) {
	urls, err := m.fetcher.SearchCode(ctx, owner, repo, codeSearchLimit)
	if err != nil {
		m.logger.Printf("[WARN] code scan of %s failed: %v", repo, err)
		return
	}
	for _, u := range urls {
		body, err := m.fetcher.FetchRawFile(ctx, rawContentURL(u))
		if err != nil {
			m.logger.Printf("[WARN] skipping file in %s: %v", repo, err)
			continue
		}
		for _, e := range domain.ExtractEmails(body) {
			if domain.IsPersonalEmail(e) {
				emails[e] = struct{}{}
			}
		}
	}
}

// rawContentURL rewrites a file's web URL to its raw-content URL.
func rawContentURL(htmlURL string) string {
	raw := strings.Replace(htmlURL, "github.com", "raw.githubusercontent.com", 1)
	return strings.Replace(raw, "/blob/", "/", 1)
}
