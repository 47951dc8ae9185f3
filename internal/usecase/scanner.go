package usecase

import (
	"context"
	"log"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/keegan31/GitScan/internal/domain"
	"github.com/keegan31/GitScan/internal/gateway"
)

const (
	// DefaultConcurrency is the default worker pool size.
	DefaultConcurrency = 5

	// eventLimit caps how many public events are surfaced.
	eventLimit = 20

	// gistLimit caps how many gists are surfaced.
	gistLimit = 5
)

// Scanner is the use case for one reconnaissance run. It fans repository
// scans out over a bounded worker pool, merges the results into the
// aggregate and then collects the account-level data sequentially.
type Scanner struct {
	fetcher gateway.Fetcher
	miner   *Miner
	logger  *log.Logger
	workers int
}

// NewScanner creates a new Scanner instance.
func NewScanner(fetcher gateway.Fetcher, logger *log.Logger, workers int) *Scanner {
	if workers <= 0 {
		workers = DefaultConcurrency
	}
	return &Scanner{
		fetcher: fetcher,
		miner:   NewMiner(fetcher, logger),
		logger:  logger,
		workers: workers,
	}
}

// Run performs the full scan and returns the final snapshot. No single
// repository or account-level lookup failure aborts the run; the snapshot
// reflects whatever was actually collected.
func (s *Scanner) Run(ctx context.Context, target string) *domain.Report {
	findings := NewFindings(target)

	s.logger.Printf("[INFO] scanning all repositories for: %s", target)
	repos, err := s.fetcher.ListRepositories(ctx, target)
	if err != nil {
		s.logger.Printf("[ERROR] repository listing incomplete: %v (continuing with %d repositories)", err, len(repos))
	}
	s.logger.Printf("[INFO] analyzing %d repositories with %d workers", len(repos), s.workers)

	// One task per repository. Tasks never return an error to the group:
	// a failing repository is logged and its siblings keep running.
	g := new(errgroup.Group)
	g.SetLimit(s.workers)
	for i, repo := range repos {
		g.Go(func() error {
			s.scanRepository(ctx, findings, target, repo, i+1, len(repos))
			return nil
		})
	}
	_ = g.Wait()

	// Repository data is fully collected before the account-level
	// lookups run.
	s.collectProfile(ctx, findings, target)
	s.collectEvents(ctx, findings, target)
	s.collectOrganizations(ctx, findings, target)
	s.collectGists(ctx, findings, target)

	s.logger.Printf("[INFO] scan of %s complete: %d unique e-mail addresses", target, findings.EmailCount())
	return findings.Snapshot()
}

// scanRepository is one unit of work. A panic inside it is recovered here
// so that it counts as a logged failure instead of killing the pool.
func (s *Scanner) scanRepository(ctx context.Context, findings *Findings, target string, repo domain.Repository, index, total int) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Printf("[ERROR] scan of %s failed: %v", repo.Name, r)
		}
	}()

	s.logger.Printf("[INFO] [%d/%d] scanning: %s", index, total, repo.Name)
	findings.AddRepository(repo)
	findings.AddEmails(s.miner.Mine(ctx, target, repo.Name))
}

func (s *Scanner) collectProfile(ctx context.Context, findings *Findings, target string) {
	s.logger.Printf("[INFO] retrieving user information...")
	profile, err := s.fetcher.GetProfile(ctx, target)
	if err != nil {
		s.logger.Printf("[ERROR] user lookup failed: %v", err)
		return
	}
	findings.SetProfile(profile)
	if profile.Email != "" {
		findings.AddEmail(profile.Email)
	}
}

func (s *Scanner) collectEvents(ctx context.Context, findings *Findings, target string) {
	s.logger.Printf("[INFO] analyzing recent activity...")
	events, err := s.fetcher.ListEvents(ctx, target, eventLimit)
	if err != nil {
		s.logger.Printf("[ERROR] event lookup failed: %v", err)
		return
	}
	findings.AddEvents(events)
	s.logger.Printf("[INFO] found %d public events", len(events))
	s.logEventDistribution(events)
}

func (s *Scanner) logEventDistribution(events []domain.Event) {
	if len(events) == 0 {
		return
	}
	dist := make(map[string]int)
	for _, e := range events {
		dist[e.Type]++
	}
	types := make([]string, 0, len(dist))
	for t := range dist {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		s.logger.Printf("[INFO]   %s: %d", t, dist[t])
	}
}

func (s *Scanner) collectOrganizations(ctx context.Context, findings *Findings, target string) {
	s.logger.Printf("[INFO] checking organizations...")
	orgs, err := s.fetcher.ListOrganizations(ctx, target)
	if err != nil {
		s.logger.Printf("[WARN] organization lookup failed: %v", err)
		return
	}
	findings.AddOrganizations(orgs)
	s.logger.Printf("[INFO] found %d organizations", len(orgs))
}

func (s *Scanner) collectGists(ctx context.Context, findings *Findings, target string) {
	s.logger.Printf("[INFO] scanning gists...")
	gists, err := s.fetcher.ListGists(ctx, target, gistLimit)
	if err != nil {
		s.logger.Printf("[WARN] gist lookup failed: %v", err)
		return
	}
	findings.AddGists(gists)
	s.logger.Printf("[INFO] found %d gists", len(gists))
}
