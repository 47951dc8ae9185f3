// Package gateway provides a gateway to the GitHub API, wrapping the REST
// client with rate-limit handling and translating responses into domain
// records.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"time"

	"github.com/google/go-github/v69/github"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/keegan31/GitScan/internal/domain"
)

const (
	// pageSize is the page size used for repository pagination.
	pageSize = 100

	// requestTimeout bounds the worst-case block of a single call.
	requestTimeout = 30 * time.Second

	// rateLimitBackoff is the fixed sleep before retrying a throttled call.
	rateLimitBackoff = 60 * time.Second

	// maxRateLimitRetries caps back-off retries for one call.
	maxRateLimitRetries = 5

	// secondarySleepLimit is the longest secondary-rate-limit sleep the
	// transport absorbs on its own. It must stay below requestTimeout:
	// a longer throttle has to surface as an AbuseRateLimitError for
	// withRetry instead of being cut off as a client timeout.
	secondarySleepLimit = 20 * time.Second

	// proactiveRate keeps requests under the authenticated hourly quota
	// before the API has to push back.
	proactiveRate = 1.2

	// maxRawFileBytes caps how much of a raw file body is read.
	maxRawFileBytes = 1 << 20
)

// ErrRateLimitExhausted is returned once a call has been throttled more
// than maxRateLimitRetries times in a row.
var ErrRateLimitExhausted = errors.New("github: rate limit retries exhausted")

// Fetcher defines the behavior of a gateway for fetching information from GitHub.
type Fetcher interface {
	ListRepositories(ctx context.Context, user string) ([]domain.Repository, error)
	ListCommits(ctx context.Context, owner, repo string) ([]domain.Commit, error)
	SearchCode(ctx context.Context, owner, repo string, limit int) ([]string, error)
	FetchRawFile(ctx context.Context, url string) (string, error)
	GetProfile(ctx context.Context, user string) (*domain.Profile, error)
	ListEvents(ctx context.Context, user string, limit int) ([]domain.Event, error)
	ListOrganizations(ctx context.Context, user string) ([]domain.Organization, error)
	ListGists(ctx context.Context, user string, limit int) ([]domain.Gist, error)
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	client     *github.Client
	rawClient  *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
	backoff    time.Duration
	maxRetries int
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
func NewGitHubGateway(token string, logger *log.Logger) (*GitHubGateway, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(secondarySleepLimit, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := &http.Client{
		Timeout: requestTimeout,
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}
	return &GitHubGateway{
		client:     github.NewClient(httpClient),
		rawClient:  &http.Client{Timeout: requestTimeout},
		limiter:    rate.NewLimiter(rate.Limit(proactiveRate), 1),
		logger:     logger,
		backoff:    rateLimitBackoff,
		maxRetries: maxRateLimitRetries,
	}, nil
}

// withRetry runs one API call, waiting on the proactive limiter first and
// retrying with a fixed back-off when a rate limit is hit. Any other
// failure is returned to the caller untouched. After a throttled attempt
// the client holds the rate-limit state in its cache and would answer
// retries from it without touching the network, so retry attempts carry
// the bypass flag and the back-off sleep alone paces them.
func (g *GitHubGateway) withRetry(ctx context.Context, stage string, call func(ctx context.Context) error) error {
	for attempt := 0; ; attempt++ {
		if err := g.limiter.Wait(ctx); err != nil {
			return err
		}
		err := call(ctx)
		if err == nil {
			return nil
		}
		if !isRateLimited(err) {
			return err
		}
		if attempt >= g.maxRetries {
			return fmt.Errorf("%s: %w", stage, ErrRateLimitExhausted)
		}
		g.logger.Printf("[WARN] rate limited on %s, backing off %s (attempt %d/%d)", stage, g.backoff, attempt+1, g.maxRetries)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(g.backoff):
		}
		ctx = context.WithValue(ctx, github.BypassRateLimitCheck, true)
	}
}

func isRateLimited(err error) bool {
	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	return errors.As(err, &rateErr) || errors.As(err, &abuseErr)
}

// ListRepositories pages through the target's public repositories.
// Pagination stops on an empty or short page. On error the repositories
// accumulated so far are returned alongside it.
func (g *GitHubGateway) ListRepositories(ctx context.Context, user string) ([]domain.Repository, error) {
	var all []domain.Repository
	opts := &github.RepositoryListByUserOptions{
		ListOptions: github.ListOptions{Page: 1, PerPage: pageSize},
	}
	for {
		var page []*github.Repository
		err := g.withRetry(ctx, fmt.Sprintf("list repositories page %d", opts.Page), func(ctx context.Context) error {
			var err error
			page, _, err = g.client.Repositories.ListByUser(ctx, user, opts)
			return err
		})
		if err != nil {
			return all, fmt.Errorf("failed to list repositories for %s: %w", user, err)
		}
		for _, r := range page {
			all = append(all, newRepository(r))
		}
		g.logger.Printf("[INFO] page %d: found %d repositories", opts.Page, len(page))
		if len(page) < pageSize {
			return all, nil
		}
		opts.Page++
	}
}

// ListCommits returns the author and committer e-mail fields of the most
// recent page of commits.
func (g *GitHubGateway) ListCommits(ctx context.Context, owner, repo string) ([]domain.Commit, error) {
	var page []*github.RepositoryCommit
	opts := &github.CommitsListOptions{ListOptions: github.ListOptions{PerPage: pageSize}}
	err := g.withRetry(ctx, fmt.Sprintf("list commits of %s/%s", owner, repo), func(ctx context.Context) error {
		var err error
		page, _, err = g.client.Repositories.ListCommits(ctx, owner, repo, opts)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list commits of %s/%s: %w", owner, repo, err)
	}
	commits := make([]domain.Commit, 0, len(page))
	for _, c := range page {
		commits = append(commits, domain.Commit{
			AuthorEmail:    c.GetCommit().GetAuthor().GetEmail(),
			CommitterEmail: c.GetCommit().GetCommitter().GetEmail(),
		})
	}
	return commits, nil
}

// SearchCode returns the web URLs of up to limit code-search hits for
// files of the repository likely to contain an e-mail address.
func (g *GitHubGateway) SearchCode(ctx context.Context, owner, repo string, limit int) ([]string, error) {
	query := fmt.Sprintf("repo:%s/%s %q", owner, repo, "@")
	var result *github.CodeSearchResult
	opts := &github.SearchOptions{ListOptions: github.ListOptions{PerPage: limit}}
	err := g.withRetry(ctx, fmt.Sprintf("code search in %s/%s", owner, repo), func(ctx context.Context) error {
		var err error
		result, _, err = g.client.Search.Code(ctx, query, opts)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search code in %s/%s: %w", owner, repo, err)
	}
	var urls []string
	for _, hit := range result.CodeResults {
		if len(urls) == limit {
			break
		}
		if u := hit.GetHTMLURL(); u != "" {
			urls = append(urls, u)
		}
	}
	return urls, nil
}

// FetchRawFile retrieves a raw file body. Raw content is not served by the
// API host, so the call goes through a plain HTTP client without the
// bearer credential.
func (g *GitHubGateway) FetchRawFile(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build raw file request: %w", err)
	}
	resp, err := g.rawClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch raw file %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d fetching raw file %s", resp.StatusCode, url)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRawFileBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read raw file %s: %w", url, err)
	}
	return string(body), nil
}

// GetProfile fetches the account-level metadata of the target.
func (g *GitHubGateway) GetProfile(ctx context.Context, user string) (*domain.Profile, error) {
	var u *github.User
	err := g.withRetry(ctx, "get profile", func(ctx context.Context) error {
		var err error
		u, _, err = g.client.Users.Get(ctx, user)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile of %s: %w", user, err)
	}
	return &domain.Profile{
		Login:       u.GetLogin(),
		Name:        u.GetName(),
		Email:       u.GetEmail(),
		Company:     u.GetCompany(),
		Location:    u.GetLocation(),
		Blog:        u.GetBlog(),
		Bio:         u.GetBio(),
		PublicRepos: u.GetPublicRepos(),
		Followers:   u.GetFollowers(),
		Following:   u.GetFollowing(),
		CreatedAt:   u.GetCreatedAt().Time,
		UpdatedAt:   u.GetUpdatedAt().Time,
	}, nil
}

// ListEvents returns up to limit entries of the target's public activity.
func (g *GitHubGateway) ListEvents(ctx context.Context, user string, limit int) ([]domain.Event, error) {
	var page []*github.Event
	opts := &github.ListOptions{PerPage: limit}
	err := g.withRetry(ctx, "list events", func(ctx context.Context) error {
		var err error
		page, _, err = g.client.Activity.ListEventsPerformedByUser(ctx, user, true, opts)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list events of %s: %w", user, err)
	}
	var events []domain.Event
	for _, e := range page {
		if len(events) == limit {
			break
		}
		repo := e.GetRepo().GetName()
		if repo == "" {
			repo = domain.NoRepo
		}
		events = append(events, domain.Event{
			Type:      e.GetType(),
			Repo:      repo,
			CreatedAt: e.GetCreatedAt().Time,
		})
	}
	return events, nil
}

// ListOrganizations returns the target's public organization memberships.
func (g *GitHubGateway) ListOrganizations(ctx context.Context, user string) ([]domain.Organization, error) {
	var page []*github.Organization
	err := g.withRetry(ctx, "list organizations", func(ctx context.Context) error {
		var err error
		page, _, err = g.client.Organizations.List(ctx, user, nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations of %s: %w", user, err)
	}
	orgs := make([]domain.Organization, 0, len(page))
	for _, o := range page {
		orgs = append(orgs, domain.Organization{
			Name:        o.GetLogin(),
			Description: o.GetDescription(),
		})
	}
	return orgs, nil
}

// ListGists returns up to limit of the target's public gists.
func (g *GitHubGateway) ListGists(ctx context.Context, user string, limit int) ([]domain.Gist, error) {
	var page []*github.Gist
	err := g.withRetry(ctx, "list gists", func(ctx context.Context) error {
		var err error
		page, _, err = g.client.Gists.List(ctx, user, nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list gists of %s: %w", user, err)
	}
	var gists []domain.Gist
	for _, gist := range page {
		if len(gists) == limit {
			break
		}
		files := make([]string, 0, len(gist.Files))
		for name := range gist.Files {
			files = append(files, string(name))
		}
		sort.Strings(files)
		gists = append(gists, domain.Gist{
			ID:          gist.GetID(),
			Description: gist.GetDescription(),
			Files:       files,
			CreatedAt:   gist.GetCreatedAt().Time,
		})
	}
	return gists, nil
}

func newRepository(r *github.Repository) domain.Repository {
	return domain.Repository{
		Name:        r.GetName(),
		FullName:    r.GetFullName(),
		Description: r.GetDescription(),
		Language:    r.GetLanguage(),
		Stars:       r.GetStargazersCount(),
		Forks:       r.GetForksCount(),
		Watchers:    r.GetWatchersCount(),
		Size:        r.GetSize(),
		CreatedAt:   r.GetCreatedAt().Time,
		UpdatedAt:   r.GetUpdatedAt().Time,
		PushedAt:    r.GetPushedAt().Time,
		URL:         r.GetHTMLURL(),
		CloneURL:    r.GetCloneURL(),
	}
}
