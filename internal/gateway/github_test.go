package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-github/v69/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/keegan31/GitScan/internal/domain"
)

// newTestGateway creates a GitHubGateway that talks to a mock HTTP server,
// with a negligible back-off so retry paths run fast.
func newTestGateway(t *testing.T, handler http.Handler) (*GitHubGateway, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := github.NewClient(server.Client())
	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	client.BaseURL = baseURL

	gateway := &GitHubGateway{
		client:     client,
		rawClient:  server.Client(),
		limiter:    rate.NewLimiter(rate.Inf, 1),
		logger:     log.New(io.Discard, "", 0),
		backoff:    time.Millisecond,
		maxRetries: 2,
	}
	return gateway, server
}

func repoPageJSON(n int) string {
	items := make([]string, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, fmt.Sprintf(`{"name":"repo-%d"}`, i))
	}
	return "[" + strings.Join(items, ",") + "]"
}

func writeRateLimited(w http.ResponseWriter) {
	w.Header().Set("X-RateLimit-Limit", "60")
	w.Header().Set("X-RateLimit-Remaining", "0")
	w.Header().Set("X-RateLimit-Reset", fmt.Sprint(time.Now().Add(time.Hour).Unix()))
	w.WriteHeader(http.StatusForbidden)
	fmt.Fprint(w, `{"message": "API rate limit exceeded"}`)
}

func TestGitHubGateway_ListRepositories_PaginationStopsOnShortPage(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/users/target/repos")
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprint(w, repoPageJSON(100))
		case "2":
			fmt.Fprint(w, repoPageJSON(3))
		default:
			t.Errorf("unexpected page request: %s", r.URL.String())
		}
	})
	gateway, _ := newTestGateway(t, handler)

	repos, err := gateway.ListRepositories(context.Background(), "target")
	assert.NoError(t, err)
	assert.Len(t, repos, 103)
}

func TestGitHubGateway_ListRepositories_RetriesRateLimitedPage(t *testing.T) {
	var pageTwoCalls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprint(w, repoPageJSON(100))
		case "2":
			if pageTwoCalls.Add(1) == 1 {
				writeRateLimited(w)
				return
			}
			fmt.Fprint(w, repoPageJSON(2))
		}
	})
	gateway, _ := newTestGateway(t, handler)

	repos, err := gateway.ListRepositories(context.Background(), "target")
	assert.NoError(t, err)
	// Page 1 plus the retried page 2, nothing dropped and nothing doubled.
	assert.Len(t, repos, 102)
	assert.Equal(t, int32(2), pageTwoCalls.Load())
}

func TestGitHubGateway_ListRepositories_ClientErrorAbortsPagination(t *testing.T) {
	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Query().Get("page") == "1" {
			fmt.Fprint(w, repoPageJSON(100))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"message": "boom"}`)
	})
	gateway, _ := newTestGateway(t, handler)

	repos, err := gateway.ListRepositories(context.Background(), "target")
	assert.Error(t, err)
	// Already-retrieved pages survive, and client errors are not retried.
	assert.Len(t, repos, 100)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGitHubGateway_ListRepositories_RateLimitExhausted(t *testing.T) {
	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeRateLimited(w)
	})
	gateway, _ := newTestGateway(t, handler)

	_, err := gateway.ListRepositories(context.Background(), "target")
	assert.ErrorIs(t, err, ErrRateLimitExhausted)
	// Initial attempt plus maxRetries retries.
	assert.Equal(t, int32(3), calls.Load())
}

// A secondary rate limit whose Retry-After exceeds the transport's sleep
// budget must surface as an AbuseRateLimitError and go through the normal
// back-off retry, not stall until the client timeout kills the request.
func TestGitHubGateway_SecondaryRateLimitRetriedWithoutStalling(t *testing.T) {
	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `{"message": "You have exceeded a secondary rate limit. Please wait a few minutes before you try again.", "documentation_url": "https://docs.github.com/en/free-pro-team@latest/rest/overview/resources-in-the-rest-api#secondary-rate-limits"}`)
			return
		}
		fmt.Fprint(w, `[]`)
	})
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	// Full production transport chain: oauth2 wrapping the rate-limit
	// waiter. Only the pacing knobs are turned down.
	gateway, err := NewGitHubGateway("test-token", log.New(io.Discard, "", 0))
	require.NoError(t, err)
	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	gateway.client.BaseURL = baseURL
	gateway.limiter = rate.NewLimiter(rate.Inf, 1)
	gateway.backoff = time.Millisecond
	gateway.maxRetries = 2

	start := time.Now()
	orgs, err := gateway.ListOrganizations(context.Background(), "target")
	assert.NoError(t, err)
	assert.Empty(t, orgs)
	assert.Equal(t, int32(2), calls.Load())
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestGitHubGateway_ListCommits(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/repos/owner/repo/commits")
		fmt.Fprint(w, `[
			{"commit": {"author": {"email": "alice@gmail.com"}, "committer": {"email": "bot@megacorp.io"}}},
			{"commit": {"author": {"email": "bob@yahoo.com"}}}
		]`)
	})
	gateway, _ := newTestGateway(t, handler)

	commits, err := gateway.ListCommits(context.Background(), "owner", "repo")
	assert.NoError(t, err)
	assert.Equal(t, []domain.Commit{
		{AuthorEmail: "alice@gmail.com", CommitterEmail: "bot@megacorp.io"},
		{AuthorEmail: "bob@yahoo.com"},
	}, commits)
}

func TestGitHubGateway_SearchCode(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/search/code")
		assert.Contains(t, r.URL.Query().Get("q"), "repo:owner/repo")
		fmt.Fprint(w, `{"total_count": 3, "incomplete_results": false, "items": [
			{"html_url": "https://github.com/owner/repo/blob/main/a.txt"},
			{"html_url": "https://github.com/owner/repo/blob/main/b.txt"},
			{"html_url": "https://github.com/owner/repo/blob/main/c.txt"}
		]}`)
	})
	gateway, _ := newTestGateway(t, handler)

	urls, err := gateway.SearchCode(context.Background(), "owner", "repo", 2)
	assert.NoError(t, err)
	assert.Equal(t, []string{
		"https://github.com/owner/repo/blob/main/a.txt",
		"https://github.com/owner/repo/blob/main/b.txt",
	}, urls)
}

func TestGitHubGateway_FetchRawFile(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.txt" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, "contact alice@gmail.com")
	})
	gateway, server := newTestGateway(t, handler)

	body, err := gateway.FetchRawFile(context.Background(), server.URL+"/found.txt")
	assert.NoError(t, err)
	assert.Equal(t, "contact alice@gmail.com", body)

	_, err = gateway.FetchRawFile(context.Background(), server.URL+"/missing.txt")
	assert.Error(t, err)
}

func TestGitHubGateway_GetProfile(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/users/target")
		fmt.Fprint(w, `{
			"login": "target", "name": "Target User", "email": "target@gmail.com",
			"company": "ACME", "location": "Lisbon", "blog": "https://example.org",
			"bio": "hello", "public_repos": 7, "followers": 12, "following": 3,
			"created_at": "2015-04-01T10:00:00Z", "updated_at": "2024-01-01T00:00:00Z"
		}`)
	})
	gateway, _ := newTestGateway(t, handler)

	profile, err := gateway.GetProfile(context.Background(), "target")
	require.NoError(t, err)
	assert.Equal(t, "target", profile.Login)
	assert.Equal(t, "target@gmail.com", profile.Email)
	assert.Equal(t, 7, profile.PublicRepos)
	assert.Equal(t, 2015, profile.CreatedAt.Year())
}

func TestGitHubGateway_ListEvents(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/users/target/events/public")
		fmt.Fprint(w, `[
			{"type": "PushEvent", "repo": {"name": "target/repo-a"}, "created_at": "2024-06-01T00:00:00Z"},
			{"type": "WatchEvent", "created_at": "2024-06-02T00:00:00Z"},
			{"type": "ForkEvent", "repo": {"name": "target/repo-b"}, "created_at": "2024-06-03T00:00:00Z"}
		]`)
	})
	gateway, _ := newTestGateway(t, handler)

	events, err := gateway.ListEvents(context.Background(), "target", 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "target/repo-a", events[0].Repo)
	// Events with no repository carry the sentinel.
	assert.Equal(t, domain.NoRepo, events[1].Repo)
}

func TestGitHubGateway_ListGists(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/users/target/gists")
		fmt.Fprint(w, `[
			{"id": "g1", "description": "snippets", "files": {"z.txt": {}, "a.txt": {}}, "created_at": "2024-02-01T00:00:00Z"},
			{"id": "g2", "files": {}, "created_at": "2024-03-01T00:00:00Z"}
		]`)
	})
	gateway, _ := newTestGateway(t, handler)

	gists, err := gateway.ListGists(context.Background(), "target", 1)
	require.NoError(t, err)
	require.Len(t, gists, 1)
	assert.Equal(t, "g1", gists[0].ID)
	assert.Equal(t, []string{"a.txt", "z.txt"}, gists[0].Files)
}

func TestGitHubGateway_ListOrganizations_Error(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message": "Not Found"}`)
	})
	gateway, _ := newTestGateway(t, handler)

	_, err := gateway.ListOrganizations(context.Background(), "target")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrRateLimitExhausted))
}
