// Package usecase contains the business logic of the application.
package usecase

import (
	"sort"
	"sync"
	"time"

	"github.com/keegan31/GitScan/internal/domain"
)

// Findings is the aggregate store for one scan run. It is the only
// structure mutated from multiple goroutines; every mutation is a short
// critical section under a single mutex and never spans a network call.
type Findings struct {
	mu      sync.Mutex
	target  string
	emails  map[string]struct{}
	repos   []domain.Repository
	orgs    []domain.Organization
	events  []domain.Event
	gists   []domain.Gist
	profile *domain.Profile
}

// NewFindings creates an empty aggregate for the given target.
func NewFindings(target string) *Findings {
	return &Findings{
		target: target,
		emails: make(map[string]struct{}),
	}
}

// AddRepository appends one repository record.
func (f *Findings) AddRepository(repo domain.Repository) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.repos = append(f.repos, repo)
}

// AddEmail adds a single address to the e-mail set.
func (f *Findings) AddEmail(email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emails[email] = struct{}{}
}

// AddEmails unions a set of addresses into the e-mail set.
func (f *Findings) AddEmails(emails map[string]struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for e := range emails {
		f.emails[e] = struct{}{}
	}
}

// SetProfile overwrites the profile snapshot wholesale.
func (f *Findings) SetProfile(p *domain.Profile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profile = p
}

// AddOrganizations appends organization memberships.
func (f *Findings) AddOrganizations(orgs []domain.Organization) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orgs = append(f.orgs, orgs...)
}

// AddEvents appends activity events.
func (f *Findings) AddEvents(events []domain.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, events...)
}

// AddGists appends gist records.
func (f *Findings) AddGists(gists []domain.Gist) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gists = append(f.gists, gists...)
}

// EmailCount returns the current size of the e-mail set.
func (f *Findings) EmailCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.emails)
}

// Snapshot returns an immutable copy of everything collected so far.
// E-mails are sorted lexicographically and repositories by descending
// star count so the output is deterministic regardless of worker order.
func (f *Findings) Snapshot() *domain.Report {
	f.mu.Lock()
	defer f.mu.Unlock()

	emails := make([]string, 0, len(f.emails))
	for e := range f.emails {
		emails = append(emails, e)
	}
	sort.Strings(emails)

	repos := make([]domain.Repository, len(f.repos))
	copy(repos, f.repos)
	sort.Slice(repos, func(i, j int) bool {
		if repos[i].Stars != repos[j].Stars {
			return repos[i].Stars > repos[j].Stars
		}
		return repos[i].Name < repos[j].Name
	})

	var profile *domain.Profile
	if f.profile != nil {
		p := *f.profile
		profile = &p
	}

	return &domain.Report{
		Target:        f.target,
		GeneratedAt:   time.Now(),
		Emails:        emails,
		Repositories:  repos,
		Organizations: append([]domain.Organization(nil), f.orgs...),
		Events:        append([]domain.Event(nil), f.events...),
		Gists:         append([]domain.Gist(nil), f.gists...),
		Profile:       profile,
	}
}
