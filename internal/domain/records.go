// Package domain contains the core data structures and domain logic for the application.
package domain

import "time"

// Repository holds the metadata collected for a single public repository.
// Records are immutable once appended to the findings.
type Repository struct {
	Name        string    `json:"name"`
	FullName    string    `json:"full_name"`
	Description string    `json:"description"`
	Language    string    `json:"language"`
	Stars       int       `json:"stars"`
	Forks       int       `json:"forks"`
	Watchers    int       `json:"watchers"`
	Size        int       `json:"size"`
	CreatedAt   time.Time `json:"created"`
	UpdatedAt   time.Time `json:"updated"`
	PushedAt    time.Time `json:"pushed"`
	URL         string    `json:"url"`
	CloneURL    string    `json:"clone_url"`
}

// Organization is one organization membership of the target account.
type Organization struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// NoRepo is the repository sentinel for events that carry no repository.
const NoRepo = "none"

// Event is one entry of the target's public activity feed.
type Event struct {
	Type      string    `json:"type"`
	Repo      string    `json:"repo"`
	CreatedAt time.Time `json:"created_at"`
}

// Gist describes one public gist owned by the target.
type Gist struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Files       []string  `json:"files"`
	CreatedAt   time.Time `json:"created_at"`
}

// Profile is the account-level metadata of the target. It is overwritten
// wholesale when fetched more than once.
type Profile struct {
	Login       string    `json:"login"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Company     string    `json:"company"`
	Location    string    `json:"location"`
	Blog        string    `json:"blog"`
	Bio         string    `json:"bio"`
	PublicRepos int       `json:"public_repos"`
	Followers   int       `json:"followers"`
	Following   int       `json:"following"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Commit carries the two e-mail fields inspected during a commit scan.
type Commit struct {
	AuthorEmail    string `json:"author_email"`
	CommitterEmail string `json:"committer_email"`
}
