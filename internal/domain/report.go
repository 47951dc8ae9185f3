package domain

import "time"

// Report is the immutable snapshot of everything collected for one target.
// It is produced after all workers have joined and is safe to read without
// synchronization.
type Report struct {
	Target        string         `json:"target"`
	GeneratedAt   time.Time      `json:"generated_at"`
	Emails        []string       `json:"emails"`
	Repositories  []Repository   `json:"repositories"`
	Organizations []Organization `json:"organizations"`
	Events        []Event        `json:"events"`
	Gists         []Gist         `json:"gists"`
	Profile       *Profile       `json:"profile,omitempty"`
}
