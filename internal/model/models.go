// Package model defines shared data structures for the aggregator service.
package model

import "time"

// Posting is a deduplicated job posting in the canonical store (jobs table).
//
// ExternalID is the stable dedup key: "<source>_<provider-native id>", or a
// hash of the posting link when the provider exposes no native id. A row is
// immutable once stored — re-ingestion of the same key is a no-op.
type Posting struct {
	ID          int64     `json:"id"`
	ExternalID  string    `json:"externalId"`
	Source      string    `json:"source"` // "linkedin", "monster", "indeed"
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	Salary      string    `json:"salary,omitempty"`
	SearchTitle string    `json:"searchTitle"` // tracked term that produced this posting
	ScrapedAt   time.Time `json:"scrapedAt"`
}

// SearchTerm mirrors a job_titles row: one tracked search term owned by a
// user. The aggregator only reads these; creation and the five-per-user limit
// are enforced by the user-facing subsystem and the schema.
type SearchTerm struct {
	UserID    string
	Title     string
	CreatedAt time.Time
}

// RunRecord is one attempt to fetch results for a (source, search title)
// pair. CompletedAt stays nil while the run is in flight (or if the process
// crashed mid-run); exactly one of a completion or an error is recorded.
type RunRecord struct {
	ID          int64
	Source      string
	SearchTitle string
	StartedAt   time.Time
	CompletedAt *time.Time
	FoundCount  int
	SavedCount  int
	RawPayload  []byte // raw dataset items, kept for audit
	ErrorText   *string
}

// Profile is a subscribed user as the digest pipeline sees it.
type Profile struct {
	ID               string
	Email            string
	UnsubscribeToken string
}

// EmailLog records that one posting was delivered to one user. The
// (UserID, JobID) pair is unique — this is the sole guard against
// double-sending.
type EmailLog struct {
	UserID string
	JobID  int64
	SentAt time.Time
}
