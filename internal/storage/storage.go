// Package storage defines the persistence interface for the aggregator and
// its PostgreSQL implementation. All cross-cycle state (postings, run
// history, delivery evidence) lives here; no component keeps state in memory
// between invocations.
package storage

import (
	"context"

	"jobflow/aggregator-service/internal/model"
)

// Store is the interface for all persistence operations.
type Store interface {
	// DistinctSearchTitles returns every tracked search term across all
	// users, case-insensitively de-duplicated. This is the scrape work list.
	DistinctSearchTitles(ctx context.Context) ([]string, error)

	// UserSearchTitles returns the terms tracked by one user.
	UserSearchTitles(ctx context.Context, userID string) ([]string, error)

	// SubscribedProfiles returns every user currently opted in to digests.
	SubscribedProfiles(ctx context.Context) ([]model.Profile, error)

	// InsertPosting stores a canonical posting. Returns true when a new row
	// was created and false when the external key already existed; existing
	// rows are never modified.
	InsertPosting(ctx context.Context, p *model.Posting) (bool, error)

	// UnnotifiedPostings returns postings whose originating search title
	// matches one of titles (case-insensitive) and which have no email log
	// for userID, newest first, at most limit rows.
	UnnotifiedPostings(ctx context.Context, userID string, titles []string, limit int) ([]model.Posting, error)

	// BeginRun creates an in-flight run record and returns its id.
	BeginRun(ctx context.Context, source, searchTitle string) (int64, error)

	// CompleteRun closes a run record with its counts and raw payload.
	CompleteRun(ctx context.Context, runID int64, found, saved int, rawPayload []byte) error

	// FailRun closes a run record with an error.
	FailRun(ctx context.Context, runID int64, errText string) error

	// LastCleanRun returns the most recent run for the pair that has no
	// error recorded, or nil when none exists. In-flight runs count: a
	// concurrently running pair must not be re-submitted.
	LastCleanRun(ctx context.Context, source, searchTitle string) (*model.RunRecord, error)

	// MarkNotified records that a posting was emailed to a user. Writing an
	// already-present (user, posting) pair is a no-op.
	MarkNotified(ctx context.Context, userID string, jobID int64) error
}
