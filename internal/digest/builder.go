// Package digest computes per-user digests of newly observed postings and
// dispatches them through the mail boundary, recording at-most-once delivery
// per (user, posting).
package digest

import (
	"context"

	"jobflow/aggregator-service/internal/model"
	"jobflow/aggregator-service/internal/storage"
)

// Builder computes the digest for one user: postings whose originating
// search title matches one of the user's tracked terms (case-insensitive)
// and which have never been emailed to that user. Pure read, no side effects.
type Builder struct {
	store storage.Store
	limit int
}

// NewBuilder returns a Builder capping digests at limit postings.
func NewBuilder(store storage.Store, limit int) *Builder {
	return &Builder{store: store, limit: limit}
}

// Build returns the digest postings for one user, newest first, capped at
// the configured limit. Candidates beyond the cap stay eligible for the next
// cycle — nothing is marked here.
func (b *Builder) Build(ctx context.Context, userID string, titles []string) ([]model.Posting, error) {
	if len(titles) == 0 {
		return nil, nil
	}
	return b.store.UnnotifiedPostings(ctx, userID, titles, b.limit)
}
