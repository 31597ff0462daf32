package digest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"jobflow/aggregator-service/internal/mailer"
	"jobflow/aggregator-service/internal/model"
	"jobflow/aggregator-service/internal/storage"
)

// Outcome reports what Dispatch did for one user.
type Outcome int

const (
	// Sent means a populated digest was delivered.
	Sent Outcome = iota
	// SentEmpty means the "nothing new" notice was delivered.
	SentEmpty
)

// Dispatcher sends one user's digest and records delivery. Email logs are
// written only after a confirmed send, so a transport failure leaves the
// postings eligible for the next cycle instead of silently lost.
type Dispatcher struct {
	renderer mailer.Renderer
	sender   mailer.Sender
	store    storage.Store
	log      *zap.Logger
}

// NewDispatcher wires a Dispatcher.
func NewDispatcher(renderer mailer.Renderer, sender mailer.Sender, store storage.Store, log *zap.Logger) *Dispatcher {
	return &Dispatcher{renderer: renderer, sender: sender, store: store, log: log}
}

// Dispatch delivers the digest to one user. An empty digest sends the
// explicit "nothing new" variant and records nothing. A failed per-posting
// log write is reported but does not fail the dispatch — the unique
// (user, posting) constraint absorbs the resulting retry on the next cycle.
func (d *Dispatcher) Dispatch(ctx context.Context, profile model.Profile, postings []model.Posting) (Outcome, error) {
	if len(postings) == 0 {
		msg, err := d.renderer.Empty(profile)
		if err != nil {
			return SentEmpty, fmt.Errorf("render: %w", err)
		}
		if err := d.sender.Send(ctx, msg); err != nil {
			return SentEmpty, fmt.Errorf("send: %w", err)
		}
		return SentEmpty, nil
	}

	msg, err := d.renderer.Digest(profile, postings)
	if err != nil {
		return Sent, fmt.Errorf("render: %w", err)
	}
	if err := d.sender.Send(ctx, msg); err != nil {
		return Sent, fmt.Errorf("send: %w", err)
	}

	for _, p := range postings {
		if err := d.store.MarkNotified(ctx, profile.ID, p.ID); err != nil {
			d.log.Warn("email log write failed",
				zap.String("user_id", profile.ID),
				zap.Int64("job_id", p.ID),
				zap.Error(err),
			)
		}
	}
	return Sent, nil
}
