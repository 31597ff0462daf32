package digest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"jobflow/aggregator-service/internal/cyclelock"
	"jobflow/aggregator-service/internal/storage"
)

const (
	cycleLockKey     = "lock:digest_cycle"
	cycleLockTTL     = 15 * time.Minute
	cycleDoneChannel = "EVENT_DIGEST_CYCLE_DONE"
)

// ErrCycleBusy is returned when another invocation already holds the digest
// cycle lock.
var ErrCycleBusy = errors.New("a digest cycle is already running")

// Summary is the outcome of one digest cycle.
type Summary struct {
	Sent      int      `json:"sent"`      // populated digests delivered
	SentEmpty int      `json:"sentEmpty"` // "nothing new" notices delivered
	Skipped   int      `json:"skipped"`   // users with no tracked terms
	Errors    []string `json:"errors"`
}

// Cycle builds and dispatches digests for every subscribed user. Users are
// independent: a failure for one is recorded and the loop moves on.
type Cycle struct {
	store      storage.Store
	rdb        *redis.Client // nil disables cross-instance locking and events
	lock       cyclelock.Locker
	builder    *Builder
	dispatcher *Dispatcher
	log        *zap.Logger
}

// NewCycle wires a digest cycle.
func NewCycle(store storage.Store, rdb *redis.Client, builder *Builder, dispatcher *Dispatcher, log *zap.Logger) *Cycle {
	return &Cycle{
		store:      store,
		rdb:        rdb,
		lock:       cyclelock.New(rdb, cycleLockKey, cycleLockTTL, log),
		builder:    builder,
		dispatcher: dispatcher,
		log:        log,
	}
}

// Run executes one digest cycle. Only a failure to list subscribers fails
// the cycle; everything past that point is isolated per user.
func (c *Cycle) Run(ctx context.Context) (*Summary, error) {
	switch locked, err := c.lock.Acquire(ctx); {
	case err != nil:
		c.log.Warn("cycle lock unavailable, proceeding unlocked", zap.Error(err))
	case !locked:
		return nil, ErrCycleBusy
	default:
		defer c.lock.Release(ctx)
	}

	profiles, err := c.store.SubscribedProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("load subscribed profiles: %w", err)
	}

	summary := &Summary{Errors: []string{}}
	c.log.Info("digest cycle started", zap.Int("subscribers", len(profiles)))

	for _, profile := range profiles {
		titles, err := c.store.UserSearchTitles(ctx, profile.ID)
		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: load titles: %v", profile.Email, err))
			continue
		}
		if len(titles) == 0 {
			// Nothing tracked means nothing to report — the "nothing new"
			// notice is reserved for users who are actually searching.
			summary.Skipped++
			continue
		}

		postings, err := c.builder.Build(ctx, profile.ID, titles)
		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: build digest: %v", profile.Email, err))
			continue
		}

		outcome, err := c.dispatcher.Dispatch(ctx, profile, postings)
		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", profile.Email, err))
			continue
		}

		switch outcome {
		case Sent:
			summary.Sent++
			c.log.Info("digest sent", zap.String("email", profile.Email), zap.Int("postings", len(postings)))
		case SentEmpty:
			summary.SentEmpty++
			c.log.Info("empty digest sent", zap.String("email", profile.Email))
		}
	}

	c.log.Info("digest cycle complete",
		zap.Int("sent", summary.Sent),
		zap.Int("sent_empty", summary.SentEmpty),
		zap.Int("skipped", summary.Skipped),
		zap.Int("errors", len(summary.Errors)),
	)
	c.publishDone(ctx, summary)

	return summary, nil
}

func (c *Cycle) publishDone(ctx context.Context, summary *Summary) {
	if c.rdb == nil {
		return
	}
	event, _ := json.Marshal(summary)
	if err := c.rdb.Publish(ctx, cycleDoneChannel, event).Err(); err != nil {
		c.log.Warn("publish cycle event failed", zap.Error(err))
	}
}
