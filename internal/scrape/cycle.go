package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"jobflow/aggregator-service/internal/cyclelock"
	"jobflow/aggregator-service/internal/provider"
	"jobflow/aggregator-service/internal/storage"
)

const (
	cycleLockKey     = "lock:scrape_cycle"
	cycleLockTTL     = 30 * time.Minute
	cycleDoneChannel = "EVENT_SCRAPE_CYCLE_DONE"
)

// Summary is the outcome of one scrape cycle, returned to the trigger caller
// and published on Redis. Item errors are collected, never propagated — a
// cycle with failed items is still a successful cycle.
type Summary struct {
	Ran           int            `json:"ran"`
	Skipped       int            `json:"skipped"`
	FoundBySource map[string]int `json:"foundBySource"`
	SavedBySource map[string]int `json:"savedBySource"`
	Errors        []string       `json:"errors"`
}

// Cycle runs one full scrape pass: every tracked search term crossed with
// every provider adapter, minus the pairs the recency gate suppresses,
// processed by a bounded worker pool.
type Cycle struct {
	store    storage.Store
	rdb      *redis.Client // nil disables cross-instance locking and events
	lock     cyclelock.Locker
	adapters []provider.Adapter
	orch     *Orchestrator
	ingester *Ingester
	window   time.Duration
	limit    int
	workers  int
	log      *zap.Logger
}

// NewCycle wires a scrape cycle.
func NewCycle(
	store storage.Store,
	rdb *redis.Client,
	adapters []provider.Adapter,
	orch *Orchestrator,
	ingester *Ingester,
	window time.Duration,
	limit, workers int,
	log *zap.Logger,
) *Cycle {
	return &Cycle{
		store:    store,
		rdb:      rdb,
		lock:     cyclelock.New(rdb, cycleLockKey, cycleLockTTL, log),
		adapters: adapters,
		orch:     orch,
		ingester: ingester,
		window:   window,
		limit:    limit,
		workers:  workers,
		log:      log,
	}
}

type workItem struct {
	adapter provider.Adapter
	term    string
}

// Run executes one scrape cycle. It returns ErrCycleBusy when another
// invocation holds the cycle lock, an error when the work list itself cannot
// be loaded, and a Summary otherwise — per-item failures land in
// Summary.Errors, not in the returned error.
func (c *Cycle) Run(ctx context.Context) (*Summary, error) {
	switch locked, err := c.lock.Acquire(ctx); {
	case err != nil:
		c.log.Warn("cycle lock unavailable, proceeding unlocked", zap.Error(err))
	case !locked:
		return nil, ErrCycleBusy
	default:
		defer c.lock.Release(ctx)
	}

	titles, err := c.store.DistinctSearchTitles(ctx)
	if err != nil {
		return nil, fmt.Errorf("load search titles: %w", err)
	}

	summary := &Summary{
		FoundBySource: make(map[string]int),
		SavedBySource: make(map[string]int),
		Errors:        []string{},
	}

	if len(titles) == 0 {
		c.log.Info("no tracked search terms, nothing to scrape")
		return summary, nil
	}

	work := c.buildWorkList(ctx, titles, summary)
	c.log.Info("scrape cycle started",
		zap.Int("terms", len(titles)),
		zap.Int("work_items", len(work)),
		zap.Int("skipped_recent", summary.Skipped),
		zap.Int("workers", c.workers),
	)

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(c.workers)
	for _, item := range work {
		item := item
		g.Go(func() error {
			c.runItem(ctx, item, summary, &mu)
			return nil
		})
	}
	_ = g.Wait()

	c.log.Info("scrape cycle complete",
		zap.Int("ran", summary.Ran),
		zap.Int("skipped_recent", summary.Skipped),
		zap.Int("errors", len(summary.Errors)),
		zap.Any("saved", summary.SavedBySource),
	)
	c.publishDone(ctx, summary)

	return summary, nil
}

// buildWorkList crosses terms with adapters and drops pairs with a clean run
// inside the recency window. A gate read failure errs on the side of running
// the pair — a redundant run costs less than a silently stale store.
func (c *Cycle) buildWorkList(ctx context.Context, titles []string, summary *Summary) []workItem {
	now := time.Now()
	var work []workItem
	for _, adapter := range c.adapters {
		for _, term := range titles {
			last, err := c.store.LastCleanRun(ctx, adapter.Name(), term)
			if err != nil {
				c.log.Warn("recency lookup failed, running pair anyway",
					zap.String("provider", adapter.Name()),
					zap.String("term", term),
					zap.Error(err),
				)
			}
			if err == nil && !ShouldRun(last, now, c.window) {
				summary.Skipped++
				continue
			}
			work = append(work, workItem{adapter: adapter, term: term})
		}
	}
	return work
}

// runItem processes one (provider, term) pair: run-log begin, orchestrate,
// ingest, run-log complete/fail. Strictly sequential within the item.
func (c *Cycle) runItem(ctx context.Context, item workItem, summary *Summary, mu *sync.Mutex) {
	name, term := item.adapter.Name(), item.term

	runID, err := c.store.BeginRun(ctx, name, term)
	if err != nil {
		// The run logger never blocks the pipeline: attempt the work anyway.
		c.log.Warn("run log begin failed", zap.String("provider", name), zap.String("term", term), zap.Error(err))
		runID = 0
	}

	items, err := c.orch.Execute(ctx, item.adapter, term, c.limit)
	if err != nil {
		c.log.Warn("provider run failed",
			zap.String("provider", name),
			zap.String("term", term),
			zap.Error(err),
		)
		if runID != 0 {
			if ferr := c.store.FailRun(ctx, runID, err.Error()); ferr != nil {
				c.log.Warn("run log fail-write failed", zap.Int64("run_id", runID), zap.Error(ferr))
			}
		}
		mu.Lock()
		summary.Errors = append(summary.Errors, fmt.Sprintf("%s %q: %v", name, term, err))
		mu.Unlock()
		return
	}

	found, saved := c.ingester.Ingest(ctx, item.adapter, term, items)

	if runID != 0 {
		raw, merr := json.Marshal(items)
		if merr != nil {
			raw = nil
		}
		if cerr := c.store.CompleteRun(ctx, runID, found, saved, raw); cerr != nil {
			c.log.Warn("run log complete-write failed", zap.Int64("run_id", runID), zap.Error(cerr))
		}
	}

	c.log.Info("work item done",
		zap.String("provider", name),
		zap.String("term", term),
		zap.Int("found", found),
		zap.Int("saved", saved),
	)

	mu.Lock()
	summary.Ran++
	summary.FoundBySource[name] += found
	summary.SavedBySource[name] += saved
	mu.Unlock()
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
