package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"jobflow/aggregator-service/internal/apify"
	"jobflow/aggregator-service/internal/provider"
)

// Orchestrator drives one external provider run to completion: submit, poll
// until a terminal status, fetch the dataset. It is stateless and safe to
// invoke concurrently for different (provider, term) pairs; recording the
// outcome is the caller's job.
type Orchestrator struct {
	apify        *apify.Client
	pollInterval time.Duration
	maxWait      time.Duration
	log          *zap.Logger
}

// NewOrchestrator returns an Orchestrator with the given poll cadence and
// maximum wait per run.
func NewOrchestrator(client *apify.Client, pollInterval, maxWait time.Duration, log *zap.Logger) *Orchestrator {
	return &Orchestrator{
		apify:        client,
		pollInterval: pollInterval,
		maxWait:      maxWait,
		log:          log,
	}
}

// Execute runs the adapter's actor for one search term and returns the raw
// dataset items. Failure modes: ErrRunTimeout when the run outlives maxWait,
// *RunFailedError for a non-success terminal status, and a wrapped fetch
// error when downloading the finished dataset fails.
func (o *Orchestrator) Execute(ctx context.Context, adapter provider.Adapter, term string, limit int) ([]json.RawMessage, error) {
	run, err := o.apify.StartRun(ctx, adapter.ActorID(), adapter.RunInput(term, limit))
	if err != nil {
		return nil, fmt.Errorf("start run: %w", err)
	}

	runID := run.ID
	o.log.Debug("provider run started",
		zap.String("provider", adapter.Name()),
		zap.String("term", term),
		zap.String("run_id", runID),
	)

	deadline := time.Now().Add(o.maxWait)
	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()

	for run.Status == apify.StatusReady || run.Status == apify.StatusRunning {
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w after %s (run %s)", ErrRunTimeout, o.maxWait, runID)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		run, err = o.apify.GetRun(ctx, runID)
		if err != nil {
			return nil, fmt.Errorf("poll run %s: %w", runID, err)
		}
	}

	if run.Status != apify.StatusSucceeded {
		return nil, &RunFailedError{Status: run.Status}
	}

	items, err := o.apify.DatasetItems(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("fetch dataset for run %s: %w", runID, err)
	}
	return items, nil
}
