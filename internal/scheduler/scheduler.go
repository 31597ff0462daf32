// Package scheduler wires up the optional in-process cron that periodically
// fires the scrape and digest cycles. Deployments driven by an external
// scheduler hit the trigger endpoints instead and leave both intervals at 0.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"jobflow/aggregator-service/internal/digest"
	"jobflow/aggregator-service/internal/scrape"
)

// Scheduler wraps robfig/cron and manages the periodic cycle triggers.
type Scheduler struct {
	cron        *cron.Cron
	scrapeCycle *scrape.Cycle
	digestCycle *digest.Cycle
	scrapeSpec  string // e.g. "@every 6h"; empty = disabled
	digestSpec  string
	log         *zap.Logger
}

// New creates a Scheduler. An interval of 0 hours disables that cycle's cron
// entry.
func New(scrapeCycle *scrape.Cycle, digestCycle *digest.Cycle, scrapeHours, digestHours int, log *zap.Logger) *Scheduler {
	s := &Scheduler{
		cron:        cron.New(),
		scrapeCycle: scrapeCycle,
		digestCycle: digestCycle,
		log:         log,
	}
	if scrapeHours > 0 {
		s.scrapeSpec = fmt.Sprintf("@every %dh", scrapeHours)
	}
	if digestHours > 0 {
		s.digestSpec = fmt.Sprintf("@every %dh", digestHours)
	}
	return s
}

// Start registers the enabled jobs and starts the cron loop. No-op when both
// intervals are disabled.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.scrapeSpec == "" && s.digestSpec == "" {
		s.log.Info("internal cron disabled")
		return nil
	}

	if s.scrapeSpec != "" {
		if _, err := s.cron.AddFunc(s.scrapeSpec, func() { s.runScrape(ctx) }); err != nil {
			return fmt.Errorf("cron.AddFunc scrape: %w", err)
		}
	}
	if s.digestSpec != "" {
		if _, err := s.cron.AddFunc(s.digestSpec, func() { s.runDigest(ctx) }); err != nil {
			return fmt.Errorf("cron.AddFunc digest: %w", err)
		}
	}

	s.cron.Start()
	s.log.Info("cron started", zap.String("scrape", s.scrapeSpec), zap.String("digest", s.digestSpec))
	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.log.Info("cron stopped")
}

func (s *Scheduler) runScrape(ctx context.Context) {
	if _, err := s.scrapeCycle.Run(ctx); err != nil {
		s.log.Warn("scheduled scrape cycle failed", zap.Error(err))
	}
}

func (s *Scheduler) runDigest(ctx context.Context) {
	if _, err := s.digestCycle.Run(ctx); err != nil {
		s.log.Warn("scheduled digest cycle failed", zap.Error(err))
	}
}
