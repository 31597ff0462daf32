package scrape

import (
	"time"

	"jobflow/aggregator-service/internal/model"
)

// ShouldRun decides whether a (provider, term) pair needs a fresh run.
// last is the most recent run for the pair with no error recorded (nil when
// none exists). A clean run started inside the lookback window suppresses a
// repeat; errored runs never suppress, so a failed pair is retried on the
// very next cycle.
func ShouldRun(last *model.RunRecord, asOf time.Time, window time.Duration) bool {
	if last == nil {
		return true
	}
	return asOf.Sub(last.StartedAt) >= window
}
