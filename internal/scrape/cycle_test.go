package scrape

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"jobflow/aggregator-service/internal/model"
	"jobflow/aggregator-service/internal/provider"
	"jobflow/aggregator-service/internal/storage"
)

// fakeLock scripts lock acquisition and counts releases.
type fakeLock struct {
	acquired   bool
	acquireErr error
	releases   int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) { return f.acquired, f.acquireErr }
func (f *fakeLock) Release(context.Context)               { f.releases++ }

func newTestCycle(store storage.Store, stub *apifyStub, window time.Duration) *Cycle {
	log := zap.NewNop()
	orch := newTestOrchestrator(stub, time.Second)
	ing := NewIngester(store, log)
	adapters := []provider.Adapter{provider.NewLinkedIn()}
	return NewCycle(store, nil, adapters, orch, ing, window, 25, 2, log)
}

func TestCycleRun_IngestsAndLogsRun(t *testing.T) {
	store := storage.NewMemory()
	store.AddProfile(model.Profile{ID: "u1", Email: "a@example.com"})
	store.AddTitle("u1", "Data Scientist")

	stub := &apifyStub{
		pollStatuses: []string{"SUCCEEDED"},
		datasetBody: `[
			{"jobId":"1","title":"Data Scientist","jobUrl":"https://x/1"},
			{"jobId":"2","title":"Senior Data Scientist","jobUrl":"https://x/2"},
			{"jobId":"3","title":"Plumber","jobUrl":"https://x/3"}
		]`,
	}

	summary, err := newTestCycle(store, stub, 24*time.Hour).Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if summary.Ran != 1 || summary.Skipped != 0 {
		t.Errorf("ran=%d skipped=%d, want 1/0", summary.Ran, summary.Skipped)
	}
	if summary.FoundBySource["linkedin"] != 3 {
		t.Errorf("found = %d, want 3", summary.FoundBySource["linkedin"])
	}
	if summary.SavedBySource["linkedin"] != 2 {
		t.Errorf("saved = %d, want 2 (one title irrelevant)", summary.SavedBySource["linkedin"])
	}

	runs := store.Runs()
	if len(runs) != 1 {
		t.Fatalf("got %d run records, want 1", len(runs))
	}
	r := runs[0]
	if r.CompletedAt == nil {
		t.Error("run record must be completed")
	}
	if r.ErrorText != nil {
		t.Errorf("unexpected run error: %s", *r.ErrorText)
	}
	if r.FoundCount != 3 || r.SavedCount != 2 {
		t.Errorf("run counts = %d/%d, want 3/2", r.FoundCount, r.SavedCount)
	}
	if len(r.RawPayload) == 0 {
		t.Error("raw payload must be recorded for audit")
	}
}

func TestCycleRun_RecencyGateSkipsFreshPairs(t *testing.T) {
	store := storage.NewMemory()
	store.AddTitle("u1", "Data Scientist")
	store.SeedRun(model.RunRecord{
		Source:      "linkedin",
		SearchTitle: "Data Scientist",
		StartedAt:   time.Now().Add(-1 * time.Hour),
	})

	stub := &apifyStub{pollStatuses: []string{"SUCCEEDED"}, datasetBody: `[]`}
	summary, err := newTestCycle(store, stub, 24*time.Hour).Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if summary.Skipped != 1 || summary.Ran != 0 {
		t.Errorf("skipped=%d ran=%d, want 1/0", summary.Skipped, summary.Ran)
	}
	if got := len(store.Runs()); got != 1 {
		t.Errorf("no new run record expected, got %d total", got)
	}
}

func TestCycleRun_ErroredRunRetriesNextCycle(t *testing.T) {
	store := storage.NewMemory()
	store.AddTitle("u1", "Data Scientist")

	errText := "provider run ended with status FAILED"
	started := time.Now().Add(-1 * time.Hour)
	completed := started.Add(time.Minute)
	store.SeedRun(model.RunRecord{
		Source:      "linkedin",
		SearchTitle: "Data Scientist",
		StartedAt:   started,
		CompletedAt: &completed,
		ErrorText:   &errText,
	})

	stub := &apifyStub{pollStatuses: []string{"SUCCEEDED"}, datasetBody: `[]`}
	summary, err := newTestCycle(store, stub, 24*time.Hour).Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if summary.Ran != 1 {
		t.Errorf("ran=%d, want 1 — an errored run must not suppress a retry", summary.Ran)
	}
}

func TestCycleRun_ItemFailureIsIsolated(t *testing.T) {
	store := storage.NewMemory()
	store.AddTitle("u1", "Data Scientist")

	stub := &apifyStub{pollStatuses: []string{"ABORTED"}}
	summary, err := newTestCycle(store, stub, 24*time.Hour).Run(context.Background())
	if err != nil {
		t.Fatalf("item failure must not fail the cycle: %v", err)
	}

	if len(summary.Errors) != 1 {
		t.Fatalf("got %d errors, want 1", len(summary.Errors))
	}
	if summary.Ran != 0 {
		t.Errorf("ran=%d, want 0", summary.Ran)
	}

	runs := store.Runs()
	if len(runs) != 1 {
		t.Fatalf("got %d run records, want 1", len(runs))
	}
	if runs[0].ErrorText == nil {
		t.Error("failed run must record its error text")
	}
	if runs[0].CompletedAt == nil {
		t.Error("failed run must still be closed")
	}
}

func TestCycleRun_ReleasesHeldLock(t *testing.T) {
	store := storage.NewMemory()
	store.AddTitle("u1", "Data Scientist")

	stub := &apifyStub{pollStatuses: []string{"SUCCEEDED"}, datasetBody: `[]`}
	c := newTestCycle(store, stub, 24*time.Hour)
	lock := &fakeLock{acquired: true}
	c.lock = lock

	if _, err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if lock.releases != 1 {
		t.Errorf("releases = %d, want 1", lock.releases)
	}
}

func TestCycleRun_BusyLockReturnsErrCycleBusy(t *testing.T) {
	store := storage.NewMemory()
	store.AddTitle("u1", "Data Scientist")

	stub := &apifyStub{pollStatuses: []string{"SUCCEEDED"}, datasetBody: `[]`}
	c := newTestCycle(store, stub, 24*time.Hour)
	lock := &fakeLock{acquired: false}
	c.lock = lock

	if _, err := c.Run(context.Background()); !errors.Is(err, ErrCycleBusy) {
		t.Fatalf("want ErrCycleBusy, got %v", err)
	}
	if lock.releases != 0 {
		t.Errorf("releases = %d, want 0 — a lock held elsewhere must not be touched", lock.releases)
	}
}

func TestCycleRun_LockErrorProceedsWithoutRelease(t *testing.T) {
	store := storage.NewMemory()
	store.AddTitle("u1", "Data Scientist")

	stub := &apifyStub{pollStatuses: []string{"SUCCEEDED"}, datasetBody: `[]`}
	c := newTestCycle(store, stub, 24*time.Hour)
	lock := &fakeLock{acquireErr: errors.New("redis: connection refused")}
	c.lock = lock

	summary, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("a lock outage must not block the cycle: %v", err)
	}
	if summary.Ran != 1 {
		t.Errorf("ran = %d, want 1", summary.Ran)
	}
	if lock.releases != 0 {
		t.Errorf("releases = %d, want 0 — an unacquired lock must never be released", lock.releases)
	}
}

func TestCycleRun_NoTrackedTerms(t *testing.T) {
	store := storage.NewMemory()

	stub := &apifyStub{pollStatuses: []string{"SUCCEEDED"}, datasetBody: `[]`}
	summary, err := newTestCycle(store, stub, 24*time.Hour).Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Ran != 0 || len(summary.Errors) != 0 {
		t.Errorf("empty work list should be a clean no-op, got %+v", summary)
	}
}
