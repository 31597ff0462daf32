package digest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"jobflow/aggregator-service/internal/mailer"
	"jobflow/aggregator-service/internal/model"
	"jobflow/aggregator-service/internal/storage"
)

// stubRenderer produces minimal messages and records which variant ran.
type stubRenderer struct {
	emptyCalls  int
	digestCalls int
}

func (r *stubRenderer) Digest(p model.Profile, postings []model.Posting) (mailer.Message, error) {
	r.digestCalls++
	return mailer.Message{To: p.Email, Subject: fmt.Sprintf("%d new jobs", len(postings))}, nil
}

func (r *stubRenderer) Empty(p model.Profile) (mailer.Message, error) {
	r.emptyCalls++
	return mailer.Message{To: p.Email, Subject: "no new jobs"}, nil
}

// stubSender records sent messages and optionally fails.
type stubSender struct {
	sent    []mailer.Message
	failFor string // recipient address that always fails
}

func (s *stubSender) Send(_ context.Context, msg mailer.Message) error {
	if msg.To == s.failFor {
		return errors.New("smtp unreachable")
	}
	s.sent = append(s.sent, msg)
	return nil
}

var userA = model.Profile{ID: "user-a", Email: "a@example.com", UnsubscribeToken: "tok-a"}

func seedPostings(t *testing.T, store *storage.Memory, n int) []model.Posting {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := store.InsertPosting(context.Background(), &model.Posting{
			ExternalID:  fmt.Sprintf("linkedin_%d", i),
			Source:      "linkedin",
			Title:       "Product Manager",
			SearchTitle: "Product Manager",
		})
		if err != nil {
			t.Fatalf("seed posting: %v", err)
		}
	}
	postings, err := store.UnnotifiedPostings(context.Background(), userA.ID, []string{"Product Manager"}, 20)
	if err != nil {
		t.Fatalf("load seeded postings: %v", err)
	}
	return postings
}

func TestDispatch_RecordsEachPostingOnce(t *testing.T) {
	store := storage.NewMemory()
	sender := &stubSender{}
	d := NewDispatcher(&stubRenderer{}, sender, store, zap.NewNop())

	postings := seedPostings(t, store, 2)

	outcome, err := d.Dispatch(context.Background(), userA, postings)
	if err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}
	if outcome != Sent {
		t.Errorf("outcome = %v, want Sent", outcome)
	}
	if store.NotifiedCount(userA.ID) != 2 {
		t.Errorf("notified = %d, want 2", store.NotifiedCount(userA.ID))
	}

	// Overlapping re-dispatch: the unique (user, posting) pair absorbs it.
	if _, err := d.Dispatch(context.Background(), userA, postings); err != nil {
		t.Fatalf("second Dispatch returned error: %v", err)
	}
	if store.NotifiedCount(userA.ID) != 2 {
		t.Errorf("notified after overlap = %d, want still 2", store.NotifiedCount(userA.ID))
	}
	if len(sender.sent) != 2 {
		t.Errorf("sent %d messages, want 2", len(sender.sent))
	}
}

func TestDispatch_EmptyDigestSendsNoticeAndRecordsNothing(t *testing.T) {
	store := storage.NewMemory()
	renderer := &stubRenderer{}
	sender := &stubSender{}
	d := NewDispatcher(renderer, sender, store, zap.NewNop())

	outcome, err := d.Dispatch(context.Background(), userA, nil)
	if err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}
	if outcome != SentEmpty {
		t.Errorf("outcome = %v, want SentEmpty", outcome)
	}
	if renderer.emptyCalls != 1 || renderer.digestCalls != 0 {
		t.Errorf("renderer calls empty=%d digest=%d, want 1/0", renderer.emptyCalls, renderer.digestCalls)
	}
	if store.NotifiedCount(userA.ID) != 0 {
		t.Errorf("notified = %d, want 0 (nothing to deduplicate)", store.NotifiedCount(userA.ID))
	}
}

func TestDispatch_SendFailureLeavesNoDeliveryRecord(t *testing.T) {
	store := storage.NewMemory()
	sender := &stubSender{failFor: userA.Email}
	d := NewDispatcher(&stubRenderer{}, sender, store, zap.NewNop())

	postings := seedPostings(t, store, 2)

	if _, err := d.Dispatch(context.Background(), userA, postings); err == nil {
		t.Fatal("want send error, got nil")
	}
	if store.NotifiedCount(userA.ID) != 0 {
		t.Errorf("notified = %d, want 0 — a failed send must leave postings eligible", store.NotifiedCount(userA.ID))
	}
}
