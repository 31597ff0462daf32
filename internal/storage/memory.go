package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"jobflow/aggregator-service/internal/model"
)

// Memory is an in-memory Store used by tests and local experiments. It
// mirrors the PostgreSQL semantics that matter to the pipeline: external-key
// uniqueness, (user, job) uniqueness, and newest-first candidate ordering.
type Memory struct {
	mu         sync.Mutex
	titles     map[string][]string // userID -> tracked titles
	profiles   []model.Profile
	postings   []model.Posting // insertion order, IDs assigned sequentially
	byKey      map[string]int64
	runs       []model.RunRecord
	nextRunID  int64
	notified   map[string]map[int64]bool // userID -> jobID set
	nextPostID int64
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		titles:   make(map[string][]string),
		byKey:    make(map[string]int64),
		notified: make(map[string]map[int64]bool),
	}
}

// AddProfile registers a subscribed user.
func (m *Memory) AddProfile(p model.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles = append(m.profiles, p)
}

// AddTitle tracks a search term for a user.
func (m *Memory) AddTitle(userID, title string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.titles[userID] = append(m.titles[userID], title)
}

// SeedRun inserts a pre-existing run record, e.g. to exercise the recency
// gate.
func (m *Memory) SeedRun(r model.RunRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextRunID++
	r.ID = m.nextRunID
	m.runs = append(m.runs, r)
}

// Runs returns a copy of all run records, oldest first.
func (m *Memory) Runs() []model.RunRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.RunRecord, len(m.runs))
	copy(out, m.runs)
	return out
}

// Postings returns a copy of every stored posting, insertion order.
func (m *Memory) Postings() []model.Posting {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Posting, len(m.postings))
	copy(out, m.postings)
	return out
}

// NotifiedCount returns how many postings have been recorded as sent to the
// user.
func (m *Memory) NotifiedCount(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.notified[userID])
}

func (m *Memory) DistinctSearchTitles(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]bool)
	var out []string
	for _, titles := range m.titles {
		for _, t := range titles {
			key := strings.ToLower(t)
			if !seen[key] {
				seen[key] = true
				out = append(out, t)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *Memory) UserSearchTitles(_ context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.titles[userID]...), nil
}

func (m *Memory) SubscribedProfiles(_ context.Context) ([]model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Profile(nil), m.profiles...), nil
}

func (m *Memory) InsertPosting(_ context.Context, p *model.Posting) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byKey[p.ExternalID]; exists {
		return false, nil
	}

	m.nextPostID++
	stored := *p
	stored.ID = m.nextPostID
	if stored.ScrapedAt.IsZero() {
		stored.ScrapedAt = time.Now()
	}
	m.byKey[stored.ExternalID] = stored.ID
	m.postings = append(m.postings, stored)
	return true, nil
}

func (m *Memory) UnnotifiedPostings(_ context.Context, userID string, titles []string, limit int) ([]model.Posting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	wanted := make(map[string]bool, len(titles))
	for _, t := range titles {
		wanted[strings.ToLower(t)] = true
	}

	var out []model.Posting
	for _, p := range m.postings {
		if !wanted[strings.ToLower(p.SearchTitle)] {
			continue
		}
		if m.notified[userID][p.ID] {
			continue
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ScrapedAt.After(out[j].ScrapedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) BeginRun(_ context.Context, source, searchTitle string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextRunID++
	m.runs = append(m.runs, model.RunRecord{
		ID:          m.nextRunID,
		Source:      source,
		SearchTitle: searchTitle,
		StartedAt:   time.Now(),
	})
	return m.nextRunID, nil
}

func (m *Memory) CompleteRun(_ context.Context, runID int64, found, saved int, rawPayload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.runs {
		if m.runs[i].ID == runID {
			now := time.Now()
			m.runs[i].CompletedAt = &now
			m.runs[i].FoundCount = found
			m.runs[i].SavedCount = saved
			m.runs[i].RawPayload = rawPayload
			return nil
		}
	}
	return nil
}

func (m *Memory) FailRun(_ context.Context, runID int64, errText string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.runs {
		if m.runs[i].ID == runID {
			now := time.Now()
			m.runs[i].CompletedAt = &now
			m.runs[i].ErrorText = &errText
			return nil
		}
	}
	return nil
}

func (m *Memory) LastCleanRun(_ context.Context, source, searchTitle string) (*model.RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var last *model.RunRecord
	for i := range m.runs {
		r := m.runs[i]
		if r.Source != source || r.SearchTitle != searchTitle || r.ErrorText != nil {
			continue
		}
		if last == nil || r.StartedAt.After(last.StartedAt) {
			last = &m.runs[i]
		}
	}
	if last == nil {
		return nil, nil
	}
	out := *last
	return &out, nil
}

func (m *Memory) MarkNotified(_ context.Context, userID string, jobID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.notified[userID] == nil {
		m.notified[userID] = make(map[int64]bool)
	}
	m.notified[userID][jobID] = true
	return nil
}
