package provider

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"jobflow/aggregator-service/internal/model"
)

// ── ExternalKey ────────────────────────────────────────────────────────────

func TestExternalKey_PrefersNativeID(t *testing.T) {
	key, err := ExternalKey("linkedin", "12345", "https://linkedin.com/jobs/12345")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "linkedin_12345" {
		t.Errorf("key = %q, want linkedin_12345", key)
	}
}

func TestExternalKey_FallsBackToLinkHash(t *testing.T) {
	key, err := ExternalKey("monster", "", "https://monster.com/job/abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(key, "monster_") {
		t.Errorf("key = %q, want monster_ prefix", key)
	}

	// Same link must always derive the same key.
	again, _ := ExternalKey("monster", "", "https://monster.com/job/abc")
	if key != again {
		t.Errorf("fallback key is not stable: %q vs %q", key, again)
	}

	other, _ := ExternalKey("monster", "", "https://monster.com/job/xyz")
	if key == other {
		t.Error("different links must derive different keys")
	}
}

func TestExternalKey_NoIdentifier(t *testing.T) {
	_, err := ExternalKey("indeed", "", "")
	if !errors.Is(err, ErrNoIdentifier) {
		t.Errorf("want ErrNoIdentifier, got %v", err)
	}
}

// ── MapItem ────────────────────────────────────────────────────────────────

var ignoreScrapedAt = cmpopts.IgnoreFields(model.Posting{}, "ScrapedAt")

func TestLinkedInMapItem(t *testing.T) {
	raw := json.RawMessage(`{
		"jobId": "4021",
		"title": "Senior Backend Engineer",
		"company": "Acme Corp",
		"location": "Remote, US",
		"description": "Build services.",
		"jobUrl": "https://www.linkedin.com/jobs/view/4021",
		"salary": "$150k - $180k"
	}`)

	got, err := NewLinkedIn().MapItem(raw, "Backend Engineer")
	if err != nil {
		t.Fatalf("MapItem returned error: %v", err)
	}

	want := model.Posting{
		ExternalID:  "linkedin_4021",
		Source:      "linkedin",
		Title:       "Senior Backend Engineer",
		Company:     "Acme Corp",
		Location:    "Remote, US",
		Description: "Build services.",
		URL:         "https://www.linkedin.com/jobs/view/4021",
		Salary:      "$150k - $180k",
		SearchTitle: "Backend Engineer",
	}
	if diff := cmp.Diff(want, got, ignoreScrapedAt); diff != "" {
		t.Errorf("posting mismatch (-want +got):\n%s", diff)
	}
}

func TestMonsterMapItem_AlternateFieldNames(t *testing.T) {
	raw := json.RawMessage(`{
		"id": "m-77",
		"jobTitle": "Product Manager",
		"companyName": "Widgets Inc",
		"location": "Austin, TX",
		"jobUrl": "https://www.monster.com/job/m-77"
	}`)

	got, err := NewMonster().MapItem(raw, "Product Manager")
	if err != nil {
		t.Fatalf("MapItem returned error: %v", err)
	}

	want := model.Posting{
		ExternalID:  "monster_m-77",
		Source:      "monster",
		Title:       "Product Manager",
		Company:     "Widgets Inc",
		Location:    "Austin, TX",
		URL:         "https://www.monster.com/job/m-77",
		SearchTitle: "Product Manager",
	}
	if diff := cmp.Diff(want, got, ignoreScrapedAt); diff != "" {
		t.Errorf("posting mismatch (-want +got):\n%s", diff)
	}
}

func TestIndeedMapItem(t *testing.T) {
	raw := json.RawMessage(`{
		"id": "in-9",
		"positionName": "Data Scientist",
		"company": "DataCo",
		"location": "NYC",
		"url": "https://www.indeed.com/viewjob?jk=in-9",
		"salary": "$140,000 a year"
	}`)

	got, err := NewIndeed().MapItem(raw, "Data Scientist")
	if err != nil {
		t.Fatalf("MapItem returned error: %v", err)
	}
	if got.ExternalID != "indeed_in-9" {
		t.Errorf("external id = %q, want indeed_in-9", got.ExternalID)
	}
	if got.Title != "Data Scientist" {
		t.Errorf("title = %q, want Data Scientist", got.Title)
	}
}

func TestMapItem_NullSalaryTolerated(t *testing.T) {
	raw := json.RawMessage(`{"jobId":"5","title":"Engineer","jobUrl":"https://x/5","salary":null}`)
	got, err := NewLinkedIn().MapItem(raw, "Engineer")
	if err != nil {
		t.Fatalf("MapItem returned error: %v", err)
	}
	if got.Salary != "" {
		t.Errorf("salary = %q, want empty", got.Salary)
	}
}

// ── RunInput ───────────────────────────────────────────────────────────────

func TestMonsterRunInput_EncodesSearchURL(t *testing.T) {
	input, err := json.Marshal(NewMonster().RunInput("Product Manager", 25))
	if err != nil {
		t.Fatalf("marshal input: %v", err)
	}
	s := string(input)
	if !strings.Contains(s, "monster.com") {
		t.Errorf("input does not carry a monster.com search URL: %s", s)
	}
	if !strings.Contains(s, "maxItems") {
		t.Errorf("input does not bound the result count: %s", s)
	}
}

func TestLinkedInRunInput(t *testing.T) {
	input, err := json.Marshal(NewLinkedIn().RunInput("Backend Engineer", 10))
	if err != nil {
		t.Fatalf("marshal input: %v", err)
	}
	s := string(input)
	for _, want := range []string{`"searchQueries":["Backend Engineer"]`, `"limit":10`, `"location":"United States"`} {
		if !strings.Contains(s, want) {
			t.Errorf("input %s missing %s", s, want)
		}
	}
}
