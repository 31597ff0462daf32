package provider

import (
	"encoding/json"
	"fmt"

	"jobflow/aggregator-service/internal/model"
)

const linkedinActorID = "bebity~linkedin-jobs-scraper"

// LinkedIn searches LinkedIn job listings through the hosted scraper actor.
type LinkedIn struct{}

// NewLinkedIn returns the LinkedIn adapter.
func NewLinkedIn() *LinkedIn { return &LinkedIn{} }

func (l *LinkedIn) Name() string    { return "linkedin" }
func (l *LinkedIn) ActorID() string { return linkedinActorID }

// RunInput builds the actor input. publishedAt narrows results to the last
// day so repeated daily runs mostly return fresh listings.
func (l *LinkedIn) RunInput(term string, limit int) any {
	return map[string]any{
		"searchQueries": []string{term},
		"limit":         limit,
		"location":      "United States",
		"publishedAt":   "past24Hours",
	}
}

type linkedinItem struct {
	JobID       string `json:"jobId"`
	ID          string `json:"id"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Description string `json:"description"`
	JobURL      string `json:"jobUrl"`
	URL         string `json:"url"`
	Salary      string `json:"salary"`
}

func (l *LinkedIn) MapItem(raw json.RawMessage, term string) (model.Posting, error) {
	var item linkedinItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return model.Posting{}, fmt.Errorf("decode linkedin item: %w", err)
	}

	link := firstNonEmpty(item.JobURL, item.URL)
	key, err := ExternalKey(l.Name(), firstNonEmpty(item.JobID, item.ID), link)
	if err != nil {
		return model.Posting{}, err
	}

	return model.Posting{
		ExternalID:  key,
		Source:      l.Name(),
		Title:       item.Title,
		Company:     item.Company,
		Location:    item.Location,
		Description: item.Description,
		URL:         link,
		Salary:      item.Salary,
		SearchTitle: term,
	}, nil
}
