package provider

import (
	"encoding/json"
	"fmt"

	"jobflow/aggregator-service/internal/model"
)

const indeedActorID = "misceres~indeed-scraper"

// Indeed searches Indeed listings through the hosted scraper actor.
type Indeed struct{}

// NewIndeed returns the Indeed adapter.
func NewIndeed() *Indeed { return &Indeed{} }

func (i *Indeed) Name() string    { return "indeed" }
func (i *Indeed) ActorID() string { return indeedActorID }

func (i *Indeed) RunInput(term string, limit int) any {
	return map[string]any{
		"position": term,
		"country":  "US",
		"maxItems": limit,
	}
}

type indeedItem struct {
	ID           string `json:"id"`
	PositionName string `json:"positionName"`
	Title        string `json:"title"`
	Company      string `json:"company"`
	Location     string `json:"location"`
	Description  string `json:"description"`
	URL          string `json:"url"`
	Salary       string `json:"salary"`
}

func (i *Indeed) MapItem(raw json.RawMessage, term string) (model.Posting, error) {
	var item indeedItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return model.Posting{}, fmt.Errorf("decode indeed item: %w", err)
	}

	key, err := ExternalKey(i.Name(), item.ID, item.URL)
	if err != nil {
		return model.Posting{}, err
	}

	return model.Posting{
		ExternalID:  key,
		Source:      i.Name(),
		Title:       firstNonEmpty(item.PositionName, item.Title),
		Company:     item.Company,
		Location:    item.Location,
		Description: item.Description,
		URL:         item.URL,
		Salary:      item.Salary,
		SearchTitle: term,
	}, nil
}
