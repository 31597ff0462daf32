package provider

import (
	"encoding/json"
	"fmt"
	"net/url"

	"jobflow/aggregator-service/internal/model"
)

const monsterActorID = "memo23~monster-scraper"

// Monster searches Monster.com listings through the hosted scraper actor.
// The actor takes start URLs rather than queries, so the search term and
// location are encoded into a monster.com search URL.
type Monster struct{}

// NewMonster returns the Monster adapter.
func NewMonster() *Monster { return &Monster{} }

func (m *Monster) Name() string    { return "monster" }
func (m *Monster) ActorID() string { return monsterActorID }

func (m *Monster) RunInput(term string, limit int) any {
	params := url.Values{}
	params.Set("q", term)
	params.Set("where", "United States")
	params.Set("so", "m.h.sh")
	searchURL := "https://www.monster.com/jobs/search?" + params.Encode()

	return map[string]any{
		"startUrls": []string{searchURL},
		"maxItems":  limit,
	}
}

type monsterItem struct {
	JobID       string `json:"jobId"`
	ID          string `json:"id"`
	JobTitle    string `json:"jobTitle"`
	Title       string `json:"title"`
	CompanyName string `json:"companyName"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Description string `json:"description"`
	JobURL      string `json:"jobUrl"`
	URL         string `json:"url"`
	Salary      string `json:"salary"`
}

func (m *Monster) MapItem(raw json.RawMessage, term string) (model.Posting, error) {
	var item monsterItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return model.Posting{}, fmt.Errorf("decode monster item: %w", err)
	}

	link := firstNonEmpty(item.JobURL, item.URL)
	key, err := ExternalKey(m.Name(), firstNonEmpty(item.JobID, item.ID), link)
	if err != nil {
		return model.Posting{}, err
	}

	return model.Posting{
		ExternalID:  key,
		Source:      m.Name(),
		Title:       firstNonEmpty(item.JobTitle, item.Title),
		Company:     firstNonEmpty(item.CompanyName, item.Company),
		Location:    item.Location,
		Description: item.Description,
		URL:         link,
		Salary:      item.Salary,
		SearchTitle: term,
	}, nil
}
