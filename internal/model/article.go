package model

import "time"

// Article is a feed item persisted in the article store. Link is the unique
// key; the same link seen again across feed pulls is not re-inserted.
type Article struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Link          string    `json:"link"`
	Summary       string    `json:"summary"`
	Source        string    `json:"source"`
	Published     time.Time `json:"published"`
	Processed     bool      `json:"processed"`
	IsDealRelated *bool     `json:"is_deal_related,omitempty"`
}

// CompanyRecord is one row of the company store, keyed by exact name.
type CompanyRecord struct {
	Name    string `json:"name"`
	Website string `json:"website"`
}
