package model

// URLStatus represents the processing state of a single article URL.
type URLStatus string

const (
	// StatusNew marks a URL that has never been picked up. Stored as the
	// empty string so rows seeded by feed ingestion need no status column.
	StatusNew URLStatus = ""

	// StatusProcessing marks a URL currently being worked on.
	StatusProcessing URLStatus = "processing"

	// StatusCrawled is terminal: the URL produced a deal record.
	StatusCrawled URLStatus = "crawled"

	// StatusNoDeals is terminal: the URL was fetched but is not deal-related.
	StatusNoDeals URLStatus = "no_deals"

	// StatusError is retryable: fetch or extraction failed.
	StatusError URLStatus = "error"
)

// Terminal reports whether a status is final and must never be re-selected.
func (s URLStatus) Terminal() bool {
	return s == StatusCrawled || s == StatusNoDeals
}

// Pending reports whether a URL with this status is eligible for processing.
func (s URLStatus) Pending() bool {
	return s == StatusNew || s == StatusError
}

// ProcessingStatus is the durable per-URL record owned by the status tracker.
type ProcessingStatus struct {
	URL    string    `json:"url"`
	Status URLStatus `json:"status"`
	Notes  string    `json:"notes"`
}
