package domain

import "time"

// Status marks where a record is in its delivery lifecycle. Only pending
// records are eligible for delivery; the other two states are terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusDelivered Status = "delivered"
	StatusAbandoned Status = "abandoned"
)

// Terminal reports whether delivery must never be attempted again.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusAbandoned
}

// Record is one admitted feed item together with its generated summary and
// delivery state. Records are the only thing shared between the ingestion
// and delivery workers.
type Record struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	Category      string    `json:"category"`
	SourceURL     string    `json:"original_url"`
	MediaURL      string    `json:"image_url,omitempty"`
	PublishedAt   string    `json:"pub_date"` // opaque feed-provided string, never parsed
	IngestedAt    time.Time `json:"parsed_time"`
	GeneratedText string    `json:"llm_output"`
	Status        Status    `json:"status"`
}

// FeedItem is a raw feed entry before the admission gate.
type FeedItem struct {
	ID          string
	GUID        string
	Link        string
	Title       string
	PublishedAt string
	MediaURL    string
}

// Page holds what the detail extractor resolved for one item. An empty
// Category means no allow-listed category matched.
type Page struct {
	Category string
	Content  string
}
