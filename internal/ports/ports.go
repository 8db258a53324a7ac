package ports

import (
	"context"
	"errors"
	"time"

	"NewsPoster/internal/domain"
)

// ErrContentGone marks a delivery failure caused by the record's content or
// media reference no longer resolving. Such records stay pending so a later
// pass can retry with updated content.
var ErrContentGone = errors.New("content no longer resolves")

// FeedSource pulls the current upstream feed snapshot.
type FeedSource interface {
	Fetch(ctx context.Context) ([]domain.FeedItem, error)
}

// PageExtractor resolves an item's detail page into category and body text.
type PageExtractor interface {
	Extract(ctx context.Context, pageURL string) (domain.Page, error)
}

// Conversation is opaque generation-backend state threaded from one generate
// call into the next so instruction-following carries across a batch.
type Conversation []int

// Generator produces summaries from a text-generation backend.
type Generator interface {
	// WaitReady probes the backend with bounded retries before a batch.
	WaitReady(ctx context.Context) error
	Generate(ctx context.Context, prompt string, conv Conversation) (string, Conversation, error)
}

// Messenger posts a caption, with optional media, to the delivery channel.
type Messenger interface {
	Send(ctx context.Context, mediaURL, caption string) error
}

// RecordStore is the durable ground truth for dedup and delivery state.
type RecordStore interface {
	// Load returns the full snapshot; a missing or corrupt backing state
	// yields an empty slice, never an error.
	Load(ctx context.Context) ([]domain.Record, error)
	// Update runs a serialized read-modify-write of the whole snapshot and
	// persists it only when mutate reports a change.
	Update(ctx context.Context, mutate func([]domain.Record) ([]domain.Record, bool, error)) error
}

// Scheduler fires a job on a recurring interval.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
