package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"NewsPoster/internal/domain"
	"NewsPoster/internal/ports"
	"NewsPoster/internal/textutil"
)

// DelivererDeps wires the delivery worker's collaborators.
type DelivererDeps struct {
	Store          ports.RecordStore
	Messenger      ports.Messenger
	Attempts       int
	AttemptTimeout time.Duration
	RetryDelay     time.Duration
	CaptionLimit   int
	Logger         *slog.Logger
}

// Deliverer posts at most one pending record per invocation to the external
// channel. One record per pass bounds the blast radius of a bad record and
// keeps each invocation's latency predictable.
type Deliverer struct {
	store          ports.RecordStore
	messenger      ports.Messenger
	attempts       int
	attemptTimeout time.Duration
	retryDelay     time.Duration
	captionLimit   int
	logger         *slog.Logger
}

// NewDeliverer constructs the delivery worker.
func NewDeliverer(deps DelivererDeps) *Deliverer {
	return &Deliverer{
		store:          deps.Store,
		messenger:      deps.Messenger,
		attempts:       deps.Attempts,
		attemptTimeout: deps.AttemptTimeout,
		retryDelay:     deps.RetryDelay,
		captionLimit:   deps.CaptionLimit,
		logger:         deps.Logger,
	}
}

// DeliverNext selects the first pending record, attempts delivery with
// bounded retries and marks the outcome. No pending record is the common
// case and a no-op. Delivery is at-least-once: the send happens before the
// marking write, so an interruption between them re-delivers on the next
// pass.
func (d *Deliverer) DeliverNext(ctx context.Context) error {
	records, err := d.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}

	var rec domain.Record
	found := false
	for _, candidate := range records {
		if candidate.Status == domain.StatusPending {
			rec = candidate
			found = true
			break
		}
	}
	if !found {
		d.logger.Debug("no pending records")
		return nil
	}

	caption := textutil.CleanCaption(rec.GeneratedText, d.captionLimit)
	sendErr := d.send(ctx, rec, caption)

	var next domain.Status
	switch {
	case sendErr == nil:
		d.logger.Info("delivered", "id", rec.ID, "title", rec.Title)
		next = domain.StatusDelivered
	case ctx.Err() != nil || errors.Is(sendErr, context.Canceled):
		// A shutdown mid-attempt says nothing about the record itself;
		// keep it pending for the next pass.
		d.logger.Warn("delivery interrupted, leaving pending", "id", rec.ID, "error", sendErr)
		return nil
	case errors.Is(sendErr, ports.ErrContentGone):
		// Content may resolve again after the next ingestion; keep pending.
		d.logger.Warn("content gone, will retry later", "id", rec.ID, "error", sendErr)
		return nil
	default:
		// Stop retrying a poisoned record; the loss stays visible as
		// abandoned rather than masquerading as delivered.
		d.logger.Warn("delivery failed, abandoning record", "id", rec.ID, "title", rec.Title, "error", sendErr)
		next = domain.StatusAbandoned
	}

	return d.mark(ctx, rec.ID, next)
}

// send runs the bounded attempt loop. Only a per-attempt timeout is retried;
// any other failure is terminal for this invocation, as is a timeout on the
// final attempt.
func (d *Deliverer) send(ctx context.Context, rec domain.Record, caption string) error {
	for attempt := 1; ; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, d.attemptTimeout)
		err := d.messenger.Send(attemptCtx, rec.MediaURL, caption)
		cancel()

		if err == nil {
			return nil
		}
		if !errors.Is(err, context.DeadlineExceeded) || attempt >= d.attempts {
			return err
		}

		d.logger.Warn("send timed out, retrying", "id", rec.ID, "attempt", attempt, "attempts", d.attempts)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d.retryDelay):
		}
	}
}

// mark flips the record's status idempotently: the record is re-located by id
// in the freshest snapshot and only a still-pending record is mutated.
func (d *Deliverer) mark(ctx context.Context, id string, next domain.Status) error {
	return d.store.Update(ctx, func(records []domain.Record) ([]domain.Record, bool, error) {
		for i := range records {
			if records[i].ID == id && records[i].Status == domain.StatusPending {
				records[i].Status = next
				return records, true, nil
			}
		}
		return records, false, nil
	})
}
