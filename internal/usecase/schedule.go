package usecase

import (
	"context"
	"log/slog"
	"time"

	"NewsPoster/internal/ports"
)

// Runner wires the two workers onto their independent recurring triggers.
// They never call each other; the record store is their only shared state.
type Runner struct {
	pipeline    *Pipeline
	deliverer   *Deliverer
	ingestTrig  ports.Scheduler
	deliverTrig ports.Scheduler
	logger      *slog.Logger
}

// NewRunner binds workers to triggers.
func NewRunner(pipeline *Pipeline, deliverer *Deliverer, ingestTrig, deliverTrig ports.Scheduler, logger *slog.Logger) *Runner {
	return &Runner{
		pipeline:    pipeline,
		deliverer:   deliverer,
		ingestTrig:  ingestTrig,
		deliverTrig: deliverTrig,
		logger:      logger,
	}
}

// Start launches both triggers. Worker errors are logged, never escalated:
// every failure boundary is the run that produced it.
func (r *Runner) Start(ctx context.Context) error {
	err := r.ingestTrig.Start(ctx, func(time.Time) {
		if err := r.pipeline.Run(ctx); err != nil {
			r.logger.Error("ingestion run failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	return r.deliverTrig.Start(ctx, func(time.Time) {
		if err := r.deliverer.DeliverNext(ctx); err != nil {
			r.logger.Error("delivery pass failed", "error", err)
		}
	})
}

// Stop tears down both triggers.
func (r *Runner) Stop(ctx context.Context) error {
	if err := r.ingestTrig.Stop(ctx); err != nil {
		return err
	}
	return r.deliverTrig.Stop(ctx)
}
