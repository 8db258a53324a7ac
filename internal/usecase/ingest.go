package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"NewsPoster/internal/domain"
	"NewsPoster/internal/ports"
	"NewsPoster/internal/textutil"
)

// PipelineDeps wires all driven adapters into the ingestion pipeline.
type PipelineDeps struct {
	Feed        ports.FeedSource
	Extractor   ports.PageExtractor
	Generator   ports.Generator
	Store       ports.RecordStore
	MaxArticles int
	FetchDelay  time.Duration
	Instruction string
	Logger      *slog.Logger
}

// Pipeline ingests new feed items: dedup against the store, admission gate
// via the detail extractor, enrichment under one shared conversation context,
// then a single persisted append. No state survives a run outside the store.
type Pipeline struct {
	feed        ports.FeedSource
	extractor   ports.PageExtractor
	generator   ports.Generator
	store       ports.RecordStore
	maxArticles int
	fetchDelay  time.Duration
	instruction string
	logger      *slog.Logger
	now         func() time.Time
}

// NewPipeline constructs the ingestion workflow.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		feed:        deps.Feed,
		extractor:   deps.Extractor,
		generator:   deps.Generator,
		store:       deps.Store,
		maxArticles: deps.MaxArticles,
		fetchDelay:  deps.FetchDelay,
		instruction: deps.Instruction,
		logger:      deps.Logger,
		now:         time.Now,
	}
}

// Run executes one ingestion pass. A feed failure aborts the run with the
// store untouched; per-item failures are logged and skipped.
func (p *Pipeline) Run(ctx context.Context) error {
	items, err := p.feed.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch feed: %w", err)
	}
	if p.maxArticles > 0 && len(items) > p.maxArticles {
		items = items[:p.maxArticles]
	}

	existing, err := p.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}
	known := make(map[string]struct{}, len(existing))
	for _, rec := range existing {
		known[rec.ID] = struct{}{}
	}

	candidates := p.collect(ctx, items, known)
	if len(candidates) == 0 {
		p.logger.Info("no new articles")
		return nil
	}

	enriched, err := p.enrich(ctx, candidates)
	if err != nil {
		// Backend never became ready: persist nothing this run rather than
		// store records with permanently-empty summaries.
		return err
	}
	if len(enriched) == 0 {
		p.logger.Warn("no article survived enrichment", "candidates", len(candidates))
		return nil
	}

	if err := p.persist(ctx, enriched); err != nil {
		return fmt.Errorf("persist records: %w", err)
	}
	p.logger.Info("ingestion done", "new_records", len(enriched))
	return nil
}

// collect applies dedup and the category admission gate; survivors come back
// normalized and ready for enrichment.
func (p *Pipeline) collect(ctx context.Context, items []domain.FeedItem, known map[string]struct{}) []domain.Record {
	var candidates []domain.Record
	for _, item := range items {
		if _, ok := known[item.ID]; ok {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		page, err := p.extractor.Extract(ctx, item.Link)
		p.pause(ctx)
		if err != nil {
			p.logger.Warn("extract page", "id", item.ID, "url", item.Link, "error", err)
			continue
		}
		if page.Category == "" {
			p.logger.Debug("no allow-listed category", "id", item.ID, "title", item.Title)
			continue
		}

		candidates = append(candidates, domain.Record{
			ID:          item.ID,
			Title:       item.Title,
			Content:     textutil.NormalizeParagraphs(page.Content),
			Category:    page.Category,
			SourceURL:   item.Link,
			MediaURL:    item.MediaURL,
			PublishedAt: item.PublishedAt,
			IngestedAt:  p.now(),
			Status:      domain.StatusPending,
		})
	}
	return candidates
}

// enrich primes one shared conversation context with the instruction prompt
// and summarizes each candidate in turn; a per-item failure drops that item
// from the batch while the rest proceed.
func (p *Pipeline) enrich(ctx context.Context, candidates []domain.Record) ([]domain.Record, error) {
	if err := p.generator.WaitReady(ctx); err != nil {
		return nil, fmt.Errorf("generation backend not ready: %w", err)
	}

	_, conv, err := p.generator.Generate(ctx, p.instruction, nil)
	if err != nil {
		return nil, fmt.Errorf("prime instruction context: %w", err)
	}

	enriched := make([]domain.Record, 0, len(candidates))
	for _, rec := range candidates {
		prompt := rec.Title + " \n" + rec.Content
		text, next, err := p.generator.Generate(ctx, prompt, conv)
		if err != nil {
			p.logger.Warn("summarize article", "id", rec.ID, "title", rec.Title, "error", err)
			continue
		}
		conv = next
		rec.GeneratedText = textutil.NormalizeParagraphs(text)
		enriched = append(enriched, rec)
	}
	return enriched, nil
}

// persist appends the new records ahead of the current snapshot and re-sorts
// by the opaque pub_date string, newest first. Ids already present (for
// example after an overlapping run) are dropped, preserving uniqueness.
func (p *Pipeline) persist(ctx context.Context, fresh []domain.Record) error {
	return p.store.Update(ctx, func(records []domain.Record) ([]domain.Record, bool, error) {
		known := make(map[string]struct{}, len(records))
		for _, rec := range records {
			known[rec.ID] = struct{}{}
		}

		added := 0
		merged := make([]domain.Record, 0, len(fresh)+len(records))
		for _, rec := range fresh {
			if _, ok := known[rec.ID]; ok {
				continue
			}
			merged = append(merged, rec)
			added++
		}
		if added == 0 {
			return records, false, nil
		}
		merged = append(merged, records...)

		sort.SliceStable(merged, func(i, j int) bool {
			return merged[i].PublishedAt > merged[j].PublishedAt
		})
		return merged, true, nil
	})
}

func (p *Pipeline) pause(ctx context.Context) {
	if p.fetchDelay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(p.fetchDelay):
	}
}
