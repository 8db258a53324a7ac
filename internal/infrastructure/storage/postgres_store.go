package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"NewsPoster/internal/domain"
	"NewsPoster/internal/ports"
)

const recordsSchema = `CREATE TABLE IF NOT EXISTS records (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL DEFAULT '',
    content TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL DEFAULT '',
    original_url TEXT NOT NULL DEFAULT '',
    image_url TEXT NOT NULL DEFAULT '',
    pub_date TEXT NOT NULL DEFAULT '',
    parsed_time TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    llm_output TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'pending'
)`

var recordColumns = []string{
	"id", "title", "content", "category", "original_url",
	"image_url", "pub_date", "parsed_time", "llm_output", "status",
}

// PostgresStore implements the record store contract over a records table.
// Update runs its closure inside a single transaction with the rows locked,
// so concurrent writers cannot lose each other's mutations.
type PostgresStore struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.RecordStore = (*PostgresStore)(nil)

// NewPostgresStore wires a sql.DB implementation.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Init makes sure the backing table exists (cold start).
func (s *PostgresStore) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, recordsSchema); err != nil {
		return fmt.Errorf("ensure records table: %w", err)
	}
	return nil
}

// Load returns the snapshot ordered newest-first.
func (s *PostgresStore) Load(ctx context.Context) ([]domain.Record, error) {
	return s.selectAll(ctx, s.db, false)
}

// Update replaces the snapshot inside one transaction when mutate reports a
// change.
func (s *PostgresStore) Update(ctx context.Context, mutate func([]domain.Record) ([]domain.Record, bool, error)) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	records, err := s.selectAll(ctx, tx, true)
	if err != nil {
		return err
	}

	updated, changed, err := mutate(records)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	if _, err := s.builder.Delete("records").RunWith(tx).ExecContext(ctx); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}

	if len(updated) > 0 {
		insert := s.builder.Insert("records").Columns(recordColumns...)
		for _, rec := range updated {
			insert = insert.Values(
				rec.ID, rec.Title, rec.Content, rec.Category, rec.SourceURL,
				rec.MediaURL, rec.PublishedAt, rec.IngestedAt, rec.GeneratedText, rec.Status,
			)
		}
		if _, err := insert.RunWith(tx).ExecContext(ctx); err != nil {
			return fmt.Errorf("insert records: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *PostgresStore) selectAll(ctx context.Context, runner sq.BaseRunner, lock bool) ([]domain.Record, error) {
	query := s.builder.Select(recordColumns...).
		From("records").
		OrderBy("pub_date DESC", "parsed_time DESC")
	if lock {
		query = query.Suffix("FOR UPDATE")
	}

	rows, err := query.RunWith(runner).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	records := []domain.Record{}
	for rows.Next() {
		var rec domain.Record
		if err := rows.Scan(
			&rec.ID, &rec.Title, &rec.Content, &rec.Category, &rec.SourceURL,
			&rec.MediaURL, &rec.PublishedAt, &rec.IngestedAt, &rec.GeneratedText, &rec.Status,
		); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return records, nil
}
