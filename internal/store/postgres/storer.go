package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrSnakeDoc/curio/internal/domain"
)

// Storer writes catalog rows. Production catalogs are owned by the content
// pipeline; this is used to seed development and test databases.
type Storer struct {
	db *pgxpool.Pool
}

func NewStorer(pool *ConnectionPool) *Storer {
	return &Storer{db: pool.conn}
}

var storerColumns = []string{
	"id", "title", "url", "author", "source", "publisher", "topics",
	"tag_categories", "tag_subcategories", "key_takeaways", "difficulty",
	"content_type", "rating", "date_added",
}

func storerRow(r domain.Resource) ([]any, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid id %q: %w", r.ID, err)
	}
	cats, err := encodeList(r.TagCategories)
	if err != nil {
		return nil, err
	}
	subcats, err := encodeList(r.TagSubcategories)
	if err != nil {
		return nil, err
	}
	return []any{
		id, r.Title, r.URL, r.Author, r.Source, r.Publisher, r.Topics,
		cats, subcats, r.KeyTakeaways, r.Difficulty,
		r.ContentType, r.Rating, r.DateAdded,
	}, nil
}

// encodeList stores a text list the way the pipeline does: as a JSON array.
func encodeList(values []string) (*string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("failed to encode list: %w", err)
	}
	s := string(b)
	return &s, nil
}

// ReplaceAll swaps the whole table content for resources in one
// transaction, using COPY for the insert.
func (s *Storer) ReplaceAll(ctx context.Context, table string, resources []domain.Resource) (int64, error) {
	rows := make([][]any, len(resources))
	for i, r := range resources {
		row, err := storerRow(r)
		if err != nil {
			return 0, fmt.Errorf("resource %d: %w", i, err)
		}
		rows[i] = row
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM `+pgx.Identifier{table}.Sanitize()); err != nil {
		return 0, fmt.Errorf("failed to clear %s: %w", table, err)
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{table}, storerColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("failed to bulk insert into %s: %w", table, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return n, nil
}

// Upsert inserts or updates resources by id in a single batch.
func (s *Storer) Upsert(ctx context.Context, table string, resources []domain.Resource) error {
	batch := &pgx.Batch{}
	now := time.Now()
	for i, r := range resources {
		row, err := storerRow(r)
		if err != nil {
			return fmt.Errorf("resource %d: %w", i, err)
		}
		batch.Queue(`
			INSERT INTO `+pgx.Identifier{table}.Sanitize()+` (
				id, title, url, author, source, publisher, topics,
				tag_categories, tag_subcategories, key_takeaways, difficulty,
				content_type, rating, date_added, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			ON CONFLICT (id) DO UPDATE SET
				title = EXCLUDED.title, url = EXCLUDED.url, author = EXCLUDED.author,
				source = EXCLUDED.source, publisher = EXCLUDED.publisher, topics = EXCLUDED.topics,
				tag_categories = EXCLUDED.tag_categories, tag_subcategories = EXCLUDED.tag_subcategories,
				key_takeaways = EXCLUDED.key_takeaways, difficulty = EXCLUDED.difficulty,
				content_type = EXCLUDED.content_type, rating = EXCLUDED.rating,
				date_added = EXCLUDED.date_added, updated_at = EXCLUDED.updated_at`,
			append(row, now)...)
	}

	br := s.db.SendBatch(ctx, batch)
	defer func() { _ = br.Close() }()
	for i := range resources {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to upsert resource %s: %w", resources[i].ID, err)
		}
	}
	return nil
}
