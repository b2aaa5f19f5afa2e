package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrSnakeDoc/curio/internal/apperr"
	"github.com/MrSnakeDoc/curio/internal/catalog"
	"github.com/MrSnakeDoc/curio/internal/domain"
)

const (
	TableResources = "technical_content"
	TablePreview   = "sneak_peek_content"
)

// resourceColumns is the select list decoded by resourceRow.
const resourceColumns = `id::text, title, url, author, source, publisher,
	topics, tag_categories, tag_subcategories, key_takeaways,
	difficulty, content_type, rating::float8, date_added, created_at, updated_at`

// prefixed qualifies every column of list with alias.
func prefixed(alias, list string) string {
	cols := strings.Split(list, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}

// resourceRow receives one scanned resource. Every column is nullable so the
// same row also serves the outer side of a join.
type resourceRow struct {
	id, title, url                *string
	author, source, publisher     *string
	topics, keyTakeaways          []string
	tagCategories, tagSubcategory *string
	difficulty, contentType       *string
	rating                        *float64
	dateAdded, createdAt, updated *time.Time
}

func (r *resourceRow) dest() []any {
	return []any{
		&r.id, &r.title, &r.url, &r.author, &r.source, &r.publisher,
		&r.topics, &r.tagCategories, &r.tagSubcategory, &r.keyTakeaways,
		&r.difficulty, &r.contentType, &r.rating, &r.dateAdded, &r.createdAt, &r.updated,
	}
}

// resource builds the domain value; ok is false when the row was NULL.
func (r *resourceRow) resource() (domain.Resource, bool) {
	if r.id == nil {
		return domain.Resource{}, false
	}
	return domain.Resource{
		ID:               *r.id,
		Title:            domain.Text(r.title),
		URL:              domain.Text(r.url),
		Author:           r.author,
		Source:           r.source,
		Publisher:        r.publisher,
		Topics:           r.topics,
		TagCategories:    catalog.TextToArray(r.tagCategories),
		TagSubcategories: catalog.TextToArray(r.tagSubcategory),
		KeyTakeaways:     r.keyTakeaways,
		Difficulty:       r.difficulty,
		ContentType:      r.contentType,
		Rating:           r.rating,
		DateAdded:        r.dateAdded,
		CreatedAt:        r.createdAt,
		UpdatedAt:        r.updated,
	}, true
}

type Reader struct {
	db *pgxpool.Pool
}

func NewReader(pool *ConnectionPool) *Reader {
	return &Reader{db: pool.conn}
}

// ListResources loads the catalog, newest first. Non-empty difficulty,
// content type and category selections are pushed down as coarse SQL
// predicates; callers still apply the full matching rules afterwards.
func (r *Reader) ListResources(ctx context.Context, pushdown domain.FilterOptions) ([]domain.Resource, error) {
	sql, args := buildListQuery(TableResources, pushdown)
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query resources: %w", err)
	}
	return collectResources(rows)
}

// ListPreview returns the preview rows, newest first. A missing or
// unreadable preview table yields apperr.ErrNotFound.
func (r *Reader) ListPreview(ctx context.Context) ([]domain.Resource, error) {
	sql, args := buildListQuery(TablePreview, domain.FilterOptions{})
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		if isUnavailable(err) {
			return nil, fmt.Errorf("%s: %w", TablePreview, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query preview: %w", err)
	}
	out, err := collectResources(rows)
	if err != nil && isUnavailable(err) {
		return nil, fmt.Errorf("%s: %w", TablePreview, apperr.ErrNotFound)
	}
	return out, err
}

// FacetRows returns the raw facet columns of every resource.
func (r *Reader) FacetRows(ctx context.Context) ([]catalog.FacetRow, error) {
	rows, err := r.db.Query(ctx,
		`SELECT topics, tag_categories, tag_subcategories, difficulty, content_type FROM `+TableResources)
	if err != nil {
		return nil, fmt.Errorf("failed to query facet columns: %w", err)
	}
	defer rows.Close()

	var out []catalog.FacetRow
	for rows.Next() {
		var (
			topics                  []string
			cats, subcats           *string
			difficulty, contentType *string
		)
		if err := rows.Scan(&topics, &cats, &subcats, &difficulty, &contentType); err != nil {
			return nil, fmt.Errorf("failed to scan facet row: %w", err)
		}
		out = append(out, catalog.FacetRow{
			Topics:           topics,
			TagCategories:    cats,
			TagSubcategories: subcats,
			Difficulty:       difficulty,
			ContentType:      contentType,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read facet rows: %w", err)
	}
	return out, nil
}

func collectResources(rows pgx.Rows) ([]domain.Resource, error) {
	defer rows.Close()

	out := make([]domain.Resource, 0, 64)
	for rows.Next() {
		var row resourceRow
		if err := rows.Scan(row.dest()...); err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		if res, ok := row.resource(); ok {
			out = append(out, res)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read resources: %w", err)
	}
	return out, nil
}

func buildListQuery(table string, f domain.FilterOptions) (string, []any) {
	var (
		where []string
		args  []any
	)
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if vals := foldAll(f.Difficulty); len(vals) > 0 {
		where = append(where, foldedColumn("difficulty")+" = ANY("+next(vals)+")")
	}
	if vals := foldAll(f.ContentType); len(vals) > 0 {
		where = append(where, foldedColumn("content_type")+" = ANY("+next(vals)+")")
	}
	if patterns, ok := categoryPatterns(f.TagCategories); ok {
		where = append(where, foldedColumn("tag_categories")+" LIKE ANY("+next(patterns)+")")
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(resourceColumns)
	b.WriteString(" FROM ")
	b.WriteString(table)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY date_added DESC NULLS LAST")
	return b.String(), args
}

// foldedColumn mirrors domain.FoldFacet in SQL.
func foldedColumn(col string) string {
	return `lower(btrim(regexp_replace(` + col + `, '\s+', ' ', 'g')))`
}

// categoryPatterns builds LIKE patterns for the selected categories, matched
// against the folded column. The raw column may be JSON encoded, so a value
// that could straddle two elements or be escaped differently disables the
// predicate entirely.
func categoryPatterns(values []string) ([]string, bool) {
	vals := foldAll(values)
	if len(vals) == 0 {
		return nil, false
	}
	patterns := make([]string, len(vals))
	for i, v := range vals {
		if strings.ContainsAny(v, `,"\`) || !isPrintableASCII(v) {
			return nil, false
		}
		patterns[i] = "%" + escapeLike(v) + "%"
	}
	return patterns, true
}

func isPrintableASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7e {
			return false
		}
	}
	return true
}

func foldAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = domain.FoldFacet(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
