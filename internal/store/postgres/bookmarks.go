package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrSnakeDoc/curio/internal/domain"
)

// BookmarkStore persists user bookmarks. Every query is scoped to one user;
// callers pass the id taken from a verified token.
type BookmarkStore struct {
	db *pgxpool.Pool
}

func NewBookmarkStore(pool *ConnectionPool) *BookmarkStore {
	return &BookmarkStore{db: pool.conn}
}

// List returns the user's bookmarks newest first, each joined with its
// resource.
func (s *BookmarkStore) List(ctx context.Context, userID string) ([]domain.Bookmark, error) {
	rows, err := s.db.Query(ctx, `
		SELECT b.id::text, b.user_id, b.resource_id::text, b.created_at, b.notes,
		       `+prefixed("r", resourceColumns)+`
		FROM user_bookmarks b
		LEFT JOIN `+TableResources+` r ON r.id = b.resource_id
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookmarks: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Bookmark, 0, 16)
	for rows.Next() {
		var (
			b   domain.Bookmark
			res resourceRow
		)
		dest := append([]any{&b.ID, &b.UserID, &b.ResourceID, &b.CreatedAt, &b.Notes}, res.dest()...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan bookmark: %w", err)
		}
		if r, ok := res.resource(); ok {
			b.Resource = &r
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read bookmarks: %w", err)
	}
	return out, nil
}

// Upsert creates the (user, resource) bookmark, or updates its notes when it
// already exists.
func (s *BookmarkStore) Upsert(ctx context.Context, userID, resourceID string, notes *string) (domain.Bookmark, error) {
	b := domain.Bookmark{UserID: userID, Notes: notes}
	err := s.db.QueryRow(ctx, `
		INSERT INTO user_bookmarks (user_id, resource_id, notes)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, resource_id) DO UPDATE SET notes = EXCLUDED.notes
		RETURNING id::text, resource_id::text, created_at`,
		userID, resourceID, notes,
	).Scan(&b.ID, &b.ResourceID, &b.CreatedAt)
	if err != nil {
		return domain.Bookmark{}, fmt.Errorf("failed to save bookmark: %w", classify(err, "resource_id"))
	}
	return b, nil
}

// Delete removes the (user, resource) bookmark. Deleting a missing pair is
// not an error; removed reports whether a row went away.
func (s *BookmarkStore) Delete(ctx context.Context, userID, resourceID string) (removed bool, err error) {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM user_bookmarks WHERE user_id = $1 AND resource_id = $2`, userID, resourceID)
	if err != nil {
		// a malformed id cannot name an existing bookmark
		if isCode(err, codeInvalidText) {
			return false, nil
		}
		return false, fmt.Errorf("failed to delete bookmark: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
