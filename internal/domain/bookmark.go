package domain

import "time"

// Bookmark pairs a user with a resource they saved.
//
// There is at most one bookmark per (UserID, ResourceID): creating an
// existing pair updates its notes, deleting a missing pair is a no-op.
type Bookmark struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	ResourceID string    `json:"resource_id"`
	CreatedAt  time.Time `json:"created_at"`
	Notes      *string   `json:"notes"`

	// Resource is the joined catalog row. It is nil on create responses and
	// when the resource no longer exists.
	Resource *Resource `json:"resource,omitempty"`
}

// CreateBookmarkRequest is the body accepted when saving a bookmark.
type CreateBookmarkRequest struct {
	ResourceID string  `json:"resource_id"`
	Notes      *string `json:"notes,omitempty"`
}
