package domain

import (
	"errors"
	"time"
)

var (
	ErrNoteNotFound     = errors.New("note not found")
	ErrCategoryNotFound = errors.New("category not found")

	// ErrIdempotencyInProgress means another request holding the same
	// Idempotency-Key has not finished creating its note yet.
	ErrIdempotencyInProgress = errors.New("a request with this idempotency key is in progress")
)

// Note is the aggregate root owned by a single user.
type Note struct {
	ID         int64
	Content    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	IsArchived bool
	UserID     int64
	Categories []Category
}

// Category labels a note. It cannot outlive its note.
type Category struct {
	ID     int64
	Name   string
	NoteID int64
}

// CategoryNames returns the names of the note's categories in stored order.
func (n *Note) CategoryNames() []string {
	names := make([]string, len(n.Categories))
	for i, c := range n.Categories {
		names[i] = c.Name
	}
	return names
}
