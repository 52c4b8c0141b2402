package ports

import (
	"context"

	"github.com/notekeeper/notes-api/internal/core/domain"
)

// NoteRepository defines persistence operations for notes.
// Notes returned by the Find methods carry their categories.
type NoteRepository interface {
	// CreateWithCategories inserts the note and all of note.Categories in a
	// single transaction and fills in the generated IDs.
	CreateWithCategories(ctx context.Context, note *domain.Note) error
	// FindByOwner returns every note owned by userID in ascending id order.
	FindByOwner(ctx context.Context, userID int64) ([]domain.Note, error)
	// FindByID is not scoped to an owner. Returns domain.ErrNoteNotFound.
	FindByID(ctx context.Context, noteID int64) (*domain.Note, error)
	// Update persists content, is_archived and updated_at.
	Update(ctx context.Context, note *domain.Note) error
	// DeleteCascade removes the note's categories and then the note in one transaction.
	DeleteCascade(ctx context.Context, noteID int64) error
	// NoteIDsWithCategoryName returns the distinct note ids, restricted to
	// noteIDs, that have a category named exactly name.
	NoteIDsWithCategoryName(ctx context.Context, name string, noteIDs []int64) ([]int64, error)
}

// CategoryRepository defines persistence operations for categories.
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	// FindByID returns domain.ErrCategoryNotFound when absent.
	FindByID(ctx context.Context, categoryID int64) (*domain.Category, error)
	FindByNote(ctx context.Context, noteID int64) ([]domain.Category, error)
	Rename(ctx context.Context, categoryID int64, name string) error
	Delete(ctx context.Context, categoryID int64) error
}

// IdempotencyStore remembers which note an Idempotency-Key produced.
// Reserve claims a key before the note exists; only one caller gets true.
// Lookup reports domain.ErrIdempotencyInProgress while a key is reserved but
// not yet remembered. Release drops a reservation whose create failed.
type IdempotencyStore interface {
	Reserve(ctx context.Context, userID int64, key string) (bool, error)
	Lookup(ctx context.Context, userID int64, key string) (noteID int64, found bool, err error)
	Remember(ctx context.Context, userID int64, key string, noteID int64) error
	Release(ctx context.Context, userID int64, key string) error
}
