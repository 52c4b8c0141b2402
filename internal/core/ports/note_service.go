package ports

import (
	"context"

	"github.com/notekeeper/notes-api/internal/core/domain"
)

// CreateNoteInput carries everything needed to create a note.
type CreateNoteInput struct {
	UserID     int64
	Content    string
	Categories []string
	// IdempotencyKey is optional. A repeated key returns the note created the first time.
	IdempotencyKey string
}

// NoteService defines the note and category use cases. Every operation
// receives the authenticated caller's user id.
type NoteService interface {
	CreateNote(ctx context.Context, input CreateNoteInput) (*domain.Note, error)
	ListNotes(ctx context.Context, userID int64) ([]domain.Note, error)
	DeleteNote(ctx context.Context, userID, noteID int64) error
	UpdateContent(ctx context.Context, userID, noteID int64, content string) (*domain.Note, error)
	ToggleArchived(ctx context.Context, userID, noteID int64) (*domain.Note, error)

	ListCategories(ctx context.Context, userID, noteID int64) ([]domain.Category, error)
	AddCategory(ctx context.Context, userID, noteID int64, name string) (*domain.Category, error)
	DeleteCategory(ctx context.Context, userID, categoryID int64) error
	RenameCategory(ctx context.Context, userID, categoryID int64, newName string) (*domain.Category, error)
	FilterByCategoryName(ctx context.Context, userID int64, name string) ([]domain.Note, error)
}
