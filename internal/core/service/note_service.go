package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/notekeeper/notes-api/internal/core/domain"
	"github.com/notekeeper/notes-api/internal/core/ports"
)

// NoteService implements note and category use cases for an authenticated caller.
type NoteService struct {
	notes       ports.NoteRepository
	categories  ports.CategoryRepository
	idempotency ports.IdempotencyStore
	log         zerolog.Logger
	now         func() time.Time

	// strictOwnership makes by-id lookups reject notes owned by another user.
	// Off by default: by-id lookups only check existence.
	strictOwnership bool
}

// NoteServiceOption customises a NoteService.
type NoteServiceOption func(*NoteService)

// WithIdempotencyStore enables Idempotency-Key replay on CreateNote.
func WithIdempotencyStore(store ports.IdempotencyStore) NoteServiceOption {
	return func(s *NoteService) { s.idempotency = store }
}

// WithStrictOwnership scopes by-id note and category lookups to the caller.
func WithStrictOwnership(enabled bool) NoteServiceOption {
	return func(s *NoteService) { s.strictOwnership = enabled }
}

func NewNoteService(notes ports.NoteRepository, categories ports.CategoryRepository, log zerolog.Logger, opts ...NoteServiceOption) *NoteService {
	s := &NoteService{
		notes:      notes,
		categories: categories,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateNote persists a note owned by the caller together with its categories.
// When an idempotency key was already used by the caller, the note it created is
// returned without side effects. The key is reserved before the insert so two
// concurrent requests with the same key cannot both create a note.
func (s *NoteService) CreateNote(ctx context.Context, in ports.CreateNoteInput) (*domain.Note, error) {
	track, existing, err := s.claimKey(ctx, in)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := s.now()
	note := &domain.Note{
		Content:    in.Content,
		CreatedAt:  now,
		UpdatedAt:  now,
		UserID:     in.UserID,
		Categories: make([]domain.Category, 0, len(in.Categories)),
	}
	for _, name := range in.Categories {
		note.Categories = append(note.Categories, domain.Category{Name: name})
	}

	if err := s.notes.CreateWithCategories(ctx, note); err != nil {
		s.log.Error().Err(err).Int64("user_id", in.UserID).Msg("failed to create note")
		if track {
			if relErr := s.idempotency.Release(ctx, in.UserID, in.IdempotencyKey); relErr != nil {
				s.log.Warn().Err(relErr).Str("idempotency_key", in.IdempotencyKey).Msg("failed to release idempotency key")
			}
		}
		return nil, fmt.Errorf("create note: %w", err)
	}

	if track {
		if err := s.idempotency.Remember(ctx, in.UserID, in.IdempotencyKey, note.ID); err != nil {
			s.log.Warn().Err(err).Int64("note_id", note.ID).Msg("failed to store idempotency key")
		}
	}

	s.log.Info().
		Int64("note_id", note.ID).
		Int64("user_id", in.UserID).
		Strs("categories", note.CategoryNames()).
		Msg("note created")

	return note, nil
}

// claimKey reserves the request's idempotency key. It returns the note a
// previous request with the same key created, or track=true when the caller
// owns the key and must remember the new note id. A key still held by an
// unfinished request yields domain.ErrIdempotencyInProgress. Store failures
// degrade to creating without idempotency.
func (s *NoteService) claimKey(ctx context.Context, in ports.CreateNoteInput) (track bool, existing *domain.Note, err error) {
	if in.IdempotencyKey == "" || s.idempotency == nil {
		return false, nil, nil
	}

	reserved, err := s.idempotency.Reserve(ctx, in.UserID, in.IdempotencyKey)
	if err != nil {
		s.log.Warn().Err(err).Str("idempotency_key", in.IdempotencyKey).Msg("idempotency reserve failed, creating anyway")
		return false, nil, nil
	}
	if reserved {
		return true, nil, nil
	}

	noteID, found, err := s.idempotency.Lookup(ctx, in.UserID, in.IdempotencyKey)
	switch {
	case errors.Is(err, domain.ErrIdempotencyInProgress):
		return false, nil, err
	case err != nil:
		s.log.Warn().Err(err).Str("idempotency_key", in.IdempotencyKey).Msg("idempotency lookup failed, creating anyway")
		return false, nil, nil
	case !found:
		// Expired between Reserve and Lookup.
		return true, nil, nil
	}

	note, err := s.notes.FindByID(ctx, noteID)
	if err != nil || note.UserID != in.UserID {
		// The remembered note is gone; treat the request as new.
		return true, nil, nil
	}

	s.log.Info().Str("idempotency_key", in.IdempotencyKey).Int64("note_id", noteID).Msg("idempotent replay")
	return false, note, nil
}

func (s *NoteService) ListNotes(ctx context.Context, userID int64) ([]domain.Note, error) {
	notes, err := s.notes.FindByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

func (s *NoteService) DeleteNote(ctx context.Context, userID, noteID int64) error {
	if _, err := s.findNote(ctx, userID, noteID); err != nil {
		return err
	}

	if err := s.notes.DeleteCascade(ctx, noteID); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}

	s.log.Info().Int64("note_id", noteID).Int64("user_id", userID).Msg("note deleted")
	return nil
}

func (s *NoteService) UpdateContent(ctx context.Context, userID, noteID int64, content string) (*domain.Note, error) {
	note, err := s.findNote(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}

	note.Content = content
	note.UpdatedAt = s.now()
	if err := s.notes.Update(ctx, note); err != nil {
		return nil, fmt.Errorf("update note content: %w", err)
	}
	return note, nil
}

// ToggleArchived flips is_archived. updated_at is left untouched.
func (s *NoteService) ToggleArchived(ctx context.Context, userID, noteID int64) (*domain.Note, error) {
	note, err := s.findNote(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}

	note.IsArchived = !note.IsArchived
	if err := s.notes.Update(ctx, note); err != nil {
		return nil, fmt.Errorf("toggle archived: %w", err)
	}

	s.log.Debug().Int64("note_id", noteID).Bool("is_archived", note.IsArchived).Msg("note archive status changed")
	return note, nil
}

func (s *NoteService) ListCategories(ctx context.Context, userID, noteID int64) ([]domain.Category, error) {
	if _, err := s.findNote(ctx, userID, noteID); err != nil {
		return nil, err
	}

	categories, err := s.categories.FindByNote(ctx, noteID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (s *NoteService) AddCategory(ctx context.Context, userID, noteID int64, name string) (*domain.Category, error) {
	if _, err := s.findNote(ctx, userID, noteID); err != nil {
		return nil, err
	}

	category := &domain.Category{Name: name, NoteID: noteID}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("add category: %w", err)
	}
	return category, nil
}

func (s *NoteService) DeleteCategory(ctx context.Context, userID, categoryID int64) error {
	if _, err := s.findCategory(ctx, userID, categoryID); err != nil {
		return err
	}

	if err := s.categories.Delete(ctx, categoryID); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

func (s *NoteService) RenameCategory(ctx context.Context, userID, categoryID int64, newName string) (*domain.Category, error) {
	category, err := s.findCategory(ctx, userID, categoryID)
	if err != nil {
		return nil, err
	}

	if err := s.categories.Rename(ctx, categoryID, newName); err != nil {
		return nil, fmt.Errorf("rename category: %w", err)
	}
	category.Name = newName
	return category, nil
}

// FilterByCategoryName returns the caller's notes carrying at least one
// category named exactly name. Each note appears once, in list order.
func (s *NoteService) FilterByCategoryName(ctx context.Context, userID int64, name string) ([]domain.Note, error) {
	notes, err := s.notes.FindByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("filter by category: %w", err)
	}
	if len(notes) == 0 {
		return []domain.Note{}, nil
	}

	ids := make([]int64, len(notes))
	for i, n := range notes {
		ids[i] = n.ID
	}

	matched, err := s.notes.NoteIDsWithCategoryName(ctx, name, ids)
	if err != nil {
		return nil, fmt.Errorf("filter by category: %w", err)
	}

	wanted := make(map[int64]struct{}, len(matched))
	for _, id := range matched {
		wanted[id] = struct{}{}
	}

	out := make([]domain.Note, 0, len(wanted))
	for _, n := range notes {
		if _, ok := wanted[n.ID]; ok {
			out = append(out, n)
			delete(wanted, n.ID)
		}
	}
	return out, nil
}

func (s *NoteService) findNote(ctx context.Context, userID, noteID int64) (*domain.Note, error) {
	note, err := s.notes.FindByID(ctx, noteID)
	if err != nil {
		if errors.Is(err, domain.ErrNoteNotFound) {
			return nil, domain.ErrNoteNotFound
		}
		return nil, fmt.Errorf("find note: %w", err)
	}
	if s.strictOwnership && note.UserID != userID {
		return nil, domain.ErrNoteNotFound
	}
	return note, nil
}

func (s *NoteService) findCategory(ctx context.Context, userID, categoryID int64) (*domain.Category, error) {
	category, err := s.categories.FindByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, domain.ErrCategoryNotFound) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("find category: %w", err)
	}
	if s.strictOwnership {
		if _, err := s.findNote(ctx, userID, category.NoteID); err != nil {
			if errors.Is(err, domain.ErrNoteNotFound) {
				return nil, domain.ErrCategoryNotFound
			}
			return nil, err
		}
	}
	return category, nil
}
