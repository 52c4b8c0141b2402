package sqldb

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/notekeeper/notes-api/internal/core/domain"
)

// NoteRepository stores notes. Multi-row writes run in a transaction.
type NoteRepository struct {
	db *gorm.DB
}

func NewNoteRepository(db *gorm.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

func byID(db *gorm.DB) *gorm.DB { return db.Order("id") }

// CreateWithCategories inserts the note and its categories in one transaction.
func (r *NoteRepository) CreateWithCategories(ctx context.Context, note *domain.Note) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := noteRow{
			Content:    note.Content,
			CreatedAt:  note.CreatedAt,
			UpdatedAt:  note.UpdatedAt,
			IsArchived: note.IsArchived,
			UserID:     note.UserID,
		}
		if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
			return fmt.Errorf("insert note: %w", err)
		}

		if len(note.Categories) > 0 {
			cats := make([]categoryRow, len(note.Categories))
			for i, c := range note.Categories {
				cats[i] = categoryRow{Name: c.Name, NoteID: row.ID}
			}
			if err := tx.Create(&cats).Error; err != nil {
				return fmt.Errorf("insert categories: %w", err)
			}
			for i := range cats {
				note.Categories[i].ID = cats[i].ID
				note.Categories[i].NoteID = row.ID
			}
		}

		note.ID = row.ID
		return nil
	})
}

func (r *NoteRepository) FindByOwner(ctx context.Context, userID int64) ([]domain.Note, error) {
	var rows []noteRow
	err := r.db.WithContext(ctx).
		Preload("Categories", byID).
		Where("user_id = ?", userID).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}

	notes := make([]domain.Note, 0, len(rows))
	for _, row := range rows {
		notes = append(notes, toDomainNote(row))
	}
	return notes, nil
}

func (r *NoteRepository) FindByID(ctx context.Context, noteID int64) (*domain.Note, error) {
	var row noteRow
	err := r.db.WithContext(ctx).Preload("Categories", byID).First(&row, noteID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNoteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find note: %w", err)
	}
	note := toDomainNote(row)
	return &note, nil
}

// Update writes the mutable columns: content, is_archived and updated_at.
func (r *NoteRepository) Update(ctx context.Context, note *domain.Note) error {
	res := r.db.WithContext(ctx).
		Model(&noteRow{}).
		Where("id = ?", note.ID).
		Updates(map[string]any{
			"content":     note.Content,
			"is_archived": note.IsArchived,
			"updated_at":  note.UpdatedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("update note: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNoteNotFound
	}
	return nil
}

// DeleteCascade removes the note's categories and then the note, atomically.
func (r *NoteRepository) DeleteCascade(ctx context.Context, noteID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("note_id = ?", noteID).Delete(&categoryRow{}).Error; err != nil {
			return fmt.Errorf("delete categories: %w", err)
		}
		res := tx.Delete(&noteRow{}, noteID)
		if res.Error != nil {
			return fmt.Errorf("delete note: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ErrNoteNotFound
		}
		return nil
	})
}

// NoteIDsWithCategoryName returns the distinct ids among noteIDs having a
// category named exactly name.
func (r *NoteRepository) NoteIDsWithCategoryName(ctx context.Context, name string, noteIDs []int64) ([]int64, error) {
	if len(noteIDs) == 0 {
		return []int64{}, nil
	}

	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&categoryRow{}).
		Distinct("note_id").
		Where("name = ? AND note_id IN ?", name, noteIDs).
		Pluck("note_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("filter categories: %w", err)
	}
	return ids, nil
}

type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	row := categoryRow{Name: category.Name, NoteID: category.NoteID}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	category.ID = row.ID
	return nil
}

func (r *CategoryRepository) FindByID(ctx context.Context, categoryID int64) (*domain.Category, error) {
	var row categoryRow
	err := r.db.WithContext(ctx).First(&row, categoryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find category: %w", err)
	}
	c := toDomainCategory(row)
	return &c, nil
}

func (r *CategoryRepository) FindByNote(ctx context.Context, noteID int64) ([]domain.Category, error) {
	var rows []categoryRow
	if err := r.db.WithContext(ctx).Where("note_id = ?", noteID).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]domain.Category, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainCategory(row))
	}
	return out, nil
}

func (r *CategoryRepository) Rename(ctx context.Context, categoryID int64, name string) error {
	res := r.db.WithContext(ctx).Model(&categoryRow{}).Where("id = ?", categoryID).Update("name", name)
	if res.Error != nil {
		return fmt.Errorf("rename category: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

func (r *CategoryRepository) Delete(ctx context.Context, categoryID int64) error {
	res := r.db.WithContext(ctx).Delete(&categoryRow{}, categoryID)
	if res.Error != nil {
		return fmt.Errorf("delete category: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}
