package sqldb

import (
	"time"

	"github.com/notekeeper/notes-api/internal/core/domain"
)

type userRow struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"column:hashed_password;not null"`
}

func (userRow) TableName() string { return "users" }

// Timestamps are written by the service, never by GORM hooks.
type noteRow struct {
	ID         int64         `gorm:"primaryKey;autoIncrement"`
	Content    string        `gorm:"not null"`
	CreatedAt  time.Time     `gorm:"autoCreateTime:false;not null"`
	UpdatedAt  time.Time     `gorm:"autoUpdateTime:false;not null"`
	IsArchived bool          `gorm:"not null"`
	UserID     int64         `gorm:"index;not null"`
	Categories []categoryRow `gorm:"foreignKey:NoteID"`
}

func (noteRow) TableName() string { return "notes" }

type categoryRow struct {
	ID     int64  `gorm:"primaryKey;autoIncrement"`
	Name   string `gorm:"index;not null"`
	NoteID int64  `gorm:"index;not null"`
}

func (categoryRow) TableName() string { return "categories" }

func toDomainUser(r userRow) *domain.User {
	return &domain.User{ID: r.ID, Username: r.Username, PasswordHash: r.PasswordHash}
}

func toDomainNote(r noteRow) domain.Note {
	cats := make([]domain.Category, 0, len(r.Categories))
	for _, c := range r.Categories {
		cats = append(cats, toDomainCategory(c))
	}
	return domain.Note{
		ID:         r.ID,
		Content:    r.Content,
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
		IsArchived: r.IsArchived,
		UserID:     r.UserID,
		Categories: cats,
	}
}

func toDomainCategory(r categoryRow) domain.Category {
	return domain.Category{ID: r.ID, Name: r.Name, NoteID: r.NoteID}
}
