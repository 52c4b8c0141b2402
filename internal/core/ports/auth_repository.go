package ports

import (
	"context"

	"github.com/notekeeper/notes-api/internal/core/domain"
)

// UserRepository defines persistence for user credentials.
type UserRepository interface {
	// FindByUsername performs an exact, case-sensitive lookup.
	// Returns domain.ErrUserNotFound when no user matches.
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	// Create persists the user and fills in its generated ID.
	// Returns domain.ErrUserExists on a username collision.
	Create(ctx context.Context, user *domain.User) error
}

// PasswordHasher is the one-way password function used at registration and login.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}
