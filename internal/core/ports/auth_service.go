package ports

import (
	"context"
	"time"
)

// Identity is the authenticated caller extracted from a bearer token.
type Identity struct {
	Username string
	UserID   int64
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	AccessToken string
	TokenType   string
	Username    string
}

// TokenIssuer signs and verifies identity tokens.
type TokenIssuer interface {
	Issue(username string, userID int64, ttl time.Duration) (string, error)
	Validate(token string) (*Identity, error)
}

type AuthService interface {
	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	Authenticate(ctx context.Context, token string) (*Identity, error)
}
