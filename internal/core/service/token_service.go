package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/notekeeper/notes-api/internal/core/domain"
	"github.com/notekeeper/notes-api/internal/core/ports"
)

// tokenClaims is the JWT payload: sub carries the username and id the user id.
type tokenClaims struct {
	UserID *int64 `json:"id"`
	jwt.RegisteredClaims
}

// TokenService issues and validates HS256 identity tokens.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret), now: time.Now}
}

// Issue signs a token for the user that expires ttl from now.
func (s *TokenService) Issue(username string, userID int64, ttl time.Duration) (string, error) {
	now := s.now()
	claims := tokenClaims{
		UserID: &userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

// Validate verifies signature and expiry and returns the caller identity.
// Every failure is reported as domain.ErrUnauthenticated.
func (s *TokenService) Validate(token string) (*ports.Identity, error) {
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}

	var claims tokenClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, errors.Join(domain.ErrUnauthenticated, err)
	}

	if claims.Subject == "" || claims.UserID == nil {
		return nil, domain.ErrUnauthenticated
	}

	return &ports.Identity{Username: claims.Subject, UserID: *claims.UserID}, nil
}
