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

const (
	// AccessTokenTTL is the fixed lifetime of tokens issued by Login.
	AccessTokenTTL  = 30 * time.Minute
	TokenTypeBearer = "bearer"
)

// AuthService implements registration, login and token authentication.
type AuthService struct {
	repo   ports.UserRepository
	hasher ports.PasswordHasher
	tokens ports.TokenIssuer
	log    zerolog.Logger
}

func NewAuthService(repo ports.UserRepository, hasher ports.PasswordHasher, tokens ports.TokenIssuer, log zerolog.Logger) *AuthService {
	return &AuthService{repo: repo, hasher: hasher, tokens: tokens, log: log}
}

func (s *AuthService) Register(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return domain.ErrInvalidRegistration
	}

	_, err := s.repo.FindByUsername(ctx, username)
	switch {
	case err == nil:
		return domain.ErrUserExists
	case !errors.Is(err, domain.ErrUserNotFound):
		return fmt.Errorf("register: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if errors.Is(err, domain.ErrInvalidRegistration) {
		s.log.Debug().Err(err).Str("username", username).Msg("registration rejected")
		return domain.ErrInvalidRegistration
	}
	if err != nil {
		return fmt.Errorf("register: hash password: %w", err)
	}

	user := &domain.User{Username: username, PasswordHash: hash}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return err
		}
		return fmt.Errorf("register: %w", err)
	}

	s.log.Info().Int64("user_id", user.ID).Str("username", username).Msg("user registered")
	return nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*ports.LoginResult, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.Username, user.ID, AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("login: issue token: %w", err)
	}

	s.log.Debug().Int64("user_id", user.ID).Msg("user logged in")
	return &ports.LoginResult{
		AccessToken: token,
		TokenType:   TokenTypeBearer,
		Username:    user.Username,
	}, nil
}

// Authenticate resolves a bearer token to the caller identity.
func (s *AuthService) Authenticate(_ context.Context, token string) (*ports.Identity, error) {
	return s.tokens.Validate(token)
}
