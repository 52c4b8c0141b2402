package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/notekeeper/notes-api/internal/core/ports"
)

// Context keys set by Auth for downstream handlers.
const (
	ContextKeyUserID   = "user_id"
	ContextKeyUsername = "username"
)

const UnauthenticatedMessage = "Could not validate user."

// Authenticator resolves a bearer token to the caller identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*ports.Identity, error)
}

// Auth validates the bearer token and injects the caller identity into context.
// Every failure is answered with the same 401 before the handler runs.
func Auth(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return unauthenticated(c)
			}

			identity, err := auth.Authenticate(c.Request().Context(), token)
			if err != nil {
				return unauthenticated(c)
			}

			c.Set(ContextKeyUserID, identity.UserID)
			c.Set(ContextKeyUsername, identity.Username)

			return next(c)
		}
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func unauthenticated(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	return echo.NewHTTPError(http.StatusUnauthorized, UnauthenticatedMessage)
}
