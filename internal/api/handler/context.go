package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/notekeeper/notes-api/internal/api/middleware"
)

// ctxUserID returns the caller id injected by the Auth middleware. A missing
// value means the route was mounted without the middleware.
func ctxUserID(c echo.Context) (int64, error) {
	id, ok := c.Get(middleware.ContextKeyUserID).(int64)
	if !ok {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, middleware.UnauthenticatedMessage)
	}
	return id, nil
}
