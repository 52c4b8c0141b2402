package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/notekeeper/notes-api/internal/api/metrics"
	"github.com/notekeeper/notes-api/internal/core/domain"
	"github.com/notekeeper/notes-api/internal/core/ports"
)

const (
	msgUserCreated    = "User created"
	msgUserNotCreated = "User not created"
	msgUnauthorized   = "Unauthorized"
)

// StatusUserNotCreated is the status returned when registration is rejected.
const StatusUserNotCreated = 306

type AuthHandler struct {
	authService ports.AuthService
	metrics     *metrics.Metrics
}

func NewAuthHandler(authService ports.AuthService, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{authService: authService, metrics: m}
}

// Register creates a new user account.
//
// @Summary      Register a new user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Username and password"
// @Success      201   {string}  string  "User created"
// @Failure      306   {string}  string  "User not created"
// @Failure      422   {object}  detailResponse
// @Router       /users/create [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, detailResponse{Detail: "invalid payload"})
	}

	err := h.authService.Register(c.Request().Context(), req.Username, req.Password)
	switch {
	case err == nil:
		h.metrics.RegistrationsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
		return c.JSON(http.StatusCreated, msgUserCreated)
	case errors.Is(err, domain.ErrUserExists), errors.Is(err, domain.ErrInvalidRegistration):
		h.metrics.RegistrationsTotal.WithLabelValues(metrics.ResultFailure).Inc()
		return c.JSON(StatusUserNotCreated, msgUserNotCreated)
	default:
		h.metrics.RegistrationsTotal.WithLabelValues(metrics.ResultError).Inc()
		return err
	}
}

// Login exchanges credentials for a bearer token.
//
// @Summary      Login
// @Tags         users
// @Accept       x-www-form-urlencoded
// @Accept       json
// @Produce      json
// @Param        username    formData  string  true   "Username"
// @Param        password    formData  string  true   "Password"
// @Param        grant_type  formData  string  false  "Must be 'password' when present"
// @Success      200         {object}  tokenResponse
// @Failure      401         {object}  detailResponse
// @Failure      422         {object}  detailResponse
// @Router       /users/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, detailResponse{Detail: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, detailResponse{Detail: err.Error()})
	}

	result, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			h.metrics.LoginsTotal.WithLabelValues(metrics.ResultFailure).Inc()
			return c.JSON(http.StatusUnauthorized, detailResponse{Detail: msgUnauthorized})
		}
		h.metrics.LoginsTotal.WithLabelValues(metrics.ResultError).Inc()
		return err
	}

	h.metrics.LoginsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	return c.JSON(http.StatusOK, tokenResponse{
		AccessToken: result.AccessToken,
		TokenType:   result.TokenType,
		Username:    result.Username,
	})
}
