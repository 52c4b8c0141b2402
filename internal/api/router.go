package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/notekeeper/notes-api/docs"
	"github.com/notekeeper/notes-api/internal/api/handler"
	"github.com/notekeeper/notes-api/internal/api/metrics"
	"github.com/notekeeper/notes-api/internal/api/middleware"
	"github.com/notekeeper/notes-api/internal/core/ports"
)

// Dependencies groups everything NewRouter wires into handlers.
type Dependencies struct {
	AuthService ports.AuthService
	NoteService ports.NoteService
	// Readiness lists the pings run by GET /health/ready.
	Readiness map[string]handler.PingFunc
	Logger    zerolog.Logger
	// Registry receives HTTP and domain metrics. A fresh one is used when nil.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	reg := deps.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := metrics.New(reg)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Logger))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"*"},
	}))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "notes",
		Subsystem:  "http",
		Registerer: reg,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || strings.HasPrefix(c.Path(), "/swagger")
		},
	}))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(deps.AuthService, m)
	noteHandler := handler.NewNoteHandler(deps.NoteService, m)
	healthHandler := handler.NewHealthHandler(deps.Readiness)
	authMiddleware := middleware.Auth(deps.AuthService)

	// --- Ambient endpoints (no auth required) ---
	e.GET("/", healthHandler.Root)
	e.GET("/health", healthHandler.Liveness)        // liveness:  is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness: are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Users ---
	users := e.Group("/users")
	users.POST("/create", authHandler.Register)
	users.POST("/login", authHandler.Login)

	// --- Notes (bearer token required) ---
	notes := e.Group("/notes", authMiddleware)
	both(notes, http.MethodPost, "", noteHandler.Create)
	both(notes, http.MethodGet, "", noteHandler.List)
	both(notes, http.MethodDelete, "", noteHandler.Delete)
	both(notes, http.MethodPatch, "", noteHandler.UpdateContent)
	both(notes, http.MethodPatch, "/archived", noteHandler.ToggleArchived)
	both(notes, http.MethodGet, "/categories", noteHandler.ListCategories)
	both(notes, http.MethodPost, "/categories", noteHandler.AddCategory)
	both(notes, http.MethodDelete, "/categories", noteHandler.DeleteCategory)
	both(notes, http.MethodPatch, "/categories", noteHandler.RenameCategory)
	both(notes, http.MethodGet, "/categories/filterbyname", noteHandler.FilterByName)

	return e
}

// both registers path with and without a trailing slash.
func both(g *echo.Group, method, path string, h echo.HandlerFunc) {
	g.Add(method, path, h)
	g.Add(method, path+"/", h)
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Error != nil {
				evt = log.Warn().Err(v.Error)
			}
			evt.
				Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}
