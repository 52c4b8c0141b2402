package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/notekeeper/notes-api/internal/api/metrics"
	"github.com/notekeeper/notes-api/internal/core/domain"
	"github.com/notekeeper/notes-api/internal/core/ports"
)

const HeaderIdempotencyKey = "Idempotency-Key"

// NoteHandler serves the /notes routes. Every route runs behind the Auth
// middleware.
type NoteHandler struct {
	service ports.NoteService
	metrics *metrics.Metrics
}

func NewNoteHandler(service ports.NoteService, m *metrics.Metrics) *NoteHandler {
	return &NoteHandler{service: service, metrics: m}
}

func (h *NoteHandler) observe(operation string, err error) {
	result := metrics.ResultSuccess
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNoteNotFound), errors.Is(err, domain.ErrCategoryNotFound):
		result = metrics.ResultNotFound
	default:
		result = metrics.ResultError
	}
	h.metrics.NoteOperationsTotal.WithLabelValues(operation, result).Inc()
}

// invalidQuery renders a 422 for a missing or malformed query parameter.
func invalidQuery(c echo.Context, err error) error {
	var be *echo.BindingError
	if errors.As(err, &be) {
		return c.JSON(http.StatusUnprocessableEntity, detailResponse{Detail: fmt.Sprintf("%s: %v", be.Field, be.Message)})
	}
	return c.JSON(http.StatusUnprocessableEntity, detailResponse{Detail: err.Error()})
}

// stringQuery returns a query parameter that must be present but may be empty.
func stringQuery(c echo.Context, key string) (string, error) {
	params := c.QueryParams()
	if !params.Has(key) {
		return "", echo.NewBindingError(key, nil, "required field value is empty", nil)
	}
	return params.Get(key), nil
}

// Create handles POST /notes/.
//
// @Summary      Create a note with its categories
// @Tags         notes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string             false  "Replay-safe creation key"
// @Param        body             body      createNoteRequest  true   "Note content and category names"
// @Success      201              {object}  createNoteResponse
// @Failure      400              {object}  detailResponse
// @Failure      401              {object}  detailResponse
// @Failure      409              {object}  detailResponse
// @Failure      422              {object}  detailResponse
// @Router       /notes/ [post]
func (h *NoteHandler) Create(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req createNoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, detailResponse{Detail: "invalid payload"})
	}
	if req.Content == nil {
		return c.JSON(http.StatusUnprocessableEntity, detailResponse{Detail: "content is required"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, detailResponse{Detail: err.Error()})
	}

	note, err := h.service.CreateNote(c.Request().Context(), ports.CreateNoteInput{
		UserID:         userID,
		Content:        *req.Content,
		Categories:     req.Categories,
		IdempotencyKey: c.Request().Header.Get(HeaderIdempotencyKey),
	})
	h.observe("create", err)
	if err != nil {
		return err
	}

	h.metrics.NoteContentBytes.Observe(float64(len(note.Content)))
	return c.JSON(http.StatusCreated, createNoteResponse{Note: toNoteResponse(*note)})
}

// List handles GET /notes/.
//
// @Summary      List the caller's notes
// @Tags         notes
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  notesResponse
// @Failure      401  {object}  detailResponse
// @Router       /notes/ [get]
func (h *NoteHandler) List(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	notes, err := h.service.ListNotes(c.Request().Context(), userID)
	h.observe("list", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, notesResponse{Notes: toNoteResponses(notes)})
}

// Delete handles DELETE /notes/?note_id=.
//
// @Summary      Delete a note and its categories
// @Tags         notes
// @Produce      json
// @Security     BearerAuth
// @Param        note_id  query     int  true  "Note id"
// @Success      200      {object}  deletedResponse
// @Failure      404      {object}  deletedResponse
// @Failure      422      {object}  detailResponse
// @Router       /notes/ [delete]
func (h *NoteHandler) Delete(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	var noteID int64
	if err := echo.QueryParamsBinder(c).MustInt64("note_id", &noteID).BindError(); err != nil {
		return invalidQuery(c, err)
	}

	err = h.service.DeleteNote(c.Request().Context(), userID, noteID)
	h.observe("delete", err)
	if errors.Is(err, domain.ErrNoteNotFound) {
		return c.JSON(http.StatusNotFound, deletedResponse{Deleted: false})
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, deletedResponse{Deleted: true})
}

// ToggleArchived handles PATCH /notes/archived?note_id=.
//
// @Summary      Flip the archived flag of a note
// @Tags         notes
// @Produce      json
// @Security     BearerAuth
// @Param        note_id  query     int  true  "Note id"
// @Success      200      {object}  updatedNoteResponse
// @Failure      404      {object}  updatedFlagResponse
// @Failure      422      {object}  detailResponse
// @Router       /notes/archived [patch]
func (h *NoteHandler) ToggleArchived(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	var noteID int64
	if err := echo.QueryParamsBinder(c).MustInt64("note_id", &noteID).BindError(); err != nil {
		return invalidQuery(c, err)
	}

	note, err := h.service.ToggleArchived(c.Request().Context(), userID, noteID)
	h.observe("toggle_archived", err)
	if errors.Is(err, domain.ErrNoteNotFound) {
		return c.JSON(http.StatusNotFound, updatedFlagResponse{Updated: false})
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updatedNoteResponse{Updated: toNoteResponse(*note)})
}

// UpdateContent handles PATCH /notes/?note_id=.
//
// @Summary      Replace the content of a note
// @Tags         notes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        note_id  query     int                true  "Note id"
// @Param        body     body      updateNoteRequest  true  "New content"
// @Success      200      {object}  updatedNoteResponse
// @Failure      404      {object}  updatedFlagResponse
// @Failure      422      {object}  detailResponse
// @Router       /notes/ [patch]
func (h *NoteHandler) UpdateContent(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	var noteID int64
	if err := echo.QueryParamsBinder(c).MustInt64("note_id", &noteID).BindError(); err != nil {
		return invalidQuery(c, err)
	}

	var req updateNoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, detailResponse{Detail: "invalid payload"})
	}
	if req.Content == nil {
		return c.JSON(http.StatusUnprocessableEntity, detailResponse{Detail: "content is required"})
	}

	note, err := h.service.UpdateContent(c.Request().Context(), userID, noteID, *req.Content)
	h.observe("update_content", err)
	if errors.Is(err, domain.ErrNoteNotFound) {
		return c.JSON(http.StatusNotFound, updatedFlagResponse{Updated: false})
	}
	if err != nil {
		return err
	}

	h.metrics.NoteContentBytes.Observe(float64(len(note.Content)))
	return c.JSON(http.StatusOK, updatedNoteResponse{Updated: toNoteResponse(*note)})
}
