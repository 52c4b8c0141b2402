package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/notekeeper/notes-api/internal/core/domain"
)

// ListCategories handles GET /notes/categories?note_id=.
//
// @Summary      List the categories of a note
// @Tags         categories
// @Produce      json
// @Security     BearerAuth
// @Param        note_id  query     int  true  "Note id"
// @Success      200      {object}  categoriesResponse
// @Failure      404      {object}  categoriesFlagResponse
// @Failure      422      {object}  detailResponse
// @Router       /notes/categories [get]
func (h *NoteHandler) ListCategories(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	var noteID int64
	if err := echo.QueryParamsBinder(c).MustInt64("note_id", &noteID).BindError(); err != nil {
		return invalidQuery(c, err)
	}

	cats, err := h.service.ListCategories(c.Request().Context(), userID, noteID)
	h.observe("list_categories", err)
	if errors.Is(err, domain.ErrNoteNotFound) {
		return c.JSON(http.StatusNotFound, categoriesFlagResponse{Categories: false})
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, categoriesResponse{Categories: toCategoryResponses(cats)})
}

// AddCategory handles POST /notes/categories?note_id=&name=.
//
// @Summary      Attach a category to a note
// @Tags         categories
// @Produce      json
// @Security     BearerAuth
// @Param        note_id  query     int     true  "Note id"
// @Param        name     query     string  true  "Category name"
// @Success      200      {object}  addedCategoryResponse
// @Failure      404      {object}  addedFlagResponse
// @Failure      422      {object}  detailResponse
// @Router       /notes/categories [post]
func (h *NoteHandler) AddCategory(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	var noteID int64
	if err := echo.QueryParamsBinder(c).MustInt64("note_id", &noteID).BindError(); err != nil {
		return invalidQuery(c, err)
	}
	name, err := stringQuery(c, "name")
	if err != nil {
		return invalidQuery(c, err)
	}

	category, err := h.service.AddCategory(c.Request().Context(), userID, noteID, name)
	h.observe("add_category", err)
	if errors.Is(err, domain.ErrNoteNotFound) {
		return c.JSON(http.StatusNotFound, addedFlagResponse{Added: false})
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, addedCategoryResponse{Added: toCategoryResponse(*category)})
}

// DeleteCategory handles DELETE /notes/categories?category_id=.
//
// @Summary      Delete a category
// @Tags         categories
// @Produce      json
// @Security     BearerAuth
// @Param        category_id  query     int  true  "Category id"
// @Success      200          {object}  deletedResponse
// @Failure      404          {object}  deletedResponse
// @Failure      422          {object}  detailResponse
// @Router       /notes/categories [delete]
func (h *NoteHandler) DeleteCategory(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	var categoryID int64
	if err := echo.QueryParamsBinder(c).MustInt64("category_id", &categoryID).BindError(); err != nil {
		return invalidQuery(c, err)
	}

	err = h.service.DeleteCategory(c.Request().Context(), userID, categoryID)
	h.observe("delete_category", err)
	if errors.Is(err, domain.ErrCategoryNotFound) {
		return c.JSON(http.StatusNotFound, deletedResponse{Deleted: false})
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, deletedResponse{Deleted: true})
}

// RenameCategory handles PATCH /notes/categories?category_id=&new_name=.
//
// @Summary      Rename a category
// @Tags         categories
// @Produce      json
// @Security     BearerAuth
// @Param        category_id  query     int     true  "Category id"
// @Param        new_name     query     string  true  "New category name"
// @Success      200          {object}  updatedCategoryResponse
// @Failure      404          {object}  updatedFlagResponse
// @Failure      422          {object}  detailResponse
// @Router       /notes/categories [patch]
func (h *NoteHandler) RenameCategory(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	var categoryID int64
	if err := echo.QueryParamsBinder(c).MustInt64("category_id", &categoryID).BindError(); err != nil {
		return invalidQuery(c, err)
	}
	newName, err := stringQuery(c, "new_name")
	if err != nil {
		return invalidQuery(c, err)
	}

	category, err := h.service.RenameCategory(c.Request().Context(), userID, categoryID, newName)
	h.observe("rename_category", err)
	if errors.Is(err, domain.ErrCategoryNotFound) {
		return c.JSON(http.StatusNotFound, updatedFlagResponse{Updated: false})
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updatedCategoryResponse{Updated: toCategoryResponse(*category)})
}

// FilterByName handles GET /notes/categories/filterbyname?name=.
//
// @Summary      List the caller's notes carrying a category name
// @Tags         categories
// @Produce      json
// @Security     BearerAuth
// @Param        name  query     string  true  "Exact category name"
// @Success      200   {object}  notesResponse
// @Failure      422   {object}  detailResponse
// @Router       /notes/categories/filterbyname [get]
func (h *NoteHandler) FilterByName(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	name, err := stringQuery(c, "name")
	if err != nil {
		return invalidQuery(c, err)
	}

	notes, err := h.service.FilterByCategoryName(c.Request().Context(), userID, name)
	h.observe("filter_by_category", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, notesResponse{Notes: toNoteResponses(notes)})
}
