package handler

import (
	"time"
)

// --- Requests ---

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginRequest mirrors the OAuth2 password form. JSON bodies are accepted too.
type loginRequest struct {
	Username     string `json:"username" form:"username" validate:"required"`
	Password     string `json:"password" form:"password" validate:"required"`
	GrantType    string `json:"grant_type" form:"grant_type" validate:"omitempty,eq=password"`
	Scope        string `json:"scope" form:"scope"`
	ClientID     string `json:"client_id" form:"client_id"`
	ClientSecret string `json:"client_secret" form:"client_secret"`
}

// Content is a pointer so that a missing field can be told apart from "".
type createNoteRequest struct {
	Content    *string  `json:"content"`
	Categories []string `json:"categories" validate:"required"`
}

type updateNoteRequest struct {
	Content *string `json:"content"`
}

// --- Responses ---

type detailResponse struct {
	Detail string `json:"detail"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Username    string `json:"username"`
}

type categoryResponse struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	NoteID int64  `json:"note_id"`
}

type noteResponse struct {
	ID         int64              `json:"id"`
	Content    string             `json:"content"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
	IsArchived bool               `json:"is_archived"`
	UserID     int64              `json:"user_id"`
	Categories []categoryResponse `json:"categories"`
}

type createNoteResponse struct {
	Note noteResponse `json:"note"`
}

type notesResponse struct {
	Notes []noteResponse `json:"notes"`
}

type categoriesResponse struct {
	Categories []categoryResponse `json:"categories"`
}

// Failure bodies carry the flag set to false in place of the payload.
type deletedResponse struct {
	Deleted bool `json:"deleted"`
}

type updatedNoteResponse struct {
	Updated noteResponse `json:"updated"`
}

type updatedCategoryResponse struct {
	Updated categoryResponse `json:"updated"`
}

type addedCategoryResponse struct {
	Added categoryResponse `json:"added"`
}

type updatedFlagResponse struct {
	Updated bool `json:"updated"`
}

type addedFlagResponse struct {
	Added bool `json:"added"`
}

type categoriesFlagResponse struct {
	Categories bool `json:"categories"`
}
