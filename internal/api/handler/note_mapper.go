package handler

import "github.com/notekeeper/notes-api/internal/core/domain"

func toCategoryResponse(c domain.Category) categoryResponse {
	return categoryResponse{ID: c.ID, Name: c.Name, NoteID: c.NoteID}
}

func toCategoryResponses(cats []domain.Category) []categoryResponse {
	out := make([]categoryResponse, 0, len(cats))
	for _, c := range cats {
		out = append(out, toCategoryResponse(c))
	}
	return out
}

func toNoteResponse(n domain.Note) noteResponse {
	return noteResponse{
		ID:         n.ID,
		Content:    n.Content,
		CreatedAt:  n.CreatedAt,
		UpdatedAt:  n.UpdatedAt,
		IsArchived: n.IsArchived,
		UserID:     n.UserID,
		Categories: toCategoryResponses(n.Categories),
	}
}

func toNoteResponses(notes []domain.Note) []noteResponse {
	out := make([]noteResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, toNoteResponse(n))
	}
	return out
}
