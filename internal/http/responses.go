package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"notes-service/internal/domain"
)

type TokenResponse struct {
	Token string `json:"token"`
}

type ResourceResponse struct {
	ID string `json:"id"`
}

type NoteResponse struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Owner        string   `json:"owner"`
	Data         *string  `json:"data"`
	Contributors []string `json:"contributors"`
	CreatedAt    string   `json:"created_at"`
	UpdatedAt    string   `json:"updated_at"`
}

func errorResponse(msg string) gin.H {
	return gin.H{"error": msg}
}

func noteToResponse(note domain.Note) NoteResponse {
	contributors := note.Contributors
	if contributors == nil {
		contributors = []string{}
	}
	return NoteResponse{
		ID:           note.ID,
		Name:         note.Name,
		Owner:        note.Owner,
		Data:         note.Data,
		Contributors: contributors,
		CreatedAt:    note.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    note.UpdatedAt.Format(time.RFC3339),
	}
}

func notesToResponse(notes []domain.Note) []NoteResponse {
	resp := make([]NoteResponse, len(notes))
	for i := range notes {
		resp[i] = noteToResponse(notes[i])
	}
	return resp
}
