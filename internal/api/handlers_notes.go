package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/lorekeep/lorekeep/internal/api/respond"
	"github.com/lorekeep/lorekeep/internal/model"
	"github.com/lorekeep/lorekeep/internal/notes"
)

// NotesHandler serves note CRUD under each catalog entity.
type NotesHandler struct {
	notes *notes.Service
	log   zerolog.Logger
}

// NewNotesHandler builds the handler.
func NewNotesHandler(svc *notes.Service, log zerolog.Logger) *NotesHandler {
	return &NotesHandler{notes: svc, log: log}
}

type noteRequest struct {
	Text string `json:"noteText"`
}

type notesPageResponse struct {
	Notes      []model.Note `json:"notes"`
	TotalCount int          `json:"totalCount"`
	Page       int          `json:"page"`
}

// List serves notes for one subject, paginated when page/limit are present.
func (h *NotesHandler) List(subjectType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathInt(mux.Vars(r), "id")
		if err != nil {
			writeServiceError(w, err)
			return
		}

		if r.URL.Query().Get("page") == "" {
			list, err := h.notes.List(r.Context(), subjectType, id)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			if list == nil {
				list = []model.Note{}
			}
			respond.WriteJSON(w, http.StatusOK, list)
			return
		}

		page := queryInt(r, "page", 1, 1, 10000)
		limit := queryInt(r, "limit", 20, 1, 100)
		list, total, err := h.notes.ListPage(r.Context(), subjectType, id, page, limit)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if list == nil {
			list = []model.Note{}
		}
		respond.WriteJSON(w, http.StatusOK, notesPageResponse{Notes: list, TotalCount: total, Page: page})
	}
}

// Add attaches a new note to one subject.
func (h *NotesHandler) Add(subjectType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathInt(mux.Vars(r), "id")
		if err != nil {
			writeServiceError(w, err)
			return
		}
		var req noteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.WriteBadRequest(w, "invalid JSON body")
			return
		}
		note, err := h.notes.Add(r.Context(), subjectType, id, req.Text)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		respond.WriteJSON(w, http.StatusCreated, note)
	}
}

// Update rewrites an existing note's text.
func (h *NotesHandler) Update(w http.ResponseWriter, r *http.Request) {
	noteID, err := strconv.ParseInt(mux.Vars(r)["noteId"], 10, 64)
	if err != nil {
		respond.WriteBadRequest(w, "noteId must be numeric")
		return
	}
	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid JSON body")
		return
	}
	note, err := h.notes.Update(r.Context(), noteID, req.Text)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, note)
}

// Delete removes a note.
func (h *NotesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	noteID, err := strconv.ParseInt(mux.Vars(r)["noteId"], 10, 64)
	if err != nil {
		respond.WriteBadRequest(w, "noteId must be numeric")
		return
	}
	if err := h.notes.Delete(r.Context(), noteID); err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"message": "Note deleted successfully"})
}
