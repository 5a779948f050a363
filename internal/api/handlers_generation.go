package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/lorekeep/lorekeep/internal/api/respond"
	"github.com/lorekeep/lorekeep/internal/generation"
)

// GenerationHandler serves the AI generation endpoints.
type GenerationHandler struct {
	generator *generation.Service
	log       zerolog.Logger
}

// NewGenerationHandler builds the handler.
func NewGenerationHandler(svc *generation.Service, log zerolog.Logger) *GenerationHandler {
	return &GenerationHandler{generator: svc, log: log}
}

// GenerateSummary runs the unified flow. The response carries INITIATED
// status and nil scores on first generation; clients poll GetSummary for the
// finalized record.
func (h *GenerationHandler) GenerateSummary(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	gen, err := h.generator.GenerateSummary(r.Context(), vars["entityType"], vars["entityId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, gen)
}

// GetSummary returns the stored generation record without generating.
func (h *GenerationHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	gen, err := h.generator.GetSummary(r.Context(), vars["entityType"], vars["entityId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, gen)
}

// GenerateLocationSummary serves the per-location summary flow.
func (h *GenerationHandler) GenerateLocationSummary(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(mux.Vars(r), "id")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	content, err := h.generator.GenerateLocationSummary(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, content)
}

// GenerateEpisodeSummary serves the per-episode summary flow.
func (h *GenerationHandler) GenerateEpisodeSummary(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(mux.Vars(r), "id")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	content, err := h.generator.GenerateEpisodeSummary(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, content)
}

// GenerateCharacterSummary serves the per-character summary flow.
func (h *GenerationHandler) GenerateCharacterSummary(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(mux.Vars(r), "id")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	content, err := h.generator.GenerateCharacterSummary(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, content)
}

type dialogueRequest struct {
	CharacterID2 int    `json:"characterId2"`
	Topic        string `json:"topic"`
}

// GenerateDialogue writes a dialogue between the path character and the one
// named in the body.
func (h *GenerationHandler) GenerateDialogue(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(mux.Vars(r), "id")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var req dialogueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid JSON body")
		return
	}
	if req.CharacterID2 <= 0 {
		respond.WriteBadRequest(w, "characterId2 is required")
		return
	}
	content, err := h.generator.GenerateDialogue(r.Context(), id, req.CharacterID2, req.Topic)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, content)
}

type improveNoteRequest struct {
	Text       string `json:"noteText"`
	EntityType string `json:"entityType"`
	EntityID   int    `json:"entityId"`
}

type improveNoteResponse struct {
	ImprovedText string `json:"improvedText"`
}

// ImproveNote rewrites note text with AI. Nothing is stored or scored.
func (h *GenerationHandler) ImproveNote(w http.ResponseWriter, r *http.Request) {
	var req improveNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid JSON body")
		return
	}
	improved, err := h.generator.ImproveNote(r.Context(), req.Text, req.EntityType, req.EntityID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, improveNoteResponse{ImprovedText: improved})
}
