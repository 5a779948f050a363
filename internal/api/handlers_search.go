package api

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/lorekeep/lorekeep/internal/api/respond"
	"github.com/lorekeep/lorekeep/internal/search"
)

// SearchHandler serves semantic search over the index.
type SearchHandler struct {
	engine *search.Engine
	log    zerolog.Logger
}

// NewSearchHandler builds the handler.
func NewSearchHandler(engine *search.Engine, log zerolog.Logger) *SearchHandler {
	return &SearchHandler{engine: engine, log: log}
}

// Search handles GET /api/search?q=&limit=.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respond.WriteBadRequest(w, "query parameter q is required")
		return
	}
	limit := queryInt(r, "limit", search.DefaultLimit, 1, 50)

	results, err := h.engine.Search(r.Context(), query, limit)
	if err != nil {
		h.log.Error().Err(err).Str("query", query).Msg("semantic search failed")
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, results)
}
