package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/lorekeep/lorekeep/internal/api/respond"
	"github.com/lorekeep/lorekeep/internal/catalog"
	"github.com/lorekeep/lorekeep/internal/model"
)

// CatalogHandler serves read-only catalog browsing endpoints.
type CatalogHandler struct {
	source catalog.Source
	log    zerolog.Logger
}

// NewCatalogHandler builds the handler.
func NewCatalogHandler(source catalog.Source, log zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{source: source, log: log}
}

// pagedResponse wraps a page of catalog items with the upstream total.
type pagedResponse struct {
	Results    any `json:"results"`
	TotalCount int `json:"totalCount"`
	Page       int `json:"page"`
}

// ListCharacters serves one upstream page of characters. Episode details are
// omitted in list views.
func (h *CatalogHandler) ListCharacters(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1, 1, 10000)
	characters, total, err := h.source.GetCharactersPage(r.Context(), page)
	if err != nil {
		h.log.Error().Err(err).Int("page", page).Msg("list characters failed")
		writeServiceError(w, err)
		return
	}
	if characters == nil {
		characters = []model.Character{}
	}
	respond.WriteJSON(w, http.StatusOK, pagedResponse{Results: characters, TotalCount: total, Page: page})
}

// GetCharacter serves a single character with its episodes.
func (h *CatalogHandler) GetCharacter(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(mux.Vars(r), "id")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	character, err := h.source.GetCharacter(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, character)
}

// ListLocations serves one upstream page of locations with resident counts.
func (h *CatalogHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1, 1, 10000)
	locations, total, err := h.source.GetLocationsPage(r.Context(), page)
	if err != nil {
		h.log.Error().Err(err).Int("page", page).Msg("list locations failed")
		writeServiceError(w, err)
		return
	}
	if locations == nil {
		locations = []model.Location{}
	}
	respond.WriteJSON(w, http.StatusOK, pagedResponse{Results: locations, TotalCount: total, Page: page})
}

// GetLocation serves a single location with full resident records.
func (h *CatalogHandler) GetLocation(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(mux.Vars(r), "id")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	location, err := h.source.GetLocation(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, location)
}

// ListEpisodes serves one upstream page of episodes with character counts.
func (h *CatalogHandler) ListEpisodes(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1, 1, 10000)
	episodes, total, err := h.source.GetEpisodesPage(r.Context(), page)
	if err != nil {
		h.log.Error().Err(err).Int("page", page).Msg("list episodes failed")
		writeServiceError(w, err)
		return
	}
	if episodes == nil {
		episodes = []model.Episode{}
	}
	respond.WriteJSON(w, http.StatusOK, pagedResponse{Results: episodes, TotalCount: total, Page: page})
}

// GetEpisode serves a single episode with its full character records.
func (h *CatalogHandler) GetEpisode(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(mux.Vars(r), "id")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	episode, characters, err := h.source.GetEpisodeWithCharacters(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	episode.Characters = characters
	respond.WriteJSON(w, http.StatusOK, episode)
}
