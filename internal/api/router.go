// Package api wires the HTTP surface: catalog browsing, notes, generation,
// search and health endpoints.
package api

import (
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/lorekeep/lorekeep/internal/api/recovery"
	"github.com/lorekeep/lorekeep/internal/catalog"
	"github.com/lorekeep/lorekeep/internal/generation"
	"github.com/lorekeep/lorekeep/internal/model"
	"github.com/lorekeep/lorekeep/internal/notes"
	"github.com/lorekeep/lorekeep/internal/search"
	"github.com/lorekeep/lorekeep/internal/store"
)

// Deps bundles everything the router needs.
type Deps struct {
	Store       store.Store
	Catalog     catalog.Source
	Notes       *notes.Service
	Generator   *generation.Service
	Search      *search.Engine
	CORSOrigins []string
	Log         zerolog.Logger
}

// NewRouter creates the HTTP router with all API routes.
func NewRouter(d Deps) *mux.Router {
	router := mux.NewRouter()

	// Global middlewares
	router.Use(recovery.Middleware)
	router.Use(CORSMiddleware(d.CORSOrigins))

	healthHandler := NewHealthHandler(d.Store)
	catalogHandler := NewCatalogHandler(d.Catalog, d.Log)
	notesHandler := NewNotesHandler(d.Notes, d.Log)
	generationHandler := NewGenerationHandler(d.Generator, d.Log)
	searchHandler := NewSearchHandler(d.Search, d.Log)

	// Health endpoints
	router.HandleFunc("/api/health", healthHandler.Check).Methods("GET")
	router.HandleFunc("/api/health/db", healthHandler.CheckStore).Methods("GET")

	// Catalog endpoints
	router.HandleFunc("/api/characters", catalogHandler.ListCharacters).Methods("GET")
	router.HandleFunc("/api/characters/{id:[0-9]+}", catalogHandler.GetCharacter).Methods("GET")
	router.HandleFunc("/api/locations", catalogHandler.ListLocations).Methods("GET")
	router.HandleFunc("/api/locations/{id:[0-9]+}", catalogHandler.GetLocation).Methods("GET")
	router.HandleFunc("/api/episodes", catalogHandler.ListEpisodes).Methods("GET")
	router.HandleFunc("/api/episodes/{id:[0-9]+}", catalogHandler.GetEpisode).Methods("GET")

	// Notes per subject, plus id-addressed update and delete
	router.HandleFunc("/api/characters/{id:[0-9]+}/notes", notesHandler.List(model.SubjectCharacter)).Methods("GET")
	router.HandleFunc("/api/characters/{id:[0-9]+}/notes", notesHandler.Add(model.SubjectCharacter)).Methods("POST")
	router.HandleFunc("/api/locations/{id:[0-9]+}/notes", notesHandler.List(model.SubjectLocation)).Methods("GET")
	router.HandleFunc("/api/locations/{id:[0-9]+}/notes", notesHandler.Add(model.SubjectLocation)).Methods("POST")
	router.HandleFunc("/api/episodes/{id:[0-9]+}/notes", notesHandler.List(model.SubjectEpisode)).Methods("GET")
	router.HandleFunc("/api/episodes/{id:[0-9]+}/notes", notesHandler.Add(model.SubjectEpisode)).Methods("POST")
	router.HandleFunc("/api/notes/{noteId:[0-9]+}", notesHandler.Update).Methods("PUT")
	router.HandleFunc("/api/notes/{noteId:[0-9]+}", notesHandler.Delete).Methods("DELETE")

	// Generation endpoints
	router.HandleFunc("/api/generate/summary/{entityType}/{entityId}", generationHandler.GenerateSummary).Methods("POST")
	router.HandleFunc("/api/generate/summary/{entityType}/{entityId}", generationHandler.GetSummary).Methods("GET")
	router.HandleFunc("/api/generate/location-summary/{id:[0-9]+}", generationHandler.GenerateLocationSummary).Methods("POST")
	router.HandleFunc("/api/generate/episode-summary/{id:[0-9]+}", generationHandler.GenerateEpisodeSummary).Methods("POST")
	router.HandleFunc("/api/generate/character-summary/{id:[0-9]+}", generationHandler.GenerateCharacterSummary).Methods("POST")
	router.HandleFunc("/api/generate/dialogue/{id:[0-9]+}", generationHandler.GenerateDialogue).Methods("POST")
	router.HandleFunc("/api/generate/improve-note", generationHandler.ImproveNote).Methods("POST")

	// Search endpoint
	router.HandleFunc("/api/search", searchHandler.Search).Methods("GET")

	return router
}
