package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/search", r.URL.Path)
		assert.Equal(t, "portal gun", r.URL.Query().Get("q"))
		assert.Equal(t, "3", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"name":"Rick Sanchez"}]`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	require.NoError(t, runSearch(srv.URL, "portal gun", 3, &out))
	assert.Contains(t, out.String(), "Rick Sanchez")
}

func TestRunSearchEmptyQuery(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, runSearch("http://localhost:0", "", 3, &out))
}

func TestRunGenerateAndStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate/summary/character/1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"INITIATED"}`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	require.NoError(t, runGenerate(srv.URL, "character", "1", &out))
	assert.Contains(t, out.String(), "INITIATED")

	out.Reset()
	require.NoError(t, runStatus(srv.URL, "character", "1", &out))
	assert.Contains(t, out.String(), "INITIATED")
}

func TestRunAddNote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/episodes/7/notes", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		var payload map[string]string
		require.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, "great cold open", payload["noteText"])
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":1}`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	require.NoError(t, runAddNote(srv.URL, "episode", "7", "great cold open", &out))

	assert.Error(t, runAddNote(srv.URL, "planet", "7", "nope", &out))
}
