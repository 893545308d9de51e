package main

import (
	"net/http"

	wordforge "github.com/mhartwell/wordforge"
)

// newRouter sets up all routes using Go 1.22+ enhanced routing.
func newRouter(engine *wordforge.Engine) http.Handler {
	mux := http.NewServeMux()

	h := &handlers{engine: engine}

	mux.HandleFunc("GET /api/worlds", h.handleWorldList)
	mux.HandleFunc("POST /api/worlds", h.handleWorldCreate)
	mux.HandleFunc("GET /api/worlds/{id}", h.handleWorldGet)
	mux.HandleFunc("PUT /api/worlds/{id}", h.handleWorldUpdate)
	mux.HandleFunc("DELETE /api/worlds/{id}", h.handleWorldDelete)
	mux.HandleFunc("GET /api/worlds/{id}/characters", h.handleWorldCharacters)
	mux.HandleFunc("GET /api/worlds/{id}/stories", h.handleWorldStories)

	mux.HandleFunc("GET /api/characters", h.handleCharacterList)
	mux.HandleFunc("POST /api/characters", h.handleCharacterCreate)
	mux.HandleFunc("GET /api/characters/{id}", h.handleCharacterGet)
	mux.HandleFunc("PUT /api/characters/{id}", h.handleCharacterUpdate)
	mux.HandleFunc("DELETE /api/characters/{id}", h.handleCharacterDelete)

	mux.HandleFunc("GET /api/stories", h.handleStoryList)
	mux.HandleFunc("POST /api/stories", h.handleStoryCreate)
	mux.HandleFunc("GET /api/stories/{id}", h.handleStoryGet)
	mux.HandleFunc("PUT /api/stories/{id}", h.handleStoryUpdate)
	mux.HandleFunc("DELETE /api/stories/{id}", h.handleStoryDelete)

	mux.HandleFunc("POST /api/revise", h.handleRevise)
	mux.HandleFunc("POST /api/diff", h.handleDiff)
	mux.HandleFunc("POST /api/metrics", h.handleMetrics)

	mux.HandleFunc("GET /api/settings", h.handleSettingsGet)
	mux.HandleFunc("PUT /api/settings", h.handleSettingsPut)

	mux.HandleFunc("GET /api/export", h.handleExport)
	mux.HandleFunc("POST /api/import", h.handleImport)
	mux.HandleFunc("GET /api/stats", h.handleStats)

	return mux
}
