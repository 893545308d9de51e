package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	wordforge "github.com/mhartwell/wordforge"
	"github.com/mhartwell/wordforge/internal/storage"
)

// handlers holds dependencies for all HTTP handler methods.
type handlers struct {
	engine *wordforge.Engine
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("wordforge-web: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError maps storage sentinel errors onto HTTP statuses.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, storage.ErrMissingID):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// World handlers

func (h *handlers) handleWorldList(w http.ResponseWriter, r *http.Request) {
	worlds, err := h.engine.Worlds()
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, worlds)
}

func (h *handlers) handleWorldCreate(w http.ResponseWriter, r *http.Request) {
	var world wordforge.World
	if !decodeBody(w, r, &world) {
		return
	}
	created, err := h.engine.CreateWorld(world)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handlers) handleWorldGet(w http.ResponseWriter, r *http.Request) {
	world, err := h.engine.World(r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if world == nil {
		writeError(w, http.StatusNotFound, "world not found")
		return
	}
	writeJSON(w, http.StatusOK, world)
}

func (h *handlers) handleWorldUpdate(w http.ResponseWriter, r *http.Request) {
	var world wordforge.World
	if !decodeBody(w, r, &world) {
		return
	}
	world.ID = r.PathValue("id")
	updated, err := h.engine.UpdateWorld(world)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *handlers) handleWorldDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.DeleteWorld(r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) handleWorldCharacters(w http.ResponseWriter, r *http.Request) {
	chars, err := h.engine.CharactersByWorld(r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chars)
}

func (h *handlers) handleWorldStories(w http.ResponseWriter, r *http.Request) {
	stories, err := h.engine.StoriesByWorld(r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stories)
}

// Character handlers

func (h *handlers) handleCharacterList(w http.ResponseWriter, r *http.Request) {
	chars, err := h.engine.Characters()
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chars)
}

func (h *handlers) handleCharacterCreate(w http.ResponseWriter, r *http.Request) {
	var c wordforge.Character
	if !decodeBody(w, r, &c) {
		return
	}
	created, err := h.engine.CreateCharacter(c)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handlers) handleCharacterGet(w http.ResponseWriter, r *http.Request) {
	c, err := h.engine.Character(r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "character not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *handlers) handleCharacterUpdate(w http.ResponseWriter, r *http.Request) {
	var c wordforge.Character
	if !decodeBody(w, r, &c) {
		return
	}
	c.ID = r.PathValue("id")
	updated, err := h.engine.UpdateCharacter(c)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *handlers) handleCharacterDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.DeleteCharacter(r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Story handlers

func (h *handlers) handleStoryList(w http.ResponseWriter, r *http.Request) {
	stories, err := h.engine.Stories()
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stories)
}

func (h *handlers) handleStoryCreate(w http.ResponseWriter, r *http.Request) {
	var st wordforge.Story
	if !decodeBody(w, r, &st) {
		return
	}
	created, err := h.engine.CreateStory(st)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handlers) handleStoryGet(w http.ResponseWriter, r *http.Request) {
	st, err := h.engine.Story(r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if st == nil {
		writeError(w, http.StatusNotFound, "story not found")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *handlers) handleStoryUpdate(w http.ResponseWriter, r *http.Request) {
	var st wordforge.Story
	if !decodeBody(w, r, &st) {
		return
	}
	st.ID = r.PathValue("id")
	updated, err := h.engine.UpdateStory(st)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *handlers) handleStoryDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.DeleteStory(r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Text handlers

func (h *handlers) handleRevise(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text        string `json:"text"`
		Instruction string `json:"instruction"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Instruction == "" {
		writeError(w, http.StatusBadRequest, "instruction is required")
		return
	}

	rev, err := h.engine.ReviseText(r.Context(), req.Text, req.Instruction)
	if err != nil {
		if errors.Is(err, wordforge.ErrReadOnly) {
			writeError(w, http.StatusServiceUnavailable, "AI provider not configured")
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rev)
}

func (h *handlers) handleDiff(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OldText string `json:"oldText"`
		NewText string `json:"newText"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"diff": h.engine.CompareTexts(req.OldText, req.NewText),
	})
}

func (h *handlers) handleMetrics(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.engine.TextMetrics(req.Text))
}

// Settings handlers

func (h *handlers) handleSettingsGet(w http.ResponseWriter, r *http.Request) {
	settings, err := h.engine.Settings()
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *handlers) handleSettingsPut(w http.ResponseWriter, r *http.Request) {
	var settings map[string]string
	if !decodeBody(w, r, &settings) {
		return
	}
	for k, v := range settings {
		if err := h.engine.SetSetting(k, v); err != nil {
			writeStoreError(w, err)
			return
		}
	}
	updated, err := h.engine.Settings()
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Backup handlers

func (h *handlers) handleExport(w http.ResponseWriter, r *http.Request) {
	backup, err := h.engine.Export()
	if err != nil {
		writeStoreError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="wordforge-backup.json"`)
	writeJSON(w, http.StatusOK, backup)
}

func (h *handlers) handleImport(w http.ResponseWriter, r *http.Request) {
	var backup wordforge.Backup
	if !decodeBody(w, r, &backup) {
		return
	}
	if err := h.engine.Import(&backup); err != nil {
		writeStoreError(w, err)
		return
	}
	stats, err := h.engine.Stats()
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *handlers) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.engine.Stats()
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
