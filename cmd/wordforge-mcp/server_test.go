package main

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	wordforge "github.com/mhartwell/wordforge"
)

func newTestServer(t *testing.T) *server {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	engine, err := wordforge.NewEngine(context.Background(), wordforge.EngineConfig{
		DBPath:   dbPath,
		Provider: "mock",
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(func() { engine.Close() })
	return newServer(engine)
}

// rpc builds a jsonRPCRequest for testing.
func rpc(id int, method string, params any) jsonRPCRequest {
	req := jsonRPCRequest{
		JSONRPC: "2.0",
		Method:  method,
	}
	idBytes, _ := json.Marshal(id)
	req.ID = idBytes
	if params != nil {
		p, _ := json.Marshal(params)
		req.Params = p
	}
	return req
}

// toolCall builds a tools/call request.
func toolCall(id int, name string, args any) jsonRPCRequest {
	return rpc(id, "tools/call", map[string]any{
		"name":      name,
		"arguments": args,
	})
}

// resultText extracts the first text content from an MCP tool response.
func resultText(t *testing.T, resp jsonRPCResponse) string {
	t.Helper()
	b, _ := json.Marshal(resp.Result)
	var r struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(b, &r); err != nil || len(r.Content) == 0 {
		t.Fatalf("could not extract text from result: %s", b)
	}
	return r.Content[0].Text
}

// resultIsError checks whether an MCP tool response is an error.
func resultIsError(t *testing.T, resp jsonRPCResponse) bool {
	t.Helper()
	b, _ := json.Marshal(resp.Result)
	var r struct {
		IsError bool `json:"isError"`
	}
	json.Unmarshal(b, &r)
	return r.IsError
}

// createWorld creates a world through the tool interface and returns it.
func createWorld(t *testing.T, srv *server, name string) wordforge.World {
	t.Helper()
	resp := srv.handleRequest(toolCall(1, "world_create", map[string]any{"name": name}))
	if resultIsError(t, resp) {
		t.Fatalf("world_create error: %s", resultText(t, resp))
	}
	var w wordforge.World
	if err := json.Unmarshal([]byte(resultText(t, resp)), &w); err != nil {
		t.Fatalf("unmarshal world: %v", err)
	}
	return w
}

// --- Protocol tests ---

func TestInitialize(t *testing.T) {
	srv := newTestServer(t)
	resp := srv.handleRequest(rpc(1, "initialize", nil))

	if resp.Error != nil {
		t.Fatalf("unexpected error: %s", resp.Error.Message)
	}
	b, _ := json.Marshal(resp.Result)
	var result struct {
		ProtocolVersion string `json:"protocolVersion"`
		ServerInfo      struct {
			Name string `json:"name"`
		} `json:"serverInfo"`
	}
	json.Unmarshal(b, &result)
	if result.ProtocolVersion != "2024-11-05" {
		t.Errorf("protocol version = %q, want 2024-11-05", result.ProtocolVersion)
	}
	if result.ServerInfo.Name != "wordforge" {
		t.Errorf("server name = %q, want wordforge", result.ServerInfo.Name)
	}
}

func TestPing(t *testing.T) {
	srv := newTestServer(t)
	resp := srv.handleRequest(rpc(1, "ping", nil))

	if resp.Error != nil {
		t.Fatalf("unexpected error: %s", resp.Error.Message)
	}
}

func TestUnknownMethod(t *testing.T) {
	srv := newTestServer(t)
	resp := srv.handleRequest(rpc(1, "resources/list", nil))

	if resp.Error == nil || resp.Error.Code != -32601 {
		t.Fatalf("expected method-not-found error, got %+v", resp.Error)
	}
}

func TestToolsList(t *testing.T) {
	srv := newTestServer(t)
	resp := srv.handleRequest(rpc(1, "tools/list", nil))

	if resp.Error != nil {
		t.Fatalf("unexpected error: %s", resp.Error.Message)
	}
	b, _ := json.Marshal(resp.Result)
	var result struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	json.Unmarshal(b, &result)

	want := map[string]bool{
		"world_create": false, "story_create": false,
		"revise_text": false, "compare_texts": false,
	}
	for _, tool := range result.Tools {
		if _, ok := want[tool.Name]; ok {
			want[tool.Name] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("tool %q missing from tools/list", name)
		}
	}
}

// --- Tool tests ---

func TestWorldLifecycleTools(t *testing.T) {
	srv := newTestServer(t)

	w := createWorld(t, srv, "Aerndal")
	if w.ID == "" {
		t.Fatal("created world has no id")
	}

	resp := srv.handleRequest(toolCall(2, "world_update", map[string]any{
		"world_id": w.ID,
		"history":  "the long winter",
	}))
	if resultIsError(t, resp) {
		t.Fatalf("world_update error: %s", resultText(t, resp))
	}
	var updated wordforge.World
	json.Unmarshal([]byte(resultText(t, resp)), &updated)
	if updated.History != "the long winter" {
		t.Errorf("history not updated: %+v", updated)
	}
	if updated.Name != "Aerndal" {
		t.Errorf("unset fields must be preserved, got name %q", updated.Name)
	}

	resp = srv.handleRequest(toolCall(3, "world_delete", map[string]any{"world_id": w.ID}))
	if resultIsError(t, resp) {
		t.Fatalf("world_delete error: %s", resultText(t, resp))
	}

	resp = srv.handleRequest(toolCall(4, "world_get", map[string]any{"world_id": w.ID}))
	if !resultIsError(t, resp) {
		t.Error("expected error getting a deleted world")
	}
}

func TestWorldCreateRequiresName(t *testing.T) {
	srv := newTestServer(t)
	resp := srv.handleRequest(toolCall(1, "world_create", map[string]any{}))
	if !resultIsError(t, resp) {
		t.Error("expected error for missing name")
	}
}

func TestCharacterRequiresExistingWorld(t *testing.T) {
	srv := newTestServer(t)
	resp := srv.handleRequest(toolCall(1, "character_create", map[string]any{
		"name":     "Orphan",
		"world_id": "nope",
	}))
	if !resultIsError(t, resp) {
		t.Error("expected error for unknown world")
	}
}

func TestStoryWithCharacterLinks(t *testing.T) {
	srv := newTestServer(t)
	w := createWorld(t, srv, "Mistral")

	var chars []wordforge.Character
	for _, name := range []string{"Ash", "Brill"} {
		resp := srv.handleRequest(toolCall(1, "character_create", map[string]any{
			"name":     name,
			"world_id": w.ID,
		}))
		if resultIsError(t, resp) {
			t.Fatalf("character_create error: %s", resultText(t, resp))
		}
		var c wordforge.Character
		json.Unmarshal([]byte(resultText(t, resp)), &c)
		chars = append(chars, c)
	}

	resp := srv.handleRequest(toolCall(2, "story_create", map[string]any{
		"title":         "The Crossing",
		"world_id":      w.ID,
		"character_ids": []string{chars[0].ID, chars[1].ID},
	}))
	if resultIsError(t, resp) {
		t.Fatalf("story_create error: %s", resultText(t, resp))
	}
	var story wordforge.Story
	json.Unmarshal([]byte(resultText(t, resp)), &story)
	if len(story.CharacterIDs) != 2 {
		t.Fatalf("character links: %v", story.CharacterIDs)
	}

	resp = srv.handleRequest(toolCall(3, "story_update", map[string]any{
		"story_id":      story.ID,
		"character_ids": []string{chars[1].ID},
	}))
	if resultIsError(t, resp) {
		t.Fatalf("story_update error: %s", resultText(t, resp))
	}
	var updatedStory wordforge.Story
	json.Unmarshal([]byte(resultText(t, resp)), &updatedStory)
	if len(updatedStory.CharacterIDs) != 1 || updatedStory.CharacterIDs[0] != chars[1].ID {
		t.Errorf("links not replaced: %v", updatedStory.CharacterIDs)
	}
	if updatedStory.Title != "The Crossing" {
		t.Errorf("unset fields must be preserved, got title %q", updatedStory.Title)
	}
}

func TestStoryCreateRejectsUnknownCharacter(t *testing.T) {
	srv := newTestServer(t)
	w := createWorld(t, srv, "Solo")

	resp := srv.handleRequest(toolCall(1, "story_create", map[string]any{
		"title":         "Ghost Cast",
		"world_id":      w.ID,
		"character_ids": []string{"nope"},
	}))
	if !resultIsError(t, resp) {
		t.Fatal("expected error for unknown character id")
	}

	// The failed create must not leave a story behind.
	resp = srv.handleRequest(toolCall(2, "stats", nil))
	var stats wordforge.Stats
	json.Unmarshal([]byte(resultText(t, resp)), &stats)
	if stats.Stories != 0 {
		t.Errorf("stories after failed create: %d", stats.Stories)
	}
}

func TestReviseTextTool(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.handleRequest(toolCall(1, "revise_text", map[string]any{
		"text":        "The valley was quiet.",
		"instruction": "tighten the dialogue",
	}))
	if resultIsError(t, resp) {
		t.Fatalf("revise_text error: %s", resultText(t, resp))
	}

	var rev wordforge.Revision
	json.Unmarshal([]byte(resultText(t, resp)), &rev)
	if rev.Agent != "story-making" {
		t.Errorf("agent = %q, want story-making", rev.Agent)
	}
	if len(rev.Diff) == 0 {
		t.Error("expected a non-empty diff")
	}
}

func TestReviseTextRequiresInstruction(t *testing.T) {
	srv := newTestServer(t)
	resp := srv.handleRequest(toolCall(1, "revise_text", map[string]any{"text": "draft"}))
	if !resultIsError(t, resp) {
		t.Error("expected error for missing instruction")
	}
}

func TestCompareTextsTool(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.handleRequest(toolCall(1, "compare_texts", map[string]any{
		"old_text": "the quick fox",
		"new_text": "the slow fox",
	}))
	if resultIsError(t, resp) {
		t.Fatalf("compare_texts error: %s", resultText(t, resp))
	}

	text := resultText(t, resp)
	if !strings.Contains(text, "quick") || !strings.Contains(text, "slow") {
		t.Errorf("diff missing changed words: %s", text)
	}
}

func TestCountTextTool(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.handleRequest(toolCall(1, "count_text", map[string]any{
		"text": "<p>one two three</p>",
	}))
	var m wordforge.Metrics
	json.Unmarshal([]byte(resultText(t, resp)), &m)
	if m.Words != 3 {
		t.Errorf("words = %d, want 3", m.Words)
	}
}

func TestSettingsTools(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.handleRequest(toolCall(1, "setting_set", map[string]any{
		"key":   "ai_provider",
		"value": "ollama",
	}))
	if resultIsError(t, resp) {
		t.Fatalf("setting_set error: %s", resultText(t, resp))
	}

	resp = srv.handleRequest(toolCall(2, "settings_get", nil))
	var settings map[string]string
	json.Unmarshal([]byte(resultText(t, resp)), &settings)
	if settings["ai_provider"] != "ollama" {
		t.Errorf("settings = %v", settings)
	}
}

func TestUnknownTool(t *testing.T) {
	srv := newTestServer(t)
	resp := srv.handleRequest(toolCall(1, "teleport", nil))
	if !resultIsError(t, resp) {
		t.Error("expected error for unknown tool")
	}
}
