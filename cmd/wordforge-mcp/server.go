package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	wordforge "github.com/mhartwell/wordforge"
)

// JSON-RPC 2.0 types

type jsonRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type jsonRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// server is the Word-Forge MCP server.
type server struct {
	engine *wordforge.Engine
}

func newServer(engine *wordforge.Engine) *server {
	return &server{engine: engine}
}

// run starts the MCP server, reading from stdin and writing to stdout.
func (s *server) run() error {
	log.SetOutput(os.Stderr)
	log.Printf("wordforge-mcp starting")

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()

		var req jsonRPCRequest
		if err := json.Unmarshal(line, &req); err != nil {
			log.Printf("invalid json-rpc: %v", err)
			continue
		}

		// Notifications have no ID and get no response.
		if req.ID == nil || string(req.ID) == "null" {
			log.Printf("notification: %s", req.Method)
			continue
		}

		resp := s.handleRequest(req)
		respBytes, _ := json.Marshal(resp)
		fmt.Fprintf(os.Stdout, "%s\n", respBytes)
	}

	return scanner.Err()
}

func (s *server) handleRequest(req jsonRPCRequest) jsonRPCResponse {
	resp := jsonRPCResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
	}

	switch req.Method {
	case "initialize":
		resp.Result = map[string]any{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]any{
				"tools": map[string]any{},
			},
			"serverInfo": map[string]any{
				"name":    "wordforge",
				"version": "0.1.0",
			},
		}
	case "tools/list":
		resp.Result = s.handleToolsList()
	case "tools/call":
		resp.Result = s.handleToolsCall(req.Params)
	case "ping":
		resp.Result = map[string]any{}
	default:
		resp.Error = &rpcError{
			Code:    -32601,
			Message: fmt.Sprintf("method not found: %s", req.Method),
		}
	}

	return resp
}

func (s *server) handleToolsList() any {
	idProp := func(desc string) map[string]any {
		return map[string]any{"type": "string", "description": desc}
	}
	return map[string]any{
		"tools": []map[string]any{
			{
				"name":        "world_create",
				"description": "Create a new world. A world holds geography, cultures, magic systems, and history, and is the container for characters and stories.",
				"inputSchema": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name":          idProp("World name"),
						"geography":     idProp("Geography description"),
						"cultures":      idProp("Cultures description"),
						"magic_systems": idProp("Magic systems description"),
						"history":       idProp("History description"),
					},
					"required": []string{"name"},
				},
			},
			{
				"name":        "world_list",
				"description": "List all worlds, newest first, with their ids, names, and creation times.",
				"inputSchema": map[string]any{
					"type":       "object",
					"properties": map[string]any{},
				},
			},
			{
				"name":        "world_get",
				"description": "Get a world by id with all its fields.",
				"inputSchema": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"world_id": idProp("The world id to retrieve"),
					},
					"required": []string{"world_id"},
				},
			},
			{
				"name":        "world_update",
				"description": "Update a world's fields. Only the fields provided are changed; the creation timestamp is preserved.",
				"inputSchema": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"world_id":      idProp("The world id to update"),
						"name":          idProp("New world name"),
						"geography":     idProp("New geography description"),
						"cultures":      idProp("New cultures description"),
						"magic_systems": idProp("New magic systems description"),
						"history":       idProp("New history description"),
					},
					"required": []string{"world_id"},
				},
			},
			{
				"name":        "world_delete",
				"description": "Delete a world and everything in it: its characters, its stories, and their character links. This cannot be undone.",
				"inputSchema": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"world_id": idProp("The world id to delete"),
					},
					"required": []string{"world_id"},
				},
			},
			{
				"name":        "character_create",
				"description": "Create a character in a world. The world must exist.",
				"inputSchema": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name":          idProp("Character name"),
						"world_id":      idProp("Id of the world the character lives in"),
						"profile":       idProp("Character profile"),
						"backstory":     idProp("Character backstory"),
						"relationships": idProp("Character relationships"),
						"character_arc": idProp("Character arc"),
					},
					"required": []string{"name", "world_id"},
				},
			},
			{
				"name":        "character_list",
				"description": "List characters, newest first. Optionally scoped to one world.",
				"inputSchema": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"world_id": idProp("Optional world id to scope the list to"),
					},
				},
			},
			{
				"name":        "character_get",
				"description": "Get a character by id with all its fields.",
				"inputSchema": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"character_id": idProp("The character id to retrieve"),
					},
					"required": []string{"character_id"},
				},
			},
			{
				"name":        "character_update",
				"description": "Update a character's fields. Only the fields provided are changed.",
				"inputSchema": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"character_id":  idProp("The character id to update"),
						"name":          idProp("New character name"),
						"profile":       idProp("New profile"),
						"backstory":     idProp("New backstory"),
						"relationships": idProp("New relationships"),
						"character_arc": idProp("New character arc"),
					},
					"required": []string{"character_id"},
				},
			},
			{
				"name":        "character_delete",
				"description": "Delete a character and remove it from any stories it appears in.",
				"inputSchema": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"character_id": idProp("The character id to delete"),
					},
					"required": []string{"character_id"},
				},
			},
			{
				"name":        "story_create",
				"description": "Create a story in a world, optionally linking characters that appear in it. The story and all links are written atomically.",
				"inputSchema": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title":          idProp("Story title"),
						"world_id":       idProp("Id of the world the story is set in"),
						"plot_structure": idProp("Plot structure"),
						"scenes":         idProp("Scenes"),
						"dialogue":       idProp("Dialogue"),
						"themes":         idProp("Themes"),
						"character_ids": map[string]any{
							"type":        "array",
							"items":       map[string]any{"type": "string"},
							"description": "Ids of characters appearing in the story",
						},
					},
					"required": []string{"title", "world_id"},
				},
			},
			{
				"name":        "story_list",
				"description": "List stories, newest first, with their character links. Optionally scoped to one world.",
				"inputSchema": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"world_id": idProp("Optional world id to scope the list to"),
					},
				},
			},
			{
				"name":        "story_get",
				"description": "Get a story by id with all its fields and character links.",
				"inputSchema": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"story_id": idProp("The story id to retrieve"),
					},
					"required": []string{"story_id"},
				},
			},
			{
				"name":        "story_update",
				"description": "Update a story's fields. Providing character_ids replaces the full set of character links.",
				"inputSchema": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"story_id":       idProp("The story id to update"),
						"title":          idProp("New story title"),
						"plot_structure": idProp("New plot structure"),
						"scenes":         idProp("New scenes"),
						"dialogue":       idProp("New dialogue"),
						"themes":         idProp("New themes"),
						"character_ids": map[string]any{
							"type":        "array",
							"items":       map[string]any{"type": "string"},
							"description": "Replacement set of character ids for the story",
						},
					},
					"required": []string{"story_id"},
				},
			},
			{
				"name":        "story_delete",
				"description": "Delete a story and its character links.",
				"inputSchema": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"story_id": idProp("The story id to delete"),
					},
					"required": []string{"story_id"},
				},
			},
			{
				"name":        "revise_text",
				"description": "Rewrite a draft according to an instruction using the configured AI provider. Returns the rewrite and a line diff with added and removed runs marked.",
				"inputSchema": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"text":        idProp("The draft text to revise"),
						"instruction": idProp("What to do with the draft, e.g. 'tighten the dialogue'"),
					},
					"required": []string{"text", "instruction"},
				},
			},
			{
				"name":        "compare_texts",
				"description": "Compute a line diff between two texts. Each line is a list of spans marked as added, removed, or unchanged.",
				"inputSchema": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"old_text": idProp("The baseline text"),
						"new_text": idProp("The revised text"),
					},
					"required": []string{"old_text", "new_text"},
				},
			},
			{
				"name":        "count_text",
				"description": "Count words and characters in a document. HTML markup is stripped before counting.",
				"inputSchema": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"text": idProp("The document text, plain or HTML"),
					},
					"required": []string{"text"},
				},
			},
			{
				"name":        "stats",
				"description": "Get record counts for worlds, characters, and stories.",
				"inputSchema": map[string]any{
					"type":       "object",
					"properties": map[string]any{},
				},
			},
			{
				"name":        "settings_get",
				"description": "Get all stored settings. Keys ai_provider, ai_temperature, and ai_max_tokens override the config file.",
				"inputSchema": map[string]any{
					"type":       "object",
					"properties": map[string]any{},
				},
			},
			{
				"name":        "setting_set",
				"description": "Store a setting by key. AI overrides take effect the next time the engine starts.",
				"inputSchema": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"key":   idProp("Setting key, e.g. ai_provider"),
						"value": idProp("Setting value"),
					},
					"required": []string{"key", "value"},
				},
			},
		},
	}
}

func (s *server) handleToolsCall(params json.RawMessage) any {
	var call struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}

	if err := json.Unmarshal(params, &call); err != nil {
		return mcpError("invalid tool call: %v", err)
	}

	switch call.Name {
	case "world_create":
		return s.handleWorldCreate(call.Arguments)
	case "world_list":
		return s.handleWorldList()
	case "world_get":
		return s.handleWorldGet(call.Arguments)
	case "world_update":
		return s.handleWorldUpdate(call.Arguments)
	case "world_delete":
		return s.handleWorldDelete(call.Arguments)
	case "character_create":
		return s.handleCharacterCreate(call.Arguments)
	case "character_list":
		return s.handleCharacterList(call.Arguments)
	case "character_get":
		return s.handleCharacterGet(call.Arguments)
	case "character_update":
		return s.handleCharacterUpdate(call.Arguments)
	case "character_delete":
		return s.handleCharacterDelete(call.Arguments)
	case "story_create":
		return s.handleStoryCreate(call.Arguments)
	case "story_list":
		return s.handleStoryList(call.Arguments)
	case "story_get":
		return s.handleStoryGet(call.Arguments)
	case "story_update":
		return s.handleStoryUpdate(call.Arguments)
	case "story_delete":
		return s.handleStoryDelete(call.Arguments)
	case "revise_text":
		return s.handleReviseText(call.Arguments)
	case "compare_texts":
		return s.handleCompareTexts(call.Arguments)
	case "count_text":
		return s.handleCountText(call.Arguments)
	case "stats":
		return s.handleStats()
	case "settings_get":
		return s.handleSettingsGet()
	case "setting_set":
		return s.handleSettingSet(call.Arguments)
	default:
		return mcpError("unknown tool: %s", call.Name)
	}
}

// --- tool handlers ---

func (s *server) handleWorldCreate(args json.RawMessage) any {
	var params struct {
		Name         string `json:"name"`
		Geography    string `json:"geography"`
		Cultures     string `json:"cultures"`
		MagicSystems string `json:"magic_systems"`
		History      string `json:"history"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return mcpError("invalid arguments: %v", err)
	}
	if params.Name == "" {
		return mcpError("name parameter is required")
	}

	world, err := s.engine.CreateWorld(wordforge.World{
		Name:         params.Name,
		Geography:    params.Geography,
		Cultures:     params.Cultures,
		MagicSystems: params.MagicSystems,
		History:      params.History,
	})
	if err != nil {
		return mcpError("%v", err)
	}
	log.Printf("world_create: id=%s", world.ID)
	return mcpJSON(world)
}

func (s *server) handleWorldList() any {
	worlds, err := s.engine.Worlds()
	if err != nil {
		return mcpError("%v", err)
	}
	log.Printf("world_list: %d results", len(worlds))
	return mcpJSON(worlds)
}

func (s *server) handleWorldGet(args json.RawMessage) any {
	var params struct {
		WorldID string `json:"world_id"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return mcpError("invalid arguments: %v", err)
	}
	if params.WorldID == "" {
		return mcpError("world_id parameter is required")
	}

	world, err := s.engine.World(params.WorldID)
	if err != nil {
		return mcpError("%v", err)
	}
	if world == nil {
		return mcpError("world not found: %s", params.WorldID)
	}
	return mcpJSON(world)
}

func (s *server) handleWorldUpdate(args json.RawMessage) any {
	var params struct {
		WorldID      string  `json:"world_id"`
		Name         *string `json:"name"`
		Geography    *string `json:"geography"`
		Cultures     *string `json:"cultures"`
		MagicSystems *string `json:"magic_systems"`
		History      *string `json:"history"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return mcpError("invalid arguments: %v", err)
	}
	if params.WorldID == "" {
		return mcpError("world_id parameter is required")
	}

	world, err := s.engine.World(params.WorldID)
	if err != nil {
		return mcpError("%v", err)
	}
	if world == nil {
		return mcpError("world not found: %s", params.WorldID)
	}

	if params.Name != nil {
		world.Name = *params.Name
	}
	if params.Geography != nil {
		world.Geography = *params.Geography
	}
	if params.Cultures != nil {
		world.Cultures = *params.Cultures
	}
	if params.MagicSystems != nil {
		world.MagicSystems = *params.MagicSystems
	}
	if params.History != nil {
		world.History = *params.History
	}

	updated, err := s.engine.UpdateWorld(*world)
	if err != nil {
		return mcpError("%v", err)
	}
	return mcpJSON(updated)
}

func (s *server) handleWorldDelete(args json.RawMessage) any {
	var params struct {
		WorldID string `json:"world_id"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return mcpError("invalid arguments: %v", err)
	}
	if params.WorldID == "" {
		return mcpError("world_id parameter is required")
	}

	if err := s.engine.DeleteWorld(params.WorldID); err != nil {
		return mcpError("%v", err)
	}
	log.Printf("world_delete: id=%s", params.WorldID)
	return mcpText("Deleted world %s and everything in it", params.WorldID)
}

func (s *server) handleCharacterCreate(args json.RawMessage) any {
	var params struct {
		Name          string `json:"name"`
		WorldID       string `json:"world_id"`
		Profile       string `json:"profile"`
		Backstory     string `json:"backstory"`
		Relationships string `json:"relationships"`
		CharacterArc  string `json:"character_arc"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return mcpError("invalid arguments: %v", err)
	}
	if params.Name == "" || params.WorldID == "" {
		return mcpError("name and world_id parameters are required")
	}

	character, err := s.engine.CreateCharacter(wordforge.Character{
		Name:          params.Name,
		WorldID:       params.WorldID,
		Profile:       params.Profile,
		Backstory:     params.Backstory,
		Relationships: params.Relationships,
		CharacterArc:  params.CharacterArc,
	})
	if err != nil {
		return mcpError("%v", err)
	}
	log.Printf("character_create: id=%s", character.ID)
	return mcpJSON(character)
}

func (s *server) handleCharacterList(args json.RawMessage) any {
	var params struct {
		WorldID string `json:"world_id"`
	}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &params); err != nil {
			return mcpError("invalid arguments: %v", err)
		}
	}

	var chars []wordforge.Character
	var err error
	if params.WorldID != "" {
		chars, err = s.engine.CharactersByWorld(params.WorldID)
	} else {
		chars, err = s.engine.Characters()
	}
	if err != nil {
		return mcpError("%v", err)
	}
	log.Printf("character_list: %d results", len(chars))
	return mcpJSON(chars)
}

func (s *server) handleCharacterGet(args json.RawMessage) any {
	var params struct {
		CharacterID string `json:"character_id"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return mcpError("invalid arguments: %v", err)
	}
	if params.CharacterID == "" {
		return mcpError("character_id parameter is required")
	}

	character, err := s.engine.Character(params.CharacterID)
	if err != nil {
		return mcpError("%v", err)
	}
	if character == nil {
		return mcpError("character not found: %s", params.CharacterID)
	}
	return mcpJSON(character)
}

func (s *server) handleCharacterUpdate(args json.RawMessage) any {
	var params struct {
		CharacterID   string  `json:"character_id"`
		Name          *string `json:"name"`
		Profile       *string `json:"profile"`
		Backstory     *string `json:"backstory"`
		Relationships *string `json:"relationships"`
		CharacterArc  *string `json:"character_arc"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return mcpError("invalid arguments: %v", err)
	}
	if params.CharacterID == "" {
		return mcpError("character_id parameter is required")
	}

	character, err := s.engine.Character(params.CharacterID)
	if err != nil {
		return mcpError("%v", err)
	}
	if character == nil {
		return mcpError("character not found: %s", params.CharacterID)
	}

	if params.Name != nil {
		character.Name = *params.Name
	}
	if params.Profile != nil {
		character.Profile = *params.Profile
	}
	if params.Backstory != nil {
		character.Backstory = *params.Backstory
	}
	if params.Relationships != nil {
		character.Relationships = *params.Relationships
	}
	if params.CharacterArc != nil {
		character.CharacterArc = *params.CharacterArc
	}

	updated, err := s.engine.UpdateCharacter(*character)
	if err != nil {
		return mcpError("%v", err)
	}
	return mcpJSON(updated)
}

func (s *server) handleCharacterDelete(args json.RawMessage) any {
	var params struct {
		CharacterID string `json:"character_id"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return mcpError("invalid arguments: %v", err)
	}
	if params.CharacterID == "" {
		return mcpError("character_id parameter is required")
	}

	if err := s.engine.DeleteCharacter(params.CharacterID); err != nil {
		return mcpError("%v", err)
	}
	log.Printf("character_delete: id=%s", params.CharacterID)
	return mcpText("Deleted character %s", params.CharacterID)
}

func (s *server) handleStoryCreate(args json.RawMessage) any {
	var params struct {
		Title         string   `json:"title"`
		WorldID       string   `json:"world_id"`
		PlotStructure string   `json:"plot_structure"`
		Scenes        string   `json:"scenes"`
		Dialogue      string   `json:"dialogue"`
		Themes        string   `json:"themes"`
		CharacterIDs  []string `json:"character_ids"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return mcpError("invalid arguments: %v", err)
	}
	if params.Title == "" || params.WorldID == "" {
		return mcpError("title and world_id parameters are required")
	}

	story, err := s.engine.CreateStory(wordforge.Story{
		Title:         params.Title,
		WorldID:       params.WorldID,
		PlotStructure: params.PlotStructure,
		Scenes:        params.Scenes,
		Dialogue:      params.Dialogue,
		Themes:        params.Themes,
		CharacterIDs:  params.CharacterIDs,
	})
	if err != nil {
		return mcpError("%v", err)
	}
	log.Printf("story_create: id=%s characters=%d", story.ID, len(story.CharacterIDs))
	return mcpJSON(story)
}

func (s *server) handleStoryList(args json.RawMessage) any {
	var params struct {
		WorldID string `json:"world_id"`
	}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &params); err != nil {
			return mcpError("invalid arguments: %v", err)
		}
	}

	var stories []wordforge.Story
	var err error
	if params.WorldID != "" {
		stories, err = s.engine.StoriesByWorld(params.WorldID)
	} else {
		stories, err = s.engine.Stories()
	}
	if err != nil {
		return mcpError("%v", err)
	}
	log.Printf("story_list: %d results", len(stories))
	return mcpJSON(stories)
}

func (s *server) handleStoryGet(args json.RawMessage) any {
	var params struct {
		StoryID string `json:"story_id"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return mcpError("invalid arguments: %v", err)
	}
	if params.StoryID == "" {
		return mcpError("story_id parameter is required")
	}

	story, err := s.engine.Story(params.StoryID)
	if err != nil {
		return mcpError("%v", err)
	}
	if story == nil {
		return mcpError("story not found: %s", params.StoryID)
	}
	return mcpJSON(story)
}

func (s *server) handleStoryUpdate(args json.RawMessage) any {
	var params struct {
		StoryID       string    `json:"story_id"`
		Title         *string   `json:"title"`
		PlotStructure *string   `json:"plot_structure"`
		Scenes        *string   `json:"scenes"`
		Dialogue      *string   `json:"dialogue"`
		Themes        *string   `json:"themes"`
		CharacterIDs  *[]string `json:"character_ids"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return mcpError("invalid arguments: %v", err)
	}
	if params.StoryID == "" {
		return mcpError("story_id parameter is required")
	}

	story, err := s.engine.Story(params.StoryID)
	if err != nil {
		return mcpError("%v", err)
	}
	if story == nil {
		return mcpError("story not found: %s", params.StoryID)
	}

	if params.Title != nil {
		story.Title = *params.Title
	}
	if params.PlotStructure != nil {
		story.PlotStructure = *params.PlotStructure
	}
	if params.Scenes != nil {
		story.Scenes = *params.Scenes
	}
	if params.Dialogue != nil {
		story.Dialogue = *params.Dialogue
	}
	if params.Themes != nil {
		story.Themes = *params.Themes
	}
	if params.CharacterIDs != nil {
		story.CharacterIDs = *params.CharacterIDs
	}

	updated, err := s.engine.UpdateStory(*story)
	if err != nil {
		return mcpError("%v", err)
	}
	return mcpJSON(updated)
}

func (s *server) handleStoryDelete(args json.RawMessage) any {
	var params struct {
		StoryID string `json:"story_id"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return mcpError("invalid arguments: %v", err)
	}
	if params.StoryID == "" {
		return mcpError("story_id parameter is required")
	}

	if err := s.engine.DeleteStory(params.StoryID); err != nil {
		return mcpError("%v", err)
	}
	log.Printf("story_delete: id=%s", params.StoryID)
	return mcpText("Deleted story %s", params.StoryID)
}

func (s *server) handleReviseText(args json.RawMessage) any {
	var params struct {
		Text        string `json:"text"`
		Instruction string `json:"instruction"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return mcpError("invalid arguments: %v", err)
	}
	if params.Instruction == "" {
		return mcpError("instruction parameter is required")
	}

	rev, err := s.engine.ReviseText(context.Background(), params.Text, params.Instruction)
	if err != nil {
		return mcpError("%v", err)
	}
	log.Printf("revise_text: agent=%s %d diff lines", rev.Agent, len(rev.Diff))
	return mcpJSON(rev)
}

func (s *server) handleCompareTexts(args json.RawMessage) any {
	var params struct {
		OldText string `json:"old_text"`
		NewText string `json:"new_text"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return mcpError("invalid arguments: %v", err)
	}

	lines := s.engine.CompareTexts(params.OldText, params.NewText)
	return mcpJSON(map[string]any{"diff": lines})
}

func (s *server) handleCountText(args json.RawMessage) any {
	var params struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return mcpError("invalid arguments: %v", err)
	}
	return mcpJSON(s.engine.TextMetrics(params.Text))
}

func (s *server) handleStats() any {
	stats, err := s.engine.Stats()
	if err != nil {
		return mcpError("%v", err)
	}
	return mcpJSON(stats)
}

func (s *server) handleSettingsGet() any {
	settings, err := s.engine.Settings()
	if err != nil {
		return mcpError("%v", err)
	}
	return mcpJSON(settings)
}

func (s *server) handleSettingSet(args json.RawMessage) any {
	var params struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return mcpError("invalid arguments: %v", err)
	}
	if params.Key == "" {
		return mcpError("key parameter is required")
	}

	if err := s.engine.SetSetting(params.Key, params.Value); err != nil {
		return mcpError("%v", err)
	}
	return mcpText("Set %s=%s", params.Key, params.Value)
}

// --- MCP response helpers ---

func mcpText(format string, args ...any) any {
	return map[string]any{
		"content": []map[string]any{
			{"type": "text", "text": fmt.Sprintf(format, args...)},
		},
	}
}

func mcpJSON(data any) any {
	b, err := json.Marshal(data)
	if err != nil {
		return mcpError("marshal response: %v", err)
	}
	return map[string]any{
		"content": []map[string]any{
			{"type": "text", "text": string(b)},
		},
	}
}

func mcpError(format string, args ...any) any {
	return map[string]any{
		"content": []map[string]any{
			{"type": "text", "text": fmt.Sprintf("Error: "+format, args...)},
		},
		"isError": true,
	}
}
