package wordforge

import "time"

// EngineConfig configures the Word-Forge engine.
type EngineConfig struct {
	DBPath        string
	Provider      string  // gemini, ollama, or mock
	Temperature   float64 // sampling temperature for text processing
	MaxTokens     int     // response length cap
	GeminiModel   string
	OllamaBaseURL string
	OllamaModel   string
	ReadOnly      bool // when true, skip AI provider creation
}

// World represents a fictional setting that characters and stories
// belong to.
type World struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Geography    string    `json:"geography"`
	Cultures     string    `json:"cultures"`
	MagicSystems string    `json:"magicSystems"`
	History      string    `json:"history"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Character represents a character living in a world.
type Character struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	WorldID       string    `json:"worldId"`
	Profile       string    `json:"profile"`
	Backstory     string    `json:"backstory"`
	Relationships string    `json:"relationships"`
	CharacterArc  string    `json:"characterArc"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Story represents a story set in a world. CharacterIDs lists the
// characters appearing in it, in the order they were attached.
type Story struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	WorldID       string    `json:"worldId"`
	PlotStructure string    `json:"plotStructure"`
	Scenes        string    `json:"scenes"`
	Dialogue      string    `json:"dialogue"`
	Themes        string    `json:"themes"`
	CharacterIDs  []string  `json:"characterIds,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// StoryCharacter links a story to a character appearing in it.
type StoryCharacter struct {
	StoryID     string `json:"storyId"`
	CharacterID string `json:"characterId"`
}

// Backup is the export/import wire format for a full database snapshot.
type Backup struct {
	Worlds          []World          `json:"worlds"`
	Characters      []Character      `json:"characters"`
	Stories         []Story          `json:"stories"`
	StoryCharacters []StoryCharacter `json:"storyCharacters"`
}

// DiffSpan is a run of text within one line of a comparison. Added and
// Removed are mutually exclusive; an untagged span is common to both
// versions.
type DiffSpan struct {
	Text    string `json:"text"`
	Added   bool   `json:"added"`
	Removed bool   `json:"removed"`
}

// DiffLine is one display line of a comparison.
type DiffLine []DiffSpan

// Revision pairs a draft with its AI rewrite and the line diff between
// the two.
type Revision struct {
	OriginalText  string     `json:"originalText"`
	ProcessedText string     `json:"processedText"`
	Agent         string     `json:"agent"`
	Diff          []DiffLine `json:"diff"`
}

// Metrics holds word and character counts for a document.
type Metrics struct {
	Words      int `json:"words"`
	Characters int `json:"characters"`
}

// Stats holds record counts for each top-level collection.
type Stats struct {
	Worlds     int `json:"worlds"`
	Characters int `json:"characters"`
	Stories    int `json:"stories"`
}
