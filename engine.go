// Package wordforge is the public API for the Word-Forge writing
// assistant. It wraps the internal storage layer, the AI text
// processor, and the revision diff engine behind one facade shared by
// the CLI, the web server, and the MCP server.
package wordforge

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/mhartwell/wordforge/internal/ai"
	"github.com/mhartwell/wordforge/internal/diff"
	"github.com/mhartwell/wordforge/internal/storage"
	"github.com/mhartwell/wordforge/internal/text"
)

// ErrReadOnly is returned when an AI operation is attempted on an
// engine created without a provider.
var ErrReadOnly = errors.New("engine is read-only: no AI provider configured")

// Engine is the public API for Word-Forge.
type Engine struct {
	store  *storage.Store
	ai     *ai.Processor
	config *storage.Config
}

// NewEngine creates a Word-Forge engine backed by the given SQLite
// database. AI settings stored in the database override the config
// values, which override the built-in defaults. The context is used
// only while constructing the AI provider client.
func NewEngine(ctx context.Context, cfg EngineConfig) (*Engine, error) {
	storeCfg := storage.DefaultConfig()
	if cfg.DBPath != "" {
		storeCfg.Database.Path = cfg.DBPath
	}
	if cfg.Provider != "" {
		storeCfg.AI.Provider = cfg.Provider
	}
	if cfg.Temperature != 0 {
		storeCfg.AI.Temperature = cfg.Temperature
	}
	if cfg.MaxTokens != 0 {
		storeCfg.AI.MaxTokens = cfg.MaxTokens
	}
	if cfg.GeminiModel != "" {
		storeCfg.AI.GeminiModel = cfg.GeminiModel
	}
	if cfg.OllamaBaseURL != "" {
		storeCfg.AI.OllamaBaseURL = cfg.OllamaBaseURL
	}
	if cfg.OllamaModel != "" {
		storeCfg.AI.OllamaModel = cfg.OllamaModel
	}

	store, err := storage.NewStore(storeCfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	applyStoredSettings(store, storeCfg)

	var processor *ai.Processor
	if !cfg.ReadOnly {
		processor, err = ai.NewProcessor(ctx, storeCfg)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("create AI processor: %w", err)
		}
	}

	return &Engine{store: store, ai: processor, config: storeCfg}, nil
}

// applyStoredSettings overlays AI settings persisted in the database
// onto the config. Malformed values are logged and skipped.
func applyStoredSettings(store *storage.Store, cfg *storage.Config) {
	if v, err := store.GetSetting(storage.SettingProvider); err == nil && v != "" {
		cfg.AI.Provider = v
	}
	if v, err := store.GetSetting(storage.SettingTemperature); err == nil && v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil {
			log.Printf("wordforge: ignoring malformed %s setting %q", storage.SettingTemperature, v)
		} else {
			cfg.AI.Temperature = t
		}
	}
	if v, err := store.GetSetting(storage.SettingMaxTokens); err == nil && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Printf("wordforge: ignoring malformed %s setting %q", storage.SettingMaxTokens, v)
		} else {
			cfg.AI.MaxTokens = n
		}
	}
}

// Close releases the underlying database connection.
func (e *Engine) Close() error {
	return e.store.Close()
}

// ProviderName returns the name of the active AI provider, or "" for a
// read-only engine.
func (e *Engine) ProviderName() string {
	if e.ai == nil {
		return ""
	}
	return e.ai.ProviderName()
}

// World operations

// CreateWorld persists a new world and returns the stored record with
// its generated id and creation timestamp.
func (e *Engine) CreateWorld(w World) (*World, error) {
	in := worldToInternal(w)
	id, err := e.store.CreateWorld(&in)
	if err != nil {
		return nil, err
	}
	return e.World(id)
}

// Worlds returns all worlds, newest first.
func (e *Engine) Worlds() ([]World, error) {
	worlds, err := e.store.GetAllWorlds()
	if err != nil {
		return nil, err
	}
	return worldsFromInternal(worlds), nil
}

// World returns the world with the given id, or nil if none exists.
func (e *Engine) World(id string) (*World, error) {
	w, err := e.store.GetWorld(id)
	if err != nil || w == nil {
		return nil, err
	}
	out := worldFromInternal(*w)
	return &out, nil
}

// UpdateWorld overwrites an existing world's fields and returns the
// stored record. The creation timestamp is preserved.
func (e *Engine) UpdateWorld(w World) (*World, error) {
	in := worldToInternal(w)
	if err := e.store.UpdateWorld(&in); err != nil {
		return nil, err
	}
	return e.World(w.ID)
}

// DeleteWorld removes a world along with its characters, its stories,
// and their story-character links, all in one transaction. Deleting an
// unknown id is a no-op.
func (e *Engine) DeleteWorld(id string) error {
	return e.store.DeleteWorld(id)
}

// Character operations

// CreateCharacter persists a new character. The character's world must
// exist.
func (e *Engine) CreateCharacter(c Character) (*Character, error) {
	in := characterToInternal(c)
	id, err := e.store.CreateCharacter(&in)
	if err != nil {
		return nil, err
	}
	return e.Character(id)
}

// Characters returns all characters, newest first.
func (e *Engine) Characters() ([]Character, error) {
	chars, err := e.store.GetAllCharacters()
	if err != nil {
		return nil, err
	}
	return charactersFromInternal(chars), nil
}

// CharactersByWorld returns the characters of one world, newest first.
func (e *Engine) CharactersByWorld(worldID string) ([]Character, error) {
	chars, err := e.store.GetCharactersByWorld(worldID)
	if err != nil {
		return nil, err
	}
	return charactersFromInternal(chars), nil
}

// Character returns the character with the given id, or nil if none
// exists.
func (e *Engine) Character(id string) (*Character, error) {
	c, err := e.store.GetCharacter(id)
	if err != nil || c == nil {
		return nil, err
	}
	out := characterFromInternal(*c)
	return &out, nil
}

// UpdateCharacter overwrites an existing character's fields and
// returns the stored record.
func (e *Engine) UpdateCharacter(c Character) (*Character, error) {
	in := characterToInternal(c)
	if err := e.store.UpdateCharacter(&in); err != nil {
		return nil, err
	}
	return e.Character(c.ID)
}

// DeleteCharacter removes a character and its story-character links.
// Deleting an unknown id is a no-op.
func (e *Engine) DeleteCharacter(id string) error {
	return e.store.DeleteCharacter(id)
}

// Story operations

// CreateStory persists a new story together with its character links.
// The story row and all links are written in one transaction; a bad
// character id rolls back the whole create.
func (e *Engine) CreateStory(st Story) (*Story, error) {
	in := storyToInternal(st)
	id, err := e.store.CreateStory(&in, st.CharacterIDs)
	if err != nil {
		return nil, err
	}
	return e.Story(id)
}

// Stories returns all stories, newest first, with character links
// populated.
func (e *Engine) Stories() ([]Story, error) {
	stories, err := e.store.GetAllStories()
	if err != nil {
		return nil, err
	}
	return e.storiesFromInternal(stories)
}

// StoriesByWorld returns the stories of one world, newest first.
func (e *Engine) StoriesByWorld(worldID string) ([]Story, error) {
	stories, err := e.store.GetStoriesByWorld(worldID)
	if err != nil {
		return nil, err
	}
	return e.storiesFromInternal(stories)
}

// Story returns the story with the given id, or nil if none exists.
func (e *Engine) Story(id string) (*Story, error) {
	st, err := e.store.GetStory(id)
	if err != nil || st == nil {
		return nil, err
	}
	out := storyFromInternal(*st)
	out.CharacterIDs, err = e.store.GetStoryCharacters(id)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateStory overwrites an existing story's fields and replaces its
// character links with st.CharacterIDs, all in one transaction.
func (e *Engine) UpdateStory(st Story) (*Story, error) {
	in := storyToInternal(st)
	if err := e.store.UpdateStory(&in, st.CharacterIDs); err != nil {
		return nil, err
	}
	return e.Story(st.ID)
}

// DeleteStory removes a story and its character links. Deleting an
// unknown id is a no-op.
func (e *Engine) DeleteStory(id string) error {
	return e.store.DeleteStory(id)
}

// Text operations

// ReviseText sends a draft and an instruction through the AI provider
// and returns the rewrite together with a line-level diff against the
// draft.
func (e *Engine) ReviseText(ctx context.Context, draft, instruction string) (*Revision, error) {
	if e.ai == nil {
		return nil, ErrReadOnly
	}
	resp, err := e.ai.ProcessText(ctx, draft, instruction)
	if err != nil {
		return nil, err
	}
	return &Revision{
		OriginalText:  resp.OriginalText,
		ProcessedText: resp.ProcessedText,
		Agent:         string(ai.DetermineAgent(instruction)),
		Diff:          diffFromInternal(diff.Compute(resp.OriginalText, resp.ProcessedText)),
	}, nil
}

// CompareTexts computes the line-level diff between two texts.
func (e *Engine) CompareTexts(oldText, newText string) []DiffLine {
	return diffFromInternal(diff.Compute(oldText, newText))
}

// TextMetrics strips rich-text markup and returns word and character
// counts.
func (e *Engine) TextMetrics(richText string) Metrics {
	m := text.Count(richText)
	return Metrics{Words: m.Words, Characters: m.Characters}
}

// Settings

// Setting returns the stored value for a settings key, or "" if unset.
func (e *Engine) Setting(key string) (string, error) {
	return e.store.GetSetting(key)
}

// SetSetting stores a settings value. Engines created afterwards pick
// up AI overrides; the current engine keeps its provider.
func (e *Engine) SetSetting(key, value string) error {
	return e.store.SetSetting(key, value)
}

// Settings returns all stored settings.
func (e *Engine) Settings() (map[string]string, error) {
	return e.store.AllSettings()
}

// Backup operations

// Export returns a snapshot of every record in the database.
func (e *Engine) Export() (*Backup, error) {
	b, err := e.store.ExportData()
	if err != nil {
		return nil, err
	}
	out := &Backup{
		Worlds:     worldsFromInternal(b.Worlds),
		Characters: charactersFromInternal(b.Characters),
	}
	for _, st := range b.Stories {
		out.Stories = append(out.Stories, storyFromInternal(st))
	}
	for _, sc := range b.StoryCharacters {
		out.StoryCharacters = append(out.StoryCharacters, StoryCharacter(sc))
	}
	return out, nil
}

// Import replaces the entire database contents with the snapshot,
// preserving record ids and creation timestamps. The wipe and reload
// happen in one transaction.
func (e *Engine) Import(b *Backup) error {
	in := &storage.Backup{}
	for _, w := range b.Worlds {
		in.Worlds = append(in.Worlds, worldToInternal(w))
	}
	for _, c := range b.Characters {
		in.Characters = append(in.Characters, characterToInternal(c))
	}
	for _, st := range b.Stories {
		in.Stories = append(in.Stories, storyToInternal(st))
	}
	for _, sc := range b.StoryCharacters {
		in.StoryCharacters = append(in.StoryCharacters, storage.StoryCharacter(sc))
	}
	return e.store.ImportData(in)
}

// Stats returns record counts for each collection.
func (e *Engine) Stats() (*Stats, error) {
	counts, err := e.store.CountEntities()
	if err != nil {
		return nil, err
	}
	return &Stats{
		Worlds:     counts.Worlds,
		Characters: counts.Characters,
		Stories:    counts.Stories,
	}, nil
}

// Type conversions between the public API and internal storage.

func worldFromInternal(w storage.World) World {
	return World{
		ID:           w.ID,
		Name:         w.Name,
		Geography:    w.Geography,
		Cultures:     w.Cultures,
		MagicSystems: w.MagicSystems,
		History:      w.History,
		CreatedAt:    w.CreatedAt,
	}
}

func worldToInternal(w World) storage.World {
	return storage.World{
		ID:           w.ID,
		Name:         w.Name,
		Geography:    w.Geography,
		Cultures:     w.Cultures,
		MagicSystems: w.MagicSystems,
		History:      w.History,
		CreatedAt:    w.CreatedAt,
	}
}

func worldsFromInternal(worlds []storage.World) []World {
	out := make([]World, 0, len(worlds))
	for _, w := range worlds {
		out = append(out, worldFromInternal(w))
	}
	return out
}

func characterFromInternal(c storage.Character) Character {
	return Character{
		ID:            c.ID,
		Name:          c.Name,
		WorldID:       c.WorldID,
		Profile:       c.Profile,
		Backstory:     c.Backstory,
		Relationships: c.Relationships,
		CharacterArc:  c.CharacterArc,
		CreatedAt:     c.CreatedAt,
	}
}

func characterToInternal(c Character) storage.Character {
	return storage.Character{
		ID:            c.ID,
		Name:          c.Name,
		WorldID:       c.WorldID,
		Profile:       c.Profile,
		Backstory:     c.Backstory,
		Relationships: c.Relationships,
		CharacterArc:  c.CharacterArc,
		CreatedAt:     c.CreatedAt,
	}
}

func charactersFromInternal(chars []storage.Character) []Character {
	out := make([]Character, 0, len(chars))
	for _, c := range chars {
		out = append(out, characterFromInternal(c))
	}
	return out
}

func storyFromInternal(st storage.Story) Story {
	return Story{
		ID:            st.ID,
		Title:         st.Title,
		WorldID:       st.WorldID,
		PlotStructure: st.PlotStructure,
		Scenes:        st.Scenes,
		Dialogue:      st.Dialogue,
		Themes:        st.Themes,
		CreatedAt:     st.CreatedAt,
	}
}

func storyToInternal(st Story) storage.Story {
	return storage.Story{
		ID:            st.ID,
		Title:         st.Title,
		WorldID:       st.WorldID,
		PlotStructure: st.PlotStructure,
		Scenes:        st.Scenes,
		Dialogue:      st.Dialogue,
		Themes:        st.Themes,
		CreatedAt:     st.CreatedAt,
	}
}

func (e *Engine) storiesFromInternal(stories []storage.Story) ([]Story, error) {
	out := make([]Story, 0, len(stories))
	for _, st := range stories {
		s := storyFromInternal(st)
		ids, err := e.store.GetStoryCharacters(st.ID)
		if err != nil {
			return nil, err
		}
		s.CharacterIDs = ids
		out = append(out, s)
	}
	return out, nil
}

func diffFromInternal(lines []diff.Line) []DiffLine {
	out := make([]DiffLine, 0, len(lines))
	for _, line := range lines {
		dl := make(DiffLine, 0, len(line))
		for _, s := range line {
			dl = append(dl, DiffSpan{Text: s.Text, Added: s.Added, Removed: s.Removed})
		}
		out = append(out, dl)
	}
	return out
}
