package wordforge

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func newTestEngine(t *testing.T, cfg EngineConfig) *Engine {
	t.Helper()
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(t.TempDir(), "wordforge.db")
	}
	e, err := NewEngine(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func TestEngineWorldLifecycle(t *testing.T) {
	e := newTestEngine(t, EngineConfig{ReadOnly: true})

	created, err := e.CreateWorld(World{Name: "Aerndal", Geography: "fjords"})
	if err != nil {
		t.Fatalf("CreateWorld failed: %v", err)
	}
	if created.ID == "" || created.CreatedAt.IsZero() {
		t.Errorf("created world missing id or timestamp: %+v", created)
	}

	created.History = "the long winter"
	updated, err := e.UpdateWorld(*created)
	if err != nil {
		t.Fatalf("UpdateWorld failed: %v", err)
	}
	if updated.History != "the long winter" {
		t.Errorf("history not updated: %+v", updated)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Error("update changed the creation timestamp")
	}

	if err := e.DeleteWorld(created.ID); err != nil {
		t.Fatalf("DeleteWorld failed: %v", err)
	}
	got, err := e.World(created.ID)
	if err != nil {
		t.Fatalf("World failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil after delete, got %+v", got)
	}
}

func TestEngineStoryCharacterLinks(t *testing.T) {
	e := newTestEngine(t, EngineConfig{ReadOnly: true})

	w, err := e.CreateWorld(World{Name: "Mistral"})
	if err != nil {
		t.Fatalf("CreateWorld failed: %v", err)
	}
	a, _ := e.CreateCharacter(Character{Name: "Ash", WorldID: w.ID})
	b, _ := e.CreateCharacter(Character{Name: "Brill", WorldID: w.ID})
	if a == nil || b == nil {
		t.Fatal("character creation failed")
	}

	st, err := e.CreateStory(Story{
		Title:        "The Crossing",
		WorldID:      w.ID,
		CharacterIDs: []string{a.ID, b.ID},
	})
	if err != nil {
		t.Fatalf("CreateStory failed: %v", err)
	}
	if len(st.CharacterIDs) != 2 || st.CharacterIDs[0] != a.ID || st.CharacterIDs[1] != b.ID {
		t.Errorf("character links: got %v", st.CharacterIDs)
	}

	st.CharacterIDs = []string{b.ID}
	updated, err := e.UpdateStory(*st)
	if err != nil {
		t.Fatalf("UpdateStory failed: %v", err)
	}
	if len(updated.CharacterIDs) != 1 || updated.CharacterIDs[0] != b.ID {
		t.Errorf("links not replaced: got %v", updated.CharacterIDs)
	}
}

func TestEngineReadOnlyRevise(t *testing.T) {
	e := newTestEngine(t, EngineConfig{ReadOnly: true})

	_, err := e.ReviseText(context.Background(), "draft", "polish this")
	if !errors.Is(err, ErrReadOnly) {
		t.Errorf("expected ErrReadOnly, got %v", err)
	}
	if e.ProviderName() != "" {
		t.Errorf("read-only engine reports provider %q", e.ProviderName())
	}
}

func TestEngineReviseWithMock(t *testing.T) {
	e := newTestEngine(t, EngineConfig{Provider: "mock"})

	rev, err := e.ReviseText(context.Background(), "The valley was quiet.", "sharpen this scene")
	if err != nil {
		t.Fatalf("ReviseText failed: %v", err)
	}
	if rev.OriginalText != "The valley was quiet." {
		t.Errorf("original text: got %q", rev.OriginalText)
	}
	if rev.ProcessedText == rev.OriginalText {
		t.Error("processed text unchanged")
	}
	if rev.Agent != "story-making" {
		t.Errorf("agent: got %q", rev.Agent)
	}
	if len(rev.Diff) == 0 {
		t.Error("expected a non-empty diff")
	}
}

func TestStoredSettingsOverrideConfig(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "wordforge.db")

	first := newTestEngine(t, EngineConfig{DBPath: dbPath, ReadOnly: true})
	if err := first.SetSetting("ai_provider", "mock"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	first.Close()

	// The default provider is gemini, which needs an API key. The
	// stored setting must win, so this engine comes up with the mock.
	second := newTestEngine(t, EngineConfig{DBPath: dbPath})
	if second.ProviderName() != "mock" {
		t.Errorf("provider: got %q, want mock", second.ProviderName())
	}
}

func TestEngineExportImport(t *testing.T) {
	src := newTestEngine(t, EngineConfig{ReadOnly: true})

	w, _ := src.CreateWorld(World{Name: "Origin"})
	c, _ := src.CreateCharacter(Character{Name: "Keeper", WorldID: w.ID})
	if _, err := src.CreateStory(Story{Title: "Genesis", WorldID: w.ID, CharacterIDs: []string{c.ID}}); err != nil {
		t.Fatalf("CreateStory failed: %v", err)
	}

	backup, err := src.Export()
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	dst := newTestEngine(t, EngineConfig{ReadOnly: true})
	if err := dst.Import(backup); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	got, err := dst.World(w.ID)
	if err != nil || got == nil {
		t.Fatalf("imported world missing: %v, %v", got, err)
	}
	if !got.CreatedAt.Equal(w.CreatedAt) {
		t.Error("import changed the creation timestamp")
	}

	stats, err := dst.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Worlds != 1 || stats.Characters != 1 || stats.Stories != 1 {
		t.Errorf("stats after import: %+v", stats)
	}
}

func TestEngineCompareTexts(t *testing.T) {
	e := newTestEngine(t, EngineConfig{ReadOnly: true})

	lines := e.CompareTexts("the quick fox", "the slow fox")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	var changed bool
	for _, s := range lines[0] {
		if s.Added || s.Removed {
			changed = true
		}
	}
	if !changed {
		t.Error("expected changed spans")
	}
}

func TestEngineTextMetrics(t *testing.T) {
	e := newTestEngine(t, EngineConfig{ReadOnly: true})

	m := e.TextMetrics("<p>one <em>two</em> three</p>")
	if m.Words != 3 {
		t.Errorf("words: got %d, want 3", m.Words)
	}
	if m.Characters != len("one two three") {
		t.Errorf("characters: got %d", m.Characters)
	}
}

func TestEngineUnknownProvider(t *testing.T) {
	_, err := NewEngine(context.Background(), EngineConfig{
		DBPath:   filepath.Join(t.TempDir(), "wordforge.db"),
		Provider: "frontier",
	})
	if err == nil || !strings.Contains(err.Error(), "unknown AI provider") {
		t.Errorf("expected unknown provider error, got %v", err)
	}
}
