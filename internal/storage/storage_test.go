package storage

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewStore(t *testing.T) {
	store := newTestStore(t)
	if store.db == nil {
		t.Fatal("Database connection is nil")
	}
}

func TestCreateAndGetWorld(t *testing.T) {
	store := newTestStore(t)

	id, err := store.CreateWorld(&World{
		Name:         "Aethermoor",
		Geography:    "Floating archipelagos",
		Cultures:     "Sky nomads",
		MagicSystems: "Wind binding",
		History:      "The Sundering",
	})
	if err != nil {
		t.Fatalf("CreateWorld failed: %v", err)
	}
	if id == "" {
		t.Fatal("World ID should not be empty")
	}

	w, err := store.GetWorld(id)
	if err != nil {
		t.Fatalf("GetWorld failed: %v", err)
	}
	if w == nil {
		t.Fatal("expected world, got nil")
	}
	if w.Name != "Aethermoor" {
		t.Errorf("world name mismatch: got %s", w.Name)
	}
	if w.Geography != "Floating archipelagos" {
		t.Errorf("world geography mismatch: got %s", w.Geography)
	}
	if w.CreatedAt.IsZero() {
		t.Error("createdAt should be set")
	}
}

func TestGetWorldNotFound(t *testing.T) {
	store := newTestStore(t)

	w, err := store.GetWorld("no-such-id")
	if err != nil {
		t.Fatalf("GetWorld failed: %v", err)
	}
	if w != nil {
		t.Errorf("expected nil for missing world, got %+v", w)
	}
}

func TestGetAllWorldsNewestFirst(t *testing.T) {
	store := newTestStore(t)

	for _, name := range []string{"First", "Second", "Third"} {
		if _, err := store.CreateWorld(&World{Name: name}); err != nil {
			t.Fatalf("CreateWorld failed: %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	worlds, err := store.GetAllWorlds()
	if err != nil {
		t.Fatalf("GetAllWorlds failed: %v", err)
	}
	if len(worlds) != 3 {
		t.Fatalf("expected 3 worlds, got %d", len(worlds))
	}
	if worlds[0].Name != "Third" || worlds[2].Name != "First" {
		t.Errorf("wrong order: got %s, %s, %s", worlds[0].Name, worlds[1].Name, worlds[2].Name)
	}
}

func TestUniqueIDs(t *testing.T) {
	store := newTestStore(t)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id, err := store.CreateWorld(&World{Name: "World"})
		if err != nil {
			t.Fatalf("CreateWorld failed: %v", err)
		}
		if seen[id] {
			t.Fatalf("duplicate id generated: %s", id)
		}
		seen[id] = true
	}
}

func TestUpdateWorld(t *testing.T) {
	store := newTestStore(t)

	id, _ := store.CreateWorld(&World{Name: "Before"})
	orig, _ := store.GetWorld(id)

	err := store.UpdateWorld(&World{ID: id, Name: "After", Geography: "New lands"})
	if err != nil {
		t.Fatalf("UpdateWorld failed: %v", err)
	}

	w, _ := store.GetWorld(id)
	if w.Name != "After" {
		t.Errorf("name not updated: got %s", w.Name)
	}
	if !w.CreatedAt.Equal(orig.CreatedAt) {
		t.Errorf("createdAt changed on update: %v != %v", w.CreatedAt, orig.CreatedAt)
	}
}

func TestUpdateWorldMissingID(t *testing.T) {
	store := newTestStore(t)
	store.CreateWorld(&World{Name: "Existing"})

	err := store.UpdateWorld(&World{Name: "No ID"})
	if !errors.Is(err, ErrMissingID) {
		t.Fatalf("expected ErrMissingID, got %v", err)
	}

	// Nothing must have been written.
	worlds, _ := store.GetAllWorlds()
	if len(worlds) != 1 {
		t.Errorf("expected 1 world after failed update, got %d", len(worlds))
	}
}

func TestUpdateWorldNotFound(t *testing.T) {
	store := newTestStore(t)

	err := store.UpdateWorld(&World{ID: "ghost", Name: "Ghost"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteWorldUnknownIsNoop(t *testing.T) {
	store := newTestStore(t)

	if err := store.DeleteWorld("no-such-id"); err != nil {
		t.Fatalf("DeleteWorld on unknown id should be a no-op, got %v", err)
	}
}

func TestCreateCharacterRequiresWorld(t *testing.T) {
	store := newTestStore(t)

	_, err := store.CreateCharacter(&Character{Name: "Orphan", WorldID: "missing"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing world, got %v", err)
	}
}

func TestCharacterLifecycle(t *testing.T) {
	store := newTestStore(t)

	worldID, _ := store.CreateWorld(&World{Name: "Home"})
	id, err := store.CreateCharacter(&Character{
		Name:          "Elara",
		WorldID:       worldID,
		Profile:       "Silver-haired scholar",
		Backstory:     "Orphaned, raised by scholars",
		Relationships: "None yet",
		CharacterArc:  "Seeks her heritage",
	})
	if err != nil {
		t.Fatalf("CreateCharacter failed: %v", err)
	}

	c, err := store.GetCharacter(id)
	if err != nil {
		t.Fatalf("GetCharacter failed: %v", err)
	}
	if c.Name != "Elara" || c.WorldID != worldID {
		t.Errorf("character mismatch: %+v", c)
	}

	byWorld, err := store.GetCharactersByWorld(worldID)
	if err != nil {
		t.Fatalf("GetCharactersByWorld failed: %v", err)
	}
	if len(byWorld) != 1 {
		t.Fatalf("expected 1 character for world, got %d", len(byWorld))
	}

	if err := store.UpdateCharacter(&Character{ID: id, Name: "Elara Nightwind", WorldID: worldID}); err != nil {
		t.Fatalf("UpdateCharacter failed: %v", err)
	}
	c, _ = store.GetCharacter(id)
	if c.Name != "Elara Nightwind" {
		t.Errorf("name not updated: got %s", c.Name)
	}

	if err := store.DeleteCharacter(id); err != nil {
		t.Fatalf("DeleteCharacter failed: %v", err)
	}
	c, _ = store.GetCharacter(id)
	if c != nil {
		t.Error("character still present after delete")
	}
}

func TestStoryCreateWithCharacters(t *testing.T) {
	store := newTestStore(t)

	worldID, _ := store.CreateWorld(&World{Name: "Home"})
	c1, _ := store.CreateCharacter(&Character{Name: "A", WorldID: worldID})
	c2, _ := store.CreateCharacter(&Character{Name: "B", WorldID: worldID})

	storyID, err := store.CreateStory(&Story{
		Title:         "The Artifact",
		WorldID:       worldID,
		PlotStructure: "Three acts",
	}, []string{c1, c2})
	if err != nil {
		t.Fatalf("CreateStory failed: %v", err)
	}

	ids, err := store.GetStoryCharacters(storyID)
	if err != nil {
		t.Fatalf("GetStoryCharacters failed: %v", err)
	}
	if len(ids) != 2 || ids[0] != c1 || ids[1] != c2 {
		t.Errorf("expected [%s %s], got %v", c1, c2, ids)
	}
}

func TestCreateStoryUnknownCharacterRollsBack(t *testing.T) {
	store := newTestStore(t)

	worldID, _ := store.CreateWorld(&World{Name: "Home"})

	// A bad character id violates the foreign key; the story row must
	// not survive the failed transaction.
	_, err := store.CreateStory(&Story{Title: "Broken", WorldID: worldID}, []string{"no-such-character"})
	if err == nil {
		t.Fatal("expected error for unknown character id")
	}

	stories, _ := store.GetAllStories()
	if len(stories) != 0 {
		t.Errorf("expected 0 stories after rollback, got %d", len(stories))
	}
}

func TestUpdateStoryReplacesAssociations(t *testing.T) {
	store := newTestStore(t)

	worldID, _ := store.CreateWorld(&World{Name: "Home"})
	a, _ := store.CreateCharacter(&Character{Name: "A", WorldID: worldID})
	b, _ := store.CreateCharacter(&Character{Name: "B", WorldID: worldID})
	c, _ := store.CreateCharacter(&Character{Name: "C", WorldID: worldID})

	storyID, _ := store.CreateStory(&Story{Title: "Tale", WorldID: worldID}, []string{a, b})

	st, _ := store.GetStory(storyID)
	if err := store.UpdateStory(st, []string{c}); err != nil {
		t.Fatalf("UpdateStory failed: %v", err)
	}

	ids, _ := store.GetStoryCharacters(storyID)
	if len(ids) != 1 || ids[0] != c {
		t.Errorf("expected [%s], got %v", c, ids)
	}

	// An empty list clears all associations, it is not a no-op.
	if err := store.UpdateStory(st, nil); err != nil {
		t.Fatalf("UpdateStory with empty list failed: %v", err)
	}
	ids, _ = store.GetStoryCharacters(storyID)
	if len(ids) != 0 {
		t.Errorf("expected no associations, got %v", ids)
	}
}

func TestUpdateStoryMissingID(t *testing.T) {
	store := newTestStore(t)

	err := store.UpdateStory(&Story{Title: "No ID"}, nil)
	if !errors.Is(err, ErrMissingID) {
		t.Fatalf("expected ErrMissingID, got %v", err)
	}
}

func TestDeleteWorldCascades(t *testing.T) {
	store := newTestStore(t)

	worldID, _ := store.CreateWorld(&World{Name: "Doomed"})
	otherID, _ := store.CreateWorld(&World{Name: "Spared"})

	c1, _ := store.CreateCharacter(&Character{Name: "A", WorldID: worldID})
	store.CreateCharacter(&Character{Name: "B", WorldID: worldID})
	keeper, _ := store.CreateCharacter(&Character{Name: "Keeper", WorldID: otherID})

	storyID, _ := store.CreateStory(&Story{Title: "Lost Tale", WorldID: worldID}, []string{c1})
	store.CreateStory(&Story{Title: "Kept Tale", WorldID: otherID}, []string{keeper})

	if err := store.DeleteWorld(worldID); err != nil {
		t.Fatalf("DeleteWorld failed: %v", err)
	}

	characters, _ := store.GetAllCharacters()
	for _, c := range characters {
		if c.WorldID == worldID {
			t.Errorf("character %s still references deleted world", c.ID)
		}
	}
	if len(characters) != 1 {
		t.Errorf("expected 1 surviving character, got %d", len(characters))
	}

	stories, _ := store.GetAllStories()
	if len(stories) != 1 {
		t.Fatalf("expected 1 surviving story, got %d", len(stories))
	}
	if stories[0].Title != "Kept Tale" {
		t.Errorf("wrong story survived: %s", stories[0].Title)
	}

	ids, _ := store.GetStoryCharacters(storyID)
	if len(ids) != 0 {
		t.Errorf("deleted story still has %d associations", len(ids))
	}
}

func TestDeleteCharacterRemovesAssociations(t *testing.T) {
	store := newTestStore(t)

	worldID, _ := store.CreateWorld(&World{Name: "Home"})
	a, _ := store.CreateCharacter(&Character{Name: "A", WorldID: worldID})
	b, _ := store.CreateCharacter(&Character{Name: "B", WorldID: worldID})
	storyID, _ := store.CreateStory(&Story{Title: "Tale", WorldID: worldID}, []string{a, b})

	if err := store.DeleteCharacter(a); err != nil {
		t.Fatalf("DeleteCharacter failed: %v", err)
	}

	ids, _ := store.GetStoryCharacters(storyID)
	if len(ids) != 1 || ids[0] != b {
		t.Errorf("expected [%s], got %v", b, ids)
	}
}

func TestSettings(t *testing.T) {
	store := newTestStore(t)

	// Unset keys read back as empty without error.
	v, err := store.GetSetting(SettingProvider)
	if err != nil {
		t.Fatalf("GetSetting failed: %v", err)
	}
	if v != "" {
		t.Errorf("expected empty value for unset key, got %q", v)
	}

	if err := store.SetSetting(SettingProvider, "ollama"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	if err := store.SetSetting(SettingProvider, "gemini"); err != nil {
		t.Fatalf("SetSetting overwrite failed: %v", err)
	}

	v, _ = store.GetSetting(SettingProvider)
	if v != "gemini" {
		t.Errorf("expected gemini, got %q", v)
	}

	store.SetSetting(SettingTemperature, "0.9")
	all, err := store.AllSettings()
	if err != nil {
		t.Fatalf("AllSettings failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 settings, got %d", len(all))
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	store := newTestStore(t)

	worldID, _ := store.CreateWorld(&World{Name: "Aethermoor", History: "The Sundering"})
	charID, _ := store.CreateCharacter(&Character{Name: "Elara", WorldID: worldID})
	storyID, _ := store.CreateStory(&Story{Title: "The Artifact", WorldID: worldID}, []string{charID})

	backup, err := store.ExportData()
	if err != nil {
		t.Fatalf("ExportData failed: %v", err)
	}
	if len(backup.Worlds) != 1 || len(backup.Characters) != 1 || len(backup.Stories) != 1 || len(backup.StoryCharacters) != 1 {
		t.Fatalf("unexpected backup sizes: %d/%d/%d/%d",
			len(backup.Worlds), len(backup.Characters), len(backup.Stories), len(backup.StoryCharacters))
	}

	// Import into a fresh store; ids and timestamps must survive.
	other := newTestStore(t)
	other.CreateWorld(&World{Name: "Stale"}) // must be cleared by import

	if err := other.ImportData(backup); err != nil {
		t.Fatalf("ImportData failed: %v", err)
	}

	worlds, _ := other.GetAllWorlds()
	if len(worlds) != 1 || worlds[0].ID != worldID {
		t.Fatalf("imported worlds wrong: %+v", worlds)
	}
	if !worlds[0].CreatedAt.Equal(backup.Worlds[0].CreatedAt) {
		t.Errorf("createdAt not preserved: %v != %v", worlds[0].CreatedAt, backup.Worlds[0].CreatedAt)
	}

	ids, _ := other.GetStoryCharacters(storyID)
	if len(ids) != 1 || ids[0] != charID {
		t.Errorf("associations not imported: %v", ids)
	}
}

func TestCountEntities(t *testing.T) {
	store := newTestStore(t)

	worldID, _ := store.CreateWorld(&World{Name: "Home"})
	store.CreateCharacter(&Character{Name: "A", WorldID: worldID})
	store.CreateCharacter(&Character{Name: "B", WorldID: worldID})
	store.CreateStory(&Story{Title: "Tale", WorldID: worldID}, nil)

	counts, err := store.CountEntities()
	if err != nil {
		t.Fatalf("CountEntities failed: %v", err)
	}
	if counts.Worlds != 1 || counts.Characters != 2 || counts.Stories != 1 {
		t.Errorf("wrong counts: %+v", counts)
	}
}
