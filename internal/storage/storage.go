package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrMissingID is returned when an update is attempted on a record
// that has no identifier. Nothing is written.
var ErrMissingID = errors.New("missing record identifier")

// ErrNotFound is returned when a write targets a record that does not
// exist, for example updating a deleted story or creating a character
// under an unknown world.
var ErrNotFound = errors.New("record not found")

type Store struct {
	db *sql.DB
}

type World struct {
	ID           string
	Name         string
	Geography    string
	Cultures     string
	MagicSystems string
	History      string
	CreatedAt    time.Time
}

type Character struct {
	ID            string
	Name          string
	WorldID       string
	Profile       string
	Backstory     string
	Relationships string
	CharacterArc  string
	CreatedAt     time.Time
}

type Story struct {
	ID            string
	Title         string
	WorldID       string
	PlotStructure string
	Scenes        string
	Dialogue      string
	Themes        string
	CreatedAt     time.Time
}

type StoryCharacter struct {
	StoryID     string
	CharacterID string
}

// Backup is the export/import wire format. Field order and names match
// the JSON backup files produced by earlier releases, so old backups
// keep importing cleanly.
type Backup struct {
	Worlds          []World
	Characters      []Character
	Stories         []Story
	StoryCharacters []StoryCharacter
}

// NewStore opens (or creates) the database at dbPath and initializes the schema.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single-writer model: serialize access through one connection so
	// multi-statement transactions never race each other.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// newID returns a collision-resistant record identifier. Earlier
// releases derived ids from wall-clock milliseconds, which collides
// under rapid successive creation; random UUIDs do not.
func newID() string {
	return uuid.NewString()
}

// now returns the creation timestamp for new records.
func now() time.Time {
	return time.Now().UTC()
}

// worldExists reports whether a world row with the given id exists.
func (s *Store) worldExists(id string) (bool, error) {
	var one int
	err := s.db.QueryRow("SELECT 1 FROM worlds WHERE id = ?", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check world %s: %w", id, err)
	}
	return true, nil
}

// World operations

// CreateWorld persists a new world and returns its generated id.
// The id and creation timestamp on the input are ignored.
func (s *Store) CreateWorld(w *World) (string, error) {
	id := newID()
	createdAt := now()
	_, err := s.db.Exec(
		`INSERT INTO worlds (id, name, geography, cultures, magic_systems, history, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, w.Name, w.Geography, w.Cultures, w.MagicSystems, w.History, createdAt,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create world: %w", err)
	}
	w.ID = id
	w.CreatedAt = createdAt
	return id, nil
}

// GetAllWorlds returns every world, newest first.
func (s *Store) GetAllWorlds() ([]World, error) {
	rows, err := s.db.Query(
		`SELECT id, name, geography, cultures, magic_systems, history, created_at
		 FROM worlds ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get worlds: %w", err)
	}
	defer rows.Close()

	var worlds []World
	for rows.Next() {
		var w World
		if err := rows.Scan(&w.ID, &w.Name, &w.Geography, &w.Cultures, &w.MagicSystems, &w.History, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan world: %w", err)
		}
		worlds = append(worlds, w)
	}
	return worlds, rows.Err()
}

// GetWorld returns the world with the given id, or nil if it does not exist.
func (s *Store) GetWorld(id string) (*World, error) {
	var w World
	err := s.db.QueryRow(
		`SELECT id, name, geography, cultures, magic_systems, history, created_at
		 FROM worlds WHERE id = ?`, id,
	).Scan(&w.ID, &w.Name, &w.Geography, &w.Cultures, &w.MagicSystems, &w.History, &w.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get world %s: %w", id, err)
	}
	return &w, nil
}

// UpdateWorld overwrites all mutable fields of an existing world.
// The creation timestamp is never touched.
func (s *Store) UpdateWorld(w *World) error {
	if w.ID == "" {
		return ErrMissingID
	}
	result, err := s.db.Exec(
		`UPDATE worlds SET name = ?, geography = ?, cultures = ?, magic_systems = ?, history = ?
		 WHERE id = ?`,
		w.Name, w.Geography, w.Cultures, w.MagicSystems, w.History, w.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update world: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("world %s: %w", w.ID, ErrNotFound)
	}
	return nil
}

// DeleteWorld removes a world together with every character and story
// that references it, and the deleted stories' character associations.
// The whole sweep runs in one transaction. Deleting an unknown id is a
// no-op.
func (s *Store) DeleteWorld(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Join rows first, then dependents, then the world itself:
	// foreign keys require children to go before parents.
	if _, err := tx.Exec(
		`DELETE FROM story_characters
		 WHERE story_id IN (SELECT id FROM stories WHERE world_id = ?)`, id); err != nil {
		return fmt.Errorf("failed to delete story associations: %w", err)
	}
	if _, err := tx.Exec(
		`DELETE FROM story_characters
		 WHERE character_id IN (SELECT id FROM characters WHERE world_id = ?)`, id); err != nil {
		return fmt.Errorf("failed to delete character associations: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM stories WHERE world_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete stories: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM characters WHERE world_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete characters: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM worlds WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete world: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit world delete: %w", err)
	}
	return nil
}

// Character operations

// CreateCharacter persists a new character and returns its generated id.
// The referenced world must exist.
func (s *Store) CreateCharacter(c *Character) (string, error) {
	ok, err := s.worldExists(c.WorldID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("world %s: %w", c.WorldID, ErrNotFound)
	}

	id := newID()
	createdAt := now()
	_, err = s.db.Exec(
		`INSERT INTO characters (id, name, world_id, profile, backstory, relationships, character_arc, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, c.Name, c.WorldID, c.Profile, c.Backstory, c.Relationships, c.CharacterArc, createdAt,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create character: %w", err)
	}
	c.ID = id
	c.CreatedAt = createdAt
	return id, nil
}

// GetAllCharacters returns every character, newest first.
func (s *Store) GetAllCharacters() ([]Character, error) {
	rows, err := s.db.Query(
		`SELECT id, name, world_id, profile, backstory, relationships, character_arc, created_at
		 FROM characters ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get characters: %w", err)
	}
	defer rows.Close()
	return scanCharacters(rows)
}

// GetCharacter returns the character with the given id, or nil if it does not exist.
func (s *Store) GetCharacter(id string) (*Character, error) {
	var c Character
	err := s.db.QueryRow(
		`SELECT id, name, world_id, profile, backstory, relationships, character_arc, created_at
		 FROM characters WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.WorldID, &c.Profile, &c.Backstory, &c.Relationships, &c.CharacterArc, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get character %s: %w", id, err)
	}
	return &c, nil
}

// GetCharactersByWorld returns all characters belonging to a world.
func (s *Store) GetCharactersByWorld(worldID string) ([]Character, error) {
	rows, err := s.db.Query(
		`SELECT id, name, world_id, profile, backstory, relationships, character_arc, created_at
		 FROM characters WHERE world_id = ?`, worldID)
	if err != nil {
		return nil, fmt.Errorf("failed to get characters for world %s: %w", worldID, err)
	}
	defer rows.Close()
	return scanCharacters(rows)
}

func scanCharacters(rows *sql.Rows) ([]Character, error) {
	var characters []Character
	for rows.Next() {
		var c Character
		if err := rows.Scan(&c.ID, &c.Name, &c.WorldID, &c.Profile, &c.Backstory, &c.Relationships, &c.CharacterArc, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan character: %w", err)
		}
		characters = append(characters, c)
	}
	return characters, rows.Err()
}

// UpdateCharacter overwrites all mutable fields of an existing character.
func (s *Store) UpdateCharacter(c *Character) error {
	if c.ID == "" {
		return ErrMissingID
	}
	result, err := s.db.Exec(
		`UPDATE characters SET name = ?, world_id = ?, profile = ?, backstory = ?, relationships = ?, character_arc = ?
		 WHERE id = ?`,
		c.Name, c.WorldID, c.Profile, c.Backstory, c.Relationships, c.CharacterArc, c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update character: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("character %s: %w", c.ID, ErrNotFound)
	}
	return nil
}

// DeleteCharacter removes a character and any story associations that
// reference it. Deleting an unknown id is a no-op.
func (s *Store) DeleteCharacter(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM story_characters WHERE character_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete character associations: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM characters WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete character: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit character delete: %w", err)
	}
	return nil
}

// Story operations

// CreateStory persists a new story plus its character associations in
// one transaction and returns the generated story id. If any write
// fails, neither the story nor any association is retained.
func (s *Store) CreateStory(st *Story, characterIDs []string) (string, error) {
	ok, err := s.worldExists(st.WorldID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("world %s: %w", st.WorldID, ErrNotFound)
	}

	id := newID()
	createdAt := now()

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO stories (id, title, world_id, plot_structure, scenes, dialogue, themes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, st.Title, st.WorldID, st.PlotStructure, st.Scenes, st.Dialogue, st.Themes, createdAt,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create story: %w", err)
	}

	if err := insertStoryCharacters(tx, id, characterIDs); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit story create: %w", err)
	}
	st.ID = id
	st.CreatedAt = createdAt
	return id, nil
}

// GetAllStories returns every story, newest first.
func (s *Store) GetAllStories() ([]Story, error) {
	rows, err := s.db.Query(
		`SELECT id, title, world_id, plot_structure, scenes, dialogue, themes, created_at
		 FROM stories ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get stories: %w", err)
	}
	defer rows.Close()
	return scanStories(rows)
}

// GetStory returns the story with the given id, or nil if it does not exist.
func (s *Store) GetStory(id string) (*Story, error) {
	var st Story
	err := s.db.QueryRow(
		`SELECT id, title, world_id, plot_structure, scenes, dialogue, themes, created_at
		 FROM stories WHERE id = ?`, id,
	).Scan(&st.ID, &st.Title, &st.WorldID, &st.PlotStructure, &st.Scenes, &st.Dialogue, &st.Themes, &st.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get story %s: %w", id, err)
	}
	return &st, nil
}

// GetStoriesByWorld returns all stories belonging to a world.
func (s *Store) GetStoriesByWorld(worldID string) ([]Story, error) {
	rows, err := s.db.Query(
		`SELECT id, title, world_id, plot_structure, scenes, dialogue, themes, created_at
		 FROM stories WHERE world_id = ?`, worldID)
	if err != nil {
		return nil, fmt.Errorf("failed to get stories for world %s: %w", worldID, err)
	}
	defer rows.Close()
	return scanStories(rows)
}

func scanStories(rows *sql.Rows) ([]Story, error) {
	var stories []Story
	for rows.Next() {
		var st Story
		if err := rows.Scan(&st.ID, &st.Title, &st.WorldID, &st.PlotStructure, &st.Scenes, &st.Dialogue, &st.Themes, &st.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan story: %w", err)
		}
		stories = append(stories, st)
	}
	return stories, rows.Err()
}

// UpdateStory overwrites all mutable fields of an existing story and
// replaces its character associations with the given list, all in one
// transaction. The old association rows are always deleted first, so a
// new empty list leaves zero associations behind.
func (s *Store) UpdateStory(st *Story, characterIDs []string) error {
	if st.ID == "" {
		return ErrMissingID
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`UPDATE stories SET title = ?, world_id = ?, plot_structure = ?, scenes = ?, dialogue = ?, themes = ?
		 WHERE id = ?`,
		st.Title, st.WorldID, st.PlotStructure, st.Scenes, st.Dialogue, st.Themes, st.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update story: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("story %s: %w", st.ID, ErrNotFound)
	}

	if _, err := tx.Exec("DELETE FROM story_characters WHERE story_id = ?", st.ID); err != nil {
		return fmt.Errorf("failed to clear story associations: %w", err)
	}
	if err := insertStoryCharacters(tx, st.ID, characterIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit story update: %w", err)
	}
	return nil
}

// DeleteStory removes a story and its character associations in one
// transaction. Deleting an unknown id is a no-op.
func (s *Store) DeleteStory(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM story_characters WHERE story_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete story associations: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM stories WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete story: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit story delete: %w", err)
	}
	return nil
}

// GetStoryCharacters returns the ids of the characters associated with
// a story, in insertion order.
func (s *Store) GetStoryCharacters(storyID string) ([]string, error) {
	rows, err := s.db.Query(
		"SELECT character_id FROM story_characters WHERE story_id = ? ORDER BY rowid", storyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get story characters: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan character id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func insertStoryCharacters(tx *sql.Tx, storyID string, characterIDs []string) error {
	for _, cid := range characterIDs {
		if _, err := tx.Exec(
			"INSERT INTO story_characters (story_id, character_id) VALUES (?, ?)",
			storyID, cid,
		); err != nil {
			return fmt.Errorf("failed to associate character %s: %w", cid, err)
		}
	}
	return nil
}

// Settings

// GetSetting retrieves a single setting value. Returns an empty string
// with no error when the key has never been set.
func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return value, nil
}

// SetSetting sets a setting value, creating or updating as needed.
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}

// AllSettings returns every stored setting as a key-value map.
func (s *Store) AllSettings() (map[string]string, error) {
	rows, err := s.db.Query("SELECT key, value FROM settings")
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		settings[k] = v
	}
	return settings, rows.Err()
}

// Backup

// ExportData reads the full contents of every table into a Backup.
func (s *Store) ExportData() (*Backup, error) {
	worlds, err := s.GetAllWorlds()
	if err != nil {
		return nil, err
	}
	characters, err := s.GetAllCharacters()
	if err != nil {
		return nil, err
	}
	stories, err := s.GetAllStories()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query("SELECT story_id, character_id FROM story_characters ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("failed to get story characters: %w", err)
	}
	defer rows.Close()

	var joins []StoryCharacter
	for rows.Next() {
		var sc StoryCharacter
		if err := rows.Scan(&sc.StoryID, &sc.CharacterID); err != nil {
			return nil, fmt.Errorf("failed to scan story character: %w", err)
		}
		joins = append(joins, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &Backup{
		Worlds:          worlds,
		Characters:      characters,
		Stories:         stories,
		StoryCharacters: joins,
	}, nil
}

// ImportData replaces the entire database contents with the backup, in
// one transaction. Existing records are cleared first; imported records
// keep their original ids and creation timestamps.
func (s *Store) ImportData(b *Backup) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Children before parents, for the foreign key checks.
	for _, table := range []string{"story_characters", "stories", "characters", "worlds"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for _, w := range b.Worlds {
		if _, err := tx.Exec(
			`INSERT INTO worlds (id, name, geography, cultures, magic_systems, history, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			w.ID, w.Name, w.Geography, w.Cultures, w.MagicSystems, w.History, w.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to import world %s: %w", w.ID, err)
		}
	}
	for _, c := range b.Characters {
		if _, err := tx.Exec(
			`INSERT INTO characters (id, name, world_id, profile, backstory, relationships, character_arc, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.Name, c.WorldID, c.Profile, c.Backstory, c.Relationships, c.CharacterArc, c.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to import character %s: %w", c.ID, err)
		}
	}
	for _, st := range b.Stories {
		if _, err := tx.Exec(
			`INSERT INTO stories (id, title, world_id, plot_structure, scenes, dialogue, themes, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			st.ID, st.Title, st.WorldID, st.PlotStructure, st.Scenes, st.Dialogue, st.Themes, st.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to import story %s: %w", st.ID, err)
		}
	}
	for _, sc := range b.StoryCharacters {
		if _, err := tx.Exec(
			"INSERT INTO story_characters (story_id, character_id) VALUES (?, ?)",
			sc.StoryID, sc.CharacterID,
		); err != nil {
			return fmt.Errorf("failed to import association %s/%s: %w", sc.StoryID, sc.CharacterID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}
	return nil
}

// EntityCounts holds per-collection record counts.
type EntityCounts struct {
	Worlds     int
	Characters int
	Stories    int
}

// CountEntities returns record counts for each top-level collection.
func (s *Store) CountEntities() (*EntityCounts, error) {
	var counts EntityCounts
	row := s.db.QueryRow(`
		SELECT (SELECT COUNT(*) FROM worlds),
		       (SELECT COUNT(*) FROM characters),
		       (SELECT COUNT(*) FROM stories)`)
	if err := row.Scan(&counts.Worlds, &counts.Characters, &counts.Stories); err != nil {
		return nil, fmt.Errorf("failed to count entities: %w", err)
	}
	return &counts, nil
}
