package storage

const Schema = `
CREATE TABLE IF NOT EXISTS worlds (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    geography TEXT NOT NULL DEFAULT '',
    cultures TEXT NOT NULL DEFAULT '',
    magic_systems TEXT NOT NULL DEFAULT '',
    history TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_worlds_created ON worlds(created_at DESC);

CREATE TABLE IF NOT EXISTS characters (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    world_id TEXT NOT NULL,
    profile TEXT NOT NULL DEFAULT '',
    backstory TEXT NOT NULL DEFAULT '',
    relationships TEXT NOT NULL DEFAULT '',
    character_arc TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL,
    FOREIGN KEY (world_id) REFERENCES worlds(id)
);

CREATE INDEX IF NOT EXISTS idx_characters_world ON characters(world_id);
CREATE INDEX IF NOT EXISTS idx_characters_created ON characters(created_at DESC);

CREATE TABLE IF NOT EXISTS stories (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    world_id TEXT NOT NULL,
    plot_structure TEXT NOT NULL DEFAULT '',
    scenes TEXT NOT NULL DEFAULT '',
    dialogue TEXT NOT NULL DEFAULT '',
    themes TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL,
    FOREIGN KEY (world_id) REFERENCES worlds(id)
);

CREATE INDEX IF NOT EXISTS idx_stories_world ON stories(world_id);
CREATE INDEX IF NOT EXISTS idx_stories_created ON stories(created_at DESC);

CREATE TABLE IF NOT EXISTS story_characters (
    story_id TEXT NOT NULL,
    character_id TEXT NOT NULL,
    PRIMARY KEY (story_id, character_id),
    FOREIGN KEY (story_id) REFERENCES stories(id),
    FOREIGN KEY (character_id) REFERENCES characters(id)
);

CREATE INDEX IF NOT EXISTS idx_story_characters_character ON story_characters(character_id);

CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`
