package storage

// Storer defines the storage interface for wordforge's data layer.
type Storer interface {
	Close() error

	// Worlds
	CreateWorld(w *World) (string, error)
	GetAllWorlds() ([]World, error)
	GetWorld(id string) (*World, error)
	UpdateWorld(w *World) error
	DeleteWorld(id string) error

	// Characters
	CreateCharacter(c *Character) (string, error)
	GetAllCharacters() ([]Character, error)
	GetCharacter(id string) (*Character, error)
	GetCharactersByWorld(worldID string) ([]Character, error)
	UpdateCharacter(c *Character) error
	DeleteCharacter(id string) error

	// Stories
	CreateStory(st *Story, characterIDs []string) (string, error)
	GetAllStories() ([]Story, error)
	GetStory(id string) (*Story, error)
	GetStoriesByWorld(worldID string) ([]Story, error)
	UpdateStory(st *Story, characterIDs []string) error
	DeleteStory(id string) error
	GetStoryCharacters(storyID string) ([]string, error)

	// Settings
	GetSetting(key string) (string, error)
	SetSetting(key, value string) error
	AllSettings() (map[string]string, error)

	// Backup
	ExportData() (*Backup, error)
	ImportData(b *Backup) error

	// Stats
	CountEntities() (*EntityCounts, error)
}
