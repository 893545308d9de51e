package storage

type Config struct {
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	AI struct {
		Provider    string  `yaml:"provider"`
		Temperature float64 `yaml:"temperature"`
		MaxTokens   int     `yaml:"max_tokens"`

		GeminiModel string `yaml:"gemini_model"`

		OllamaBaseURL string `yaml:"ollama_base_url"`
		OllamaModel   string `yaml:"ollama_model"`
	} `yaml:"ai"`
}

// Setting keys recognized in the settings table. Stored settings
// override the config file, which overrides the built-in defaults.
const (
	SettingProvider    = "ai_provider"
	SettingTemperature = "ai_temperature"
	SettingMaxTokens   = "ai_max_tokens"
)

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Database.Path = "./wordforge.db"
	cfg.AI.Provider = "gemini"
	cfg.AI.Temperature = 0.7
	cfg.AI.MaxTokens = 1500
	cfg.AI.GeminiModel = "gemini-2.0-flash"
	cfg.AI.OllamaBaseURL = "http://localhost:11434"
	cfg.AI.OllamaModel = "llama3"
	return cfg
}
