package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	wordforge "github.com/mhartwell/wordforge"
	"github.com/mhartwell/wordforge/internal/output"
	"github.com/mhartwell/wordforge/internal/storage"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	configPath   string
	cfg          *storage.Config
	outputFormat string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "wordforge",
		Short: "Word-Forge - AI-assisted creative writing with worlds, characters, and stories",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "human", "output format: json, text, human")

	rootCmd.AddCommand(worldCmd())
	rootCmd.AddCommand(characterCmd())
	rootCmd.AddCommand(storyCmd())
	rootCmd.AddCommand(reviseCmd())
	rootCmd.AddCommand(diffCmd())
	rootCmd.AddCommand(countCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(settingsCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(initConfigCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() error {
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg = storage.DefaultConfig()
		return nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	cfg = storage.DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	return nil
}

// openEngine creates an engine from the loaded config. Read-only mode
// skips AI provider creation so data commands never need an API key.
func openEngine(readOnly bool) (*wordforge.Engine, error) {
	engine, err := wordforge.NewEngine(context.Background(), wordforge.EngineConfig{
		DBPath:        cfg.Database.Path,
		Provider:      cfg.AI.Provider,
		Temperature:   cfg.AI.Temperature,
		MaxTokens:     cfg.AI.MaxTokens,
		GeminiModel:   cfg.AI.GeminiModel,
		OllamaBaseURL: cfg.AI.OllamaBaseURL,
		OllamaModel:   cfg.AI.OllamaModel,
		ReadOnly:      readOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open engine: %w", err)
	}
	return engine, nil
}

func formatter() *output.Formatter {
	return output.NewFormatter(output.Format(outputFormat))
}

func worldCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "world",
		Short: "Manage worlds",
	}
	cmd.AddCommand(worldCreateCmd())
	cmd.AddCommand(worldListCmd())
	cmd.AddCommand(worldShowCmd())
	cmd.AddCommand(worldUpdateCmd())
	cmd.AddCommand(worldDeleteCmd())
	return cmd
}

func worldCreateCmd() *cobra.Command {
	var w wordforge.World
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new world",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine(true)
			if err != nil {
				return err
			}
			defer engine.Close()

			created, err := engine.CreateWorld(w)
			if err != nil {
				return fmt.Errorf("failed to create world: %w", err)
			}
			return formatter().OutputWorldList([]wordforge.World{*created})
		},
	}
	cmd.Flags().StringVar(&w.Name, "name", "", "world name")
	cmd.Flags().StringVar(&w.Geography, "geography", "", "geography description")
	cmd.Flags().StringVar(&w.Cultures, "cultures", "", "cultures description")
	cmd.Flags().StringVar(&w.MagicSystems, "magic", "", "magic systems description")
	cmd.Flags().StringVar(&w.History, "history", "", "history description")
	cmd.MarkFlagRequired("name")
	return cmd
}

func worldListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all worlds, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine(true)
			if err != nil {
				return err
			}
			defer engine.Close()

			worlds, err := engine.Worlds()
			if err != nil {
				return fmt.Errorf("failed to list worlds: %w", err)
			}
			return formatter().OutputWorldList(worlds)
		},
	}
}

func worldShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <world-id>",
		Short: "Show one world",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine(true)
			if err != nil {
				return err
			}
			defer engine.Close()

			w, err := engine.World(args[0])
			if err != nil {
				return fmt.Errorf("failed to get world: %w", err)
			}
			if w == nil {
				return fmt.Errorf("world not found: %s", args[0])
			}
			return formatter().OutputWorldList([]wordforge.World{*w})
		},
	}
}

func worldUpdateCmd() *cobra.Command {
	var w wordforge.World
	cmd := &cobra.Command{
		Use:   "update <world-id>",
		Short: "Update a world's fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine(true)
			if err != nil {
				return err
			}
			defer engine.Close()

			existing, err := engine.World(args[0])
			if err != nil {
				return fmt.Errorf("failed to get world: %w", err)
			}
			if existing == nil {
				return fmt.Errorf("world not found: %s", args[0])
			}

			// Only flags that were set overwrite existing fields.
			if cmd.Flags().Changed("name") {
				existing.Name = w.Name
			}
			if cmd.Flags().Changed("geography") {
				existing.Geography = w.Geography
			}
			if cmd.Flags().Changed("cultures") {
				existing.Cultures = w.Cultures
			}
			if cmd.Flags().Changed("magic") {
				existing.MagicSystems = w.MagicSystems
			}
			if cmd.Flags().Changed("history") {
				existing.History = w.History
			}

			updated, err := engine.UpdateWorld(*existing)
			if err != nil {
				return fmt.Errorf("failed to update world: %w", err)
			}
			return formatter().OutputWorldList([]wordforge.World{*updated})
		},
	}
	cmd.Flags().StringVar(&w.Name, "name", "", "world name")
	cmd.Flags().StringVar(&w.Geography, "geography", "", "geography description")
	cmd.Flags().StringVar(&w.Cultures, "cultures", "", "cultures description")
	cmd.Flags().StringVar(&w.MagicSystems, "magic", "", "magic systems description")
	cmd.Flags().StringVar(&w.History, "history", "", "history description")
	return cmd
}

func worldDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <world-id>",
		Short: "Delete a world and everything in it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine(true)
			if err != nil {
				return err
			}
			defer engine.Close()

			if err := engine.DeleteWorld(args[0]); err != nil {
				return fmt.Errorf("failed to delete world: %w", err)
			}
			fmt.Printf("Deleted world %s\n", args[0])
			return nil
		},
	}
}

func characterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "character",
		Short: "Manage characters",
	}
	cmd.AddCommand(characterCreateCmd())
	cmd.AddCommand(characterListCmd())
	cmd.AddCommand(characterShowCmd())
	cmd.AddCommand(characterUpdateCmd())
	cmd.AddCommand(characterDeleteCmd())
	return cmd
}

func characterCreateCmd() *cobra.Command {
	var c wordforge.Character
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new character",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine(true)
			if err != nil {
				return err
			}
			defer engine.Close()

			created, err := engine.CreateCharacter(c)
			if err != nil {
				return fmt.Errorf("failed to create character: %w", err)
			}
			return formatter().OutputCharacterList([]wordforge.Character{*created})
		},
	}
	cmd.Flags().StringVar(&c.Name, "name", "", "character name")
	cmd.Flags().StringVar(&c.WorldID, "world", "", "world id the character belongs to")
	cmd.Flags().StringVar(&c.Profile, "profile", "", "character profile")
	cmd.Flags().StringVar(&c.Backstory, "backstory", "", "character backstory")
	cmd.Flags().StringVar(&c.Relationships, "relationships", "", "character relationships")
	cmd.Flags().StringVar(&c.CharacterArc, "arc", "", "character arc")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("world")
	return cmd
}

func characterListCmd() *cobra.Command {
	var worldID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List characters, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine(true)
			if err != nil {
				return err
			}
			defer engine.Close()

			var chars []wordforge.Character
			if worldID != "" {
				chars, err = engine.CharactersByWorld(worldID)
			} else {
				chars, err = engine.Characters()
			}
			if err != nil {
				return fmt.Errorf("failed to list characters: %w", err)
			}
			return formatter().OutputCharacterList(chars)
		},
	}
	cmd.Flags().StringVar(&worldID, "world", "", "only list characters of this world")
	return cmd
}

func characterShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <character-id>",
		Short: "Show one character",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine(true)
			if err != nil {
				return err
			}
			defer engine.Close()

			c, err := engine.Character(args[0])
			if err != nil {
				return fmt.Errorf("failed to get character: %w", err)
			}
			if c == nil {
				return fmt.Errorf("character not found: %s", args[0])
			}
			return formatter().OutputCharacterList([]wordforge.Character{*c})
		},
	}
}

func characterUpdateCmd() *cobra.Command {
	var c wordforge.Character
	cmd := &cobra.Command{
		Use:   "update <character-id>",
		Short: "Update a character's fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine(true)
			if err != nil {
				return err
			}
			defer engine.Close()

			existing, err := engine.Character(args[0])
			if err != nil {
				return fmt.Errorf("failed to get character: %w", err)
			}
			if existing == nil {
				return fmt.Errorf("character not found: %s", args[0])
			}

			if cmd.Flags().Changed("name") {
				existing.Name = c.Name
			}
			if cmd.Flags().Changed("profile") {
				existing.Profile = c.Profile
			}
			if cmd.Flags().Changed("backstory") {
				existing.Backstory = c.Backstory
			}
			if cmd.Flags().Changed("relationships") {
				existing.Relationships = c.Relationships
			}
			if cmd.Flags().Changed("arc") {
				existing.CharacterArc = c.CharacterArc
			}

			updated, err := engine.UpdateCharacter(*existing)
			if err != nil {
				return fmt.Errorf("failed to update character: %w", err)
			}
			return formatter().OutputCharacterList([]wordforge.Character{*updated})
		},
	}
	cmd.Flags().StringVar(&c.Name, "name", "", "character name")
	cmd.Flags().StringVar(&c.Profile, "profile", "", "character profile")
	cmd.Flags().StringVar(&c.Backstory, "backstory", "", "character backstory")
	cmd.Flags().StringVar(&c.Relationships, "relationships", "", "character relationships")
	cmd.Flags().StringVar(&c.CharacterArc, "arc", "", "character arc")
	return cmd
}

func characterDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <character-id>",
		Short: "Delete a character and its story links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine(true)
			if err != nil {
				return err
			}
			defer engine.Close()

			if err := engine.DeleteCharacter(args[0]); err != nil {
				return fmt.Errorf("failed to delete character: %w", err)
			}
			fmt.Printf("Deleted character %s\n", args[0])
			return nil
		},
	}
}

func storyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "story",
		Short: "Manage stories",
	}
	cmd.AddCommand(storyCreateCmd())
	cmd.AddCommand(storyListCmd())
	cmd.AddCommand(storyShowCmd())
	cmd.AddCommand(storyUpdateCmd())
	cmd.AddCommand(storyDeleteCmd())
	return cmd
}

func storyCreateCmd() *cobra.Command {
	var st wordforge.Story
	var characters string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new story",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine(true)
			if err != nil {
				return err
			}
			defer engine.Close()

			st.CharacterIDs = splitIDs(characters)
			created, err := engine.CreateStory(st)
			if err != nil {
				return fmt.Errorf("failed to create story: %w", err)
			}
			return formatter().OutputStoryList([]wordforge.Story{*created})
		},
	}
	cmd.Flags().StringVar(&st.Title, "title", "", "story title")
	cmd.Flags().StringVar(&st.WorldID, "world", "", "world id the story is set in")
	cmd.Flags().StringVar(&st.PlotStructure, "plot", "", "plot structure")
	cmd.Flags().StringVar(&st.Scenes, "scenes", "", "scenes")
	cmd.Flags().StringVar(&st.Dialogue, "dialogue", "", "dialogue")
	cmd.Flags().StringVar(&st.Themes, "themes", "", "themes")
	cmd.Flags().StringVar(&characters, "characters", "", "comma-separated character ids")
	cmd.MarkFlagRequired("title")
	cmd.MarkFlagRequired("world")
	return cmd
}

func storyListCmd() *cobra.Command {
	var worldID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stories, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine(true)
			if err != nil {
				return err
			}
			defer engine.Close()

			var stories []wordforge.Story
			if worldID != "" {
				stories, err = engine.StoriesByWorld(worldID)
			} else {
				stories, err = engine.Stories()
			}
			if err != nil {
				return fmt.Errorf("failed to list stories: %w", err)
			}
			return formatter().OutputStoryList(stories)
		},
	}
	cmd.Flags().StringVar(&worldID, "world", "", "only list stories of this world")
	return cmd
}

func storyShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <story-id>",
		Short: "Show one story",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine(true)
			if err != nil {
				return err
			}
			defer engine.Close()

			st, err := engine.Story(args[0])
			if err != nil {
				return fmt.Errorf("failed to get story: %w", err)
			}
			if st == nil {
				return fmt.Errorf("story not found: %s", args[0])
			}
			return formatter().OutputStoryList([]wordforge.Story{*st})
		},
	}
}

func storyUpdateCmd() *cobra.Command {
	var st wordforge.Story
	var characters string
	cmd := &cobra.Command{
		Use:   "update <story-id>",
		Short: "Update a story's fields and character links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine(true)
			if err != nil {
				return err
			}
			defer engine.Close()

			existing, err := engine.Story(args[0])
			if err != nil {
				return fmt.Errorf("failed to get story: %w", err)
			}
			if existing == nil {
				return fmt.Errorf("story not found: %s", args[0])
			}

			if cmd.Flags().Changed("title") {
				existing.Title = st.Title
			}
			if cmd.Flags().Changed("plot") {
				existing.PlotStructure = st.PlotStructure
			}
			if cmd.Flags().Changed("scenes") {
				existing.Scenes = st.Scenes
			}
			if cmd.Flags().Changed("dialogue") {
				existing.Dialogue = st.Dialogue
			}
			if cmd.Flags().Changed("themes") {
				existing.Themes = st.Themes
			}
			if cmd.Flags().Changed("characters") {
				existing.CharacterIDs = splitIDs(characters)
			}

			updated, err := engine.UpdateStory(*existing)
			if err != nil {
				return fmt.Errorf("failed to update story: %w", err)
			}
			return formatter().OutputStoryList([]wordforge.Story{*updated})
		},
	}
	cmd.Flags().StringVar(&st.Title, "title", "", "story title")
	cmd.Flags().StringVar(&st.PlotStructure, "plot", "", "plot structure")
	cmd.Flags().StringVar(&st.Scenes, "scenes", "", "scenes")
	cmd.Flags().StringVar(&st.Dialogue, "dialogue", "", "dialogue")
	cmd.Flags().StringVar(&st.Themes, "themes", "", "themes")
	cmd.Flags().StringVar(&characters, "characters", "", "comma-separated character ids, replaces existing links")
	return cmd
}

func storyDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <story-id>",
		Short: "Delete a story and its character links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine(true)
			if err != nil {
				return err
			}
			defer engine.Close()

			if err := engine.DeleteStory(args[0]); err != nil {
				return fmt.Errorf("failed to delete story: %w", err)
			}
			fmt.Printf("Deleted story %s\n", args[0])
			return nil
		},
	}
}

// splitIDs parses a comma-separated id list, dropping empty entries.
func splitIDs(s string) []string {
	var ids []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			ids = append(ids, part)
		}
	}
	return ids
}
