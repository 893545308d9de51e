package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	wordforge "github.com/mhartwell/wordforge"
	"github.com/mhartwell/wordforge/internal/storage"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// readDocument reads a draft from a file path, or from stdin when the
// path is "-".
func readDocument(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

func reviseCmd() *cobra.Command {
	var instruction string
	var apply bool
	cmd := &cobra.Command{
		Use:   "revise <file>",
		Short: "Revise a draft with the AI provider and show the changes",
		Long: `Revise sends the draft and the instruction to the configured AI
provider and prints a line diff of the rewrite. With --apply the
rewrite replaces the file contents verbatim.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			draft, err := readDocument(args[0])
			if err != nil {
				return err
			}

			engine, err := openEngine(false)
			if err != nil {
				return err
			}
			defer engine.Close()

			rev, err := engine.ReviseText(cmd.Context(), draft, instruction)
			if err != nil {
				return fmt.Errorf("failed to revise: %w", err)
			}

			if err := formatter().OutputRevision(rev); err != nil {
				return err
			}

			if apply {
				if args[0] == "-" {
					return fmt.Errorf("cannot apply a revision to stdin")
				}
				if err := os.WriteFile(args[0], []byte(rev.ProcessedText), 0644); err != nil {
					return fmt.Errorf("failed to apply revision: %w", err)
				}
				fmt.Fprintf(os.Stderr, "Applied revision to %s\n", args[0])
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&instruction, "instruction", "i", "", "what to do with the draft")
	cmd.Flags().BoolVar(&apply, "apply", false, "write the rewrite back to the file")
	cmd.MarkFlagRequired("instruction")
	return cmd
}

func diffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff <old-file> <new-file>",
		Short: "Show a line diff between two documents",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			oldText, err := readDocument(args[0])
			if err != nil {
				return err
			}
			newText, err := readDocument(args[1])
			if err != nil {
				return err
			}

			engine, err := openEngine(true)
			if err != nil {
				return err
			}
			defer engine.Close()

			rev := &wordforge.Revision{
				OriginalText:  oldText,
				ProcessedText: newText,
				Agent:         "diff",
				Diff:          engine.CompareTexts(oldText, newText),
			}
			return formatter().OutputRevision(rev)
		},
	}
}

func countCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count <file>",
		Short: "Count words and characters in a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(args[0])
			if err != nil {
				return err
			}

			engine, err := openEngine(true)
			if err != nil {
				return err
			}
			defer engine.Close()

			return formatter().OutputMetrics(engine.TextMetrics(doc))
		},
	}
}

func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Export all data as a JSON backup",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine(true)
			if err != nil {
				return err
			}
			defer engine.Close()

			backup, err := engine.Export()
			if err != nil {
				return fmt.Errorf("failed to export: %w", err)
			}

			out := os.Stdout
			if len(args) == 1 {
				f, err := os.Create(args[0])
				if err != nil {
					return fmt.Errorf("failed to create backup file: %w", err)
				}
				defer f.Close()
				out = f
			}

			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(backup); err != nil {
				return fmt.Errorf("failed to write backup: %w", err)
			}
			if len(args) == 1 {
				fmt.Fprintf(os.Stderr, "Exported backup to %s\n", args[0])
			}
			return nil
		},
	}
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace all data with a JSON backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read backup: %w", err)
			}

			var backup wordforge.Backup
			if err := json.Unmarshal(data, &backup); err != nil {
				return fmt.Errorf("failed to parse backup: %w", err)
			}

			engine, err := openEngine(true)
			if err != nil {
				return err
			}
			defer engine.Close()

			if err := engine.Import(&backup); err != nil {
				return fmt.Errorf("failed to import: %w", err)
			}

			stats, err := engine.Stats()
			if err != nil {
				return fmt.Errorf("failed to count imported records: %w", err)
			}
			return formatter().OutputStats(stats)
		},
	}
}

func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Manage stored settings",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all stored settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine(true)
			if err != nil {
				return err
			}
			defer engine.Close()

			settings, err := engine.Settings()
			if err != nil {
				return fmt.Errorf("failed to list settings: %w", err)
			}
			return formatter().OutputSettings(settings)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a setting, overriding the config file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine(true)
			if err != nil {
				return err
			}
			defer engine.Close()

			if err := engine.SetSetting(args[0], args[1]); err != nil {
				return fmt.Errorf("failed to set %s: %w", args[0], err)
			}
			fmt.Printf("Set %s=%s\n", args[0], args[1])
			return nil
		},
	})
	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show record counts per collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine(true)
			if err != nil {
				return err
			}
			defer engine.Close()

			stats, err := engine.Stats()
			if err != nil {
				return fmt.Errorf("failed to get stats: %w", err)
			}
			return formatter().OutputStats(stats)
		},
	}
}

func initConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config",
		Short: "Create a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				configPath = "./config/config.yaml"
			}

			dir := filepath.Dir(configPath)
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create config directory: %w", err)
			}

			if _, err := os.Stat(configPath); err == nil {
				return fmt.Errorf("config file already exists: %s", configPath)
			}

			cfg := storage.DefaultConfig()
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}

			if err := os.WriteFile(configPath, data, 0644); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}

			fmt.Printf("Created default config at %s\n", configPath)
			return nil
		},
	}
}
