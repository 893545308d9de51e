// Package output renders engine results in the CLI's three formats.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	wordforge "github.com/mhartwell/wordforge"
)

type Format string

const (
	FormatJSON  Format = "json"
	FormatText  Format = "text"
	FormatHuman Format = "human"
)

type Formatter struct {
	format Format
	out    io.Writer
	err    io.Writer
}

// NewFormatter creates a new output formatter
func NewFormatter(format Format) *Formatter {
	return &Formatter{
		format: format,
		out:    os.Stdout,
		err:    os.Stderr,
	}
}

// NewFormatterWithWriters creates a formatter with custom output writers for testability
func NewFormatterWithWriters(format Format, out, errW io.Writer) *Formatter {
	return &Formatter{
		format: format,
		out:    out,
		err:    errW,
	}
}

// OutputWorldList outputs a list of worlds
func (f *Formatter) OutputWorldList(worlds []wordforge.World) error {
	switch f.format {
	case FormatJSON:
		return json.NewEncoder(f.out).Encode(worlds)
	case FormatText:
		for _, w := range worlds {
			fmt.Fprintf(f.out, "id=%s\tname=%s\tcreated=%s\n",
				w.ID, w.Name, w.CreatedAt.Format(time.RFC3339))
		}
		return nil
	case FormatHuman:
		if len(worlds) == 0 {
			fmt.Fprintln(f.out, "No worlds yet")
			return nil
		}
		fmt.Fprintf(f.out, "Worlds (%d):\n\n", len(worlds))
		for _, w := range worlds {
			fmt.Fprintf(f.out, "ID: %s\n", w.ID)
			fmt.Fprintf(f.out, "Name: %s\n", w.Name)
			if w.Geography != "" {
				fmt.Fprintf(f.out, "Geography: %s\n", truncate(w.Geography, 120))
			}
			if w.Cultures != "" {
				fmt.Fprintf(f.out, "Cultures: %s\n", truncate(w.Cultures, 120))
			}
			fmt.Fprintf(f.out, "Created: %s\n", w.CreatedAt.Format("2006-01-02 15:04"))
			fmt.Fprintln(f.out, "---")
		}
		return nil
	}
	return fmt.Errorf("unknown format: %s", f.format)
}

// OutputCharacterList outputs a list of characters
func (f *Formatter) OutputCharacterList(chars []wordforge.Character) error {
	switch f.format {
	case FormatJSON:
		return json.NewEncoder(f.out).Encode(chars)
	case FormatText:
		for _, c := range chars {
			fmt.Fprintf(f.out, "id=%s\tname=%s\tworld=%s\tcreated=%s\n",
				c.ID, c.Name, c.WorldID, c.CreatedAt.Format(time.RFC3339))
		}
		return nil
	case FormatHuman:
		if len(chars) == 0 {
			fmt.Fprintln(f.out, "No characters yet")
			return nil
		}
		fmt.Fprintf(f.out, "Characters (%d):\n\n", len(chars))
		for _, c := range chars {
			fmt.Fprintf(f.out, "ID: %s\n", c.ID)
			fmt.Fprintf(f.out, "Name: %s\n", c.Name)
			fmt.Fprintf(f.out, "World: %s\n", c.WorldID)
			if c.Profile != "" {
				fmt.Fprintf(f.out, "Profile: %s\n", truncate(c.Profile, 120))
			}
			fmt.Fprintln(f.out, "---")
		}
		return nil
	}
	return fmt.Errorf("unknown format: %s", f.format)
}

// OutputStoryList outputs a list of stories
func (f *Formatter) OutputStoryList(stories []wordforge.Story) error {
	switch f.format {
	case FormatJSON:
		return json.NewEncoder(f.out).Encode(stories)
	case FormatText:
		for _, st := range stories {
			fmt.Fprintf(f.out, "id=%s\ttitle=%s\tworld=%s\tcharacters=%d\tcreated=%s\n",
				st.ID, st.Title, st.WorldID, len(st.CharacterIDs), st.CreatedAt.Format(time.RFC3339))
		}
		return nil
	case FormatHuman:
		if len(stories) == 0 {
			fmt.Fprintln(f.out, "No stories yet")
			return nil
		}
		fmt.Fprintf(f.out, "Stories (%d):\n\n", len(stories))
		for _, st := range stories {
			fmt.Fprintf(f.out, "ID: %s\n", st.ID)
			fmt.Fprintf(f.out, "Title: %s\n", st.Title)
			fmt.Fprintf(f.out, "World: %s\n", st.WorldID)
			if len(st.CharacterIDs) > 0 {
				fmt.Fprintf(f.out, "Characters: %s\n", strings.Join(st.CharacterIDs, ", "))
			}
			if st.Themes != "" {
				fmt.Fprintf(f.out, "Themes: %s\n", truncate(st.Themes, 120))
			}
			fmt.Fprintln(f.out, "---")
		}
		return nil
	}
	return fmt.Errorf("unknown format: %s", f.format)
}

// OutputRevision outputs an AI revision with its diff. Human output
// renders removed runs as [-text-] and added runs as {+text+}.
func (f *Formatter) OutputRevision(rev *wordforge.Revision) error {
	switch f.format {
	case FormatJSON:
		return json.NewEncoder(f.out).Encode(rev)
	case FormatText:
		fmt.Fprintf(f.out, "agent=%s\n", rev.Agent)
		for _, line := range rev.Diff {
			fmt.Fprintln(f.out, renderDiffLine(line))
		}
		return nil
	case FormatHuman:
		fmt.Fprintf(f.out, "Revised with the %s agent:\n\n", rev.Agent)
		for _, line := range rev.Diff {
			fmt.Fprintln(f.out, renderDiffLine(line))
		}
		return nil
	}
	return fmt.Errorf("unknown format: %s", f.format)
}

func renderDiffLine(line wordforge.DiffLine) string {
	var sb strings.Builder
	for _, s := range line {
		switch {
		case s.Removed:
			sb.WriteString("[-" + s.Text + "-]")
		case s.Added:
			sb.WriteString("{+" + s.Text + "+}")
		default:
			sb.WriteString(s.Text)
		}
	}
	return sb.String()
}

// OutputStats outputs collection record counts
func (f *Formatter) OutputStats(stats *wordforge.Stats) error {
	switch f.format {
	case FormatJSON:
		return json.NewEncoder(f.out).Encode(stats)
	case FormatText:
		fmt.Fprintf(f.out, "worlds=%d\n", stats.Worlds)
		fmt.Fprintf(f.out, "characters=%d\n", stats.Characters)
		fmt.Fprintf(f.out, "stories=%d\n", stats.Stories)
		return nil
	case FormatHuman:
		fmt.Fprintf(f.out, "Worlds: %d\n", stats.Worlds)
		fmt.Fprintf(f.out, "Characters: %d\n", stats.Characters)
		fmt.Fprintf(f.out, "Stories: %d\n", stats.Stories)
		return nil
	}
	return fmt.Errorf("unknown format: %s", f.format)
}

// OutputMetrics outputs word and character counts for a document
func (f *Formatter) OutputMetrics(m wordforge.Metrics) error {
	switch f.format {
	case FormatJSON:
		return json.NewEncoder(f.out).Encode(m)
	case FormatText:
		fmt.Fprintf(f.out, "words=%d\tcharacters=%d\n", m.Words, m.Characters)
		return nil
	case FormatHuman:
		fmt.Fprintf(f.out, "%d words, %d characters\n", m.Words, m.Characters)
		return nil
	}
	return fmt.Errorf("unknown format: %s", f.format)
}

// OutputSettings outputs stored settings sorted by key
func (f *Formatter) OutputSettings(settings map[string]string) error {
	switch f.format {
	case FormatJSON:
		return json.NewEncoder(f.out).Encode(settings)
	case FormatText, FormatHuman:
		keys := make([]string, 0, len(settings))
		for k := range settings {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(f.out, "%s=%s\n", k, settings[k])
		}
		return nil
	}
	return fmt.Errorf("unknown format: %s", f.format)
}

// Error outputs an error message to stderr
func (f *Formatter) Error(format string, args ...interface{}) {
	fmt.Fprintf(f.err, format+"\n", args...)
}

// Warning outputs a warning message to stderr
func (f *Formatter) Warning(format string, args ...interface{}) {
	fmt.Fprintf(f.err, "Warning: "+format+"\n", args...)
}

// truncate truncates a string to maxLen characters
func truncate(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
