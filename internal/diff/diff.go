// Package diff computes line-oriented text diffs using the
// sergi/go-diff library, for rendering AI-suggested revisions against
// the original text.
package diff

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Span is a contiguous run of text tagged relative to the comparison
// baseline. For changed content exactly one of Added/Removed is true;
// unchanged content has both false.
type Span struct {
	Text    string `json:"text"`
	Added   bool   `json:"added"`
	Removed bool   `json:"removed"`
}

// Line is the ordered sequence of spans making up one output line.
type Line []Span

// Compute diffs oldText against newText and regroups the result into
// per-line spans. The semantic cleanup pass coalesces small edits into
// larger human-readable chunks. Spans containing embedded newlines are
// split across output lines; lines with no content are dropped.
//
// Compute is pure and deterministic; it never fails on well-formed
// string input, including empty strings and identical inputs.
func Compute(oldText, newText string) []Line {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	diffs := dmp.DiffMain(oldText, newText, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var lines []Line
	var current Line

	for _, d := range diffs {
		added := d.Type == diffmatchpatch.DiffInsert
		removed := d.Type == diffmatchpatch.DiffDelete

		fragments := strings.Split(d.Text, "\n")
		for i, fragment := range fragments {
			if i > 0 {
				// Newline boundary: close out the current line.
				lines = append(lines, current)
				current = nil
			}
			if fragment != "" {
				current = append(current, Span{Text: fragment, Added: added, Removed: removed})
			}
		}
	}
	lines = append(lines, current)

	out := make([]Line, 0, len(lines))
	for _, line := range lines {
		if len(line) > 0 {
			out = append(out, line)
		}
	}
	return out
}

// Old reconstructs the baseline text from a diff: the concatenation of
// all spans not marked added, joined line by line.
func Old(lines []Line) string {
	return join(lines, func(s Span) bool { return !s.Added })
}

// New reconstructs the revised text from a diff: the concatenation of
// all spans not marked removed, joined line by line.
func New(lines []Line) string {
	return join(lines, func(s Span) bool { return !s.Removed })
}

func join(lines []Line, keep func(Span) bool) string {
	var b strings.Builder
	first := true
	for _, line := range lines {
		var lb strings.Builder
		for _, s := range line {
			if keep(s) {
				lb.WriteString(s.Text)
			}
		}
		if lb.Len() == 0 {
			continue
		}
		if !first {
			b.WriteByte('\n')
		}
		b.WriteString(lb.String())
		first = false
	}
	return b.String()
}
