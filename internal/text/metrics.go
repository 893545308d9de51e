// Package text extracts plain text from rich-text HTML and computes
// document metrics from it.
package text

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var stripPolicy = bluemonday.StrictPolicy()

// Plain strips all HTML markup from a rich-text document and returns
// the remaining text with entities decoded.
func Plain(richText string) string {
	return html.UnescapeString(stripPolicy.Sanitize(richText))
}

// Metrics holds word and character counts for a document.
type Metrics struct {
	Words      int `json:"words"`
	Characters int `json:"characters"`
}

// Count computes metrics over the plain-text rendering of a rich-text
// document. Words are whitespace-separated runs; the character count
// includes spaces, matching the editor's status bar.
func Count(richText string) Metrics {
	plain := Plain(richText)
	return Metrics{
		Words:      len(strings.Fields(plain)),
		Characters: utf8.RuneCountInString(plain),
	}
}
