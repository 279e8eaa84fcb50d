package model

import "strings"

// SnippetRecord is one example file loaded from the snippet tree.
// Records are built by the registry and never modified afterwards.
type SnippetRecord struct {
	Path        string      `json:"path" yaml:"path"`                                   // Slash path relative to the snippet root
	Category    string      `json:"category" yaml:"category"`                           // Operation directory (e.g., "string-methods")
	Group       string      `json:"group,omitempty" yaml:"group,omitempty"`             // Remaining grouping path (e.g., "single-file-single-thread")
	Language    string      `json:"language" yaml:"language"`                           // Language tag derived from the extension
	Method      string      `json:"method" yaml:"method"`                               // File stem (e.g., "basic")
	Title       string      `json:"title,omitempty" yaml:"title,omitempty"`             // From metadata.json
	Explanation string      `json:"explanation,omitempty" yaml:"explanation,omitempty"` // From metadata.json
	ContentHash string      `json:"content_hash" yaml:"content_hash"`                   // sha256 of source|explanation
	Source      string      `json:"-" yaml:"-"`
	Assertions  []Assertion `json:"assertions" yaml:"assertions"`
}

// Assertion is an expected-value claim taken from a trailing comment
type Assertion struct {
	Line       int    `json:"line" yaml:"line"`                                 // Line carrying the comment (1-based)
	StartLine  int    `json:"start_line,omitempty" yaml:"start_line,omitempty"` // First line of a multi-line expression
	Expression string `json:"expression" yaml:"expression"`
	Expected   string `json:"expected" yaml:"expected"`
}

// Prefix returns the snippet text that precedes the assertion's expression.
// Adapters execute it before the expression so later assertions observe the
// effects of earlier statements.
func (r SnippetRecord) Prefix(a Assertion) string {
	start := a.StartLine
	if start == 0 {
		start = a.Line
	}
	if start <= 1 {
		return ""
	}

	lines := strings.Split(r.Source, "\n")
	if start-1 > len(lines) {
		return r.Source
	}
	return strings.Join(lines[:start-1], "\n")
}

// ID returns a stable identifier for the record
func (r SnippetRecord) ID() string {
	return r.Path
}
