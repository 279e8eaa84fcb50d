package model

// Report is the aggregate outcome of a checker run.
// Failures are ordered by record order, then assertion order, so two runs over
// the same input can be diffed directly.
type Report struct {
	Revision   string      `json:"revision,omitempty" yaml:"revision,omitempty"` // Git revision the tree was read from
	Total      int         `json:"total" yaml:"total"`
	Passed     int         `json:"passed" yaml:"passed"`
	Failed     int         `json:"failed" yaml:"failed"`
	Skipped    int         `json:"skipped" yaml:"skipped"` // Records without assertions
	Failures   []Failure   `json:"failures" yaml:"failures"`
	LoadErrors []LoadIssue `json:"load_errors,omitempty" yaml:"load_errors,omitempty"`
}

// Failure describes one assertion that did not match
type Failure struct {
	Category   string    `json:"category" yaml:"category"`
	Group      string    `json:"group,omitempty" yaml:"group,omitempty"`
	Language   string    `json:"language" yaml:"language"`
	Path       string    `json:"path" yaml:"path"`
	Line       int       `json:"line" yaml:"line"`
	Expression string    `json:"expression" yaml:"expression"`
	Expected   string    `json:"expected" yaml:"expected"`
	Actual     *string   `json:"actual,omitempty" yaml:"actual,omitempty"` // nil when execution failed
	Kind       ErrorKind `json:"kind" yaml:"kind"`
	Message    string    `json:"message,omitempty" yaml:"message,omitempty"`
}

// LoadIssue is a snippet file the registry could not turn into a record
type LoadIssue struct {
	Path    string    `json:"path" yaml:"path"`
	Kind    ErrorKind `json:"kind" yaml:"kind"`
	Message string    `json:"message" yaml:"message"`
}

// OK reports whether the run had no failures and no load errors
func (r *Report) OK() bool {
	return r.Failed == 0 && len(r.LoadErrors) == 0
}

// NewFailure builds a failure entry for an assertion of a record
func NewFailure(rec SnippetRecord, a Assertion, res EvaluationResult) Failure {
	f := Failure{
		Category:   rec.Category,
		Group:      rec.Group,
		Language:   rec.Language,
		Path:       rec.Path,
		Line:       a.Line,
		Expression: a.Expression,
		Expected:   a.Expected,
		Kind:       res.Kind,
		Message:    res.Message,
	}
	if res.HasActual {
		actual := res.Actual
		f.Actual = &actual
	}
	return f
}
