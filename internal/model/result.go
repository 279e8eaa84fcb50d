package model

// ErrorKind classifies why an assertion or record failed
type ErrorKind string

const (
	KindLoadError           ErrorKind = "load_error"           // Snippet file unreadable or without assertions
	KindUnsupportedLanguage ErrorKind = "unsupported_language" // No adapter handles the record's language
	KindTimeout             ErrorKind = "timeout"              // Evaluation exceeded its deadline
	KindRuntimeFault        ErrorKind = "runtime_fault"        // Snippet raised while executing
	KindSyntaxFault         ErrorKind = "syntax_fault"         // Snippet failed to parse or compile
	KindMismatch            ErrorKind = "mismatch"             // Actual value differs from the expected literal
)

// AssertionState tracks one assertion through a checker run
type AssertionState string

const (
	StatePending    AssertionState = "pending"
	StateEvaluating AssertionState = "evaluating"
	StateMatched    AssertionState = "matched"
	StateMismatched AssertionState = "mismatched"
	StateErrored    AssertionState = "errored"
)

// Terminal reports whether no further transition is possible
func (s AssertionState) Terminal() bool {
	switch s {
	case StateMatched, StateMismatched, StateErrored:
		return true
	default:
		return false
	}
}

// EvaluationResult is the outcome of running one assertion.
// It lives only for the duration of a checker run.
type EvaluationResult struct {
	Actual    string         `json:"actual,omitempty"`
	HasActual bool           `json:"has_actual"` // false when execution failed
	Matched   bool           `json:"matched"`
	Kind      ErrorKind      `json:"kind,omitempty"`
	State     AssertionState `json:"state"`
	Message   string         `json:"message,omitempty"`
}
