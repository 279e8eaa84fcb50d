package checker

import "fmt"

// UnsupportedLanguageError fails every assertion of a record no adapter can run
type UnsupportedLanguageError struct {
	Language string
}

func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("no evaluator for language %q", e.Language)
}

// MismatchError records an observed value that differs from the documented one
type MismatchError struct {
	Expected string
	Actual   string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("expected %s, got %s", e.Expected, e.Actual)
}
