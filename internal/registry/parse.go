package registry

import (
	"strings"

	"github.com/ppiankov/snipcheck/internal/literal"
	"github.com/ppiankov/snipcheck/internal/model"
)

// ParseAssertions extracts the expected-value claims from a snippet.
//
// A line is an assertion when code is followed by a trailing comment whose
// text starts with a literal:
//
//	int result = add(5, 3); // 8
//	text.upper()       # "HELLO, WORLD!"
//
// Prose comments ("// removes 4, returns it") are ignored. A parenthesised
// note after the literal is dropped ("// 7 (-1 if not found)" yields "7").
// When the commented line closes brackets opened on earlier lines, those lines
// are joined into the expression. Assertions are returned in file order.
func ParseAssertions(source, language string) []model.Assertion {
	marker := commentMarker(language)
	lines := strings.Split(source, "\n")

	var assertions []model.Assertion
	for i, raw := range lines {
		code, comment, ok := literal.SplitComment(strings.TrimRight(raw, "\r"), marker)
		if !ok {
			continue
		}
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}

		expected, ok := literal.Leading(strings.TrimSpace(comment))
		if !ok {
			continue
		}

		balance := literal.Balance(code)
		if balance > 0 {
			// expression continues past the comment
			continue
		}

		start := i
		parts := []string{code}
		for balance < 0 && start > 0 {
			start--
			prev, _, _ := literal.SplitComment(strings.TrimRight(lines[start], "\r"), marker)
			prev = strings.TrimRight(prev, " \t")
			balance += literal.Balance(prev)
			parts = append([]string{prev}, parts...)
		}
		if balance < 0 {
			continue
		}

		a := model.Assertion{
			Line:       i + 1,
			Expression: trimStatement(strings.Join(parts, "\n")),
			Expected:   expected,
		}
		if start != i {
			a.StartLine = start + 1
		}
		assertions = append(assertions, a)
	}

	return assertions
}

// trimStatement removes surrounding whitespace and one trailing semicolon
func trimStatement(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ";")
	return strings.TrimSpace(s)
}
