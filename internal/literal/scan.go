// Package literal scans and normalizes the textual literals snippets use to
// document expected values.
package literal

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	numberRe  = regexp.MustCompile(`^[-+]?(0[xX][0-9a-fA-F_]+|[0-9][0-9_]*(\.[0-9_]+)?([eE][-+]?[0-9]+)?|\.[0-9]+)[fFlLdD]?`)
	keywordRe = regexp.MustCompile(`^(true|false|True|False|null|None|nil|undefined|NaN)`)
)

// Leading returns the literal at the start of a comment, if any. Anything
// after the literal must be empty or a parenthesised note.
func Leading(text string) (string, bool) {
	lit, ok := Scan(text)
	if !ok {
		return "", false
	}

	rest := strings.TrimSpace(text[len(lit):])
	if rest != "" && !strings.HasPrefix(rest, "(") {
		return "", false
	}
	return lit, true
}

// Scan returns the literal token at the start of text: a number, a quoted
// string or character, a keyword constant, or a bracketed list, tuple or
// object.
func Scan(text string) (string, bool) {
	if text == "" {
		return "", false
	}

	switch text[0] {
	case '"', '\'', '`':
		end := closingQuote(text)
		if end < 0 {
			return "", false
		}
		return text[:end+1], true
	case '[', '(':
		end := closingBracket(text)
		if end < 0 {
			return "", false
		}
		lit := text[:end+1]
		if !elementsAreLiterals(lit[1 : len(lit)-1]) {
			return "", false
		}
		return lit, true
	case '{':
		end := closingBracket(text)
		if end < 0 {
			return "", false
		}
		return text[:end+1], true
	}

	if m := numberRe.FindString(text); m != "" && wordBoundary(text, len(m)) {
		return m, true
	}
	if m := keywordRe.FindString(text); m != "" && wordBoundary(text, len(m)) {
		return m, true
	}
	return "", false
}

// Balance counts opening minus closing brackets outside string literals
func Balance(s string) int {
	balance := 0
	Walk(s, func(i int, c byte) bool {
		switch c {
		case '(', '[', '{':
			balance++
		case ')', ']', '}':
			balance--
		}
		return true
	})
	return balance
}

// SplitTopLevel splits s on sep, ignoring separators nested in brackets or
// string literals.
func SplitTopLevel(s string, sep byte) []string {
	var parts []string
	depth, last := 0, 0
	Walk(s, func(i int, c byte) bool {
		switch c {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, s[last:i])
				last = i + 1
			}
		}
		return true
	})
	return append(parts, s[last:])
}

// Walk calls fn for every byte of s that is outside a quoted literal, until
// fn returns false. Quote characters themselves are not reported.
func Walk(s string, fn func(i int, c byte) bool) {
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'', '`':
			quote = c
			continue
		}
		if !fn(i, c) {
			return
		}
	}
}

func wordBoundary(text string, n int) bool {
	if n >= len(text) {
		return true
	}
	r := rune(text[n])
	return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
}

func closingQuote(text string) int {
	quote := text[0]
	for i := 1; i < len(text); i++ {
		switch text[i] {
		case '\\':
			i++
		case quote:
			return i
		}
	}
	return -1
}

func closingBracket(text string) int {
	depth, end := 0, -1
	Walk(text, func(i int, c byte) bool {
		switch c {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
			if depth == 0 {
				end = i
				return false
			}
		}
		return true
	})
	return end
}

// elementsAreLiterals reports whether every comma separated element of a
// list body is itself a literal. An empty body is a valid empty list.
func elementsAreLiterals(body string) bool {
	if strings.TrimSpace(body) == "" {
		return true
	}
	for _, elem := range SplitTopLevel(body, ',') {
		elem = strings.TrimSpace(elem)
		if elem == "" {
			// trailing comma
			continue
		}
		lit, ok := Scan(elem)
		if !ok || lit != elem {
			return false
		}
	}
	return true
}

// SplitComment splits a line at the first comment marker that is not inside
// a string or character literal.
func SplitComment(line, marker string) (code, comment string, ok bool) {
	at := -1
	Walk(line, func(i int, c byte) bool {
		if strings.HasPrefix(line[i:], marker) {
			at = i
			return false
		}
		return true
	})
	if at < 0 {
		return line, "", false
	}
	return line[:at], line[at+len(marker):], true
}
