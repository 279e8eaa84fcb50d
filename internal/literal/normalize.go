package literal

import (
	"math"
	"strconv"
	"strings"
)

// keywords maps language-specific constants to one spelling
var keywords = map[string]string{
	"true":      "true",
	"True":      "true",
	"false":     "false",
	"False":     "false",
	"null":      "null",
	"None":      "null",
	"nil":       "null",
	"undefined": "null",
	"<nil>":     "null",
}

// Equal compares an expected literal with an observed one after
// normalization.
func Equal(expected, actual string) bool {
	return Normalize(expected) == Normalize(actual)
}

// Normalize renders a literal in a canonical form:
//   - surrounding whitespace and a trailing semicolon are removed
//   - numbers compare by value: integral values print in full, so 1.0, 1,
//     1_0e-1 and 1.0E15 against 1000000000000000 agree, and -0 is 0
//   - True/False/None/nil/undefined map to true/false/null
//   - single-quoted and backquoted strings become double-quoted
//   - lists and tuples become "[a, b]" with each element normalized
//   - objects become "{k: v}" with quotes dropped from keys
//
// Any other text is returned with runs of whitespace collapsed.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimSuffix(s, ";"))
	if s == "" {
		return ""
	}

	if k, ok := keywords[s]; ok {
		return k
	}
	if n, ok := number(s); ok {
		return n
	}

	switch s[0] {
	case '"':
		if closingQuote(s) == len(s)-1 {
			return s
		}
	case '\'', '`':
		if closingQuote(s) == len(s)-1 {
			return requote(s[1 : len(s)-1])
		}
	case '[', '(':
		if closingBracket(s) == len(s)-1 {
			return "[" + normalizeElements(s[1:len(s)-1], normalizeElement) + "]"
		}
	case '{':
		if closingBracket(s) == len(s)-1 {
			return "{" + normalizeElements(s[1:len(s)-1], normalizeEntry) + "}"
		}
	}

	return strings.Join(strings.Fields(s), " ")
}

// maxExact bounds the integers float64 represents exactly. Larger ones are
// compared through float64 like every other spelling.
const maxExact = 1 << 53

// number parses integer and floating point spellings. Hex integers and digit
// separators are accepted; a trailing type suffix (f, L, d) is ignored.
func number(s string) (string, bool) {
	if m := numberRe.FindString(s); m != s {
		return "", false
	}

	hex := strings.HasPrefix(strings.ToLower(strings.TrimLeft(s, "+-")), "0x")
	if hex {
		if i, err := strconv.ParseInt(s, 0, 64); err == nil {
			return strconv.FormatInt(i, 10), true
		}
		return "", false
	}

	trimmed := strings.ReplaceAll(strings.TrimRight(s, "fFlLdD"), "_", "")
	if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil && i > -maxExact && i < maxExact {
		return strconv.FormatInt(i, 10), true
	}

	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return "", false
	}
	switch {
	case f == 0:
		return "0", true
	case f == math.Trunc(f):
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
	return strconv.FormatFloat(f, 'g', -1, 64), true
}

// requote turns the body of a single-quoted or backquoted string into a
// double-quoted literal.
func requote(body string) string {
	body = strings.ReplaceAll(body, `\'`, `'`)

	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case c == '\\' && i+1 < len(body):
			b.WriteByte(c)
			b.WriteByte(body[i+1])
			i++
		case c == '"':
			b.WriteString(`\"`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func normalizeElements(body string, fn func(string) string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}

	parts := SplitTopLevel(body, ',')
	out := make([]string, 0, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" && i == len(parts)-1 {
			// trailing comma
			continue
		}
		out = append(out, fn(p))
	}
	return strings.Join(out, ", ")
}

func normalizeElement(s string) string {
	return Normalize(s)
}

// normalizeEntry handles "key: value" and "key=value" object members
func normalizeEntry(s string) string {
	for _, sep := range []byte{':', '='} {
		kv := SplitTopLevel(s, sep)
		if len(kv) < 2 {
			continue
		}
		key := strings.TrimSpace(kv[0])
		if len(key) >= 2 && (key[0] == '"' || key[0] == '\'') && key[len(key)-1] == key[0] {
			key = key[1 : len(key)-1]
		}
		value := strings.Join(kv[1:], string(sep))
		return key + ": " + Normalize(value)
	}
	return Normalize(s)
}
