package evaluator

import (
	"strings"

	"github.com/ppiankov/snipcheck/internal/literal"
)

// plan says how to observe the value of a documented statement
type plan struct {
	run   string // executed first as a statement; may be empty
	value string // expression whose value is reported
}

// printCalls are calls whose documented value is their single argument
var printCalls = map[string][]string{
	"go":         {"fmt.Println", "fmt.Print", "println", "print"},
	"python":     {"print"},
	"javascript": {"console.log"},
	"java":       {"System.out.println", "System.out.print"},
}

// mutators are methods documented by the state of their receiver afterwards
// ("numbers.append(4)  # [1, 2, 3, 4]").
var mutators = map[string]map[string]bool{
	"python":     set("append", "extend", "insert", "remove", "sort", "reverse", "clear", "update", "add", "discard"),
	"javascript": set("push", "unshift", "sort", "reverse", "fill", "add", "set", "clear", "copyWithin"),
	"java": set("add", "addAll", "addFirst", "addLast", "put", "putAll", "clear", "removeIf",
		"replaceAll", "sort", "push", "offer", "append", "insert", "reverse"),
}

// argMutators are functions documented by the state of their first argument
// ("Collections.sort(numbers); // [1, 2, 3]").
var argMutators = map[string]map[string]bool{
	"go":     set("sort.Ints", "sort.Strings", "sort.Float64s", "slices.Sort", "slices.SortFunc", "slices.Reverse"),
	"python": set("random.shuffle"),
	"java": set("Collections.sort", "Collections.reverse", "Collections.shuffle", "Collections.swap",
		"Collections.fill", "Arrays.sort", "Arrays.fill"),
}

func set(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// planFor decides what to run and what to observe for a statement:
//   - an assignment or declaration runs, then its target is observed
//   - a print call observes its argument
//   - an in-place mutation runs, then the mutated value is observed
//   - anything else is observed as an expression
func planFor(language, stmt string) plan {
	stmt = strings.TrimSpace(stmt)

	if target, ok := assignmentTarget(language, stmt); ok {
		return plan{run: stmt, value: target}
	}
	if arg, ok := printArgument(language, stmt); ok {
		return plan{value: arg}
	}
	if observed, ok := mutated(language, stmt); ok {
		return plan{run: stmt, value: observed}
	}
	return plan{value: stmt}
}

// assignIndex returns the position of the top-level assignment operator's
// '=' in stmt, or -1.
func assignIndex(stmt string) int {
	depth, at := 0, -1
	literal.Walk(stmt, func(i int, c byte) bool {
		switch c {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case '=':
			if depth != 0 {
				return true
			}
			if i+1 < len(stmt) && (stmt[i+1] == '=' || stmt[i+1] == '>') {
				return true
			}
			if i > 0 {
				switch prev := stmt[i-1]; prev {
				case '=', '!':
					return true
				case '<', '>':
					// <<= and >>= assign, <= and >= compare
					if i < 2 || stmt[i-2] != prev {
						return true
					}
				}
			}
			at = i
			return false
		}
		return true
	})
	return at
}

func assignmentTarget(language, stmt string) (string, bool) {
	at := assignIndex(stmt)
	if at <= 0 {
		return "", false
	}

	lhs := strings.TrimRight(stmt[:at], " \t:+-*/%&|^<>?")
	lhs = strings.TrimSpace(lhs)
	if lhs == "" || strings.ContainsAny(lhs, "\n") {
		return "", false
	}

	switch language {
	case "go":
		lhs = strings.TrimSpace(strings.TrimPrefix(lhs, "var "))
		lhs = strings.TrimSpace(literal.SplitTopLevel(lhs, ',')[0])
		if fields := topLevelFields(lhs); len(fields) > 0 {
			lhs = fields[0]
		}
	case "python":
		lhs = strings.TrimSpace(literal.SplitTopLevel(lhs, ':')[0])
		if len(literal.SplitTopLevel(lhs, ',')) > 1 {
			lhs = "(" + lhs + ")"
		}
	case "javascript", "typescript":
		for _, kw := range []string{"const ", "let ", "var "} {
			lhs = strings.TrimSpace(strings.TrimPrefix(lhs, kw))
		}
		if strings.HasPrefix(lhs, "{") {
			lhs = "(" + lhs + ")"
		}
	case "java":
		fields := topLevelFields(lhs)
		lhs = fields[len(fields)-1]
	}

	if lhs == "" {
		return "", false
	}
	return lhs, true
}

// topLevelFields splits s around whitespace outside brackets and quotes
func topLevelFields(s string) []string {
	var fields []string
	depth, start := 0, -1
	flush := func(end int) {
		if start >= 0 {
			fields = append(fields, s[start:end])
			start = -1
		}
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"' || c == '\'' || c == '`':
			if start < 0 {
				start = i
			}
			end := strings.IndexByte(s[i+1:], c)
			if end < 0 {
				i = len(s) - 1
				continue
			}
			i += end + 1
		case c == ' ' || c == '\t':
			if depth == 0 {
				flush(i)
				continue
			}
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			depth--
		}
		if start < 0 {
			start = i
		}
	}
	flush(len(s))
	return fields
}

// call splits "callee(args)" where the parenthesis closing at the end of the
// statement opens at top level.
func call(stmt string) (callee, args string, ok bool) {
	if !strings.HasSuffix(stmt, ")") {
		return "", "", false
	}

	depth, open := 0, -1
	literal.Walk(stmt, func(i int, c byte) bool {
		switch c {
		case '(', '[', '{':
			if depth == 0 && c == '(' {
				open = i
			}
			depth++
		case ')', ']', '}':
			depth--
		}
		return true
	})
	if open <= 0 || depth != 0 {
		return "", "", false
	}
	return strings.TrimSpace(stmt[:open]), stmt[open+1 : len(stmt)-1], true
}

func printArgument(language, stmt string) (string, bool) {
	callee, args, ok := call(stmt)
	if !ok {
		return "", false
	}
	for _, name := range printCalls[language] {
		if callee != name {
			continue
		}
		parts := literal.SplitTopLevel(args, ',')
		if len(parts) != 1 || strings.TrimSpace(parts[0]) == "" {
			return "", false
		}
		return strings.TrimSpace(parts[0]), true
	}
	return "", false
}

func mutated(language, stmt string) (string, bool) {
	callee, args, ok := call(stmt)
	if !ok {
		return "", false
	}

	if argMutators[language][callee] {
		first := strings.TrimSpace(literal.SplitTopLevel(args, ',')[0])
		return first, first != ""
	}

	dot := strings.LastIndex(callee, ".")
	if dot <= 0 {
		return "", false
	}
	receiver, method := strings.TrimSpace(callee[:dot]), callee[dot+1:]
	if !mutators[language][method] || receiver == "" {
		return "", false
	}
	return receiver, true
}
