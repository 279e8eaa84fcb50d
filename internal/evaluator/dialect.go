package evaluator

import (
	"regexp"
	"strings"

	"github.com/ppiankov/snipcheck/internal/model"
)

const (
	// sentinel prefixes the rendered value in interpreter output
	sentinel = "__snipcheck__:"

	// mark is printed right before the observed expression is evaluated
	mark = "__snipcheck_mark__"
)

// dialect generates the program an interpreter runs and reads its failures
type dialect interface {
	// script returns the file name and contents for one evaluation
	script(source string, p plan) (name, contents string)

	// classify inspects output of a run that printed no value
	classify(output string) (model.ErrorKind, bool)

	// void is the rendering of a call that returned nothing, or "" when the
	// language cannot observe one
	void() string
}

var dialects = map[string]dialect{
	"python":     pythonDialect{},
	"javascript": javascriptDialect{},
	"java":       javaDialect{},
}

type pythonDialect struct{}

func (pythonDialect) script(source string, p plan) (string, string) {
	var b strings.Builder
	b.WriteString(source)
	b.WriteString("\n")
	if p.run != "" {
		b.WriteString(p.run + "\n")
	}
	b.WriteString("print(" + quotePy(mark) + ")\n")
	b.WriteString("print(" + quotePy(sentinel) + " + repr((" + p.value + ")))\n")
	return "snippet.py", b.String()
}

func (pythonDialect) classify(output string) (model.ErrorKind, bool) {
	switch {
	case strings.Contains(output, "SyntaxError"), strings.Contains(output, "IndentationError"):
		return model.KindSyntaxFault, true
	case strings.Contains(output, "Traceback"):
		return model.KindRuntimeFault, true
	}
	return "", false
}

func (pythonDialect) void() string { return "None" }

func quotePy(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}

type javascriptDialect struct{}

var esmRe = regexp.MustCompile(`(?m)^\s*(import\s|export\s)`)

// renderJS formats values like the other adapters: strings as JSON, arrays
// as [a, b] and objects as {k: v}.
const renderJS = `
function __snipcheckRender(v) {
  if (v === undefined) return "undefined";
  if (v === null) return "null";
  if (typeof v === "string") return JSON.stringify(v);
  if (typeof v === "bigint") return v.toString();
  if (typeof v === "function") return "[Function]";
  if (Array.isArray(v)) return "[" + v.map(__snipcheckRender).join(", ") + "]";
  if (v instanceof Map) return "{" + Array.from(v, ([k, x]) => __snipcheckRender(k) + ": " + __snipcheckRender(x)).join(", ") + "}";
  if (v instanceof Set) return "[" + Array.from(v, __snipcheckRender).join(", ") + "]";
  if (v instanceof Date) return JSON.stringify(v.toISOString());
  if (typeof v === "object") return "{" + Object.keys(v).map((k) => k + ": " + __snipcheckRender(v[k])).join(", ") + "}";
  return String(v);
}
`

func (javascriptDialect) script(source string, p plan) (string, string) {
	name := "snippet.js"
	if esmRe.MatchString(source) {
		name = "snippet.mjs"
	}

	var b strings.Builder
	b.WriteString(source)
	b.WriteString("\n")
	if p.run != "" {
		b.WriteString(p.run + ";\n")
	}
	b.WriteString("console.log(" + `"` + mark + `"` + ");\n")
	b.WriteString("console.log(" + `"` + sentinel + `"` + " + __snipcheckRender((" + p.value + ")));\n")
	b.WriteString(renderJS)
	return name, b.String()
}

func (javascriptDialect) classify(output string) (model.ErrorKind, bool) {
	if strings.Contains(output, "SyntaxError") {
		return model.KindSyntaxFault, true
	}
	if strings.Contains(output, "Error") || strings.Contains(output, "    at ") {
		return model.KindRuntimeFault, true
	}
	return "", false
}

func (javascriptDialect) void() string { return "undefined" }

type javaDialect struct{}

const renderJava = `
String __snipcheckRender(Object v) {
    if (v == null) return "null";
    if (v instanceof String) {
        String s = (String) v;
        return "\"" + s.replace("\\", "\\\\").replace("\"", "\\\"").replace("\n", "\\n") + "\"";
    }
    if (v instanceof Character) return "'" + v + "'";
    if (v.getClass().isArray()) {
        StringJoiner j = new StringJoiner(", ", "[", "]");
        for (int i = 0; i < java.lang.reflect.Array.getLength(v); i++) {
            j.add(__snipcheckRender(java.lang.reflect.Array.get(v, i)));
        }
        return j.toString();
    }
    if (v instanceof Collection) {
        StringJoiner j = new StringJoiner(", ", "[", "]");
        for (Object o : (Collection<?>) v) j.add(__snipcheckRender(o));
        return j.toString();
    }
    if (v instanceof Map) {
        StringJoiner j = new StringJoiner(", ", "{", "}");
        for (Map.Entry<?, ?> e : ((Map<?, ?>) v).entrySet()) {
            j.add(__snipcheckRender(e.getKey()) + ": " + __snipcheckRender(e.getValue()));
        }
        return j.toString();
    }
    return String.valueOf(v);
}
`

func (javaDialect) script(source string, p plan) (string, string) {
	var b strings.Builder
	b.WriteString(renderJava)
	b.WriteString(source)
	b.WriteString("\n")
	if p.run != "" {
		b.WriteString(p.run + ";\n")
	}
	b.WriteString(`System.out.println("` + sentinel + `" + __snipcheckRender(` + p.value + "));\n")
	b.WriteString("/exit\n")
	return "snippet.jsh", b.String()
}

// void method calls do not compile as an expression, so jshell reports them
// as errors instead
func (javaDialect) void() string { return "" }

// jshell keeps going after errors and exits 0, so failures are read from
// its diagnostics.
func (javaDialect) classify(output string) (model.ErrorKind, bool) {
	switch {
	case strings.Contains(output, "|  Exception"):
		return model.KindRuntimeFault, true
	case strings.Contains(output, "|  Error:"):
		return model.KindSyntaxFault, true
	}
	return "", false
}
