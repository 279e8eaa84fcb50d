package registry

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ppiankov/snipcheck/internal/model"
)

func TestParseAssertions_Java(t *testing.T) {
	source := `String text = "Hello, World!";

// Case methods
String upper = text.toUpperCase();  // "HELLO, WORLD!"

int index = text.indexOf("World");      // 7 (-1 if not found)
String[] splitArray = text.split(", ");    // ["Hello", "World!"]
String url = "http://example.com"; // "http://example.com"
int result = add(5, 3); // 8`

	got := ParseAssertions(source, "java")
	want := []model.Assertion{
		{Line: 4, Expression: `String upper = text.toUpperCase()`, Expected: `"HELLO, WORLD!"`},
		{Line: 6, Expression: `int index = text.indexOf("World")`, Expected: `7`},
		{Line: 7, Expression: `String[] splitArray = text.split(", ")`, Expected: `["Hello", "World!"]`},
		{Line: 8, Expression: `String url = "http://example.com"`, Expected: `"http://example.com"`},
		{Line: 9, Expression: `int result = add(5, 3)`, Expected: `8`},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseAssertions mismatch (-want +got):\n%s", diff)
	}
}

func TestParseAssertions_PythonSkipsProse(t *testing.T) {
	source := `numbers = [1, 2, 3]

numbers.append(4)          # [1, 2, 3, 4]
numbers.pop()              # removes 4, returns it
length = len(numbers)      # 3
numbers.sort()             # sorts in place
"abc".isalpha()   # True
# "not an assertion"`

	got := ParseAssertions(source, "python")
	want := []model.Assertion{
		{Line: 3, Expression: `numbers.append(4)`, Expected: `[1, 2, 3, 4]`},
		{Line: 5, Expression: `length = len(numbers)`, Expected: `3`},
		{Line: 7, Expression: `"abc".isalpha()`, Expected: `True`},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseAssertions mismatch (-want +got):\n%s", diff)
	}
}

func TestParseAssertions_MultiLineExpression(t *testing.T) {
	source := `const price = 19.99;
const formatted = new Intl.NumberFormat('en-US', {
    style: 'currency',
    currency: 'USD'
}).format(price);  // "$19.99"`

	got := ParseAssertions(source, "javascript")
	if len(got) != 1 {
		t.Fatalf("expected 1 assertion, got %d", len(got))
	}

	a := got[0]
	if a.Line != 5 || a.StartLine != 2 {
		t.Errorf("expected lines 2..5, got %d..%d", a.StartLine, a.Line)
	}
	wantExpr := "const formatted = new Intl.NumberFormat('en-US', {\n    style: 'currency',\n    currency: 'USD'\n}).format(price)"
	if a.Expression != wantExpr {
		t.Errorf("unexpected expression:\n%s", a.Expression)
	}
}

func TestParseAssertions_OpenExpressionIgnored(t *testing.T) {
	source := `const options = { // 1
  a: 1,
};`
	if got := ParseAssertions(source, "javascript"); len(got) != 0 {
		t.Errorf("expected no assertions, got %+v", got)
	}
}

func TestParseAssertions_UnbalancedCloseIgnored(t *testing.T) {
	if got := ParseAssertions(`}).run(); // 1`, "javascript"); len(got) != 0 {
		t.Errorf("expected no assertions, got %+v", got)
	}
}

func TestParseAssertions_CRLF(t *testing.T) {
	got := ParseAssertions("x := 1 // 1\r\ny := 2 // 2\r\n", "go")
	if len(got) != 2 {
		t.Fatalf("expected 2 assertions, got %d", len(got))
	}
	if got[1].Expected != "2" {
		t.Errorf("expected trailing CR to be stripped, got %q", got[1].Expected)
	}
}

func TestParseAssertions_Empty(t *testing.T) {
	if got := ParseAssertions("", "go"); got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestPlacement(t *testing.T) {
	tests := []struct {
		rel      string
		category string
		group    string
		method   string
	}{
		{"single-file-single-thread/string-methods/java/basic.java", "string-methods", "single-file-single-thread", "basic"},
		{"string-methods/python/basic.py", "string-methods", "", "basic"},
		{"string-methods/basic.py", "string-methods", "", "basic"},
		{"a/b/c/d.go", "c", "a/b", "d"},
		{"loose.js", "loose", "", "loose"},
	}

	for _, tt := range tests {
		category, group, method := placement(tt.rel)
		if category != tt.category || group != tt.group || method != tt.method {
			t.Errorf("placement(%q) = (%q, %q, %q), want (%q, %q, %q)",
				tt.rel, category, group, method, tt.category, tt.group, tt.method)
		}
	}
}

func TestLanguageOf(t *testing.T) {
	tests := map[string]string{
		"basic.py":   "python",
		"sync.js":    "javascript",
		"Basic.JAVA": "java",
		"main.go":    "go",
		"README.md":  "",
		"noext":      "",
	}
	for name, want := range tests {
		if got := LanguageOf(name); got != want {
			t.Errorf("LanguageOf(%q) = %q, want %q", name, got, want)
		}
	}
}
