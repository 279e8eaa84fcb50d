package registry

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ppiankov/snipcheck/internal/cache"
	"github.com/ppiankov/snipcheck/internal/model"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
	return root
}

var sampleTree = map[string]string{
	"sfst/basics/java/add.java":    "int result = add(5, 3); // 8\n",
	"sfst/basics/python/add.py":    "result = 5 + 3  # 8\n",
	"sfst/strings/python/upper.py": "text = \"hi\"\nupper = text.upper()  # \"HI\"\nlower = text.lower()  # \"hi\"\n",
	"sfst/strings/metadata.json":   `{"python": {"upper": {"title": "Upper case", "explanation": "Converts to upper case"}}}`,
	"README.md":                    "# not a snippet // 1\n",
	".hidden/skip.py":              "x = 1  # 1\n",
}

func TestLoad_Records(t *testing.T) {
	root := writeTree(t, sampleTree)

	reg, err := Load(context.Background(), root)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(reg.Errors()) != 0 {
		t.Fatalf("unexpected load errors: %v", reg.Errors())
	}

	records := reg.Records()
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	wantPaths := []string{
		"sfst/basics/java/add.java",
		"sfst/basics/python/add.py",
		"sfst/strings/python/upper.py",
	}
	for i, want := range wantPaths {
		if records[i].Path != want {
			t.Errorf("record %d path = %s, want %s", i, records[i].Path, want)
		}
	}

	upper := records[2]
	if upper.Category != "strings" || upper.Group != "sfst" || upper.Language != "python" || upper.Method != "upper" {
		t.Errorf("unexpected placement: %+v", upper)
	}
	if upper.Title != "Upper case" || upper.Explanation != "Converts to upper case" {
		t.Errorf("expected metadata to be attached, got title=%q explanation=%q", upper.Title, upper.Explanation)
	}
	if len(upper.Assertions) != 2 {
		t.Fatalf("expected 2 assertions, got %d", len(upper.Assertions))
	}
	if upper.Assertions[0].Line != 2 || upper.Assertions[1].Line != 3 {
		t.Errorf("expected assertions in file order, got %+v", upper.Assertions)
	}
	if upper.ContentHash != contentHash(sampleTree["sfst/strings/python/upper.py"], "Converts to upper case") {
		t.Error("content hash does not cover source and explanation")
	}
}

func TestLoad_Deterministic(t *testing.T) {
	root := writeTree(t, sampleTree)

	first, err := Load(context.Background(), root, WithConcurrency(1))
	if err != nil {
		t.Fatal(err)
	}
	second, err := Load(context.Background(), root, WithConcurrency(8))
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(first.Records(), second.Records()); diff != "" {
		t.Errorf("records differ between loads (-first +second):\n%s", diff)
	}
}

func TestLoad_NoAssertionsIsLoadError(t *testing.T) {
	root := writeTree(t, map[string]string{
		"basics/python/add.py":   "x = 1  # 1\n",
		"basics/python/prose.py": "numbers.sort()  # sorts in place\n",
	})

	reg, err := Load(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	if reg.Len() != 1 {
		t.Errorf("expected 1 record, got %d", reg.Len())
	}

	errs := reg.Errors()
	if len(errs) != 1 {
		t.Fatalf("expected 1 load error, got %d", len(errs))
	}
	if errs[0].Path != "basics/python/prose.py" {
		t.Errorf("unexpected error path: %s", errs[0].Path)
	}
	if !errors.Is(errs[0], ErrNoAssertions) {
		t.Errorf("expected ErrNoAssertions, got %v", errs[0])
	}

	issues := reg.Issues()
	if len(issues) != 1 || issues[0].Kind != model.KindLoadError {
		t.Errorf("unexpected issues: %+v", issues)
	}
}

func TestLoad_AllowEmpty(t *testing.T) {
	root := writeTree(t, map[string]string{
		"basics/python/prose.py": "numbers.sort()  # sorts in place\n",
	})

	reg, err := Load(context.Background(), root, WithAllowEmpty(true))
	if err != nil {
		t.Fatal(err)
	}
	if reg.Len() != 1 || len(reg.Errors()) != 0 {
		t.Fatalf("expected the empty file to load as a record, got %d records and %v", reg.Len(), reg.Errors())
	}
	if n := len(reg.Records()[0].Assertions); n != 0 {
		t.Errorf("expected no assertions, got %d", n)
	}
}

func TestLoad_BadFiles(t *testing.T) {
	root := writeTree(t, map[string]string{
		"basics/python/add.py":    "x = 1  # 1\n",
		"basics/python/binary.py": "\xff\xfe x = 1  # 1\n",
		"basics/metadata.json":    "{not json",
	})

	reg, err := Load(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	if reg.Len() != 1 {
		t.Errorf("expected 1 record, got %d", reg.Len())
	}

	var paths []string
	for _, e := range reg.Errors() {
		paths = append(paths, e.Path)
	}
	want := []string{"basics/metadata.json", "basics/python/binary.py"}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Errorf("unexpected error paths (-want +got):\n%s", diff)
	}
}

func TestLoad_MissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "missing")

	_, err := Load(context.Background(), root)
	if err == nil {
		t.Fatal("expected error for missing root")
	}
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected *LoadError, got %T", err)
	}
	if le.Path != root {
		t.Errorf("expected error for %s, got %s", root, le.Path)
	}
}

func TestLoad_RootIsFile(t *testing.T) {
	root := writeTree(t, map[string]string{"add.py": "x = 1  # 1\n"})

	if _, err := Load(context.Background(), filepath.Join(root, "add.py")); err == nil {
		t.Fatal("expected error when root is a file")
	}
}

func TestLoad_Cancelled(t *testing.T) {
	root := writeTree(t, sampleTree)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Load(ctx, root); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestLoad_UsesCache(t *testing.T) {
	source := "x = 1  # 1\n"
	root := writeTree(t, map[string]string{"basics/python/add.py": source})

	c := cache.NewMemoryCache(time.Minute, time.Minute)
	cached := []model.Assertion{{Line: 1, Expression: "cached", Expected: "42"}}
	data, err := json.Marshal(cached)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set(cache.Key(contentHash(source, ""), "python"), data, 0); err != nil {
		t.Fatal(err)
	}

	reg, err := Load(context.Background(), root, WithCache(c))
	if err != nil {
		t.Fatal(err)
	}
	got := reg.Records()[0].Assertions
	if diff := cmp.Diff(cached, got); diff != "" {
		t.Errorf("expected cached assertions (-want +got):\n%s", diff)
	}
}

func TestLoad_PopulatesCache(t *testing.T) {
	root := writeTree(t, map[string]string{"basics/python/add.py": "x = 1  # 1\n"})

	c := cache.NewMemoryCache(time.Minute, time.Minute)
	if _, err := Load(context.Background(), root, WithCache(c)); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 cache entry, got %d", c.Len())
	}
}

func TestLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"basics/go/add.go": {Data: []byte("result := 5 + 3 // 8\n")},
		"basics/js/add.js": {Data: []byte("const result = 5 + 3; // 8\n")},
		"basics/notes.txt": {Data: []byte("ignored // 1\n")},
	}

	reg, err := LoadFS(context.Background(), fsys)
	if err != nil {
		t.Fatal(err)
	}
	if reg.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", reg.Len())
	}
	if reg.Revision() != "" {
		t.Errorf("expected no revision for a plain tree, got %s", reg.Revision())
	}
}

func TestRegistry_Select(t *testing.T) {
	root := writeTree(t, sampleTree)
	reg, err := Load(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}

	if n := len(reg.Select([]string{"python"}, nil)); n != 2 {
		t.Errorf("expected 2 python records, got %d", n)
	}
	if n := len(reg.Select(nil, []string{"basics"})); n != 2 {
		t.Errorf("expected 2 basics records, got %d", n)
	}
	if n := len(reg.Select([]string{"java"}, []string{"strings"})); n != 0 {
		t.Errorf("expected no java strings records, got %d", n)
	}
	if n := len(reg.Select(nil, nil)); n != 3 {
		t.Errorf("expected all records, got %d", n)
	}
}

func TestRegistry_RecordsAreCopies(t *testing.T) {
	root := writeTree(t, sampleTree)
	reg, err := Load(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}

	records := reg.Records()
	records[0].Assertions[0].Expected = "mutated"
	records[0].Path = "mutated"

	again := reg.Records()
	if again[0].Path == "mutated" || again[0].Assertions[0].Expected == "mutated" {
		t.Error("expected registry to be unaffected by caller mutation")
	}
}
