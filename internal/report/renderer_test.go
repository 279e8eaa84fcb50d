package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/snipcheck/internal/model"
)

func sampleReport() *model.Report {
	actual := "-1"
	return &model.Report{
		Revision: "0123456789abcdef0123",
		Total:    4,
		Passed:   2,
		Failed:   2,
		Skipped:  1,
		Failures: []model.Failure{
			{
				Category:   "string-methods",
				Language:   "python",
				Path:       "string-methods/python/find.py",
				Line:       3,
				Expression: `text.find("o")`,
				Expected:   "7",
				Actual:     &actual,
				Kind:       model.KindMismatch,
			},
			{
				Category:   "array-methods",
				Language:   "java",
				Path:       "array-methods/java/pop.java",
				Line:       9,
				Expression: "numbers.get(9)",
				Expected:   "4",
				Kind:       model.KindRuntimeFault,
				Message:    "IndexOutOfBoundsException\n  at line 1",
			},
		},
		LoadErrors: []model.LoadIssue{
			{Path: "file-io/go/read.go", Kind: model.KindLoadError, Message: "no assertions found"},
		},
	}
}

func TestRenderJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	r := NewRenderer(nil)
	if err := r.RenderJSON(sampleReport(), path); err != nil {
		t.Fatalf("RenderJSON failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got model.Report
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if diff := cmp.Diff(sampleReport(), &got); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}

	// Absent actual values are omitted, not rendered as null
	if strings.Count(string(data), `"actual"`) != 1 {
		t.Errorf("expected one actual field, got:\n%s", data)
	}
}

func TestRenderJSON_Stdout(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf)
	if err := r.RenderJSON(&model.Report{Failures: []model.Failure{}}, Stdout); err != nil {
		t.Fatalf("RenderJSON failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"failures": []`) {
		t.Errorf("expected empty failures array, got:\n%s", buf.String())
	}
}

func TestRenderYAML(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf)
	if err := r.RenderYAML(sampleReport(), Stdout); err != nil {
		t.Fatalf("RenderYAML failed: %v", err)
	}

	var got model.Report
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	if got.Total != 4 || got.Failed != 2 || len(got.Failures) != 2 {
		t.Errorf("unexpected counts: %+v", got)
	}
	if got.Failures[0].Kind != model.KindMismatch {
		t.Errorf("expected mismatch first, got %s", got.Failures[0].Kind)
	}
}

func TestRenderJSON_BadPath(t *testing.T) {
	r := NewRenderer(nil)
	path := filepath.Join(t.TempDir(), "missing", "report.json")
	if err := r.RenderJSON(sampleReport(), path); err == nil {
		t.Error("expected error for unwritable path")
	}
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	NewRenderer(nil).RenderSummary(&buf, sampleReport())
	out := buf.String()

	for _, want := range []string{
		"Snippet check @ 0123456789ab",
		"Total:   4",
		"Skipped: 1",
		"expected 7, got -1",
		"runtime_fault: IndexOutOfBoundsException",
		"file-io/go/read.go: no assertions found",
		"✗ Documented examples drifted",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}

	// Groups are ordered by category
	if strings.Index(out, "array-methods [java]") > strings.Index(out, "string-methods [python]") {
		t.Errorf("expected array-methods group first:\n%s", out)
	}
}

func TestRenderSummary_OK(t *testing.T) {
	var buf bytes.Buffer
	NewRenderer(nil).RenderSummary(&buf, &model.Report{Total: 3, Passed: 3})
	out := buf.String()
	if !strings.Contains(out, "✓ All documented examples hold") {
		t.Errorf("expected success line:\n%s", out)
	}
	if strings.Contains(out, "Failures:") || strings.Contains(out, "Skipped") {
		t.Errorf("unexpected sections:\n%s", out)
	}
}
