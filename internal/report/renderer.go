// Package report renders checker reports as machine summaries (JSON, YAML)
// and as a human-readable text summary.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/snipcheck/internal/model"
)

// Stdout is the output path that selects standard output
const Stdout = "-"

// Renderer writes reports to files or streams
type Renderer struct {
	stdout io.Writer
}

// NewRenderer creates a renderer; "-" paths go to stdout
func NewRenderer(stdout io.Writer) *Renderer {
	if stdout == nil {
		stdout = os.Stdout
	}
	return &Renderer{stdout: stdout}
}

// RenderJSON writes the report as indented JSON
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	return r.write(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	})
}

// RenderYAML writes the report as YAML
func (r *Renderer) RenderYAML(report *model.Report, path string) error {
	return r.write(path, func(w io.Writer) error {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	})
}

func (r *Renderer) write(path string, encode func(io.Writer) error) error {
	if path == Stdout {
		return encode(r.stdout)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := encode(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// RenderSummary writes the human summary: counts, failures grouped by
// category and language, then load errors.
func (r *Renderer) RenderSummary(w io.Writer, report *model.Report) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════")
	if report.Revision != "" {
		fmt.Fprintf(w, "Snippet check @ %s\n", shortRevision(report.Revision))
	} else {
		fmt.Fprintln(w, "Snippet check")
	}
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════")
	fmt.Fprintf(w, "Total:   %d\n", report.Total)
	fmt.Fprintf(w, "Passed:  %d\n", report.Passed)
	fmt.Fprintf(w, "Failed:  %d\n", report.Failed)
	if report.Skipped > 0 {
		fmt.Fprintf(w, "Skipped: %d (no assertions)\n", report.Skipped)
	}

	if len(report.Failures) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Failures:")
		for _, group := range groupFailures(report.Failures) {
			fmt.Fprintf(w, "  %s [%s] (%d)\n", group.category, group.language, len(group.failures))
			for _, f := range group.failures {
				fmt.Fprintf(w, "    %s:%d  %s\n", f.Path, f.Line, f.Expression)
				fmt.Fprintf(w, "      %s\n", describe(f))
			}
		}
	}

	if len(report.LoadErrors) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Load errors (%d):\n", len(report.LoadErrors))
		for _, e := range report.LoadErrors {
			fmt.Fprintf(w, "  %s: %s\n", e.Path, e.Message)
		}
	}

	fmt.Fprintln(w)
	if report.OK() {
		fmt.Fprintln(w, "✓ All documented examples hold")
	} else {
		fmt.Fprintln(w, "✗ Documented examples drifted")
	}
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════")
}

type failureGroup struct {
	category string
	language string
	failures []model.Failure
}

// groupFailures keeps report order inside a group and orders groups by
// category then language.
func groupFailures(failures []model.Failure) []failureGroup {
	index := make(map[string]int)
	var groups []failureGroup
	for _, f := range failures {
		key := f.Category + "\x00" + f.Language
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, failureGroup{category: f.Category, language: f.Language})
		}
		groups[i].failures = append(groups[i].failures, f)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].category != groups[j].category {
			return groups[i].category < groups[j].category
		}
		return groups[i].language < groups[j].language
	})
	return groups
}

func describe(f model.Failure) string {
	switch {
	case f.Kind == model.KindMismatch && f.Actual != nil:
		return fmt.Sprintf("expected %s, got %s", f.Expected, *f.Actual)
	case f.Message != "":
		return fmt.Sprintf("%s: %s", f.Kind, firstLine(f.Message))
	default:
		return string(f.Kind)
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func shortRevision(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}
