package model

import "testing"

func TestPrefix(t *testing.T) {
	rec := SnippetRecord{Source: "a = 1\nb = 2\nprint(\n  a + b\n)  # 3\n"}

	tests := []struct {
		name string
		a    Assertion
		want string
	}{
		{"first line", Assertion{Line: 1}, ""},
		{"second line", Assertion{Line: 2}, "a = 1"},
		{"multi-line uses start", Assertion{Line: 5, StartLine: 3}, "a = 1\nb = 2"},
		{"past end", Assertion{Line: 40}, rec.Source},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rec.Prefix(tt.a); got != tt.want {
				t.Errorf("Prefix() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReportOK(t *testing.T) {
	if !(&Report{Total: 2, Passed: 2}).OK() {
		t.Error("expected passing report to be OK")
	}
	if (&Report{Total: 2, Passed: 1, Failed: 1}).OK() {
		t.Error("expected failed report not OK")
	}
	if (&Report{LoadErrors: []LoadIssue{{Path: "x.py"}}}).OK() {
		t.Error("expected load errors to fail the report")
	}
}

func TestNewFailure(t *testing.T) {
	rec := SnippetRecord{Path: "s/python/a.py", Category: "s", Language: "python"}
	a := Assertion{Line: 3, Expression: "x", Expected: "1"}

	f := NewFailure(rec, a, EvaluationResult{Actual: "2", HasActual: true, Kind: KindMismatch})
	if f.Actual == nil || *f.Actual != "2" || f.Line != 3 || f.Path != rec.Path {
		t.Errorf("unexpected failure %+v", f)
	}

	f = NewFailure(rec, a, EvaluationResult{Kind: KindRuntimeFault, Message: "boom"})
	if f.Actual != nil {
		t.Errorf("expected no actual for a runtime fault, got %q", *f.Actual)
	}
}

func TestAssertionStateTerminal(t *testing.T) {
	for _, s := range []AssertionState{StateMatched, StateMismatched, StateErrored} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []AssertionState{StatePending, StateEvaluating} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}
