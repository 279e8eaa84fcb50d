package evaluator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"go.uber.org/zap"

	"github.com/ppiankov/snipcheck/internal/literal"
)

// blockedPackages cannot be imported by interpreted snippets
var blockedPackages = []string{"os/exec", "net", "syscall", "unsafe", "plugin"}

var importPathRe = regexp.MustCompile(`"([^"]+)"`)

// GoAdapter interprets Go snippets in-process with yaegi. Every evaluation
// gets a new interpreter and its own working directory.
type GoAdapter struct {
	symbols interp.Exports
	logger  *zap.Logger
}

// GoOption configures a GoAdapter
type GoOption func(*GoAdapter)

// WithGoLogger sets the adapter logger
func WithGoLogger(logger *zap.Logger) GoOption {
	return func(a *GoAdapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewGoAdapter creates a Go adapter restricted to the safe part of the
// standard library.
func NewGoAdapter(opts ...GoOption) *GoAdapter {
	a := &GoAdapter{
		symbols: sandboxSymbols(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *GoAdapter) Name() string {
	return "go-yaegi"
}

func (a *GoAdapter) CanHandle(language string) bool {
	return language == "go"
}

func (a *GoAdapter) Evaluate(ctx context.Context, source, statement string) (string, error) {
	units := goUnits(source)
	if err := checkImports(units); err != nil {
		return "", syntaxFault(err)
	}

	wd, err := newWorkdir()
	if err != nil {
		return "", runtimeFault(fmt.Errorf("create working directory: %w", err))
	}
	defer wd.remove()

	var output bytes.Buffer
	i := interp.New(interp.Options{Stdout: &output, Stderr: &output})
	if err := i.Use(a.symbols); err != nil {
		return "", runtimeFault(fmt.Errorf("load symbols: %w", err))
	}
	if err := i.Use(wd.exports()); err != nil {
		return "", runtimeFault(fmt.Errorf("load symbols: %w", err))
	}

	p := planFor("go", statement)
	if p.run != "" {
		units = append(units, p.run)
	}
	for _, unit := range units {
		if _, err := i.EvalWithContext(ctx, unit); err != nil {
			return "", a.classify(ctx, err)
		}
	}

	before := output.Len()
	v, err := i.EvalWithContext(ctx, p.value)
	if err != nil {
		return "", a.classify(ctx, err)
	}

	rendered := renderValue(v)
	if !v.IsValid() {
		// a call without results: report what it printed, if anything
		if printed, ok := printedValue(output.String()[before:]); ok {
			rendered = printed
		}
	}
	a.logger.Debug("Go statement evaluated",
		zap.String("statement", statement),
		zap.String("value", rendered))
	return rendered, nil
}

func (a *GoAdapter) classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return timeout(err)
	}
	if errors.Is(err, context.Canceled) {
		return runtimeFault(err)
	}

	var p interp.Panic
	if errors.As(err, &p) {
		return runtimeFault(fmt.Errorf("panic: %v", p.Value))
	}
	return syntaxFault(err)
}

// goUnits splits Go source into top-level units (imports, declarations and
// statements) that the interpreter accepts one at a time.
func goUnits(source string) []string {
	var units []string
	var current []string
	balance := 0

	for _, line := range strings.Split(source, "\n") {
		code, _, _ := literal.SplitComment(strings.TrimRight(line, "\r"), "//")
		trimmed := strings.TrimSpace(code)
		if len(current) == 0 && (trimmed == "" || strings.HasPrefix(trimmed, "package ")) {
			continue
		}

		current = append(current, line)
		balance += literal.Balance(code)
		if balance > 0 || continues(trimmed) {
			continue
		}

		units = append(units, strings.Join(current, "\n"))
		current = nil
		balance = 0
	}
	if len(current) > 0 {
		units = append(units, strings.Join(current, "\n"))
	}
	return units
}

// continues reports whether a line cannot end a Go statement
func continues(line string) bool {
	if line == "" {
		return false
	}
	switch line[len(line)-1] {
	case ',', '+', '-', '*', '/', '&', '|', '=', '.':
		return !strings.HasSuffix(line, "++") && !strings.HasSuffix(line, "--")
	}
	return false
}

func checkImports(units []string) error {
	for _, unit := range units {
		if !strings.HasPrefix(strings.TrimSpace(unit), "import") {
			continue
		}
		for _, m := range importPathRe.FindAllStringSubmatch(unit, -1) {
			if blocked(m[1]) {
				return fmt.Errorf("import of %q is not allowed", m[1])
			}
		}
	}
	return nil
}

func blocked(pkgPath string) bool {
	for _, b := range blockedPackages {
		if pkgPath == b || strings.HasPrefix(pkgPath, b+"/") {
			return true
		}
	}
	return false
}

// sandboxSymbols copies the stdlib export table without blocked packages.
// Keys have the form "path/to/pkg/name".
func sandboxSymbols() interp.Exports {
	out := make(interp.Exports, len(stdlib.Symbols))
	for key, symbols := range stdlib.Symbols {
		pkgPath := key
		if i := strings.LastIndex(key, "/"); i >= 0 {
			pkgPath = key[:i]
		}
		if blocked(pkgPath) {
			continue
		}
		out[key] = symbols
	}
	return out
}
