package evaluator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/snipcheck/internal/literal"
	"github.com/ppiankov/snipcheck/internal/worker"
)

// maxOutput bounds how much interpreter output is kept for diagnostics
const maxOutput = 4096

// ProcessAdapter evaluates snippets by running an external interpreter
// (python3, node, jshell). Each evaluation runs in a new process inside its
// own temporary directory.
type ProcessAdapter struct {
	language string
	command  string
	args     []string
	dialect  dialect
	limiter  *worker.Limiter
	logger   *zap.Logger
}

// ProcessOption configures a ProcessAdapter
type ProcessOption func(*ProcessAdapter)

// WithLimiter throttles process starts; the language is the limiter key
func WithLimiter(l *worker.Limiter) ProcessOption {
	return func(a *ProcessAdapter) { a.limiter = l }
}

// WithProcessLogger sets the adapter logger
func WithProcessLogger(logger *zap.Logger) ProcessOption {
	return func(a *ProcessAdapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewProcessAdapter creates an adapter running command for language. The
// script path is appended after args.
func NewProcessAdapter(language, command string, args []string, opts ...ProcessOption) (*ProcessAdapter, error) {
	d, ok := dialects[language]
	if !ok {
		return nil, fmt.Errorf("no process dialect for language %q", language)
	}
	if command == "" {
		return nil, fmt.Errorf("no interpreter command for language %q", language)
	}

	a := &ProcessAdapter{
		language: language,
		command:  command,
		args:     append([]string(nil), args...),
		dialect:  d,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// ProcessLanguages returns the languages a ProcessAdapter can be built for
func ProcessLanguages() []string {
	return []string{"java", "javascript", "python"}
}

func (a *ProcessAdapter) Name() string {
	return a.language + "-" + filepath.Base(a.command)
}

func (a *ProcessAdapter) CanHandle(language string) bool {
	return language == a.language
}

// Available reports whether the interpreter can be found on PATH
func (a *ProcessAdapter) Available() error {
	_, err := exec.LookPath(a.command)
	return err
}

func (a *ProcessAdapter) Evaluate(ctx context.Context, source, statement string) (string, error) {
	p := planFor(a.language, statement)
	name, contents := a.dialect.script(source, p)

	dir, err := os.MkdirTemp("", "snipcheck-*")
	if err != nil {
		return "", runtimeFault(fmt.Errorf("create work dir: %w", err))
	}
	defer os.RemoveAll(dir)

	script := filepath.Join(dir, name)
	if err := os.WriteFile(script, []byte(contents), 0o600); err != nil {
		return "", runtimeFault(fmt.Errorf("write script: %w", err))
	}

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx, a.language); err != nil {
			return "", a.contextFault(ctx, err)
		}
	}

	var output bytes.Buffer
	cmd := exec.CommandContext(ctx, a.command, append(append([]string(nil), a.args...), script)...)
	cmd.Dir = dir
	cmd.Stdout = &output
	cmd.Stderr = &output
	cmd.WaitDelay = time.Second

	start := time.Now()
	runErr := cmd.Run()
	a.logger.Debug("Interpreter finished",
		zap.String("language", a.language),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(runErr))

	if ctx.Err() != nil {
		return "", a.contextFault(ctx, ctx.Err())
	}

	out := output.String()
	if value, ok := sentinelValue(out); ok && runErr == nil {
		if void := a.dialect.void(); void != "" && value == void {
			if printed, ok := printedValue(printedOutput(out)); ok {
				return printed, nil
			}
		}
		return value, nil
	}

	var exitErr *exec.ExitError
	if runErr != nil && !errors.As(runErr, &exitErr) {
		// the interpreter could not be started
		return "", runtimeFault(fmt.Errorf("run %s: %w", a.command, runErr))
	}
	return "", a.failure(ctx, source, p, out, runErr)
}

func (a *ProcessAdapter) contextFault(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return timeout(err)
	}
	return runtimeFault(err)
}

// failure classifies a run that printed no value. Interpreter diagnostics
// decide first; otherwise a parse of the generated code tells syntax faults
// from runtime faults.
func (a *ProcessAdapter) failure(ctx context.Context, source string, p plan, output string, runErr error) error {
	msg := summarize(output)
	if msg == "" && runErr != nil {
		msg = runErr.Error()
	}
	if msg == "" {
		msg = "statement produced no value"
	}
	err := errors.New(msg)

	if kind, ok := a.dialect.classify(output); ok {
		return &EvaluationError{Kind: kind, Err: err}
	}

	code := source + "\n" + p.run + "\n" + p.value + "\n"
	if bad, ok := HasSyntaxError(ctx, a.language, code); ok && bad {
		return syntaxFault(err)
	}
	return runtimeFault(err)
}

// sentinelValue returns the value printed on the last sentinel line
func sentinelValue(output string) (string, bool) {
	lines := strings.Split(output, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimRight(lines[i], "\r")
		if idx := strings.Index(line, sentinel); idx >= 0 {
			return line[idx+len(sentinel):], true
		}
	}
	return "", false
}

// printedOutput returns what the observed expression printed: the lines
// between the last mark and the last sentinel line.
func printedOutput(output string) string {
	lines := strings.Split(output, "\n")
	end := -1
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.Contains(lines[i], sentinel) {
			end = i
			break
		}
	}
	for i := end - 1; i >= 0; i-- {
		if strings.TrimRight(lines[i], "\r") == mark {
			return strings.Join(lines[i+1:end], "\n")
		}
	}
	return ""
}

// printedValue renders the last non-blank printed line as a value. A line
// that is not a literal on its own is reported as a string.
func printedValue(printed string) (string, bool) {
	lines := strings.Split(printed, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimRight(lines[i], "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if lit, ok := literal.Scan(line); ok && lit == line {
			return line, true
		}
		return strconv.Quote(line), true
	}
	return "", false
}

// summarize keeps the last lines of interpreter output, bounded in size
func summarize(output string) string {
	output = strings.ReplaceAll(output, mark+"\n", "")
	output = strings.TrimSpace(output)
	if len(output) > maxOutput {
		output = output[len(output)-maxOutput:]
	}
	lines := strings.Split(output, "\n")
	if len(lines) > 8 {
		lines = lines[len(lines)-8:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
