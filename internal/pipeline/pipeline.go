// Package pipeline wires the registry, evaluators and checker into one check
// run, the way the CLI commands use them.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"go.uber.org/zap"

	"github.com/ppiankov/snipcheck/internal/cache"
	"github.com/ppiankov/snipcheck/internal/checker"
	"github.com/ppiankov/snipcheck/internal/evaluator"
	"github.com/ppiankov/snipcheck/internal/model"
	"github.com/ppiankov/snipcheck/internal/registry"
	"github.com/ppiankov/snipcheck/internal/report"
	"github.com/ppiankov/snipcheck/internal/worker"
)

// Pipeline orchestrates load, check and render
type Pipeline struct {
	config   *model.Config
	cache    cache.Cache // nil when caching is disabled
	limiter  *worker.Limiter
	adapters *evaluator.Registry
	renderer *report.Renderer
	logger   *zap.Logger
}

// Target selects what a run checks
type Target struct {
	Root       string   // Snippet tree directory
	Revision   string   // Git revision; empty reads the working tree
	Languages  []string // Empty means all
	Categories []string // Empty means all
	AllowEmpty bool     // Keep files without assertions as skipped records
}

// NewPipeline creates a pipeline with the given configuration. Interpreters
// that are disabled or missing from PATH are left out of the adapter
// registry, so their records report unsupported_language.
func NewPipeline(cfg *model.Config, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Pipeline{
		config:   cfg,
		limiter:  worker.NewLimiter(cfg.Limiter.SpawnsPerSecond, cfg.Limiter.Burst),
		renderer: report.NewRenderer(os.Stdout),
		logger:   logger,
	}
	if cfg.Cache.Enabled {
		p.cache = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
	}
	p.adapters = p.buildAdapters()
	return p
}

func (p *Pipeline) buildAdapters() *evaluator.Registry {
	reg := evaluator.NewRegistry()

	if ac, ok := p.config.Adapters["go"]; !ok || ac.Enabled {
		reg.Register(evaluator.NewGoAdapter(evaluator.WithGoLogger(p.logger)))
	}

	languages := make([]string, 0, len(p.config.Adapters))
	for lang := range p.config.Adapters {
		languages = append(languages, lang)
	}
	sort.Strings(languages)

	for _, lang := range languages {
		ac := p.config.Adapters[lang]
		if lang == "go" || !ac.Enabled {
			continue
		}
		adapter, err := evaluator.NewProcessAdapter(lang, ac.Command, ac.Args,
			evaluator.WithLimiter(p.limiter),
			evaluator.WithProcessLogger(p.logger))
		if err != nil {
			p.logger.Warn("Adapter not configured", zap.String("language", lang), zap.Error(err))
			continue
		}
		if err := adapter.Available(); err != nil {
			p.logger.Info("Interpreter not found, records will be unsupported",
				zap.String("language", lang),
				zap.String("command", ac.Command))
			continue
		}
		reg.Register(adapter)
	}
	return reg
}

// Adapters returns the evaluator registry in use
func (p *Pipeline) Adapters() *evaluator.Registry {
	return p.adapters
}

// Load reads the snippet tree of the target, from disk or from a revision
func (p *Pipeline) Load(ctx context.Context, t Target) (*registry.Registry, error) {
	opts := []registry.Option{
		registry.WithLogger(p.logger),
		registry.WithConcurrency(p.config.Checker.Workers),
		registry.WithAllowEmpty(t.AllowEmpty),
	}
	if p.cache != nil {
		opts = append(opts, registry.WithCache(p.cache))
	}

	if t.Revision != "" {
		return registry.LoadRevision(ctx, t.Root, t.Revision, opts...)
	}
	return registry.Load(ctx, t.Root, opts...)
}

// Check loads the target and runs every selected record. Only a failure to
// read the root aborts; per-file problems end up in the report.
func (p *Pipeline) Check(ctx context.Context, t Target) (*model.Report, error) {
	reg, err := p.Load(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}

	records := reg.Select(t.Languages, t.Categories)
	p.logger.Debug("Records selected",
		zap.Int("loaded", reg.Len()),
		zap.Int("selected", len(records)),
		zap.Strings("adapters", p.adapters.Names()))

	c := checker.New(
		checker.WithWorkers(p.config.Checker.Workers),
		checker.WithTimeout(p.config.Checker.Timeout),
		checker.WithLogger(p.logger),
		checker.WithLoadErrors(reg.Issues()),
		checker.WithRevision(reg.Revision()),
	)
	return c.Run(ctx, records, p.adapters)
}

// SetOutput sends reports requested with the "-" path to w instead of
// os.Stdout.
func (p *Pipeline) SetOutput(w io.Writer) {
	p.renderer = report.NewRenderer(w)
}

// RenderReport writes the machine summaries that were asked for and prints
// the human summary to w.
func (p *Pipeline) RenderReport(w io.Writer, rep *model.Report, jsonPath, yamlPath string, verbose bool) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(rep, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose && jsonPath != report.Stdout {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if yamlPath != "" {
		if err := p.renderer.RenderYAML(rep, yamlPath); err != nil {
			return fmt.Errorf("render YAML: %w", err)
		}
		if verbose && yamlPath != report.Stdout {
			fmt.Fprintf(os.Stderr, "✓ Wrote YAML: %s\n", yamlPath)
		}
	}

	p.renderer.RenderSummary(w, rep)
	return nil
}
