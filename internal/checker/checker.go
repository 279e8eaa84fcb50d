// Package checker runs snippet records against evaluator adapters and
// aggregates the outcome into a report.
package checker

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/snipcheck/internal/evaluator"
	"github.com/ppiankov/snipcheck/internal/literal"
	"github.com/ppiankov/snipcheck/internal/model"
	"github.com/ppiankov/snipcheck/internal/worker"
)

// DefaultTimeout bounds a single evaluation
const DefaultTimeout = 5 * time.Second

// Checker drives records through evaluators
type Checker struct {
	workers    int
	timeout    time.Duration
	logger     *zap.Logger
	loadIssues []model.LoadIssue
	revision   string
}

// Option configures a Checker
type Option func(*Checker)

// WithWorkers sets how many records are evaluated in parallel
func WithWorkers(n int) Option {
	return func(c *Checker) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithTimeout sets the per-evaluation deadline
func WithTimeout(d time.Duration) Option {
	return func(c *Checker) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the checker logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Checker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithLoadErrors attaches registry load failures to the report
func WithLoadErrors(issues []model.LoadIssue) Option {
	return func(c *Checker) {
		c.loadIssues = append([]model.LoadIssue(nil), issues...)
	}
}

// WithRevision records the git revision the records were read from
func WithRevision(rev string) Option {
	return func(c *Checker) { c.revision = rev }
}

// New creates a checker
func New(opts ...Option) *Checker {
	c := &Checker{
		workers: runtime.NumCPU(),
		timeout: DefaultTimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run evaluates every record and returns the report. Records run in
// parallel; the assertions of one record run in order. When ctx is cancelled
// the report covers only records that completed, and ctx's error is
// returned with it.
func (c *Checker) Run(ctx context.Context, records []model.SnippetRecord, adapters *evaluator.Registry) (*model.Report, error) {
	acc := newAccumulator(len(records))

	pool := worker.NewPool(ctx, c.workers)
	pool.Start()
	defer pool.Shutdown()

	jobs := make([]worker.Job, len(records))
	for i, rec := range records {
		jobs[i] = &recordJob{
			index:   i,
			record:  rec,
			adapter: adapters.FindAdapter(rec.Language),
			checker: c,
			acc:     acc,
		}
	}

	start := time.Now()
	_, err := pool.Run(jobs)
	if err == nil {
		err = ctx.Err()
	}

	report := acc.report(records)
	report.Revision = c.revision
	report.LoadErrors = append(report.LoadErrors, c.loadIssues...)

	c.logger.Info("Check finished",
		zap.Int("records", len(records)),
		zap.Int("total", report.Total),
		zap.Int("passed", report.Passed),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped),
		zap.Duration("elapsed", time.Since(start)))

	return report, err
}

// evaluate runs one assertion through its state machine
func (c *Checker) evaluate(ctx context.Context, rec model.SnippetRecord, a model.Assertion, adapter evaluator.Adapter) model.EvaluationResult {
	res := model.EvaluationResult{State: model.StatePending}

	res.State = model.StateEvaluating
	ectx, cancel := context.WithTimeout(ctx, c.timeout)
	actual, err := adapter.Evaluate(ectx, rec.Prefix(a), a.Expression)
	cancel()

	if err != nil {
		res.State = model.StateErrored
		res.Kind = evaluator.KindOf(err)
		res.Message = err.Error()
		return res
	}

	res.Actual = actual
	res.HasActual = true
	if literal.Equal(a.Expected, actual) {
		res.State = model.StateMatched
		res.Matched = true
		return res
	}

	res.State = model.StateMismatched
	res.Kind = model.KindMismatch
	res.Message = (&MismatchError{Expected: a.Expected, Actual: actual}).Error()
	return res
}

// recordJob evaluates all assertions of one record
type recordJob struct {
	index   int
	record  model.SnippetRecord
	adapter evaluator.Adapter
	checker *Checker
	acc     *accumulator
}

// recordResult implements worker.Result
type recordResult struct {
	index int
	err   error
}

func (r *recordResult) GetError() error {
	return r.err
}

func (j *recordJob) Execute(ctx context.Context) worker.Result {
	rec := j.record
	results := make([]model.EvaluationResult, len(rec.Assertions))

	switch {
	case len(rec.Assertions) == 0:
		// nothing to evaluate
	case j.adapter == nil:
		unsupported := &UnsupportedLanguageError{Language: rec.Language}
		for i := range results {
			results[i] = model.EvaluationResult{
				State:   model.StateErrored,
				Kind:    model.KindUnsupportedLanguage,
				Message: unsupported.Error(),
			}
		}
	default:
		for i, a := range rec.Assertions {
			if err := ctx.Err(); err != nil {
				return &recordResult{index: j.index, err: err}
			}
			results[i] = j.checker.evaluate(ctx, rec, a, j.adapter)
		}
	}

	// an evaluation cut short by cancellation is not a verdict
	if err := ctx.Err(); err != nil {
		return &recordResult{index: j.index, err: err}
	}

	j.acc.commit(j.index, results)
	j.checker.logger.Debug("Record checked",
		zap.String("path", rec.Path),
		zap.Int("assertions", len(results)))
	return &recordResult{index: j.index}
}

// accumulator collects per-record outcomes from concurrent jobs
type accumulator struct {
	mu       sync.Mutex
	outcomes map[int][]model.EvaluationResult
}

func newAccumulator(n int) *accumulator {
	return &accumulator{outcomes: make(map[int][]model.EvaluationResult, n)}
}

// commit stores the complete outcome of one record
func (a *accumulator) commit(index int, results []model.EvaluationResult) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.outcomes[index] = results
}

// report assembles committed outcomes in record order
func (a *accumulator) report(records []model.SnippetRecord) *model.Report {
	a.mu.Lock()
	defer a.mu.Unlock()

	indexes := make([]int, 0, len(a.outcomes))
	for i := range a.outcomes {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	report := &model.Report{Failures: []model.Failure{}}
	for _, i := range indexes {
		rec := records[i]
		results := a.outcomes[i]
		if len(rec.Assertions) == 0 {
			report.Skipped++
			continue
		}
		for k, res := range results {
			report.Total++
			if res.Matched {
				report.Passed++
				continue
			}
			report.Failed++
			report.Failures = append(report.Failures, model.NewFailure(rec, rec.Assertions[k], res))
		}
	}
	return report
}
