// Package registry loads a tree of snippet files into an immutable catalogue
// of records, each carrying the assertions documented in its comments.
package registry

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"runtime"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/snipcheck/internal/cache"
	"github.com/ppiankov/snipcheck/internal/model"
)

const metadataFile = "metadata.json"

// Registry is the read-only catalogue of loaded snippets
type Registry struct {
	records  []model.SnippetRecord
	errors   []*LoadError
	revision string
}

// Option configures loading
type Option func(*loader)

// WithCache reuses parsed assertions across runs, keyed by content hash
func WithCache(c cache.Cache) Option {
	return func(l *loader) { l.cache = c }
}

// WithLogger sets the logger used for load diagnostics
func WithLogger(logger *zap.Logger) Option {
	return func(l *loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithConcurrency bounds how many files are read and parsed at once
func WithConcurrency(n int) Option {
	return func(l *loader) {
		if n > 0 {
			l.concurrency = n
		}
	}
}

// WithAllowEmpty keeps files without assertions as records instead of
// reporting them as load errors. The checker skips such records.
func WithAllowEmpty(allow bool) Option {
	return func(l *loader) { l.allowEmpty = allow }
}

// Load walks the snippet tree under root. A root that cannot be read fails
// the whole load; individual bad files are collected in Errors.
func Load(ctx context.Context, root string, opts ...Option) (*Registry, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, &LoadError{Path: root, Err: err}
	}
	if !info.IsDir() {
		return nil, &LoadError{Path: root, Err: errors.New("not a directory")}
	}

	reg, err := LoadFS(ctx, os.DirFS(root), opts...)
	var le *LoadError
	if errors.As(err, &le) && le.Path == "." {
		le.Path = root
	}
	return reg, err
}

// LoadFS loads snippets from any file system, e.g. an embedded tree
func LoadFS(ctx context.Context, fsys fs.FS, opts ...Option) (*Registry, error) {
	l := newLoader(opts)

	var files []sourceFile
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == "." {
				return err
			}
			l.issues = append(l.issues, &LoadError{Path: p, Err: err})
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if p != "." && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !wanted(p) {
			return nil
		}
		files = append(files, sourceFile{
			path: p,
			read: func() ([]byte, error) { return fs.ReadFile(fsys, p) },
		})
		return nil
	})
	if err != nil {
		return nil, &LoadError{Path: ".", Err: err}
	}

	return l.build(ctx, files)
}

// Records returns a copy of the loaded records, ordered by path
func (r *Registry) Records() []model.SnippetRecord {
	out := make([]model.SnippetRecord, len(r.records))
	for i, rec := range r.records {
		out[i] = rec
		out[i].Assertions = append([]model.Assertion(nil), rec.Assertions...)
	}
	return out
}

// Select returns the records matching the given languages and categories.
// An empty filter matches everything.
func (r *Registry) Select(languages, categories []string) []model.SnippetRecord {
	langSet := toSet(languages)
	catSet := toSet(categories)

	var out []model.SnippetRecord
	for _, rec := range r.Records() {
		if len(langSet) > 0 && !langSet[rec.Language] {
			continue
		}
		if len(catSet) > 0 && !catSet[rec.Category] {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// Errors returns the per-file load failures
func (r *Registry) Errors() []*LoadError {
	return append([]*LoadError(nil), r.errors...)
}

// Issues returns the load failures in report form
func (r *Registry) Issues() []model.LoadIssue {
	issues := make([]model.LoadIssue, 0, len(r.errors))
	for _, e := range r.errors {
		issues = append(issues, model.LoadIssue{
			Path:    e.Path,
			Kind:    model.KindLoadError,
			Message: e.Err.Error(),
		})
	}
	return issues
}

// Len returns the number of records
func (r *Registry) Len() int {
	return len(r.records)
}

// Revision returns the git commit the tree was read from, if any
func (r *Registry) Revision() string {
	return r.revision
}

type sourceFile struct {
	path string
	read func() ([]byte, error)
}

type methodMeta struct {
	Title       string `json:"title"`
	Explanation string `json:"explanation"`
}

// metadata is metadata.json: language -> method -> details
type metadata map[string]map[string]methodMeta

type loader struct {
	cache       cache.Cache
	logger      *zap.Logger
	concurrency int
	allowEmpty  bool
	issues      []*LoadError
}

func newLoader(opts []Option) *loader {
	l := &loader{
		logger:      zap.NewNop(),
		concurrency: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// wanted reports whether a path is a snippet or a metadata file
func wanted(p string) bool {
	return path.Base(p) == metadataFile || LanguageOf(p) != ""
}

func hidden(p string) bool {
	for _, part := range strings.Split(p, "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

type loadSlot struct {
	record model.SnippetRecord
	err    *LoadError
}

func (l *loader) build(ctx context.Context, files []sourceFile) (*Registry, error) {
	sort.Slice(files, func(i, j int) bool { return files[i].path < files[j].path })

	meta := make(map[string]metadata)
	var snippets []sourceFile
	for _, f := range files {
		if path.Base(f.path) != metadataFile {
			snippets = append(snippets, f)
			continue
		}
		m, err := readMetadata(f)
		if err != nil {
			l.issues = append(l.issues, &LoadError{Path: f.path, Err: err})
			continue
		}
		meta[path.Dir(f.path)] = m
	}

	slots := make([]loadSlot, len(snippets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, f := range snippets {
		i, f := i, f
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slots[i] = l.loadFile(f, meta)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reg := &Registry{errors: l.issues}
	for _, s := range slots {
		if s.err != nil {
			reg.errors = append(reg.errors, s.err)
			continue
		}
		reg.records = append(reg.records, s.record)
	}
	sort.SliceStable(reg.errors, func(i, j int) bool { return reg.errors[i].Path < reg.errors[j].Path })

	l.logger.Debug("Snippet tree loaded",
		zap.Int("records", len(reg.records)),
		zap.Int("errors", len(reg.errors)))
	return reg, nil
}

func readMetadata(f sourceFile) (metadata, error) {
	data, err := f.read()
	if err != nil {
		return nil, err
	}
	var m metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("invalid metadata: %w", err)
	}
	return m, nil
}

func (l *loader) loadFile(f sourceFile, meta map[string]metadata) loadSlot {
	data, err := f.read()
	if err != nil {
		return loadSlot{err: &LoadError{Path: f.path, Err: err}}
	}
	if !utf8.Valid(data) {
		return loadSlot{err: &LoadError{Path: f.path, Err: errors.New("not valid UTF-8")}}
	}

	source := string(data)
	language := LanguageOf(f.path)
	category, group, method := placement(f.path)
	details := meta[metadataDir(f.path)][language][method]

	rec := model.SnippetRecord{
		Path:        f.path,
		Category:    category,
		Group:       group,
		Language:    language,
		Method:      method,
		Title:       details.Title,
		Explanation: details.Explanation,
		ContentHash: contentHash(source, details.Explanation),
		Source:      source,
	}
	rec.Assertions = l.parse(rec)

	if len(rec.Assertions) == 0 && !l.allowEmpty {
		return loadSlot{err: &LoadError{Path: f.path, Err: ErrNoAssertions}}
	}
	return loadSlot{record: rec}
}

// parse extracts assertions, consulting the cache first
func (l *loader) parse(rec model.SnippetRecord) []model.Assertion {
	if l.cache == nil {
		return ParseAssertions(rec.Source, rec.Language)
	}

	key := cache.Key(rec.ContentHash, rec.Language)
	if data, ok := l.cache.Get(key); ok {
		var cached []model.Assertion
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached
		}
	}

	assertions := ParseAssertions(rec.Source, rec.Language)
	data, err := json.Marshal(assertions)
	if err == nil {
		err = l.cache.Set(key, data, 0)
	}
	if err != nil {
		l.logger.Debug("Assertion cache write failed", zap.String("path", rec.Path), zap.Error(err))
	}
	return assertions
}

// contentHash mirrors the change-detection hash of the snippet catalogue
func contentHash(source, explanation string) string {
	sum := sha256.Sum256([]byte(source + "|" + explanation))
	return hex.EncodeToString(sum[:])
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			set[v] = true
		}
	}
	return set
}
