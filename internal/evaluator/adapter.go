// Package evaluator runs snippet statements in per-language execution
// environments and reports the value each statement produced.
package evaluator

import (
	"context"
	"sort"
)

// Adapter executes snippet code for one or more languages
type Adapter interface {
	// Name returns the adapter name
	Name() string

	// CanHandle checks if this adapter can run the given language
	CanHandle(language string) bool

	// Evaluate runs source in a fresh execution context, then the statement,
	// and returns the statement's value rendered as a literal. Failures are
	// returned as *EvaluationError.
	Evaluate(ctx context.Context, source, statement string) (string, error)
}

// Registry manages evaluator adapters
type Registry struct {
	adapters []Adapter
}

// NewRegistry creates a registry holding the given adapters in order
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make([]Adapter, 0, len(adapters))}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

// Register registers a new adapter
func (r *Registry) Register(adapter Adapter) {
	if adapter != nil {
		r.adapters = append(r.adapters, adapter)
	}
}

// FindAdapter returns the first adapter that can handle language, or nil
func (r *Registry) FindAdapter(language string) Adapter {
	if r == nil {
		return nil
	}
	for _, adapter := range r.adapters {
		if adapter.CanHandle(language) {
			return adapter
		}
	}
	return nil
}

// Names returns the registered adapter names, sorted
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.adapters))
	for _, a := range r.adapters {
		names = append(names, a.Name())
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered adapters
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.adapters)
}
