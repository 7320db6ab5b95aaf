// Package output provides formatters for rendering reconciliation
// reports in various formats (pretty, plain, json).
//
// The package uses a registry pattern to allow registration of multiple
// formatter implementations that can be selected at runtime.
//
// Basic usage:
//
//	formatter, err := output.Get("pretty")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, result); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(buf.String())
package output

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Per-category report symbols.
const (
	SymbolAdded   = "+"
	SymbolRemoved = "-"
	SymbolUpdated = "*"
	SymbolMoved   = ">"
	SymbolBitrot  = "!"
)

// Move describes a rename for rendering.
type Move struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Result contains the complete report data for formatting. Warnings are
// carried separately from the classification result.
type Result struct {
	// Root is the audited directory.
	Root string `json:"root"`

	// Mode is the operation that produced the report (init, update, audit).
	Mode string `json:"mode"`

	// Classified paths, each in exactly one category.
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
	Updated []string `json:"updated"`
	Bitrot  []string `json:"bitrot"`
	Moved   []Move   `json:"moved"`

	// Unchanged is the count of paths with no observable change.
	Unchanged int `json:"unchanged"`

	// Total is the number of classified paths.
	Total int `json:"total"`

	// BytesHashed is the content volume fed to the hash engine.
	BytesHashed int64 `json:"bytes_hashed"`

	// Duration is the wall time of the run.
	Duration time.Duration `json:"duration"`

	// Persisted indicates whether the new index was written.
	Persisted bool `json:"persisted"`

	// Warnings contains per-path I/O warnings gathered during the run.
	Warnings []string `json:"warnings,omitempty"`
}

// Modified reports whether any difference was detected.
func (r *Result) Modified() bool {
	return len(r.Added) > 0 || len(r.Removed) > 0 ||
		len(r.Updated) > 0 || len(r.Bitrot) > 0 || len(r.Moved) > 0
}

// Formatter is the interface that all output formatters must implement.
type Formatter interface {
	// Format writes the formatted report to the buffer.
	Format(w *bytes.Buffer, r *Result) error
}

// FormatterFactory is a function that creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds a formatter factory to the registry.
// It will replace any existing formatter with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance by name.
// It returns an error if the formatter is not found.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown formatter: %s", name)
	}
	return factory(), nil
}

// Available returns a sorted list of all registered formatter names.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}
