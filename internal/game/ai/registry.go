package ai

import (
	"fmt"
	"sort"
)

// Factory builds the initial state of an archetype's graph for one enemy.
type Factory[E any] func(owner E) State

// Registry indexes state graphs by archetype name.
//
// Invariant: each archetype name is registered at most once.
type Registry[E any] struct {
	graphs map[string]Factory[E]
}

// NewRegistry returns an empty Registry.
func NewRegistry[E any]() *Registry[E] {
	return &Registry[E]{graphs: make(map[string]Factory[E])}
}

// Register stores the initial-state factory for archetype.
//
// Precondition: archetype must be non-empty and f must be non-nil.
// Postcondition: returns error on archetype name collision.
func (r *Registry[E]) Register(archetype string, f Factory[E]) error {
	if archetype == "" || f == nil {
		return fmt.Errorf("ai.Registry: archetype name and factory are required")
	}
	if _, exists := r.graphs[archetype]; exists {
		return fmt.Errorf("ai.Registry: archetype %q already registered", archetype)
	}
	r.graphs[archetype] = f
	return nil
}

// Initial returns the factory for archetype, or false if not registered.
func (r *Registry[E]) Initial(archetype string) (Factory[E], bool) {
	f, ok := r.graphs[archetype]
	return f, ok
}

// Names returns the registered archetype names in sorted order.
func (r *Registry[E]) Names() []string {
	out := make([]string, 0, len(r.graphs))
	for name := range r.graphs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
