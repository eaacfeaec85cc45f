package sim

import (
	"fmt"
	"strings"
)

// Registry maps identifiers to implementations and remembers registration
// order, which is the discovery order used for tie-breaking in the standings.
type Registry[T any] struct {
	kind    string
	names   []string
	entries map[string]T
}

// StrategyRegistry holds strategy factories by identifier.
type StrategyRegistry = Registry[StrategyFactory]

// AuctionRegistry holds auction-rule factories by identifier.
type AuctionRegistry = Registry[AuctionFactory]

// BuiltinStrategies is populated by sim/strategy's init().
var BuiltinStrategies = NewRegistry[StrategyFactory]("strategy")

// BuiltinAuctions is populated by sim/auction's init().
var BuiltinAuctions = NewRegistry[AuctionFactory]("auction")

// NewRegistry creates an empty registry. kind is used in error messages.
func NewRegistry[T any](kind string) *Registry[T] {
	return &Registry[T]{
		kind:    kind,
		entries: make(map[string]T),
	}
}

// Register adds an implementation under name.
// Empty or duplicate names are rejected.
func (r *Registry[T]) Register(name string, impl T) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%s name is required", r.kind)
	}
	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("duplicate %s %q", r.kind, name)
	}
	r.entries[name] = impl
	r.names = append(r.names, name)
	return nil
}

// MustRegister is Register for init() blocks. Panics on error.
func (r *Registry[T]) MustRegister(name string, impl T) {
	if err := r.Register(name, impl); err != nil {
		panic(err)
	}
}

// Lookup returns the implementation registered under name.
func (r *Registry[T]) Lookup(name string) (T, bool) {
	impl, ok := r.entries[name]
	return impl, ok
}

// Names returns identifiers in registration order.
func (r *Registry[T]) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of registered implementations.
func (r *Registry[T]) Len() int { return len(r.names) }

// Merge registers every entry of other into r, in other's order.
func (r *Registry[T]) Merge(other *Registry[T]) error {
	for _, name := range other.names {
		if err := r.Register(name, other.entries[name]); err != nil {
			return err
		}
	}
	return nil
}

// Select returns a new registry containing only names, in the given order.
// An empty selection returns a copy of r.
func (r *Registry[T]) Select(names []string) (*Registry[T], error) {
	if len(names) == 0 {
		names = r.names
	}
	out := NewRegistry[T](r.kind)
	for _, name := range names {
		impl, ok := r.entries[name]
		if !ok {
			return nil, fmt.Errorf("unknown %s %q (known: %s)", r.kind, name, strings.Join(r.names, ", "))
		}
		if err := out.Register(name, impl); err != nil {
			return nil, err
		}
	}
	return out, nil
}
