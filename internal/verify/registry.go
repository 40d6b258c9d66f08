package verify

import (
	"fmt"
	"slices"
	"strings"
)

// Registry resolves engine names to engines.
type Registry struct {
	engines map[string]Engine
}

// NewRegistry returns a registry holding the built-in engines.
func NewRegistry() *Registry {
	r := &Registry{engines: make(map[string]Engine)}
	for _, e := range Builtins() {
		r.engines[e.Name] = e
	}
	return r
}

// Register adds a custom engine. Built-in names cannot be replaced.
func (r *Registry) Register(e Engine) error {
	if e.Name == "" {
		return ErrEngineName
	}
	key := strings.ToLower(e.Name)
	if _, exists := r.engines[key]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateEngine, e.Name)
	}
	r.engines[key] = e
	return nil
}

// Lookup returns the engine registered under name.
func (r *Registry) Lookup(name string) (Engine, error) {
	e, ok := r.engines[strings.ToLower(name)]
	if !ok {
		return Engine{}, fmt.Errorf("%w: %q (available: %s)", ErrUnknownEngine, name, strings.Join(r.Names(), ", "))
	}
	return e, nil
}

// Resolve looks up every name, dropping repeats while keeping order.
func (r *Registry) Resolve(names []string) ([]Engine, error) {
	var engines []Engine
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		e, err := r.Lookup(name)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[e.Name]; dup {
			continue
		}
		seen[e.Name] = struct{}{}
		engines = append(engines, e)
	}
	return engines, nil
}

// Names returns the registered engine names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
