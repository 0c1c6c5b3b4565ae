package llm

import (
	"fmt"
	"sort"
)

// Registry is a fixed set of generators keyed by model name. It is built once
// and never changes, so lookups need no locking.
type Registry struct {
	generators  map[string]Generator
	defaultName string
}

// NewRegistry registers gens. defaultName must be one of them; when empty, the
// first generator is the default.
func NewRegistry(defaultName string, gens ...Generator) (*Registry, error) {
	if len(gens) == 0 {
		return nil, fmt.Errorf("no generators configured")
	}
	r := &Registry{generators: make(map[string]Generator, len(gens))}
	for _, g := range gens {
		name := g.Name()
		if _, dup := r.generators[name]; dup {
			return nil, fmt.Errorf("generator %q registered twice", name)
		}
		r.generators[name] = g
	}
	if defaultName == "" {
		defaultName = gens[0].Name()
	}
	if _, ok := r.generators[defaultName]; !ok {
		return nil, fmt.Errorf("%w: default %q", ErrUnknownModel, defaultName)
	}
	r.defaultName = defaultName
	return r, nil
}

// Get returns the generator for name, or the default when name is empty.
func (r *Registry) Get(name string) (Generator, error) {
	if name == "" {
		name = r.defaultName
	}
	g, ok := r.generators[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, name)
	}
	return g, nil
}

// Default returns the default model name.
func (r *Registry) Default() string { return r.defaultName }

// Names returns the registered model names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.generators))
	for name := range r.generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
