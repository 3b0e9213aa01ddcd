package usecase

import (
	"fmt"
	"slices"
)

// Registry keeps a mapping from pipeline names to their implementations.
type Registry struct {
	pipelines map[string]Pipeline
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{pipelines: map[string]Pipeline{}}
}

// Register adds or replaces a pipeline.
func (r *Registry) Register(p Pipeline) {
	if r.pipelines == nil {
		r.pipelines = map[string]Pipeline{}
	}
	r.pipelines[p.Name()] = p
}

// Resolve returns a pipeline by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Pipeline, error) {
	if p, ok := r.pipelines[name]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("pipeline %s is not registered", name)
}

// All returns the registered pipelines ordered by name.
func (r *Registry) All() []Pipeline {
	names := make([]string, 0, len(r.pipelines))
	for name := range r.pipelines {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make([]Pipeline, 0, len(names))
	for _, name := range names {
		out = append(out, r.pipelines[name])
	}
	return out
}
