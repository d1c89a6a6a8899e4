package platform

import (
	"fmt"

	"newsdiff/internal/ports"
)

// Registry keeps a mapping from platform names to their adapters.
type Registry struct {
	adapters map[string]ports.Platform
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: map[string]ports.Platform{}}
}

// Register adds or replaces a platform adapter.
func (r *Registry) Register(adapter ports.Platform) {
	if r.adapters == nil {
		r.adapters = map[string]ports.Platform{}
	}
	r.adapters[adapter.Name()] = adapter
}

// Resolve returns an adapter by name or an error if it is absent.
func (r *Registry) Resolve(name string) (ports.Platform, error) {
	if adapter, ok := r.adapters[name]; ok {
		return adapter, nil
	}
	return nil, fmt.Errorf("platform %s is not registered", name)
}

// Ordered resolves the configured dispatch order into an adapter list.
// Names without a registered adapter (missing credentials) are skipped;
// order is otherwise preserved because it determines reply-chain order.
func (r *Registry) Ordered(names []string) []ports.Platform {
	adapters := make([]ports.Platform, 0, len(names))
	for _, name := range names {
		if adapter, ok := r.adapters[name]; ok {
			adapters = append(adapters, adapter)
		}
	}
	return adapters
}
