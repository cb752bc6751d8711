package action

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps action type strings to their factories.
// It is safe for concurrent reads; Register should only be called at startup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory. Panics on duplicate type to surface misconfiguration early.
func (r *Registry) Register(actionType string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[actionType]; exists {
		panic(fmt.Sprintf("action registry: duplicate type %q", actionType))
	}
	r.factories[actionType] = f
}

// Get returns the factory for the given type.
func (r *Registry) Get(actionType string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[actionType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, actionType)
	}
	return f, nil
}

// Types returns all registered action type strings, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for k := range r.factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
