package action

import (
	"sort"
	"sync"
)

// Registry maps recipe step type names to action factories.
// It is safe for concurrent reads; Register should only be called at startup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under name. Registering the same name twice is
// refused so accidental shadowing surfaces at startup.
func (r *Registry) Register(name string, f Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return Errorf(KindDuplicateType, "action type %q already registered", name)
	}
	r.factories[name] = f
	return nil
}

// MustRegister is Register for startup wiring, where a duplicate is a
// programming error.
func (r *Registry) MustRegister(name string, f Factory) {
	if err := r.Register(name, f); err != nil {
		panic(err)
	}
}

// Resolve builds and configures an action instance for one recipe step.
func (r *Registry) Resolve(name string, params map[string]any) (Action, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, Errorf(KindUnknownActionType, "no action registered for type %q", name)
	}
	a := f()
	if err := a.Configure(params); err != nil {
		return nil, err
	}
	return a, nil
}

// Types returns all registered type names, sorted.
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
