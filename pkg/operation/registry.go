package operation

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrDuplicateOperation is returned when a name is registered twice.
var ErrDuplicateOperation = errors.New("operation already registered")

// Registry maps wire-protocol operation names to factories. It is populated
// once at startup and read on every request.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register stores factory under name. Registering a name twice is a
// configuration error and is rejected rather than overwriting.
func (r *Registry) Register(name string, factory Factory) error {
	if name == "" {
		return fmt.Errorf("operation name is required")
	}
	if factory == nil {
		return fmt.Errorf("operation %q: factory is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateOperation, name)
	}
	r.factories[name] = factory
	return nil
}

// MustRegister is Register for startup wiring; it panics on error.
func (r *Registry) MustRegister(name string, factory Factory) {
	if err := r.Register(name, factory); err != nil {
		panic(err)
	}
}

// Resolve returns a new instance of the named operation.
func (r *Registry) Resolve(name string) (Operation, bool) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		return nil, false
	}
	op := factory()
	if op == nil {
		return nil, false
	}
	return op, true
}

// IsRegistered reports whether name has a factory.
func (r *Registry) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// Names returns the registered operation names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	r.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Len returns the number of registered operations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.factories)
}
