package registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/atomic"
)

// ErrNotFound is returned when no object is registered under an
// identifier, either because it never was or because its reference
// count dropped to zero.
var ErrNotFound = errors.New("object not found in registry")

// ErrIDConflict is returned when an identifier is reused for a
// different object.
var ErrIDConflict = errors.New("object id registered to a different object")

type entry struct {
	obj  any
	refs atomic.Int64
}

// Registry is a worker's table of live objects. The zero value is not
// usable; create with New.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Register stores obj under a fresh identifier with a reference count of
// one and returns the identifier.
func (r *Registry) Register(obj any) string {
	id := uuid.NewString()
	// A UUID collision is not a practical concern; RegisterID handles
	// the error path for caller-supplied identifiers.
	_ = r.RegisterID(id, obj)
	return id
}

// RegisterID stores obj under a caller-supplied identifier. Reusing an
// identifier for the same object is idempotent and leaves the reference
// count untouched; reusing it for a different object is an error.
func (r *Registry) RegisterID(id string, obj any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.entries[id]; ok {
		if existing.obj != obj {
			return fmt.Errorf("%w: %s", ErrIDConflict, id)
		}
		return nil
	}

	e := &entry{obj: obj}
	e.refs.Store(1)
	r.entries[id] = e
	return nil
}

// Resolve returns the live object registered under id.
func (r *Registry) Resolve(id string) (any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e.obj, nil
}

// Retain increments the reference count of id, accounting for an
// additional pointer referencing the object.
func (r *Registry) Retain(id string) error {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	e.refs.Inc()
	return nil
}

// Release decrements the reference count of id and removes the entry
// when the count reaches zero. Releasing an unknown identifier is an
// error; releasing a live one never double-removes even under
// concurrent calls.
func (r *Registry) Release(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if e.refs.Dec() <= 0 {
		delete(r.entries, id)
	}
	return nil
}

// Remove deletes an entry regardless of its reference count. This is the
// forced-deletion path for callers that own the object outright.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

// Refs returns the current reference count of id, or zero when absent.
func (r *Registry) Refs(id string) int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.entries[id]; ok {
		return e.refs.Load()
	}
	return 0
}

// Len returns the number of registered objects.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
