// Package registry provides generic thread-safe keyed storage for the booking
// core. Each registry instance is guarded by a single lock; multi-registry
// transactions take the locks explicitly in a fixed global order and use the
// *Locked accessors.
package registry

import (
	"errors"
	"sync"
)

// ErrNotFound is returned when the key is absent.
var ErrNotFound = errors.New("registry: key not found")

// ErrDuplicateKey is returned by Put when the key is already present.
var ErrDuplicateKey = errors.New("registry: key already exists")

// Registry is a thread-safe mapping from identifier to record.
type Registry[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]V
}

// New creates an empty Registry.
func New[K comparable, V any]() *Registry[K, V] {
	return &Registry[K, V]{items: make(map[K]V)}
}

// Get retrieves the value for the key.
func (r *Registry[K, V]) Get(k K) (V, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.items[k]
	return v, ok
}

// Put stores the value under the key. Returns ErrDuplicateKey if the key is
// already present.
func (r *Registry[K, V]) Put(k K, v V) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[k]; exists {
		return ErrDuplicateKey
	}
	r.items[k] = v
	return nil
}

// Remove deletes the key. Returns ErrNotFound if absent.
func (r *Registry[K, V]) Remove(k K) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[k]; !exists {
		return ErrNotFound
	}
	delete(r.items, k)
	return nil
}

// Len returns the number of stored entries.
func (r *Registry[K, V]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Keys returns all keys in unspecified order.
func (r *Registry[K, V]) Keys() []K {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]K, 0, len(r.items))
	for k := range r.items {
		keys = append(keys, k)
	}
	return keys
}

// Update invokes fn on the stored value while holding the registry lock.
// Returns ErrNotFound if the key is absent.
func (r *Registry[K, V]) Update(k K, fn func(V)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.items[k]
	if !ok {
		return ErrNotFound
	}
	fn(v)
	return nil
}

// View invokes fn on the stored value while holding the read lock. Returns
// ErrNotFound if the key is absent.
func (r *Registry[K, V]) View(k K, fn func(V)) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.items[k]
	if !ok {
		return ErrNotFound
	}
	fn(v)
	return nil
}

// Lock acquires the registry's exclusive lock. Callers composing a critical
// section across several registries must acquire the locks in the fixed
// global order: conferences → users → bookings.
func (r *Registry[K, V]) Lock() { r.mu.Lock() }

// Unlock releases the registry's exclusive lock.
func (r *Registry[K, V]) Unlock() { r.mu.Unlock() }

// GetLocked retrieves the value for the key. The caller must hold the lock.
func (r *Registry[K, V]) GetLocked(k K) (V, bool) {
	v, ok := r.items[k]
	return v, ok
}

// PutLocked stores the value under the key, replacing any existing entry.
// The caller must hold the lock.
func (r *Registry[K, V]) PutLocked(k K, v V) {
	r.items[k] = v
}

// RemoveLocked deletes the key. The caller must hold the lock.
func (r *Registry[K, V]) RemoveLocked(k K) {
	delete(r.items, k)
}

// LenLocked returns the number of stored entries. The caller must hold the
// lock.
func (r *Registry[K, V]) LenLocked() int {
	return len(r.items)
}
