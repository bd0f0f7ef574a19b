// Package registry implements a fixed-capacity set of "live" keys, used by
// the load generator to remember which keys it has successfully written so
// that later get/delete jobs can target keys known to exist on the server.
//
// The set is backed by a plain slice rather than a map so that removing a
// random element is O(1): the victim is swapped with the last element and
// the slice is truncated, exactly the array-plus-swap trick used by C
// implementations of the same structure. Order is not preserved.
package registry

import (
	"math/rand"
	"sync"
)

// Registry is a thread-safe, capacity-bounded set of keys with O(1)
// insert, O(1) random pick, and O(1) random removal.
type Registry struct {
	mu       sync.Mutex
	keys     []string
	capacity int
}

// New creates a registry that holds at most capacity keys.
func New(capacity int) *Registry {
	if capacity < 0 {
		capacity = 0
	}
	return &Registry{
		keys:     make([]string, 0, capacity),
		capacity: capacity,
	}
}

// TryAdd appends key if the registry has room. It reports whether the key
// was added. A full registry is not an error condition: callers are
// expected to treat a false return as "proceed without tracking this key."
func (r *Registry) TryAdd(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.keys) >= r.capacity {
		return false
	}
	r.keys = append(r.keys, key)
	return true
}

// PickRandom returns a uniformly random key from the registry without
// removing it. The second return value is false when the registry is
// empty.
func (r *Registry) PickRandom() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.keys) == 0 {
		return "", false
	}
	idx := rand.Intn(len(r.keys))
	return r.keys[idx], true
}

// RemoveRandom removes and returns a uniformly random key from the
// registry. The second return value is false when the registry is empty,
// in which case no mutation occurs.
func (r *Registry) RemoveRandom() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.keys)
	if n == 0 {
		return "", false
	}
	idx := rand.Intn(n)
	victim := r.keys[idx]
	last := n - 1
	r.keys[idx] = r.keys[last]
	r.keys = r.keys[:last]
	return victim, true
}

// Count returns the current number of keys held by the registry.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.keys)
}

// Capacity returns the maximum number of keys the registry can hold.
func (r *Registry) Capacity() int {
	return r.capacity
}
