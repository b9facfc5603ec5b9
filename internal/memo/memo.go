// Package memo provides single-slot memoization for derived views. The UI
// re-renders often with unchanged inputs but only one filter combination is
// live at a time, so one slot keyed by structural equality is enough.
package memo

import "sync"

// Slot caches the result of the most recent computation. A call with the
// same key returns the cached value; a different key recomputes and replaces
// the slot. The zero value is ready to use.
type Slot[K comparable, V any] struct {
	mu  sync.Mutex
	key K
	val V
	ok  bool
}

// Get returns the cached value for key, running compute on a miss.
func (s *Slot[K, V]) Get(key K, compute func() V) V {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ok && s.key == key {
		return s.val
	}
	s.val = compute()
	s.key = key
	s.ok = true
	return s.val
}

// Last exposes the cached key for inspection, independent of call sites.
func (s *Slot[K, V]) Last() (K, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key, s.ok
}

// Reset empties the slot.
func (s *Slot[K, V]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zeroK K
	var zeroV V
	s.key, s.val, s.ok = zeroK, zeroV, false
}
