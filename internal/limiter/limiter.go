package limiter

import (
	"sync"
)

// KeyLimiter allows one active operation per key, with an optional global cap
type KeyLimiter[K comparable] struct {
	mu        sync.Mutex
	active    map[K]struct{}
	maxGlobal int
}

// New creates a limiter. maxGlobal of 0 means no global cap.
func New[K comparable](maxGlobal int) *KeyLimiter[K] {
	return &KeyLimiter[K]{
		active:    make(map[K]struct{}),
		maxGlobal: maxGlobal,
	}
}

// TryAcquire claims the slot for key. It returns false if key already holds
// one or the global cap is reached.
func (l *KeyLimiter[K]) TryAcquire(key K) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.active[key]; exists {
		return false
	}
	if l.maxGlobal > 0 && len(l.active) >= l.maxGlobal {
		return false
	}

	l.active[key] = struct{}{}
	return true
}

// Release frees the slot held by key
func (l *KeyLimiter[K]) Release(key K) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.active, key)
}

// ActiveCount returns the number of held slots
func (l *KeyLimiter[K]) ActiveCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.active)
}

// IsActive reports whether key holds a slot
func (l *KeyLimiter[K]) IsActive(key K) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, exists := l.active[key]
	return exists
}
