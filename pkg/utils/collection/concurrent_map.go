package collection

import (
	"fmt"
	"sync"
)

var ErrKeyNotFound = fmt.Errorf("key not found")

type ConcurrentMap[K comparable, V any] struct {
	kv map[K]V
	mu *sync.RWMutex
}

func NewConcurrentMap[K comparable, V any]() *ConcurrentMap[K, V] {
	return &ConcurrentMap[K, V]{
		kv: make(map[K]V),
		mu: &sync.RWMutex{},
	}
}

func (t *ConcurrentMap[K, V]) Get(key K) (V, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.kv[key]
	if !ok {
		var null V
		return null, ErrKeyNotFound
	}
	return v, nil
}

// SetIfAbsent stores value only if key is not present and reports whether it did.
func (t *ConcurrentMap[K, V]) SetIfAbsent(key K, value V) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.kv[key]; ok {
		return false
	}
	t.kv[key] = value
	return true
}

// Delete removes key and returns the value it held.
// Exactly one of several concurrent callers for the same key gets a nil error.
func (t *ConcurrentMap[K, V]) Delete(key K) (V, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.kv[key]
	if !ok {
		var null V
		return null, ErrKeyNotFound
	}
	delete(t.kv, key)
	return v, nil
}

// Values returns a snapshot of the stored values in no particular order.
func (t *ConcurrentMap[K, V]) Values() []V {
	t.mu.RLock()
	defer t.mu.RUnlock()
	values := make([]V, 0, len(t.kv))
	for _, v := range t.kv {
		values = append(values, v)
	}
	return values
}

func (t *ConcurrentMap[K, V]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.kv)
}
