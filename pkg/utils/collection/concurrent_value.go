package collection

import (
	"sync"
)

// ConcurrentValue guards a single value shared between goroutines.
type ConcurrentValue[T any] struct {
	value T
	mu    *sync.RWMutex
}

func NewConcurrentValue[T any](value T) *ConcurrentValue[T] {
	return &ConcurrentValue[T]{
		value: value,
		mu:    &sync.RWMutex{},
	}
}

func (t *ConcurrentValue[T]) Get() T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.value
}

// Swap stores value and returns the previous one.
func (t *ConcurrentValue[T]) Swap(value T) T {
	t.mu.Lock()
	defer t.mu.Unlock()
	old := t.value
	t.value = value
	return old
}
