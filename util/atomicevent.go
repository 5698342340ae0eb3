package util

import (
	"sync"
)

// AtomicEvent holds the single most recent value of type T and offers a
// capacity-1 notification channel. Senders never block; a consumer that
// falls behind only ever sees the latest value.
type AtomicEvent[T any] struct {
	mu     sync.Mutex
	value  T
	notify chan struct{}
}

// NewAtomicEvent creates an empty event holder.
func NewAtomicEvent[T any]() *AtomicEvent[T] {
	return &AtomicEvent[T]{
		notify: make(chan struct{}, 1),
	}
}

// Send replaces the held value and makes sure a notification is pending.
// It never blocks.
func (ae *AtomicEvent[T]) Send(value T) {
	ae.mu.Lock()
	ae.value = value
	ae.mu.Unlock()

	select {
	case ae.notify <- struct{}{}:
	default:
		// A notification is already pending.
	}
}

// Channel returns the notification channel for use in select statements.
func (ae *AtomicEvent[T]) Channel() <-chan struct{} {
	return ae.notify
}

// Value returns the most recently sent value.
func (ae *AtomicEvent[T]) Value() T {
	ae.mu.Lock()
	defer ae.mu.Unlock()
	return ae.value
}
