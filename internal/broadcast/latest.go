// Package broadcast fans the newest value of a stream out to many readers.
package broadcast

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by a subscription once its source is closed and the
// final value has been consumed.
var ErrClosed = errors.New("broadcast closed")

// Latest holds a single versioned slot. Publishing overwrites the slot, so a
// reader that falls behind skips straight to the newest value; nothing is
// queued and Publish never waits for readers.
type Latest[T any] struct {
	mu      sync.Mutex
	value   T
	version uint64
	changed chan struct{}
	closed  bool
}

// New returns a Latest already holding initial, so the first subscriber
// receives it immediately.
func New[T any](initial T) *Latest[T] {
	return &Latest[T]{
		value:   initial,
		version: 1,
		changed: make(chan struct{}),
	}
}

// Publish replaces the current value and wakes every waiting subscriber.
// Publishing after Close is a no-op.
func (l *Latest[T]) Publish(v T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.value = v
	l.version++
	close(l.changed)
	l.changed = make(chan struct{})
}

// Load returns the current value and its version.
func (l *Latest[T]) Load() (T, uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.value, l.version
}

// Close stops the stream. Subscribers still receive the final value if they
// have not seen it, then ErrClosed.
func (l *Latest[T]) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	close(l.changed)
}

// Subscribe returns a reader positioned before the current value.
func (l *Latest[T]) Subscribe() *Subscription[T] {
	return &Subscription[T]{src: l}
}

// Subscription tracks the last version one reader has seen. It is not safe
// for concurrent use by multiple goroutines.
type Subscription[T any] struct {
	src  *Latest[T]
	seen uint64
}

var closedCh = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Ready returns a channel that is closed once a value newer than the last
// one taken is available, or the source is closed. Call TryNext after it
// fires.
func (s *Subscription[T]) Ready() <-chan struct{} {
	s.src.mu.Lock()
	defer s.src.mu.Unlock()
	if s.src.version > s.seen || s.src.closed {
		return closedCh
	}
	return s.src.changed
}

// TryNext takes the current value if it has not been seen yet. ok is false
// when there is nothing new; err is ErrClosed once the source is closed and
// drained.
func (s *Subscription[T]) TryNext() (v T, ok bool, err error) {
	s.src.mu.Lock()
	defer s.src.mu.Unlock()
	if s.src.version > s.seen {
		s.seen = s.src.version
		return s.src.value, true, nil
	}
	if s.src.closed {
		return v, false, ErrClosed
	}
	return v, false, nil
}

// Next blocks until a value newer than the last one taken is available.
func (s *Subscription[T]) Next(ctx context.Context) (T, error) {
	for {
		v, ok, err := s.TryNext()
		if ok || err != nil {
			return v, err
		}
		select {
		case <-s.Ready():
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}
