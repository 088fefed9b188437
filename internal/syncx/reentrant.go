// Package syncx holds synchronization primitives the standard library lacks.
package syncx

import (
	"context"
	"sync"
	"sync/atomic"
)

// ReentrantMutex is a mutual exclusion lock whose holder is identified by a
// token carried in a context.Context rather than by goroutine. A call chain
// that acquired the lock may lock it again through the context Lock returned
// (or any context derived from it) without blocking; every other caller waits
// until the outermost holder unlocks.
//
// Waiting honours context cancellation. Waiters are not served in any
// particular order.
type ReentrantMutex struct {
	sem   chan struct{}
	owner atomic.Pointer[holder]
}

// holder is the identity of one acquisition. It must not be zero-sized so
// that distinct acquisitions never compare equal.
type holder struct {
	_ byte
}

type holderKey struct {
	m *ReentrantMutex
}

// NewReentrantMutex returns an unlocked mutex.
func NewReentrantMutex() *ReentrantMutex {
	return &ReentrantMutex{sem: make(chan struct{}, 1)}
}

// Lock acquires the mutex on behalf of the call chain that owns ctx. It
// returns the context to pass down the chain and the function that releases
// this acquisition. A nested Lock by the current holder returns ctx unchanged
// and a release function that does nothing.
func (m *ReentrantMutex) Lock(ctx context.Context) (context.Context, func(), error) {
	if m.Held(ctx) {
		return ctx, func() {}, nil
	}
	if err := ctx.Err(); err != nil {
		return ctx, func() {}, err
	}

	select {
	case m.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx, func() {}, ctx.Err()
	}

	h := &holder{}
	m.owner.Store(h)

	var once sync.Once
	unlock := func() {
		once.Do(func() {
			m.owner.CompareAndSwap(h, nil)
			<-m.sem
		})
	}
	return context.WithValue(ctx, holderKey{m}, h), unlock, nil
}

// Held reports whether ctx belongs to the call chain currently holding m.
// A context whose acquisition has already been released no longer holds it.
func (m *ReentrantMutex) Held(ctx context.Context) bool {
	h, ok := ctx.Value(holderKey{m}).(*holder)
	return ok && h != nil && m.owner.Load() == h
}

// Do runs fn while holding m, passing the holder context to fn.
func (m *ReentrantMutex) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, unlock, err := m.Lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	return fn(ctx)
}
