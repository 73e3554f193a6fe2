// Package keymutex provides mutual exclusion scoped to string keys, used to
// serialize mutations per room and per operation without a global lock.
package keymutex

import (
	"context"
	"sync"
)

// KeyMutex is a set of mutexes addressed by key. Entries are created on
// demand and removed once no goroutine holds or waits for them, so the map
// does not grow with the keyspace.
type KeyMutex struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	ch   chan struct{} // buffered(1); holding the token = holding the lock
	refs int
}

// New creates an empty KeyMutex.
func New() *KeyMutex {
	return &KeyMutex{entries: make(map[string]*entry)}
}

// Acquire blocks until the lock for key is held or ctx is done. On a ctx
// error the lock is not held and no cleanup is required.
func (k *KeyMutex) Acquire(ctx context.Context, key string) error {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		k.release(key, e)
		return ctx.Err()
	}
}

// Release unlocks key. It must only be called after a successful Acquire.
func (k *KeyMutex) Release(key string) {
	k.mu.Lock()
	e := k.entries[key]
	k.mu.Unlock()

	<-e.ch
	k.release(key, e)
}

func (k *KeyMutex) release(key string, e *entry) {
	k.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
	k.mu.Unlock()
}
