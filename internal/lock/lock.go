// Package lock serializes work on a single user or submission row.
package lock

import (
	"context"
	"fmt"
	"sync"
)

// Locker acquires an exclusive lock on key until the returned unlock func is called.
// Unlock funcs are safe to call more than once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

func UserKey(id int64) string {
	return fmt.Sprintf("user:%d", id)
}

func SubmissionKey(id int64) string {
	return fmt.Sprintf("submission:%d", id)
}

func HandleKey(handle string) string {
	return "handle:" + handle
}

// Keyed is an in-process Locker. Entries are dropped once no caller holds or
// waits on them, so the map stays proportional to active keys.
type Keyed struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	ch   chan struct{}
	refs int
}

func NewKeyed() *Keyed {
	return &Keyed{locks: make(map[string]*keyedEntry)}
}

func (k *Keyed) Lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &keyedEntry{ch: make(chan struct{}, 1)}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		k.release(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			k.release(key, e)
		})
	}, nil
}

func (k *Keyed) release(key string, e *keyedEntry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
}

// active reports how many keys are currently tracked.
func (k *Keyed) active() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
