// Package runtime carries the concurrency plumbing of the core: keyed
// locks for per-resource serialization, the per-user sink registry and
// the supervised event pipeline. No business rules live here.
package runtime

import "sync"

// KeyedMutex serializes work per resource key (a call id, a chat id, a
// direct-pair key). Operations on distinct keys proceed independently;
// two operations on the same key are linearized. Entries are dropped
// once the last holder releases them, so the map does not grow with
// every key ever locked.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyLock)}
}

// Lock acquires the mutex for key and returns the unlock function.
func (km *KeyedMutex) Lock(key string) func() {
	km.mu.Lock()
	kl, ok := km.locks[key]
	if !ok {
		kl = &keyLock{}
		km.locks[key] = kl
	}
	kl.refs++
	km.mu.Unlock()

	kl.mu.Lock()
	return func() {
		kl.mu.Unlock()
		km.mu.Lock()
		kl.refs--
		if kl.refs == 0 {
			delete(km.locks, key)
		}
		km.mu.Unlock()
	}
}
