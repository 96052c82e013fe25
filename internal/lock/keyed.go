package lock

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// KeyedMutex serializes callers that share a key while letting different keys
// proceed in parallel. Entries are dropped once no caller holds or waits on them.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{entries: map[string]*entry{}}
}

// Lock blocks until key is free and returns the matching unlock func.
func (k *KeyedMutex) Lock(key string) func() {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.entries, key)
		}
		k.mu.Unlock()
	}
}

func (k *KeyedMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}
