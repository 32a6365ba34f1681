// Package bus provides the context bus: a process-wide keyed store with
// subscription by key-set. It is independent of parent-child input passing;
// a change to a key notifies only the subscribers that declared interest in
// that key.
//
// Notification hands off to each subscriber's callback; the component
// runtime routes these through the update scheduler by invalidating the
// subscribing component's root fragment, so a context change never causes
// an arbitrary global re-render.
package bus

import "sync"

// Bus is a keyed publish/subscribe store with application lifetime.
type Bus struct {
	mu      sync.RWMutex
	entries map[string]any
	subs    map[string]map[uint64]func(key string, value any)
	nextID  uint64
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{
		entries: make(map[string]any),
		subs:    make(map[string]map[uint64]func(key string, value any)),
	}
}

// Set updates the entry and notifies subscribers that declared the key.
// Callbacks run outside the bus lock (copy-before-notify).
func (b *Bus) Set(key string, value any) {
	b.mu.Lock()
	b.entries[key] = value
	fns := make([]func(string, any), 0, len(b.subs[key]))
	for _, fn := range b.subs[key] {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(key, value)
	}
}

// Get returns the entry for key, or nil.
func (b *Bus) Get(key string) any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.entries[key]
}

// Subscribe registers interest in the given keys. The returned ID cancels
// the whole subscription via Unsubscribe.
func (b *Bus) Subscribe(keys []string, fn func(key string, value any)) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	for _, key := range keys {
		set, ok := b.subs[key]
		if !ok {
			set = make(map[uint64]func(string, any))
			b.subs[key] = set
		}
		set[id] = fn
	}
	return id
}

// Unsubscribe removes the subscription from every key it declared.
func (b *Bus) Unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for key, set := range b.subs {
		delete(set, id)
		if len(set) == 0 {
			delete(b.subs, key)
		}
	}
}
