// Package store holds the client-side caches that activity events are
// dispatched into. Every collection is readable by anyone holding it, but
// writable only through the Writer returned alongside it.
package store

import (
	"sort"
	"sync"
)

// ChangeKind describes how a collection changed.
type ChangeKind string

const (
	ChangeReplaced ChangeKind = "replaced"
	ChangeUpserted ChangeKind = "upserted"
	ChangePatched  ChangeKind = "patched"
	ChangeRemoved  ChangeKind = "removed"
)

// Change is delivered to OnChange listeners after every mutation. ID is
// empty for ChangeReplaced.
type Change struct {
	Kind    ChangeKind
	ID      string
	Version uint64
}

// Collection is a concurrency-safe keyed cache.
type Collection[T any] struct {
	mu      sync.RWMutex
	key     func(T) string
	items   map[string]T
	order   []string
	version uint64

	lmu       sync.Mutex
	listeners map[int]func(Change)
	nextID    int
}

// Writer is the only handle that can mutate its collection.
type Writer[T any] struct {
	c *Collection[T]
}

// New creates an empty collection keyed by key, and its writer.
func New[T any](key func(T) string) (*Collection[T], *Writer[T]) {
	c := &Collection[T]{
		key:       key,
		items:     make(map[string]T),
		listeners: make(map[int]func(Change)),
	}
	return c, &Writer[T]{c: c}
}

// Get returns the item stored under id.
func (c *Collection[T]) Get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.items[id]
	return item, ok
}

// List returns all items in insertion order. Replace resets the order to
// that of the replacing slice.
func (c *Collection[T]) List() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.items[id])
	}
	return out
}

// Len returns the number of items.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Version increases by one on every mutation.
func (c *Collection[T]) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// OnChange registers fn to be called after each mutation, outside the
// collection lock. The returned func removes the listener.
func (c *Collection[T]) OnChange(fn func(Change)) (cancel func()) {
	c.lmu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.lmu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.lmu.Lock()
			delete(c.listeners, id)
			c.lmu.Unlock()
		})
	}
}

func (c *Collection[T]) notify(ch Change) {
	c.lmu.Lock()
	ids := make([]int, 0, len(c.listeners))
	for id := range c.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Change), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, c.listeners[id])
	}
	c.lmu.Unlock()

	for _, fn := range fns {
		fn(ch)
	}
}

// Collection returns the collection this writer mutates.
func (w *Writer[T]) Collection() *Collection[T] {
	return w.c
}

// Replace swaps the whole contents. Later duplicates of a key win.
func (w *Writer[T]) Replace(items []T) {
	c := w.c
	c.mu.Lock()
	c.items = make(map[string]T, len(items))
	c.order = c.order[:0]
	for _, item := range items {
		id := c.key(item)
		if _, seen := c.items[id]; !seen {
			c.order = append(c.order, id)
		}
		c.items[id] = item
	}
	c.version++
	ch := Change{Kind: ChangeReplaced, Version: c.version}
	c.mu.Unlock()

	c.notify(ch)
}

// Upsert inserts or overwrites item.
func (w *Writer[T]) Upsert(item T) {
	c := w.c
	id := c.key(item)
	c.mu.Lock()
	if _, ok := c.items[id]; !ok {
		c.order = append(c.order, id)
	}
	c.items[id] = item
	c.version++
	ch := Change{Kind: ChangeUpserted, ID: id, Version: c.version}
	c.mu.Unlock()

	c.notify(ch)
}

// Patch applies fn to the item stored under id. It reports false, and
// changes nothing, when id is absent, fn returns false, or fn changed the
// item's key.
func (w *Writer[T]) Patch(id string, fn func(*T) bool) bool {
	c := w.c
	c.mu.Lock()
	item, ok := c.items[id]
	if !ok || !fn(&item) || c.key(item) != id {
		c.mu.Unlock()
		return false
	}
	c.items[id] = item
	c.version++
	ch := Change{Kind: ChangePatched, ID: id, Version: c.version}
	c.mu.Unlock()

	c.notify(ch)
	return true
}

// Remove deletes the item stored under id and reports whether it existed.
func (w *Writer[T]) Remove(id string) bool {
	c := w.c
	c.mu.Lock()
	if _, ok := c.items[id]; !ok {
		c.mu.Unlock()
		return false
	}
	delete(c.items, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.version++
	ch := Change{Kind: ChangeRemoved, ID: id, Version: c.version}
	c.mu.Unlock()

	c.notify(ch)
	return true
}
