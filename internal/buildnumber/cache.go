package buildnumber

import "sync"

// Entry is the cached result of one successful extraction.
type Entry struct {
	Record      Record
	Buildnumber string
}

// Cache is a single-slot store that moves from empty to populated at most
// once. There is no eviction and no update after population.
//
// The zero value is an empty, ready-to-use Cache. A Cache must not be copied
// after first use.
type Cache struct {
	mu    sync.Mutex
	entry *Entry
}

// TryGet returns the cached entry, if any.
func (c *Cache) TryGet() (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entry == nil {
		return Entry{}, false
	}
	return *c.entry, true
}

// PopulateOnce returns the cached entry, calling fill to produce it when the
// cache is empty. The lock is held for the duration of fill, so concurrent
// callers on an empty cache run fill exactly once between them; the others
// block and then observe the populated entry.
//
// The boolean result reports whether this call populated the cache. If fill
// returns an error or panics, the cache stays empty and a later call retries.
func (c *Cache) PopulateOnce(fill func() (Entry, error)) (Entry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entry != nil {
		return *c.entry, false, nil
	}

	e, err := fill()
	if err != nil {
		return Entry{}, false, err
	}

	c.entry = &e
	return e, true, nil
}
