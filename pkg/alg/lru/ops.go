package lru

// Get returns the cached value for key and refreshes its recency on a hit.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)

		var zero V

		return zero, false
	}

	c.hits.Add(1)
	c.moveToFront(ent)

	return ent.value, true
}

// Set inserts or replaces the value for key and marks it most recently used.
// A value larger than the byte limit is silently skipped.
func (c *Cache[K, V]) Set(key K, value V) {
	valSize := c.valueSize(value)

	if c.maxSize > 0 && valSize > c.maxSize {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.entries[key]; ok {
		c.curSize += valSize - ent.size
		ent.value = value
		ent.size = valSize
		c.moveToFront(ent)
		c.evictOverSize(ent)

		return
	}

	c.evictUntilFits(valSize)

	ent := &entry[K, V]{
		key:   key,
		value: value,
		size:  valSize,
	}

	c.entries[key] = ent
	c.curSize += valSize
	c.addToFront(ent)
}

// Keys returns the cached keys ordered from most to least recently used.
func (c *Cache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]K, 0, len(c.entries))
	for ent := c.head; ent != nil; ent = ent.next {
		keys = append(keys, ent.key)
	}

	return keys
}

// Clear drops every entry. Counters are kept.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]*entry[K, V])
	c.head = nil
	c.tail = nil
	c.curSize = 0
}

func (c *Cache[K, V]) valueSize(value V) int64 {
	if c.sizeFunc != nil {
		return c.sizeFunc(value)
	}

	return 1
}

// evictUntilFits makes room for one more entry of valSize.
func (c *Cache[K, V]) evictUntilFits(valSize int64) {
	for c.maxEntries > 0 && len(c.entries) >= c.maxEntries && c.tail != nil {
		c.evictTail()
	}

	for c.maxSize > 0 && c.curSize+valSize > c.maxSize && c.tail != nil {
		c.evictTail()
	}
}

// evictOverSize trims the tail after an in-place update grew an entry,
// never evicting keep itself.
func (c *Cache[K, V]) evictOverSize(keep *entry[K, V]) {
	for c.maxSize > 0 && c.curSize > c.maxSize && c.tail != nil && c.tail != keep {
		c.evictTail()
	}
}

func (c *Cache[K, V]) evictTail() {
	c.unlink(c.tail)
	c.evictions.Add(1)
}

func (c *Cache[K, V]) unlink(ent *entry[K, V]) {
	c.removeFromList(ent)
	delete(c.entries, ent.key)
	c.curSize -= ent.size
}

func (c *Cache[K, V]) moveToFront(ent *entry[K, V]) {
	if ent == c.head {
		return
	}

	c.removeFromList(ent)
	c.addToFront(ent)
}

func (c *Cache[K, V]) addToFront(ent *entry[K, V]) {
	ent.prev = nil
	ent.next = c.head

	if c.head != nil {
		c.head.prev = ent
	}

	c.head = ent

	if c.tail == nil {
		c.tail = ent
	}
}

func (c *Cache[K, V]) removeFromList(ent *entry[K, V]) {
	if ent.prev != nil {
		ent.prev.next = ent.next
	} else {
		c.head = ent.next
	}

	if ent.next != nil {
		ent.next.prev = ent.prev
	} else {
		c.tail = ent.prev
	}

	ent.prev = nil
	ent.next = nil
}
