// Package evict implements the size-weighted LRU eviction cache and the
// policy that drives it: selecting sealed, unreferenced objects to evict
// when an allocation needs room. The cache tracks only sealed objects not
// currently pinned by an active reader -- pinning removes an object from
// the cache for the duration of the access and reinserts it at the back
// on release.
package evict

import (
	"container/list"
	"sync"

	"github.com/ray-project/plasma-core/ids"
)

type entry struct {
	id   ids.ObjectId
	size int64
}

// Cache is a size-weighted LRU index keyed by ids.ObjectId. The front of
// the list is the oldest entry (first to evict); Add appends at the back.
// All methods are safe for concurrent use.
type Cache struct {
	mu sync.RWMutex

	name             string
	originalCapacity int64
	capacity         int64
	usedCapacity     int64

	numEvictionsTotal  int64
	bytesEvictedTotal  int64

	order   *list.List
	index   map[ids.ObjectId]*list.Element
}

// NewCache builds an empty Cache with the given name (used only for
// diagnostics) and capacity in bytes.
func NewCache(name string, capacity int64) *Cache {
	return &Cache{
		name:             name,
		originalCapacity: capacity,
		capacity:         capacity,
		order:            list.New(),
		index:            make(map[ids.ObjectId]*list.Element),
	}
}

// Add inserts id at the back of the cache (most recently used). If id is
// already present it is removed first, so re-adding refreshes its
// position instead of creating a duplicate entry.
func (c *Cache) Add(id ids.ObjectId, size int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(id)
	el := c.order.PushBack(&entry{id: id, size: size})
	c.index[id] = el
	c.usedCapacity += size
}

// Remove evicts id from the cache's bookkeeping (without touching the
// allocator) and returns the size freed, or 0 if id was not present.
func (c *Cache) Remove(id ids.ObjectId) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removeLocked(id)
}

func (c *Cache) removeLocked(id ids.ObjectId) int64 {
	el, ok := c.index[id]
	if !ok {
		return 0
	}
	size := el.Value.(*entry).size
	c.order.Remove(el)
	delete(c.index, id)
	c.usedCapacity -= size
	return size
}

// Exists reports whether id is currently tracked by the cache.
func (c *Cache) Exists(id ids.ObjectId) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.index[id]
	return ok
}

// OriginalCapacity returns the capacity the cache was created with.
func (c *Cache) OriginalCapacity() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.originalCapacity
}

// Capacity returns the current (possibly adjusted) capacity.
func (c *Cache) Capacity() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.capacity
}

// RemainingCapacity returns Capacity() - UsedCapacity().
func (c *Cache) RemainingCapacity() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.capacity - c.usedCapacity
}

// UsedCapacity returns the sum of sizes of all tracked entries.
func (c *Cache) UsedCapacity() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.usedCapacity
}

// AdjustCapacity shifts the current capacity by delta (positive grows it,
// negative shrinks it). The original capacity is unaffected.
func (c *Cache) AdjustCapacity(delta int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.capacity += delta
}

// ChooseObjectsToEvict walks the cache front-to-back (oldest first),
// accumulating ids into a candidate list without removing them, until at
// least numBytesRequired bytes have been accounted for or the cache is
// exhausted. Returns the candidate ids and the total bytes they
// represent.
func (c *Cache) ChooseObjectsToEvict(numBytesRequired int64) ([]ids.ObjectId, int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var candidates []ids.ObjectId
	var bytesToEvict int64
	for el := c.order.Front(); el != nil; el = el.Next() {
		e := el.Value.(*entry)
		candidates = append(candidates, e.id)
		bytesToEvict += e.size
		if bytesToEvict >= numBytesRequired {
			break
		}
	}
	return candidates, bytesToEvict
}

// Keys returns every id currently tracked, oldest first.
func (c *Cache) Keys() []ids.ObjectId {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ids.ObjectId, 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(*entry).id)
	}
	return out
}

// Len returns the number of entries currently tracked.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.order.Len()
}

// NumEvictionsTotal returns the running count of evictions recorded via
// RecordEviction.
func (c *Cache) NumEvictionsTotal() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.numEvictionsTotal
}

// BytesEvictedTotal returns the running total of bytes freed via
// RecordEviction.
func (c *Cache) BytesEvictedTotal() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bytesEvictedTotal
}

// RecordEviction bumps the monotonic eviction counters. Callers invoke
// this once they have actually freed the chosen candidates (Cache itself
// never frees memory -- it only tracks candidacy).
func (c *Cache) RecordEviction(numObjects, bytes int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.numEvictionsTotal += numObjects
	c.bytesEvictedTotal += bytes
}
