package evict

import (
	"github.com/golang/glog"
	"github.com/ray-project/plasma-core/ids"
)

// FootprintSource reports the allocator-side numbers require_space needs:
// the configured limit and what's currently allocated against it.
type FootprintSource interface {
	FootprintLimit() int64
	Allocated() int64
}

// defaultEvictionMinFraction is the portion of footprint_limit that
// RequireSpace evicts at minimum when the caller does not specify one, to
// avoid evicting one object at a time under sustained allocation
// pressure.
const defaultEvictionMinFraction = 5

// Policy is the LRU-backed eviction policy: it tracks sealed,
// unreferenced objects in a Cache and decides what to evict when an
// allocation needs room. It holds no reference to the object store or
// allocator directly -- the lifecycle manager supplies sizes and a
// FootprintSource, and is responsible for actually freeing whatever
// RequireSpace selects.
type Policy struct {
	cache               *Cache
	pinnedMemoryBytes   int64
	evictionMinFraction int64
}

// NewPolicy builds a Policy with a cache capacity equal to footprint,
// evicting at least footprint/minFraction bytes per RequireSpace call.
// minFraction <= 0 defaults to 5 (20%).
func NewPolicy(footprint, minFraction int64) *Policy {
	if minFraction <= 0 {
		minFraction = defaultEvictionMinFraction
	}
	return &Policy{cache: NewCache("eviction_cache", footprint), evictionMinFraction: minFraction}
}

// ObjectCreated registers a newly sealed object as evictable.
func (p *Policy) ObjectCreated(id ids.ObjectId, size int64) {
	p.cache.Add(id, size)
}

// BeginObjectAccess removes id from the evictable set for the duration of
// an active reference, so a pinned object can never be chosen for
// eviction.
func (p *Policy) BeginObjectAccess(id ids.ObjectId) {
	size := p.cache.Remove(id)
	p.pinnedMemoryBytes += size
}

// EndObjectAccess reinserts id into the evictable set once its last
// reference is released.
func (p *Policy) EndObjectAccess(id ids.ObjectId, size int64) {
	p.pinnedMemoryBytes -= size
	p.cache.Add(id, size)
}

// RemoveObject drops id from the policy's bookkeeping entirely (used when
// an object is deleted or aborted, not merely released).
func (p *Policy) RemoveObject(id ids.ObjectId) {
	p.cache.Remove(id)
}

// IsObjectExists reports whether id is currently evictable.
func (p *Policy) IsObjectExists(id ids.ObjectId) bool {
	return p.cache.Exists(id)
}

// ChooseObjectsToEvict delegates to the underlying cache.
func (p *Policy) ChooseObjectsToEvict(numBytesRequired int64) ([]ids.ObjectId, int64) {
	return p.cache.ChooseObjectsToEvict(numBytesRequired)
}

// RequireSpace computes how many bytes must be freed to fit a new
// allocation of size bytes against src's current footprint, selects LRU
// candidates to cover at least that much (floored at evictionMinFraction
// of the footprint limit to avoid thrashing), removes the chosen
// candidates from the cache, and returns them along with how many bytes
// are still short after evicting them (<= 0 means enough was freed).
//
// RequireSpace does not free anything itself -- the caller (the
// lifecycle manager) owns the allocator and is responsible for actually
// deleting the returned candidates before retrying its allocation.
func (p *Policy) RequireSpace(size int64, src FootprintSource) (candidates []ids.ObjectId, stillNeeded int64) {
	allocated := src.Allocated()
	footprintLimit := src.FootprintLimit()

	bytesOverLimit := allocated + size - footprintLimit
	if bytesOverLimit <= 0 {
		return nil, bytesOverLimit
	}

	minEviction := footprintLimit / p.evictionMinFraction
	bytesToFree := bytesOverLimit
	if minEviction > bytesToFree {
		bytesToFree = minEviction
	}

	candidates, bytesEvicted := p.cache.ChooseObjectsToEvict(bytesToFree)
	for _, id := range candidates {
		p.cache.Remove(id)
	}

	glog.V(4).Infof("evict: require_space size=%d over_limit=%d chose=%d bytes=%d",
		size, bytesOverLimit, len(candidates), bytesEvicted)

	return candidates, bytesOverLimit - bytesEvicted
}
