// Package lifecycle orchestrates object creation, sealing, deletion, and
// reference counting across the allocator, object store, eviction
// policy, and stats collector. It drives objstore.Store only through its
// InsertPrebuilt, GetObjectEntry and TakeObject primitives and runs its
// own create and delete sequences; Store's own CreateObject/DeleteObject
// are not used here.
package lifecycle

import (
	"sync"

	"github.com/golang/glog"
	"github.com/ray-project/plasma-core/alloc"
	"github.com/ray-project/plasma-core/evict"
	"github.com/ray-project/plasma-core/ids"
	"github.com/ray-project/plasma-core/objstats"
	"github.com/ray-project/plasma-core/objstore"
	"github.com/ray-project/plasma-core/plasmaerr"
)

// allocatorFootprint adapts an alloc.Allocator to evict.FootprintSource.
type allocatorFootprint struct {
	allocator alloc.Allocator
}

func (a allocatorFootprint) FootprintLimit() int64 { return int64(a.allocator.Capacity()) }
func (a allocatorFootprint) Allocated() int64 {
	return int64(a.allocator.Capacity() - a.allocator.Available())
}

// Manager is the object lifecycle orchestrator: CreateObject (with
// eviction retry), SealObject, AbortObject, DeleteObject, AddReference/
// RemoveReference (eager-delete-wins semantics), and EvictObjects.
type Manager struct {
	store     *objstore.Store
	allocator alloc.Allocator
	policy    *evict.Policy
	stats     *objstats.Collector
	config    Config

	mu                   sync.Mutex
	eagerDeletionObjects map[ids.ObjectId]struct{}
	onDeleteCallback     func(ids.ObjectId)
}

// NewManager builds a Manager from cfg. The allocator and eviction policy
// are constructed internally from cfg.Capacity / cfg.EvictionMinFraction
// so callers don't have to wire the allocator <-> policy <-> store
// plumbing themselves.
func NewManager(cfg Config) *Manager {
	cfg = cfg.withDefaults()
	primary := alloc.NewHeapAllocator(cfg.Capacity)

	var allocator alloc.Allocator = primary
	if cfg.EnableFallback {
		fallback := alloc.NewFileFallbackAllocator(cfg.FallbackDirectory)
		allocator = alloc.NewTieredAllocator(primary, fallback, cfg.MinFallbackSize)
		glog.V(2).Infof("lifecycle: fallback tier enabled directory=%q min_size=%d", cfg.FallbackDirectory, cfg.MinFallbackSize)
	}

	return &Manager{
		store:                objstore.NewStore(allocator),
		allocator:            allocator,
		policy:               evict.NewPolicy(int64(cfg.Capacity), cfg.EvictionMinFraction),
		stats:                objstats.NewCollector(),
		config:               cfg,
		eagerDeletionObjects: make(map[ids.ObjectId]struct{}),
	}
}

// SetOnDeleteCallback registers a callback invoked after a notified
// delete (DeleteObject, RemoveReference's eager-delete path,
// EvictObjects). AbortObject's delete never notifies.
func (m *Manager) SetOnDeleteCallback(cb func(ids.ObjectId)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onDeleteCallback = cb
}

// CreateObject allocates and registers a new object. If allowFallback is
// true and the direct allocation fails, it retries by evicting LRU
// candidates (up to config.MaxEvictionRetries rounds); if every round
// fails it returns the allocator's last error (OutOfMemory for a
// primary-only allocator).
func (m *Manager) CreateObject(info objstore.ObjectInfo, source objstats.ObjectSource, allowFallback bool) (*objstore.LocalObject, error) {
	if m.store.Contains(info.ObjectId) {
		return nil, plasmaerr.ObjectExistsErr(info.ObjectId)
	}

	size := int(info.TotalSize())

	var allocation *alloc.Allocation
	var err error
	if allowFallback {
		allocation, err = m.allocateWithEviction(size)
	} else {
		allocation, err = m.allocator.Allocate(size)
	}
	if err != nil {
		return nil, err
	}

	obj := objstore.NewLocalObject(allocation, info, source)

	m.stats.OnObjectCreated(obj)

	if err := m.store.InsertPrebuilt(obj); err != nil {
		// Lost a create race: undo the side effects we already applied.
		m.stats.OnObjectDeleting(obj)
		m.allocator.Free(allocation)
		return nil, err
	}

	glog.V(3).Infof("lifecycle: created %s size=%d source=%s", info.ObjectId, size, source)
	return obj, nil
}

// allocateWithEviction tries a direct allocation first, then retries
// after evicting LRU candidates for up to config.MaxEvictionRetries
// rounds. The allocator itself may be fallback-tiered (see NewManager);
// a failure that survives every retry is returned as-is so a fallback
// tier's own TransientOutOfMemory/OutOfDisk reaches the caller instead
// of being flattened into a generic OutOfMemory.
func (m *Manager) allocateWithEviction(size int) (*alloc.Allocation, error) {
	allocation, lastErr := m.allocator.Allocate(size)
	if lastErr == nil {
		return allocation, nil
	}

	for i := 0; i < m.config.MaxEvictionRetries; i++ {
		candidates, _ := m.policy.RequireSpace(int64(size), allocatorFootprint{m.allocator})
		for _, id := range candidates {
			_ = m.deleteObjectInternal(id, false)
		}

		if allocation, err := m.allocator.Allocate(size); err == nil {
			return allocation, nil
		} else {
			lastErr = err
		}
	}

	if _, ok := plasmaerr.KindOf(lastErr); ok {
		return nil, lastErr
	}
	return nil, plasmaerr.OutOfMemoryErr()
}

// GetObjectState returns id's lifecycle state, or (0, false) if absent.
func (m *Manager) GetObjectState(id ids.ObjectId) (objstats.ObjectState, bool) {
	obj, err := m.store.GetObjectEntry(id)
	if err != nil {
		return 0, false
	}
	return obj.State(), true
}

// Contains reports whether id is currently registered.
func (m *Manager) Contains(id ids.ObjectId) bool {
	return m.store.Contains(id)
}

// SealObject flips id from Created to Sealed, records the transition in
// stats, and, if id has no references, registers it with the eviction
// policy as evictable.
func (m *Manager) SealObject(id ids.ObjectId) error {
	obj, err := m.store.GetObjectEntry(id)
	if err != nil {
		return err
	}
	if err := obj.Seal(); err != nil {
		return err
	}
	m.stats.OnObjectSealed(obj)
	if obj.RefCount() == 0 {
		m.policy.ObjectCreated(id, obj.TotalSize())
	}
	return nil
}

// AbortObject deletes an unsealed object without notifying the delete
// callback. Returns ObjectAlreadySealed if id is sealed.
func (m *Manager) AbortObject(id ids.ObjectId) error {
	obj, err := m.store.GetObjectEntry(id)
	if err != nil {
		return err
	}
	if obj.IsSealed() {
		return plasmaerr.ObjectAlreadySealedErr(id)
	}
	return m.deleteObjectInternal(id, false)
}

// DeleteObject deletes a sealed, unreferenced object and notifies the
// delete callback. An unsealed object or one still referenced is instead
// marked for eager deletion (deleted automatically once its last
// reference is released) and an error is returned immediately.
func (m *Manager) DeleteObject(id ids.ObjectId) error {
	obj, err := m.store.GetObjectEntry(id)
	if err != nil {
		return err
	}

	if !obj.IsSealed() {
		m.markEagerDeletion(id)
		return plasmaerr.ObjectNotSealedErr(id)
	}
	if obj.RefCount() > 0 {
		m.markEagerDeletion(id)
		return plasmaerr.InvalidRequestErr("object in use")
	}

	return m.deleteObjectInternal(id, true)
}

func (m *Manager) markEagerDeletion(id ids.ObjectId) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eagerDeletionObjects[id] = struct{}{}
}

// deleteObjectInternal performs the six-step delete sequence in the
// exact required order: remove from store, record deletion stats,
// drop from the eviction policy, free the allocation, clear the eager
// deletion mark, and (if notify) invoke the delete callback.
func (m *Manager) deleteObjectInternal(id ids.ObjectId, notify bool) error {
	obj, err := m.store.TakeObject(id)
	if err != nil {
		return err
	}

	m.stats.OnObjectDeleting(obj)
	m.policy.RemoveObject(id)

	if obj.Allocation != nil {
		if err := m.allocator.Free(obj.Allocation); err != nil {
			glog.Warningf("lifecycle: free failed for %s: %v", id, err)
		}
	}

	m.mu.Lock()
	delete(m.eagerDeletionObjects, id)
	m.mu.Unlock()

	if notify {
		m.mu.Lock()
		cb := m.onDeleteCallback
		m.mu.Unlock()
		if cb != nil {
			cb(id)
		}
	}

	glog.V(3).Infof("lifecycle: deleted %s notify=%v", id, notify)
	return nil
}

// AddReference increments id's refcount, pins it against eviction, and
// records the transition in stats. Returns false if id is unknown.
func (m *Manager) AddReference(id ids.ObjectId) bool {
	obj, err := m.store.GetObjectEntry(id)
	if err != nil {
		return false
	}
	obj.AddRef()
	m.stats.OnReferenceAdded(obj, obj.RefCount()-1)
	m.policy.BeginObjectAccess(id)
	return true
}

// RemoveReference decrements id's refcount. A double-release (refcount
// already 0) is a no-op that returns false. When the refcount reaches 0
// the object is unpinned (made evictable again); if it was also marked
// for eager deletion, it is deleted immediately and the delete callback
// is notified -- eager deletion always wins over a plain release.
func (m *Manager) RemoveReference(id ids.ObjectId) bool {
	obj, err := m.store.GetObjectEntry(id)
	if err != nil {
		return false
	}
	if obj.RefCount() == 0 {
		return false
	}

	obj.RemoveRef()
	m.stats.OnReferenceRemoved(obj, obj.RefCount())

	m.mu.Lock()
	_, eager := m.eagerDeletionObjects[id]
	m.mu.Unlock()
	shouldDelete := obj.RefCount() == 0 && eager

	if obj.RefCount() == 0 {
		m.policy.EndObjectAccess(id, obj.TotalSize())
	}

	if shouldDelete {
		_ = m.deleteObjectInternal(id, true)
	}

	return true
}

// EvictObjects deletes every id in ids that is currently sealed and
// unreferenced, notifying the delete callback for each. Ids that are
// unsealed, still referenced, or unknown are silently skipped.
func (m *Manager) EvictObjects(objectIds []ids.ObjectId) {
	for _, id := range objectIds {
		obj, err := m.store.GetObjectEntry(id)
		if err != nil {
			continue
		}
		if obj.IsSealed() && obj.RefCount() == 0 {
			_ = m.deleteObjectInternal(id, true)
		}
	}
}

// StatsCollector exposes the manager's stats collector.
func (m *Manager) StatsCollector() *objstats.Collector {
	return m.stats
}

// Len returns the number of objects currently registered.
func (m *Manager) Len() int {
	return m.store.Len()
}
