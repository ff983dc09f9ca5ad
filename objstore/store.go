package objstore

import (
	"container/list"
	"sync"

	"github.com/golang/glog"
	"github.com/ray-project/plasma-core/alloc"
	"github.com/ray-project/plasma-core/ids"
	"github.com/ray-project/plasma-core/internal/shardmap"
	"github.com/ray-project/plasma-core/objstats"
	"github.com/ray-project/plasma-core/plasmaerr"
)

// ObjectRef is the handle returned by GetObject: enough for a reader to
// locate and size an object's two sections without exposing the
// underlying LocalObject (and its mutable refcount/state) directly.
type ObjectRef struct {
	ObjectId     ids.ObjectId
	DataSize     int64
	MetadataSize int64
}

// TotalSize returns DataSize + MetadataSize.
func (r ObjectRef) TotalSize() int64 { return r.DataSize + r.MetadataSize }

// Store is the sharded concurrent table of LocalObject entries. Its own
// CreateObject/DeleteObject allocate and free directly against a single
// allocator with no eviction-retry coupling -- that orchestration lives
// in package lifecycle, which instead uses InsertPrebuilt/TakeObject to
// compose allocation, store mutation, stats, and LRU policy itself.
//
// evictionQueue tracks sealed objects in seal order (oldest first), the
// same eviction_queue: RwLock<VecDeque<ObjectId>> the ground truth keeps
// alongside its DashMap -- EvictableObjects/Evict walk it front-to-back
// rather than relying on shardmap's unordered iteration.
type Store struct {
	objects   *shardmap.Map
	allocator alloc.Allocator

	evictionMu    sync.RWMutex
	evictionQueue *list.List
	evictionIndex map[ids.ObjectId]*list.Element
}

// NewStore builds a Store backed by allocator.
func NewStore(allocator alloc.Allocator) *Store {
	return &Store{
		objects:       shardmap.New(),
		allocator:     allocator,
		evictionQueue: list.New(),
		evictionIndex: make(map[ids.ObjectId]*list.Element),
	}
}

// pushEvictionQueue appends id to the back of the seal-ordered queue.
func (s *Store) pushEvictionQueue(id ids.ObjectId) {
	s.evictionMu.Lock()
	defer s.evictionMu.Unlock()
	if _, exists := s.evictionIndex[id]; exists {
		return
	}
	s.evictionIndex[id] = s.evictionQueue.PushBack(id)
}

// removeEvictionQueue drops id from the seal-ordered queue, if present.
func (s *Store) removeEvictionQueue(id ids.ObjectId) {
	s.evictionMu.Lock()
	defer s.evictionMu.Unlock()
	if el, ok := s.evictionIndex[id]; ok {
		s.evictionQueue.Remove(el)
		delete(s.evictionIndex, id)
	}
}

// CreateObject allocates storage for a new object and inserts it in the
// Created state. Returns ObjectExists if id is already present, or
// whatever error the allocator raises (no eviction retry at this layer).
func (s *Store) CreateObject(id ids.ObjectId, dataSize, metadataSize int64, source objstats.ObjectSource, ownerAddress []byte) (*LocalObject, error) {
	if _, exists := s.objects.Load(id); exists {
		return nil, plasmaerr.ObjectExistsErr(id)
	}

	info := ObjectInfo{ObjectId: id, DataSize: dataSize, MetadataSize: metadataSize, OwnerAddress: ownerAddress}
	allocation, err := s.allocator.Allocate(int(info.TotalSize()))
	if err != nil {
		return nil, err
	}

	obj := NewLocalObject(allocation, info, source)
	if _, loaded := s.objects.LoadOrStore(id, obj); loaded {
		s.allocator.Free(allocation)
		return nil, plasmaerr.ObjectExistsErr(id)
	}

	glog.V(4).Infof("objstore: created %s size=%d", id, info.TotalSize())
	return obj, nil
}

// InsertPrebuilt inserts an already-constructed LocalObject (the
// lifecycle manager builds these itself once it has a successful
// allocation from its own retry loop). Returns ObjectExists if id is
// already present.
func (s *Store) InsertPrebuilt(obj *LocalObject) error {
	if _, loaded := s.objects.LoadOrStore(obj.ObjectId(), obj); loaded {
		return plasmaerr.ObjectExistsErr(obj.ObjectId())
	}
	return nil
}

// GetObjectEntry returns the raw LocalObject for id, for callers (the
// lifecycle manager) that need to mutate refcount/state directly.
func (s *Store) GetObjectEntry(id ids.ObjectId) (*LocalObject, error) {
	v, ok := s.objects.Load(id)
	if !ok {
		return nil, plasmaerr.ObjectNotFoundErr(id)
	}
	return v.(*LocalObject), nil
}

// TakeObject atomically removes and returns id's entry, dropping it from
// the eviction queue in the same step. Used both by Store's own
// DeleteObject/AbortObject and by the lifecycle manager's internal-delete
// sequence, whose first step is "remove entry from store" -- routing
// every removal path through here is what keeps the eviction queue
// consistent regardless of which layer initiated the delete.
func (s *Store) TakeObject(id ids.ObjectId) (*LocalObject, error) {
	v, ok := s.objects.LoadAndDelete(id)
	if !ok {
		return nil, plasmaerr.ObjectNotFoundErr(id)
	}
	s.removeEvictionQueue(id)
	return v.(*LocalObject), nil
}

// SealObject flips id's state to Sealed. Returns ObjectNotFound if id is
// missing, ObjectAlreadySealed if already sealed.
func (s *Store) SealObject(id ids.ObjectId) (*LocalObject, error) {
	obj, err := s.GetObjectEntry(id)
	if err != nil {
		return nil, err
	}
	if err := obj.Seal(); err != nil {
		return nil, err
	}
	s.pushEvictionQueue(id)
	return obj, nil
}

// GetObject requires id to be Sealed, increments its refcount, and
// returns a reader handle.
func (s *Store) GetObject(id ids.ObjectId) (ObjectRef, error) {
	obj, err := s.GetObjectEntry(id)
	if err != nil {
		return ObjectRef{}, err
	}
	if !obj.IsSealed() {
		return ObjectRef{}, plasmaerr.ObjectNotSealedErr(id)
	}
	obj.AddRef()
	return ObjectRef{ObjectId: id, DataSize: obj.Info.DataSize, MetadataSize: obj.Info.MetadataSize}, nil
}

// ReleaseObject decrements id's refcount. Releasing an object whose
// refcount is already 0 is a no-op.
func (s *Store) ReleaseObject(id ids.ObjectId) error {
	obj, err := s.GetObjectEntry(id)
	if err != nil {
		return err
	}
	if obj.RefCount() == 0 {
		return nil
	}
	obj.RemoveRef()
	return nil
}

// DeleteObject requires id to be Sealed with refcount 0, frees its
// allocation, and removes it. This is the self-contained variant (no
// eager-deletion-set coupling); the lifecycle manager has its own
// delete_object_internal for the orchestrated path.
func (s *Store) DeleteObject(id ids.ObjectId) error {
	obj, err := s.GetObjectEntry(id)
	if err != nil {
		return err
	}
	if !obj.IsSealed() {
		return plasmaerr.ObjectNotSealedErr(id)
	}
	if obj.RefCount() > 0 {
		return plasmaerr.InvalidRequestErr("cannot delete object with active references")
	}

	if _, err := s.TakeObject(id); err != nil {
		return err
	}
	if obj.Allocation != nil {
		if err := s.allocator.Free(obj.Allocation); err != nil {
			return err
		}
	}
	glog.V(4).Infof("objstore: deleted %s", id)
	return nil
}

// AbortObject requires id to be unsealed (Created), frees its allocation,
// and removes it.
func (s *Store) AbortObject(id ids.ObjectId) error {
	obj, err := s.GetObjectEntry(id)
	if err != nil {
		return err
	}
	if obj.IsSealed() {
		return plasmaerr.ObjectAlreadySealedErr(id)
	}

	if _, err := s.TakeObject(id); err != nil {
		return err
	}
	if obj.Allocation != nil {
		if err := s.allocator.Free(obj.Allocation); err != nil {
			return err
		}
	}
	glog.V(4).Infof("objstore: aborted %s", id)
	return nil
}

// Contains reports whether id is present.
func (s *Store) Contains(id ids.ObjectId) bool {
	_, ok := s.objects.Load(id)
	return ok
}

// IsSealed reports whether id is present and Sealed.
func (s *Store) IsSealed(id ids.ObjectId) bool {
	v, ok := s.objects.Load(id)
	if !ok {
		return false
	}
	return v.(*LocalObject).IsSealed()
}

// Len returns the number of objects currently in the store.
func (s *Store) Len() int {
	return s.objects.Len()
}

// AvailableCapacity delegates to the backing allocator.
func (s *Store) AvailableCapacity() int {
	return s.allocator.Available()
}

// ObjectIds returns every id currently in the store, in no particular
// order.
func (s *Store) ObjectIds() []ids.ObjectId {
	out := make([]ids.ObjectId, 0, s.Len())
	s.objects.Range(func(id ids.ObjectId, _ any) bool {
		out = append(out, id)
		return true
	})
	return out
}

// EvictableObjects returns every id that is Sealed with refcount 0, in
// LRU (seal) order -- the oldest-sealed id first. It walks the ordered
// eviction queue rather than the shardmap directly, since sync.Map gives
// no iteration-order guarantee at all.
func (s *Store) EvictableObjects() []ids.ObjectId {
	s.evictionMu.RLock()
	ordered := make([]ids.ObjectId, 0, s.evictionQueue.Len())
	for el := s.evictionQueue.Front(); el != nil; el = el.Next() {
		ordered = append(ordered, el.Value.(ids.ObjectId))
	}
	s.evictionMu.RUnlock()

	out := make([]ids.ObjectId, 0, len(ordered))
	for _, id := range ordered {
		v, ok := s.objects.Load(id)
		if !ok {
			continue
		}
		obj := v.(*LocalObject)
		if obj.IsSealed() && obj.RefCount() == 0 {
			out = append(out, id)
		}
	}
	return out
}

// Evict deletes evictable objects (in the order EvictableObjects
// returns them) until bytesNeeded bytes have been freed, or there are no
// more candidates. Returns the bytes actually freed.
func (s *Store) Evict(bytesNeeded int64) int64 {
	var freed int64
	for _, id := range s.EvictableObjects() {
		if freed >= bytesNeeded {
			break
		}
		obj, err := s.GetObjectEntry(id)
		if err != nil {
			continue
		}
		size := obj.AllocatedSize()
		if err := s.DeleteObject(id); err == nil {
			freed += size
		}
	}
	return freed
}
