// Package objstore implements the object store's data plane: a concurrent
// table of LocalObject entries keyed by ids.ObjectId, with the sealed/
// refcount state machine mutations. Store's own CreateObject/DeleteObject/
// AbortObject allocate and free directly, with no eviction retry and no
// stats or eviction-policy coupling. That coupling lives one layer up, in
// package lifecycle, which builds its operations from the lower-level
// InsertPrebuilt, GetObjectEntry and TakeObject instead.
package objstore

import (
	"sync"
	"time"

	"github.com/ray-project/plasma-core/alloc"
	"github.com/ray-project/plasma-core/ids"
	"github.com/ray-project/plasma-core/objstats"
	"github.com/ray-project/plasma-core/plasmaerr"
	"go.uber.org/atomic"
)

// ObjectInfo is the immutable identity and size metadata of an object.
type ObjectInfo struct {
	ObjectId      ids.ObjectId
	DataSize      int64
	MetadataSize  int64
	OwnerAddress  []byte
}

// TotalSize returns DataSize + MetadataSize.
func (i ObjectInfo) TotalSize() int64 {
	return i.DataSize + i.MetadataSize
}

// LocalObject is the full record the store keeps per object: its backing
// allocation, identity, reference count, lifecycle state, and source.
// It satisfies objstats.StatsObject structurally.
type LocalObject struct {
	Allocation *alloc.Allocation
	Info       ObjectInfo
	source     objstats.ObjectSource

	mu                sync.Mutex
	state             objstats.ObjectState
	createTime        time.Time
	constructDuration time.Duration

	refCount atomic.Int32
}

// NewLocalObject builds a LocalObject in the Created state with refcount
// 0. allocation.Size must equal info.TotalSize(); the caller (the
// lifecycle manager) is responsible for that invariant since it owns the
// allocator call.
func NewLocalObject(allocation *alloc.Allocation, info ObjectInfo, source objstats.ObjectSource) *LocalObject {
	return &LocalObject{
		Allocation: allocation,
		Info:       info,
		source:     source,
		state:      objstats.Created,
		createTime: time.Now(),
	}
}

// ObjectId returns the object's identity.
func (o *LocalObject) ObjectId() ids.ObjectId { return o.Info.ObjectId }

// TotalSize implements objstats.StatsObject.
func (o *LocalObject) TotalSize() int64 { return o.Info.TotalSize() }

// Source implements objstats.StatsObject.
func (o *LocalObject) Source() objstats.ObjectSource { return o.source }

// AllocatedSize returns the backing allocation's size.
func (o *LocalObject) AllocatedSize() int64 {
	if o.Allocation == nil {
		return 0
	}
	return int64(o.Allocation.Size)
}

// IsFallbackAllocated implements objstats.StatsObject.
func (o *LocalObject) IsFallbackAllocated() bool {
	return o.Allocation != nil && o.Allocation.IsFallback
}

// State returns the current lifecycle state.
func (o *LocalObject) State() objstats.ObjectState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// IsSealed implements objstats.StatsObject.
func (o *LocalObject) IsSealed() bool {
	return o.State() == objstats.Sealed
}

// ConstructDuration returns the time between creation and seal; zero
// until Seal has been called.
func (o *LocalObject) ConstructDuration() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.constructDuration
}

// Seal flips the object from Created to Sealed, recording the construct
// duration. Sealing an already-sealed object returns ObjectAlreadySealed;
// the monotonic Created->Sealed transition never reverses.
func (o *LocalObject) Seal() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == objstats.Sealed {
		return plasmaerr.ObjectAlreadySealedErr(o.Info.ObjectId)
	}
	o.state = objstats.Sealed
	o.constructDuration = time.Since(o.createTime)
	return nil
}

// RefCount implements objstats.StatsObject.
func (o *LocalObject) RefCount() int32 {
	return o.refCount.Load()
}

// AddRef increments the reference count and returns the new value.
func (o *LocalObject) AddRef() int32 {
	return o.refCount.Inc()
}

// RemoveRef decrements the reference count and returns the new value. It
// is the caller's responsibility (the lifecycle manager) to never call
// this when RefCount() == 0 -- that case is handled explicitly as a
// double-release no-op one layer up.
func (o *LocalObject) RemoveRef() int32 {
	return o.refCount.Dec()
}
