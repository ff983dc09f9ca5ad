package objstats

import "go.uber.org/atomic"

// StatsObject is the minimal view of a LocalObject the collector needs to
// update its counters. objstore.LocalObject satisfies this structurally,
// so objstats never imports objstore (stats sits below the object store
// in the dependency order).
type StatsObject interface {
	TotalSize() int64
	IsSealed() bool
	IsFallbackAllocated() bool
	RefCount() int32
	Source() ObjectSource
}

// Collector maintains the 21 lock-free counters the core publishes.
// Every field is a go.uber.org/atomic.Int64 so reads never block a
// concurrent writer and a Snapshot is a cheap sequence of atomic loads.
type Collector struct {
	BytesCreatedTotal atomic.Int64

	ObjectsSpillable atomic.Int64
	BytesSpillable   atomic.Int64
	ObjectsUnsealed  atomic.Int64
	BytesUnsealed    atomic.Int64
	ObjectsInUse     atomic.Int64
	BytesInUse       atomic.Int64
	ObjectsEvictable atomic.Int64
	BytesEvictable   atomic.Int64

	ObjectsCreatedByWorker atomic.Int64
	BytesCreatedByWorker   atomic.Int64
	ObjectsRestored        atomic.Int64
	BytesRestored          atomic.Int64
	ObjectsReceived        atomic.Int64
	BytesReceived          atomic.Int64
	ObjectsErrored         atomic.Int64
	BytesErrored           atomic.Int64

	BytesFallbackSealed   atomic.Int64
	BytesFallbackUnsealed atomic.Int64
	BytesPrimarySealed    atomic.Int64
	BytesPrimaryUnsealed  atomic.Int64
}

// NewCollector returns a zeroed Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// OnObjectCreated records a newly created, unsealed object.
func (c *Collector) OnObjectCreated(o StatsObject) {
	size := o.TotalSize()

	c.BytesCreatedTotal.Add(size)

	c.ObjectsUnsealed.Inc()
	c.BytesUnsealed.Add(size)

	if o.IsFallbackAllocated() {
		c.BytesFallbackUnsealed.Add(size)
	} else {
		c.BytesPrimaryUnsealed.Add(size)
	}

	c.recordSourceCreated(o.Source(), size)
}

// OnObjectSealed records the unsealed->sealed transition.
func (c *Collector) OnObjectSealed(o StatsObject) {
	size := o.TotalSize()

	c.ObjectsUnsealed.Dec()
	c.BytesUnsealed.Sub(size)

	if o.IsFallbackAllocated() {
		c.BytesFallbackUnsealed.Sub(size)
		c.BytesFallbackSealed.Add(size)
	} else {
		c.BytesPrimaryUnsealed.Sub(size)
		c.BytesPrimarySealed.Add(size)
	}

	if o.RefCount() == 0 {
		c.ObjectsEvictable.Inc()
		c.BytesEvictable.Add(size)
	}

	if o.RefCount() == 1 && o.Source() == CreatedByWorker {
		c.ObjectsSpillable.Inc()
		c.BytesSpillable.Add(size)
	}
}

// OnObjectDeleting records the removal of o from the store, whatever
// state it was in.
func (c *Collector) OnObjectDeleting(o StatsObject) {
	size := o.TotalSize()

	if o.IsSealed() {
		if o.RefCount() == 0 {
			c.ObjectsEvictable.Dec()
			c.BytesEvictable.Sub(size)
		}
		if o.RefCount() == 1 && o.Source() == CreatedByWorker {
			c.ObjectsSpillable.Dec()
			c.BytesSpillable.Sub(size)
		}
		if o.IsFallbackAllocated() {
			c.BytesFallbackSealed.Sub(size)
		} else {
			c.BytesPrimarySealed.Sub(size)
		}
	} else {
		c.ObjectsUnsealed.Dec()
		c.BytesUnsealed.Sub(size)

		if o.IsFallbackAllocated() {
			c.BytesFallbackUnsealed.Sub(size)
		} else {
			c.BytesPrimaryUnsealed.Sub(size)
		}
	}

	if o.RefCount() > 0 {
		c.ObjectsInUse.Dec()
		c.BytesInUse.Sub(size)
	}

	c.recordSourceDeleted(o.Source(), size)
}

// OnReferenceAdded records a refcount increment. o must already reflect
// the post-increment refcount; oldRefCount is the value just before the
// increment (refcount - 1).
func (c *Collector) OnReferenceAdded(o StatsObject, oldRefCount int32) {
	size := o.TotalSize()

	if oldRefCount == 0 {
		c.ObjectsInUse.Inc()
		c.BytesInUse.Add(size)

		if o.IsSealed() {
			c.ObjectsEvictable.Dec()
			c.BytesEvictable.Sub(size)
		}
	}

	if oldRefCount == 1 && o.Source() == CreatedByWorker && o.IsSealed() {
		c.ObjectsSpillable.Dec()
		c.BytesSpillable.Sub(size)
	}
}

// OnReferenceRemoved records a refcount decrement. o must already reflect
// the post-decrement refcount (newRefCount).
func (c *Collector) OnReferenceRemoved(o StatsObject, newRefCount int32) {
	size := o.TotalSize()

	if newRefCount == 1 && o.Source() == CreatedByWorker && o.IsSealed() {
		c.ObjectsSpillable.Inc()
		c.BytesSpillable.Add(size)
	}

	if newRefCount == 0 {
		c.ObjectsInUse.Dec()
		c.BytesInUse.Sub(size)

		if o.IsSealed() {
			c.ObjectsEvictable.Inc()
			c.BytesEvictable.Add(size)
		}
	}
}

// GetNumBytesCreatedCurrent sums the four tier/seal-state gauges, giving
// the current (non-monotonic) bytes resident across both tiers.
func (c *Collector) GetNumBytesCreatedCurrent() int64 {
	return c.BytesFallbackSealed.Load() +
		c.BytesFallbackUnsealed.Load() +
		c.BytesPrimarySealed.Load() +
		c.BytesPrimaryUnsealed.Load()
}

func (c *Collector) recordSourceCreated(source ObjectSource, size int64) {
	switch source {
	case CreatedByWorker, CreatedByPlasmaFallbackAllocation:
		c.ObjectsCreatedByWorker.Inc()
		c.BytesCreatedByWorker.Add(size)
	case RestoredFromStorage:
		c.ObjectsRestored.Inc()
		c.BytesRestored.Add(size)
	case ReceivedFromRemoteRaylet:
		c.ObjectsReceived.Inc()
		c.BytesReceived.Add(size)
	case ErrorStoredByRaylet:
		c.ObjectsErrored.Inc()
		c.BytesErrored.Add(size)
	}
}

func (c *Collector) recordSourceDeleted(source ObjectSource, size int64) {
	switch source {
	case CreatedByWorker, CreatedByPlasmaFallbackAllocation:
		c.ObjectsCreatedByWorker.Dec()
		c.BytesCreatedByWorker.Sub(size)
	case RestoredFromStorage:
		c.ObjectsRestored.Dec()
		c.BytesRestored.Sub(size)
	case ReceivedFromRemoteRaylet:
		c.ObjectsReceived.Dec()
		c.BytesReceived.Sub(size)
	case ErrorStoredByRaylet:
		c.ObjectsErrored.Dec()
		c.BytesErrored.Sub(size)
	}
}

// Snapshot is an instantaneous, non-atomic-as-a-whole copy of all 21
// counters, intended for external observers (metrics exporters, tests).
type Snapshot struct {
	BytesCreatedTotal int64

	ObjectsSpillable int64
	BytesSpillable   int64
	ObjectsUnsealed  int64
	BytesUnsealed    int64
	ObjectsInUse     int64
	BytesInUse       int64
	ObjectsEvictable int64
	BytesEvictable   int64

	ObjectsCreatedByWorker int64
	BytesCreatedByWorker   int64
	ObjectsRestored        int64
	BytesRestored          int64
	ObjectsReceived        int64
	BytesReceived          int64
	ObjectsErrored         int64
	BytesErrored           int64

	BytesFallbackSealed   int64
	BytesFallbackUnsealed int64
	BytesPrimarySealed    int64
	BytesPrimaryUnsealed  int64
}

// Snapshot takes an instantaneous copy of every counter.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		BytesCreatedTotal:      c.BytesCreatedTotal.Load(),
		ObjectsSpillable:       c.ObjectsSpillable.Load(),
		BytesSpillable:         c.BytesSpillable.Load(),
		ObjectsUnsealed:        c.ObjectsUnsealed.Load(),
		BytesUnsealed:          c.BytesUnsealed.Load(),
		ObjectsInUse:           c.ObjectsInUse.Load(),
		BytesInUse:             c.BytesInUse.Load(),
		ObjectsEvictable:       c.ObjectsEvictable.Load(),
		BytesEvictable:         c.BytesEvictable.Load(),
		ObjectsCreatedByWorker: c.ObjectsCreatedByWorker.Load(),
		BytesCreatedByWorker:   c.BytesCreatedByWorker.Load(),
		ObjectsRestored:        c.ObjectsRestored.Load(),
		BytesRestored:          c.BytesRestored.Load(),
		ObjectsReceived:        c.ObjectsReceived.Load(),
		BytesReceived:          c.BytesReceived.Load(),
		ObjectsErrored:         c.ObjectsErrored.Load(),
		BytesErrored:           c.BytesErrored.Load(),
		BytesFallbackSealed:    c.BytesFallbackSealed.Load(),
		BytesFallbackUnsealed:  c.BytesFallbackUnsealed.Load(),
		BytesPrimarySealed:     c.BytesPrimarySealed.Load(),
		BytesPrimaryUnsealed:   c.BytesPrimaryUnsealed.Load(),
	}
}
