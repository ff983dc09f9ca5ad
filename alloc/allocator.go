package alloc

import (
	"sync"

	"github.com/golang/glog"
	"github.com/ray-project/plasma-core/plasmaerr"
)

// Allocator is the contract every memory tier satisfies: allocate a
// zero-initialized region, free it exactly once, and report capacity and
// current usage.
type Allocator interface {
	Allocate(size int) (*Allocation, error)
	Free(a *Allocation) error
	Available() int
	Capacity() int
	Stats() *Stats
}

// HeapAllocator is the primary, capacity-bounded tier. It draws memory
// from the Go heap and tracks every live allocation in a table keyed by a
// synthetic address so a double Free is rejected rather than silently
// accepted.
type HeapAllocator struct {
	capacity int
	stats    Stats

	mu          sync.Mutex
	allocations map[uintptr]int // address -> size
	nextAddr    uintptr
	nextFd      int32
}

// NewHeapAllocator builds a primary-tier allocator bounded by capacity
// bytes.
func NewHeapAllocator(capacity int) *HeapAllocator {
	return &HeapAllocator{
		capacity:    capacity,
		allocations: make(map[uintptr]int),
		nextAddr:    1,
		nextFd:      100,
	}
}

// Allocate reserves size bytes of zero-initialized memory. Size 0 is
// rejected as InvalidRequest; a request that would push bytes_allocated
// past capacity is rejected as OutOfMemory.
func (h *HeapAllocator) Allocate(size int) (*Allocation, error) {
	if size == 0 {
		return nil, plasmaerr.InvalidRequestErr("cannot allocate zero bytes")
	}

	current := h.stats.BytesAllocated.Load()
	if current+int64(size) > int64(h.capacity) {
		return nil, plasmaerr.OutOfMemoryErr()
	}

	h.mu.Lock()
	addr := h.nextAddr
	h.nextAddr++
	fd := h.nextFd
	h.nextFd++
	h.allocations[addr] = size
	h.mu.Unlock()

	h.stats.recordAlloc(int64(size))

	glog.V(4).Infof("alloc: heap allocate addr=%d size=%d", addr, size)

	return &Allocation{
		Address:    addr,
		Size:       size,
		Fd:         fd,
		Offset:     0,
		DeviceNum:  0,
		MmapSize:   int64(size),
		IsFallback: false,
		buf:        make([]byte, size),
	}, nil
}

// Free releases a previously allocated region. Freeing an allocation not
// produced by this allocator, or freeing the same allocation twice,
// returns InvalidRequest.
func (h *HeapAllocator) Free(a *Allocation) error {
	h.mu.Lock()
	size, ok := h.allocations[a.Address]
	if ok {
		delete(h.allocations, a.Address)
	}
	h.mu.Unlock()

	if !ok {
		return plasmaerr.InvalidRequestErr("unknown allocation")
	}

	h.stats.recordFree(int64(size))
	glog.V(4).Infof("alloc: heap free addr=%d size=%d", a.Address, size)
	return nil
}

// Available returns capacity - bytes_allocated, saturating at 0.
func (h *HeapAllocator) Available() int {
	avail := int64(h.capacity) - h.stats.BytesAllocated.Load()
	if avail < 0 {
		return 0
	}
	return int(avail)
}

// Capacity returns the fixed primary-tier budget.
func (h *HeapAllocator) Capacity() int {
	return h.capacity
}

// Stats exposes the allocator's atomic usage counters.
func (h *HeapAllocator) Stats() *Stats {
	return &h.stats
}

// NullAllocator rejects every allocation. Used in tests that want to
// force the eviction-retry path or exercise an always-exhausted tier.
type NullAllocator struct {
	stats Stats
}

func (NullAllocator) Allocate(int) (*Allocation, error) {
	return nil, plasmaerr.OutOfMemoryErr()
}

func (NullAllocator) Free(*Allocation) error {
	return plasmaerr.InvalidRequestErr("null allocator")
}

func (NullAllocator) Available() int { return 0 }
func (NullAllocator) Capacity() int  { return 0 }
func (n *NullAllocator) Stats() *Stats {
	return &n.stats
}
