package alloc

import "go.uber.org/atomic"

// Stats holds the atomic usage counters every Allocator tier maintains.
// PeakBytes is updated with a compare-and-swap loop so that concurrent
// allocations never regress the high-water mark.
type Stats struct {
	BytesAllocated atomic.Int64
	NumAllocations atomic.Int64
	NumFrees       atomic.Int64
	PeakBytes      atomic.Int64
}

func (s *Stats) recordAlloc(size int64) {
	current := s.BytesAllocated.Add(size)
	s.NumAllocations.Inc()

	peak := s.PeakBytes.Load()
	for current > peak {
		if s.PeakBytes.CompareAndSwap(peak, current) {
			break
		}
		peak = s.PeakBytes.Load()
	}
}

func (s *Stats) recordFree(size int64) {
	s.BytesAllocated.Sub(size)
	s.NumFrees.Inc()
}
