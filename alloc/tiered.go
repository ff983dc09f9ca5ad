package alloc

import (
	"github.com/golang/glog"
	"github.com/ray-project/plasma-core/plasmaerr"
)

// TieredAllocator composes a capacity-bounded primary tier with an
// optional overflow tier, exactly the "two tiers... independent of
// available()" split the donor's allocator contract describes. Requests
// go to primary first; only a request at least minFallbackSize bytes is
// ever considered for the fallback tier, and only once primary itself is
// exhausted.
type TieredAllocator struct {
	primary         Allocator
	fallback        Allocator
	minFallbackSize int64
}

// NewTieredAllocator builds a two-tier allocator. fallback may be nil, in
// which case this behaves exactly like primary alone (minFallbackSize is
// then irrelevant).
func NewTieredAllocator(primary Allocator, fallback Allocator, minFallbackSize int64) *TieredAllocator {
	return &TieredAllocator{primary: primary, fallback: fallback, minFallbackSize: minFallbackSize}
}

// Allocate tries the primary tier first. If that fails and size clears
// minFallbackSize, it retries against the fallback tier; a fallback I/O
// failure is surfaced as OutOfDisk rather than propagated raw, since from
// the caller's perspective the overflow tier is what is exhausted. A
// request too small for fallback that fails on primary returns
// TransientOutOfMemory: primary capacity can still change out from under
// the caller (e.g. via eviction), so the shortage is not final.
func (t *TieredAllocator) Allocate(size int) (*Allocation, error) {
	allocation, err := t.primary.Allocate(size)
	if err == nil {
		return allocation, nil
	}

	if t.fallback == nil {
		return nil, err
	}
	if int64(size) < t.minFallbackSize {
		return nil, plasmaerr.TransientOutOfMemoryErr()
	}

	allocation, ferr := t.fallback.Allocate(size)
	if ferr != nil {
		if kind, ok := plasmaerr.KindOf(ferr); ok && kind == plasmaerr.IoError {
			return nil, plasmaerr.OutOfDiskErr()
		}
		return nil, ferr
	}

	glog.V(3).Infof("alloc: tiered allocate routed to fallback size=%d", size)
	return allocation, nil
}

// Free routes to whichever tier produced a, using the allocation's own
// fallback flag rather than guessing from address, since both tiers
// number addresses independently starting at 1.
func (t *TieredAllocator) Free(a *Allocation) error {
	if a.IsFallback {
		if t.fallback == nil {
			return plasmaerr.InvalidRequestErr("fallback allocation but no fallback tier configured")
		}
		return t.fallback.Free(a)
	}
	return t.primary.Free(a)
}

// Available reports the primary tier's remaining budget; the fallback
// tier has no fixed ceiling (see FileFallbackAllocator.Available), so
// callers gate its use via minFallbackSize instead.
func (t *TieredAllocator) Available() int { return t.primary.Available() }

// Capacity reports the primary tier's fixed budget.
func (t *TieredAllocator) Capacity() int { return t.primary.Capacity() }

// Stats exposes the primary tier's counters; the eviction-retry
// footprint and Store.AvailableCapacity are both defined in terms of the
// primary budget, matching §4.3's accounting.
func (t *TieredAllocator) Stats() *Stats { return t.primary.Stats() }
