package objstats

import "testing"

// fakeObject is a minimal StatsObject test double; the real implementation
// lives in package objstore as LocalObject.
type fakeObject struct {
	size       int64
	sealed     bool
	fallback   bool
	refCount   int32
	source     ObjectSource
}

func (f *fakeObject) TotalSize() int64          { return f.size }
func (f *fakeObject) IsSealed() bool            { return f.sealed }
func (f *fakeObject) IsFallbackAllocated() bool  { return f.fallback }
func (f *fakeObject) RefCount() int32           { return f.refCount }
func (f *fakeObject) Source() ObjectSource      { return f.source }

func TestCollectorCreation(t *testing.T) {
	c := NewCollector()
	if c.BytesCreatedTotal.Load() != 0 {
		t.Fatal("expected zeroed collector")
	}
}

func TestOnObjectCreated(t *testing.T) {
	c := NewCollector()
	obj := &fakeObject{size: 100, source: CreatedByWorker}

	c.OnObjectCreated(obj)

	if c.BytesCreatedTotal.Load() != 100 {
		t.Fatalf("BytesCreatedTotal = %d, want 100", c.BytesCreatedTotal.Load())
	}
	if c.ObjectsUnsealed.Load() != 1 {
		t.Fatalf("ObjectsUnsealed = %d, want 1", c.ObjectsUnsealed.Load())
	}
	if c.BytesUnsealed.Load() != 100 {
		t.Fatalf("BytesUnsealed = %d, want 100", c.BytesUnsealed.Load())
	}
	if c.ObjectsCreatedByWorker.Load() != 1 {
		t.Fatalf("ObjectsCreatedByWorker = %d, want 1", c.ObjectsCreatedByWorker.Load())
	}
}

func TestOnObjectSealed(t *testing.T) {
	c := NewCollector()
	obj := &fakeObject{size: 100, source: CreatedByWorker}

	c.OnObjectCreated(obj)
	obj.sealed = true
	c.OnObjectSealed(obj)

	if c.ObjectsUnsealed.Load() != 0 {
		t.Fatalf("ObjectsUnsealed = %d, want 0", c.ObjectsUnsealed.Load())
	}
	if c.BytesUnsealed.Load() != 0 {
		t.Fatalf("BytesUnsealed = %d, want 0", c.BytesUnsealed.Load())
	}
	if c.ObjectsEvictable.Load() != 1 {
		t.Fatalf("ObjectsEvictable = %d, want 1", c.ObjectsEvictable.Load())
	}
}

func TestStatsBySource(t *testing.T) {
	c := NewCollector()

	c.OnObjectCreated(&fakeObject{size: 100, source: CreatedByWorker})
	c.OnObjectCreated(&fakeObject{size: 100, source: RestoredFromStorage})
	c.OnObjectCreated(&fakeObject{size: 100, source: ReceivedFromRemoteRaylet})
	c.OnObjectCreated(&fakeObject{size: 100, source: ErrorStoredByRaylet})

	if c.ObjectsCreatedByWorker.Load() != 1 {
		t.Fatalf("ObjectsCreatedByWorker = %d, want 1", c.ObjectsCreatedByWorker.Load())
	}
	if c.ObjectsRestored.Load() != 1 {
		t.Fatalf("ObjectsRestored = %d, want 1", c.ObjectsRestored.Load())
	}
	if c.ObjectsReceived.Load() != 1 {
		t.Fatalf("ObjectsReceived = %d, want 1", c.ObjectsReceived.Load())
	}
	if c.ObjectsErrored.Load() != 1 {
		t.Fatalf("ObjectsErrored = %d, want 1", c.ObjectsErrored.Load())
	}
}

func TestFallbackSourceSharesWorkerCounters(t *testing.T) {
	c := NewCollector()
	c.OnObjectCreated(&fakeObject{size: 50, source: CreatedByPlasmaFallbackAllocation, fallback: true})

	if c.ObjectsCreatedByWorker.Load() != 1 {
		t.Fatalf("ObjectsCreatedByWorker = %d, want 1 (fallback source shares the worker counter)", c.ObjectsCreatedByWorker.Load())
	}
	if c.BytesFallbackUnsealed.Load() != 50 {
		t.Fatalf("BytesFallbackUnsealed = %d, want 50", c.BytesFallbackUnsealed.Load())
	}
}

func TestReferenceCountingTransitions(t *testing.T) {
	c := NewCollector()
	obj := &fakeObject{size: 100, source: CreatedByWorker, sealed: true}

	// old_ref_count passed is refcount-1 (post-increment value known by caller)
	obj.refCount = 1
	c.OnReferenceAdded(obj, 0)
	if c.ObjectsInUse.Load() != 1 {
		t.Fatalf("ObjectsInUse = %d, want 1", c.ObjectsInUse.Load())
	}

	obj.refCount = 0
	c.OnReferenceRemoved(obj, 0)
	if c.ObjectsInUse.Load() != 0 {
		t.Fatalf("ObjectsInUse = %d, want 0", c.ObjectsInUse.Load())
	}
}
