package lifecycle_test

import (
	"os"
	"sync"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/ray-project/plasma-core/ids"
	"github.com/ray-project/plasma-core/lifecycle"
	"github.com/ray-project/plasma-core/objstats"
	"github.com/ray-project/plasma-core/objstore"
)

func randomID() ids.ObjectId {
	id, err := ids.FromRandomObjectId()
	Expect(err).NotTo(HaveOccurred())
	return id
}

func newInfo(id ids.ObjectId, dataSize, metadataSize int64) objstore.ObjectInfo {
	return objstore.ObjectInfo{ObjectId: id, DataSize: dataSize, MetadataSize: metadataSize}
}

var _ = Describe("Manager", func() {
	var manager *lifecycle.Manager

	BeforeEach(func() {
		manager = lifecycle.NewManager(lifecycle.Config{Capacity: 1024 * 1024})
	})

	Describe("CreateObject", func() {
		It("registers a new object", func() {
			id := randomID()
			_, err := manager.CreateObject(newInfo(id, 100, 0), objstats.CreatedByWorker, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(manager.Contains(id)).To(BeTrue())
		})

		It("rejects a duplicate create with ObjectExists", func() {
			id := randomID()
			info := newInfo(id, 100, 0)
			_, err := manager.CreateObject(info, objstats.CreatedByWorker, false)
			Expect(err).NotTo(HaveOccurred())

			_, err = manager.CreateObject(info, objstats.CreatedByWorker, false)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("SealObject", func() {
		It("transitions Created to Sealed", func() {
			id := randomID()
			_, err := manager.CreateObject(newInfo(id, 100, 0), objstats.CreatedByWorker, false)
			Expect(err).NotTo(HaveOccurred())

			state, ok := manager.GetObjectState(id)
			Expect(ok).To(BeTrue())
			Expect(state).To(Equal(objstats.Created))

			Expect(manager.SealObject(id)).To(Succeed())

			state, ok = manager.GetObjectState(id)
			Expect(ok).To(BeTrue())
			Expect(state).To(Equal(objstats.Sealed))
		})
	})

	Describe("DeleteObject", func() {
		It("removes a sealed, unreferenced object", func() {
			id := randomID()
			_, err := manager.CreateObject(newInfo(id, 100, 0), objstats.CreatedByWorker, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(manager.SealObject(id)).To(Succeed())

			Expect(manager.DeleteObject(id)).To(Succeed())
			Expect(manager.Contains(id)).To(BeFalse())
		})

		It("notifies the delete callback", func() {
			id := randomID()
			var notified ids.ObjectId
			manager.SetOnDeleteCallback(func(got ids.ObjectId) { notified = got })

			_, err := manager.CreateObject(newInfo(id, 100, 0), objstats.CreatedByWorker, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(manager.SealObject(id)).To(Succeed())
			Expect(manager.DeleteObject(id)).To(Succeed())

			Expect(notified.Equal(id)).To(BeTrue())
		})
	})

	Describe("AbortObject", func() {
		It("removes an unsealed object without notifying", func() {
			id := randomID()
			notified := false
			manager.SetOnDeleteCallback(func(ids.ObjectId) { notified = true })

			_, err := manager.CreateObject(newInfo(id, 100, 0), objstats.CreatedByWorker, false)
			Expect(err).NotTo(HaveOccurred())

			Expect(manager.AbortObject(id)).To(Succeed())
			Expect(manager.Contains(id)).To(BeFalse())
			Expect(notified).To(BeFalse())
		})

		It("rejects aborting an already-sealed object", func() {
			id := randomID()
			_, err := manager.CreateObject(newInfo(id, 100, 0), objstats.CreatedByWorker, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(manager.SealObject(id)).To(Succeed())

			Expect(manager.AbortObject(id)).To(HaveOccurred())
		})
	})

	Describe("reference counting", func() {
		It("marks an in-use object for eager deletion and deletes it automatically on release", func() {
			id := randomID()
			_, err := manager.CreateObject(newInfo(id, 100, 0), objstats.CreatedByWorker, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(manager.SealObject(id)).To(Succeed())

			Expect(manager.AddReference(id)).To(BeTrue())

			// Delete while referenced: fails, but marks eager deletion.
			Expect(manager.DeleteObject(id)).To(HaveOccurred())
			Expect(manager.Contains(id)).To(BeTrue())

			// Releasing the last reference triggers the deferred delete.
			Expect(manager.RemoveReference(id)).To(BeTrue())
			Expect(manager.Contains(id)).To(BeFalse())
		})

		It("treats a double release as a no-op", func() {
			id := randomID()
			_, err := manager.CreateObject(newInfo(id, 100, 0), objstats.CreatedByWorker, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(manager.SealObject(id)).To(Succeed())

			Expect(manager.AddReference(id)).To(BeTrue())
			Expect(manager.RemoveReference(id)).To(BeTrue())
			Expect(manager.RemoveReference(id)).To(BeFalse())
		})
	})

	Describe("EvictObjects", func() {
		It("deletes only sealed, unreferenced ids from the given set", func() {
			sealedID := randomID()
			referencedID := randomID()
			unsealedID := randomID()

			for _, c := range []struct {
				id   ids.ObjectId
				seal bool
				ref  bool
			}{
				{sealedID, true, false},
				{referencedID, true, true},
				{unsealedID, false, false},
			} {
				_, err := manager.CreateObject(newInfo(c.id, 50, 0), objstats.CreatedByWorker, false)
				Expect(err).NotTo(HaveOccurred())
				if c.seal {
					Expect(manager.SealObject(c.id)).To(Succeed())
				}
				if c.ref {
					Expect(manager.AddReference(c.id)).To(BeTrue())
				}
			}

			manager.EvictObjects([]ids.ObjectId{sealedID, referencedID, unsealedID})

			Expect(manager.Contains(sealedID)).To(BeFalse())
			Expect(manager.Contains(referencedID)).To(BeTrue())
			Expect(manager.Contains(unsealedID)).To(BeTrue())
		})
	})

	Describe("eviction-backed allocation", func() {
		It("evicts LRU sealed objects to make room for a new allocation when fallback is allowed", func() {
			small := lifecycle.NewManager(lifecycle.Config{Capacity: 100})

			id1, id2 := randomID(), randomID()
			_, err := small.CreateObject(newInfo(id1, 40, 0), objstats.CreatedByWorker, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(small.SealObject(id1)).To(Succeed())

			_, err = small.CreateObject(newInfo(id2, 40, 0), objstats.CreatedByWorker, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(small.SealObject(id2)).To(Succeed())

			// 80/100 bytes used; a 30-byte request fits directly, but ask
			// for enough that eviction is required.
			id3 := randomID()
			_, err = small.CreateObject(newInfo(id3, 50, 0), objstats.CreatedByWorker, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(small.Contains(id3)).To(BeTrue())

			// At least one of the earlier sealed objects must have been
			// evicted to free enough room.
			Expect(small.Contains(id1) && small.Contains(id2)).To(BeFalse())
		})

		It("fails with an error when eviction cannot free enough space", func() {
			tiny := lifecycle.NewManager(lifecycle.Config{Capacity: 10})

			id := randomID()
			_, err := tiny.CreateObject(newInfo(id, 1000, 0), objstats.CreatedByWorker, true)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("fallback tier", func() {
		var fallbackDir string

		BeforeEach(func() {
			var err error
			fallbackDir, err = os.MkdirTemp("", "plasma-fallback-test-")
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			os.RemoveAll(fallbackDir)
		})

		It("spills to disk once the primary tier is exhausted and the request clears MinFallbackSize", func() {
			withFallback := lifecycle.NewManager(lifecycle.Config{
				Capacity:          100,
				EnableFallback:    true,
				FallbackDirectory: fallbackDir,
				MinFallbackSize:   10,
			})

			id := randomID()
			_, err := withFallback.CreateObject(newInfo(id, 1000, 0), objstats.CreatedByWorker, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(withFallback.Contains(id)).To(BeTrue())

			Expect(withFallback.SealObject(id)).To(Succeed())
			Expect(withFallback.DeleteObject(id)).To(Succeed())
		})

		It("rejects a request below MinFallbackSize that the primary tier cannot satisfy", func() {
			withFallback := lifecycle.NewManager(lifecycle.Config{
				Capacity:          10,
				EnableFallback:    true,
				FallbackDirectory: fallbackDir,
				MinFallbackSize:   1024,
			})

			id := randomID()
			_, err := withFallback.CreateObject(newInfo(id, 100, 0), objstats.CreatedByWorker, false)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("concurrent access", func() {
		It("leaves the manager empty after many goroutines race through the full object lifecycle", func() {
			concurrent := lifecycle.NewManager(lifecycle.Config{Capacity: 1024 * 1024})

			const numWorkers = 4
			const iterationsPerWorker = 100

			var wg sync.WaitGroup
			wg.Add(numWorkers)
			for w := 0; w < numWorkers; w++ {
				go func() {
					defer wg.Done()
					defer GinkgoRecover()
					for i := 0; i < iterationsPerWorker; i++ {
						id := randomID()
						_, err := concurrent.CreateObject(newInfo(id, 64, 0), objstats.CreatedByWorker, true)
						Expect(err).NotTo(HaveOccurred())
						Expect(concurrent.SealObject(id)).To(Succeed())
						Expect(concurrent.AddReference(id)).To(BeTrue())
						Expect(concurrent.RemoveReference(id)).To(BeTrue())
						Expect(concurrent.DeleteObject(id)).To(Succeed())
					}
				}()
			}
			wg.Wait()

			Expect(concurrent.Len()).To(Equal(0))
			Expect(concurrent.StatsCollector().GetNumBytesCreatedCurrent()).To(Equal(int64(0)))
		})
	})
})
