// Package ids implements the fixed-width identifier hierarchy used to
// address jobs, actors, tasks, and objects: JobId(4) -> ActorId(16) ->
// TaskId(24) -> ObjectId(28), each embedding the one before it.
package ids

const (
	murmurM = 0xc6a4a7935bd1e995
	murmurR = 47
)

// murmurHash64A is a bit-exact port of MurmurHash64A (seed variant), the
// canonical per-id hash used for hash-table sharding throughout this
// module. Every id type precomputes this once at construction and never
// recomputes it, so equality (full byte compare) and hashing (this value)
// can diverge without correctness issues -- two equal ids always produce
// the same hash, but the hash alone does not imply equality.
func murmurHash64A(data []byte, seed uint64) uint64 {
	h := seed ^ (uint64(len(data)) * murmurM)

	nBlocks := len(data) / 8
	for i := 0; i < nBlocks; i++ {
		k := uint64(data[i*8]) |
			uint64(data[i*8+1])<<8 |
			uint64(data[i*8+2])<<16 |
			uint64(data[i*8+3])<<24 |
			uint64(data[i*8+4])<<32 |
			uint64(data[i*8+5])<<40 |
			uint64(data[i*8+6])<<48 |
			uint64(data[i*8+7])<<56

		k *= murmurM
		k ^= k >> murmurR
		k *= murmurM

		h ^= k
		h *= murmurM
	}

	tail := data[nBlocks*8:]
	if len(tail) > 0 {
		var k uint64
		for i := len(tail) - 1; i >= 0; i-- {
			k = (k << 8) | uint64(tail[i])
		}
		h ^= k
		h *= murmurM
	}

	h ^= h >> murmurR
	h *= murmurM
	h ^= h >> murmurR

	return h
}
