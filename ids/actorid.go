package ids

import "encoding/hex"

// actorIdUniqueBytes is the portion of ActorId not occupied by its
// embedded JobId.
const actorIdUniqueBytes = 12

// ActorIdSize is the fixed width of an ActorId in bytes (unique ∥ JobId).
const ActorIdSize = actorIdUniqueBytes + JobIdSize

// ActorId is a 16-byte actor identifier: 12 unique bytes followed by an
// embedded JobId.
type ActorId struct {
	data [ActorIdSize]byte
	hash uint64
}

// NewActorId builds an ActorId from raw bytes, precomputing its hash.
func NewActorId(data [ActorIdSize]byte) ActorId {
	return ActorId{data: data, hash: murmurHash64A(data[:], 0)}
}

// NilActorId returns the nil ActorId (all 0xFF bytes).
func NilActorId() ActorId {
	var data [ActorIdSize]byte
	for i := range data {
		data[i] = 0xFF
	}
	return NewActorId(data)
}

// NilFromJob builds an ActorId whose unique bytes are all 0xFF and whose
// embedded JobId is job.
func NilFromJob(job JobId) ActorId {
	var data [ActorIdSize]byte
	for i := 0; i < actorIdUniqueBytes; i++ {
		data[i] = 0xFF
	}
	copy(data[actorIdUniqueBytes:], job.ToBinary())
	return NewActorId(data)
}

// JobId projects the embedded JobId back out.
func (a ActorId) JobId() JobId {
	var data [JobIdSize]byte
	copy(data[:], a.data[actorIdUniqueBytes:])
	return NewJobId(data)
}

// ActorIdFromBinary parses an ActorId from exactly ActorIdSize bytes.
func ActorIdFromBinary(b []byte) (ActorId, error) {
	if len(b) != ActorIdSize {
		return ActorId{}, &ErrInvalidLength{Want: ActorIdSize, Got: len(b)}
	}
	var data [ActorIdSize]byte
	copy(data[:], b)
	return NewActorId(data), nil
}

// ActorIdFromHex parses an ActorId from a lowercase hex string.
func ActorIdFromHex(s string) (ActorId, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return ActorId{}, &ErrInvalidHex{Cause: err}
	}
	return ActorIdFromBinary(b)
}

// ToBinary returns a fresh copy of the underlying bytes.
func (a ActorId) ToBinary() []byte {
	out := make([]byte, ActorIdSize)
	copy(out, a.data[:])
	return out
}

// ToHex renders the id as lowercase hex.
func (a ActorId) ToHex() string {
	return hex.EncodeToString(a.data[:])
}

// IsNil reports whether every byte is 0xFF.
func (a ActorId) IsNil() bool {
	for _, b := range a.data {
		if b != 0xFF {
			return false
		}
	}
	return true
}

// ComputeHash returns the precomputed MurmurHash64A(seed=0) of the id bytes.
func (a ActorId) ComputeHash() uint64 {
	return a.hash
}

// Equal compares full id bytes, not the precomputed hash.
func (a ActorId) Equal(other ActorId) bool {
	return a.data == other.data
}

func (a ActorId) String() string {
	return a.ToHex()
}
