package ids

import (
	"crypto/rand"
	"encoding/hex"
)

// objectIdIndexBytes is the portion of ObjectId not occupied by its
// embedded TaskId.
const objectIdIndexBytes = 4

// ObjectIdSize is the fixed width of an ObjectId in bytes (index ∥ TaskId).
const ObjectIdSize = objectIdIndexBytes + TaskIdSize

// ObjectId is a 28-byte object identifier: a big-endian 4-byte index
// followed by an embedded TaskId. This is the primary key of the object
// store and the unit of identity threaded through the lifecycle manager
// and the LRU index (the allocator and the stats collector never see it).
type ObjectId struct {
	data [ObjectIdSize]byte
	hash uint64
}

// NewObjectId builds an ObjectId from raw bytes, precomputing its hash.
func NewObjectId(data [ObjectIdSize]byte) ObjectId {
	return ObjectId{data: data, hash: murmurHash64A(data[:], 0)}
}

// NilObjectId returns the nil ObjectId (all 0xFF bytes).
func NilObjectId() ObjectId {
	var data [ObjectIdSize]byte
	for i := range data {
		data[i] = 0xFF
	}
	return NewObjectId(data)
}

// FromIndex composes an ObjectId from a TaskId and an index, in
// big-endian index ∥ task_id byte order.
func FromIndex(taskId TaskId, index uint32) ObjectId {
	var data [ObjectIdSize]byte
	data[0] = byte(index >> 24)
	data[1] = byte(index >> 16)
	data[2] = byte(index >> 8)
	data[3] = byte(index)
	copy(data[objectIdIndexBytes:], taskId.ToBinary())
	return NewObjectId(data)
}

// ObjectIndex decodes the big-endian index prefix.
func (o ObjectId) ObjectIndex() uint32 {
	return uint32(o.data[0])<<24 | uint32(o.data[1])<<16 | uint32(o.data[2])<<8 | uint32(o.data[3])
}

// TaskId projects the embedded TaskId back out.
func (o ObjectId) TaskId() TaskId {
	var data [TaskIdSize]byte
	copy(data[:], o.data[objectIdIndexBytes:])
	return NewTaskId(data)
}

// FromRandomObjectId builds an ObjectId with fully random bytes. Intended
// for tests and scenarios that don't need a structural task/index
// relationship.
func FromRandomObjectId() (ObjectId, error) {
	var data [ObjectIdSize]byte
	if _, err := rand.Read(data[:]); err != nil {
		return ObjectId{}, err
	}
	return NewObjectId(data), nil
}

// ObjectIdFromBinary parses an ObjectId from exactly ObjectIdSize bytes.
func ObjectIdFromBinary(b []byte) (ObjectId, error) {
	if len(b) != ObjectIdSize {
		return ObjectId{}, &ErrInvalidLength{Want: ObjectIdSize, Got: len(b)}
	}
	var data [ObjectIdSize]byte
	copy(data[:], b)
	return NewObjectId(data), nil
}

// ObjectIdFromHex parses an ObjectId from a lowercase hex string.
func ObjectIdFromHex(s string) (ObjectId, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return ObjectId{}, &ErrInvalidHex{Cause: err}
	}
	return ObjectIdFromBinary(b)
}

// ToBinary returns a fresh copy of the underlying bytes.
func (o ObjectId) ToBinary() []byte {
	out := make([]byte, ObjectIdSize)
	copy(out, o.data[:])
	return out
}

// ToHex renders the id as lowercase hex.
func (o ObjectId) ToHex() string {
	return hex.EncodeToString(o.data[:])
}

// IsNil reports whether every byte is 0xFF.
func (o ObjectId) IsNil() bool {
	for _, b := range o.data {
		if b != 0xFF {
			return false
		}
	}
	return true
}

// ComputeHash returns the precomputed MurmurHash64A(seed=0) of the id bytes.
func (o ObjectId) ComputeHash() uint64 {
	return o.hash
}

// Equal compares full id bytes, not the precomputed hash.
func (o ObjectId) Equal(other ObjectId) bool {
	return o.data == other.data
}

func (o ObjectId) String() string {
	return o.ToHex()
}
