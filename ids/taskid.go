package ids

import (
	"crypto/rand"
	"encoding/hex"
)

// taskIdUniqueBytes is the portion of TaskId not occupied by its embedded
// ActorId. An actor-creation task is distinguished by these bytes being
// all zero.
const taskIdUniqueBytes = 8

// TaskIdSize is the fixed width of a TaskId in bytes (unique ∥ ActorId).
const TaskIdSize = taskIdUniqueBytes + ActorIdSize

// TaskId is a 24-byte task identifier: 8 unique bytes followed by an
// embedded ActorId.
type TaskId struct {
	data [TaskIdSize]byte
	hash uint64
}

// NewTaskId builds a TaskId from raw bytes, precomputing its hash.
func NewTaskId(data [TaskIdSize]byte) TaskId {
	return TaskId{data: data, hash: murmurHash64A(data[:], 0)}
}

// NilTaskId returns the nil TaskId (all 0xFF bytes).
func NilTaskId() TaskId {
	var data [TaskIdSize]byte
	for i := range data {
		data[i] = 0xFF
	}
	return NewTaskId(data)
}

// ActorId projects the embedded ActorId back out.
func (t TaskId) ActorId() ActorId {
	var data [ActorIdSize]byte
	copy(data[:], t.data[taskIdUniqueBytes:])
	return NewActorId(data)
}

// JobId projects the embedded JobId (via ActorId) back out.
func (t TaskId) JobId() JobId {
	return t.ActorId().JobId()
}

// IsForActorCreationTask reports whether the unique bytes are all zero,
// the marker for an actor-creation task.
func (t TaskId) IsForActorCreationTask() bool {
	for i := 0; i < taskIdUniqueBytes; i++ {
		if t.data[i] != 0 {
			return false
		}
	}
	return true
}

// ForActorCreationTask builds the TaskId for actorId's creation task: zero
// unique bytes followed by the actor id.
func ForActorCreationTask(actorId ActorId) TaskId {
	var data [TaskIdSize]byte
	copy(data[taskIdUniqueBytes:], actorId.ToBinary())
	return NewTaskId(data)
}

// FromRandomTaskId builds a TaskId with random unique bytes embedding the nil
// actor id derived from job.
func FromRandomTaskId(job JobId) (TaskId, error) {
	var data [TaskIdSize]byte
	if _, err := rand.Read(data[:taskIdUniqueBytes]); err != nil {
		return TaskId{}, err
	}
	actorId := NilFromJob(job)
	copy(data[taskIdUniqueBytes:], actorId.ToBinary())
	return NewTaskId(data), nil
}

// TaskIdFromBinary parses a TaskId from exactly TaskIdSize bytes.
func TaskIdFromBinary(b []byte) (TaskId, error) {
	if len(b) != TaskIdSize {
		return TaskId{}, &ErrInvalidLength{Want: TaskIdSize, Got: len(b)}
	}
	var data [TaskIdSize]byte
	copy(data[:], b)
	return NewTaskId(data), nil
}

// TaskIdFromHex parses a TaskId from a lowercase hex string.
func TaskIdFromHex(s string) (TaskId, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return TaskId{}, &ErrInvalidHex{Cause: err}
	}
	return TaskIdFromBinary(b)
}

// ToBinary returns a fresh copy of the underlying bytes.
func (t TaskId) ToBinary() []byte {
	out := make([]byte, TaskIdSize)
	copy(out, t.data[:])
	return out
}

// ToHex renders the id as lowercase hex.
func (t TaskId) ToHex() string {
	return hex.EncodeToString(t.data[:])
}

// IsNil reports whether every byte is 0xFF.
func (t TaskId) IsNil() bool {
	for _, b := range t.data {
		if b != 0xFF {
			return false
		}
	}
	return true
}

// ComputeHash returns the precomputed MurmurHash64A(seed=0) of the id bytes.
func (t TaskId) ComputeHash() uint64 {
	return t.hash
}

// Equal compares full id bytes, not the precomputed hash.
func (t TaskId) Equal(other TaskId) bool {
	return t.data == other.data
}

func (t TaskId) String() string {
	return t.ToHex()
}
