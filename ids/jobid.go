package ids

import "encoding/hex"

// JobIdSize is the fixed width of a JobId in bytes.
const JobIdSize = 4

// JobId is a big-endian 4-byte job identifier.
type JobId struct {
	data [JobIdSize]byte
	hash uint64
}

// NewJobId builds a JobId from raw bytes, precomputing its hash.
func NewJobId(data [JobIdSize]byte) JobId {
	return JobId{data: data, hash: murmurHash64A(data[:], 0)}
}

// NilJobId returns the nil JobId (all 0xFF bytes).
func NilJobId() JobId {
	var data [JobIdSize]byte
	for i := range data {
		data[i] = 0xFF
	}
	return NewJobId(data)
}

// JobIdFromInt builds a JobId from a big-endian encoded uint32.
func JobIdFromInt(v uint32) JobId {
	return NewJobId([JobIdSize]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
}

// ToInt decodes the JobId as a big-endian uint32.
func (j JobId) ToInt() uint32 {
	return uint32(j.data[0])<<24 | uint32(j.data[1])<<16 | uint32(j.data[2])<<8 | uint32(j.data[3])
}

// JobIdFromBinary parses a JobId from exactly JobIdSize bytes.
func JobIdFromBinary(b []byte) (JobId, error) {
	if len(b) != JobIdSize {
		return JobId{}, &ErrInvalidLength{Want: JobIdSize, Got: len(b)}
	}
	var data [JobIdSize]byte
	copy(data[:], b)
	return NewJobId(data), nil
}

// JobIdFromHex parses a JobId from a lowercase hex string.
func JobIdFromHex(s string) (JobId, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return JobId{}, &ErrInvalidHex{Cause: err}
	}
	return JobIdFromBinary(b)
}

// ToBinary returns a fresh copy of the underlying bytes.
func (j JobId) ToBinary() []byte {
	out := make([]byte, JobIdSize)
	copy(out, j.data[:])
	return out
}

// ToHex renders the id as lowercase hex.
func (j JobId) ToHex() string {
	return hex.EncodeToString(j.data[:])
}

// IsNil reports whether every byte is 0xFF.
func (j JobId) IsNil() bool {
	for _, b := range j.data {
		if b != 0xFF {
			return false
		}
	}
	return true
}

// ComputeHash returns the precomputed MurmurHash64A(seed=0) of the id bytes.
func (j JobId) ComputeHash() uint64 {
	return j.hash
}

// Equal compares full id bytes, not the precomputed hash.
func (j JobId) Equal(other JobId) bool {
	return j.data == other.data
}

func (j JobId) String() string {
	return j.ToHex()
}
