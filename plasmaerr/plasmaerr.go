// Package plasmaerr defines the closed set of error kinds the object
// store core raises. Errors are values: no operation in this module
// panics on caller input.
package plasmaerr

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/ray-project/plasma-core/ids"
)

// Kind discriminates the closed set of failure modes this module raises.
type Kind int

const (
	// ObjectExists: insertion into the object map found a prior entry.
	ObjectExists Kind = iota
	// ObjectNotFound: a lookup by id missed.
	ObjectNotFound
	// ObjectAlreadySealed: a monotonic state violation (re-seal or abort
	// of a sealed object).
	ObjectAlreadySealed
	// ObjectNotSealed: the object is still in the Created state.
	ObjectNotSealed
	// OutOfMemory: local reclamation could not free enough primary-tier
	// capacity.
	OutOfMemory
	// TransientOutOfMemory: a temporary shortage on the fallback path;
	// retry is safe.
	TransientOutOfMemory
	// OutOfDisk: the fallback tier's backing storage is exhausted.
	OutOfDisk
	// InvalidRequest: a caller-contract violation (delete a pinned
	// object, allocate a zero-sized region, free an unknown allocation).
	InvalidRequest
	// IoError: an envelope for host-OS I/O failures from the fallback
	// tier.
	IoError
	// Unexpected: anything not covered by the other kinds.
	Unexpected
)

func (k Kind) String() string {
	switch k {
	case ObjectExists:
		return "ObjectExists"
	case ObjectNotFound:
		return "ObjectNotFound"
	case ObjectAlreadySealed:
		return "ObjectAlreadySealed"
	case ObjectNotSealed:
		return "ObjectNotSealed"
	case OutOfMemory:
		return "OutOfMemory"
	case TransientOutOfMemory:
		return "TransientOutOfMemory"
	case OutOfDisk:
		return "OutOfDisk"
	case InvalidRequest:
		return "InvalidRequest"
	case IoError:
		return "IoError"
	case Unexpected:
		return "Unexpected"
	default:
		return "Unknown"
	}
}

// PlasmaError is the single error type returned across this module's
// package boundaries.
type PlasmaError struct {
	Kind     Kind
	ObjectId *ids.ObjectId
	Msg      string
	cause    error
}

func (e *PlasmaError) Error() string {
	switch {
	case e.ObjectId != nil:
		return fmt.Sprintf("%s: %s", e.Kind, e.ObjectId.ToHex())
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	default:
		return e.Kind.String()
	}
}

// Unwrap exposes any wrapped underlying cause (e.g. a file I/O error) for
// errors.Is/errors.As.
func (e *PlasmaError) Unwrap() error {
	return e.cause
}

// Is lets errors.Is match on Kind alone, so callers can write
// errors.Is(err, plasmaerr.ObjectNotFoundErr(ids.ObjectId{})) style checks
// or, more idiomatically, compare via Kind after an errors.As.
func (e *PlasmaError) Is(target error) bool {
	other, ok := target.(*PlasmaError)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

func withObjectID(kind Kind, id ids.ObjectId) *PlasmaError {
	return &PlasmaError{Kind: kind, ObjectId: &id}
}

// ObjectExistsErr reports that id is already present in the store.
func ObjectExistsErr(id ids.ObjectId) *PlasmaError { return withObjectID(ObjectExists, id) }

// ObjectNotFoundErr reports a lookup miss for id.
func ObjectNotFoundErr(id ids.ObjectId) *PlasmaError { return withObjectID(ObjectNotFound, id) }

// ObjectAlreadySealedErr reports a monotonic-state violation on id.
func ObjectAlreadySealedErr(id ids.ObjectId) *PlasmaError {
	return withObjectID(ObjectAlreadySealed, id)
}

// ObjectNotSealedErr reports that id is still in the Created state.
func ObjectNotSealedErr(id ids.ObjectId) *PlasmaError { return withObjectID(ObjectNotSealed, id) }

// OutOfMemoryErr reports that the primary tier could not satisfy a
// request even after eviction.
func OutOfMemoryErr() *PlasmaError { return &PlasmaError{Kind: OutOfMemory} }

// TransientOutOfMemoryErr reports a temporary fallback-tier shortage.
func TransientOutOfMemoryErr() *PlasmaError { return &PlasmaError{Kind: TransientOutOfMemory} }

// OutOfDiskErr reports fallback-tier storage exhaustion.
func OutOfDiskErr() *PlasmaError { return &PlasmaError{Kind: OutOfDisk} }

// InvalidRequestErr reports a caller-contract violation with msg.
func InvalidRequestErr(msg string) *PlasmaError {
	return &PlasmaError{Kind: InvalidRequest, Msg: msg}
}

// IoErrorErr wraps cause (typically from the fallback tier's file I/O)
// into the IoError kind, preserving the original error via Unwrap.
func IoErrorErr(msg string, cause error) *PlasmaError {
	return &PlasmaError{Kind: IoError, Msg: msg, cause: errors.WithStack(cause)}
}

// UnexpectedErr wraps cause into the Unexpected kind.
func UnexpectedErr(msg string, cause error) *PlasmaError {
	return &PlasmaError{Kind: Unexpected, Msg: msg, cause: cause}
}

// KindOf extracts the Kind of err if it is a *PlasmaError, and false
// otherwise. Useful for callers that want to switch on kind without an
// errors.As boilerplate.
func KindOf(err error) (Kind, bool) {
	pe, ok := err.(*PlasmaError)
	if !ok {
		return 0, false
	}
	return pe.Kind, true
}
