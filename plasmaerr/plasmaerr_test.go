package plasmaerr

import (
	"errors"
	"io"
	"testing"

	"github.com/ray-project/plasma-core/ids"
)

func TestErrorMessageIncludesObjectId(t *testing.T) {
	id, err := ids.FromRandomObjectId()
	if err != nil {
		t.Fatalf("FromRandomObjectId: %v", err)
	}
	pe := ObjectNotFoundErr(id)
	if pe.Error() == "" {
		t.Fatal("expected non-empty message")
	}
}

func TestIsMatchesByKind(t *testing.T) {
	id, err := ids.FromRandomObjectId()
	if err != nil {
		t.Fatalf("FromRandomObjectId: %v", err)
	}
	a := ObjectExistsErr(id)
	other, err2 := ids.FromRandomObjectId()
	if err2 != nil {
		t.Fatalf("FromRandomObjectId: %v", err2)
	}
	b := ObjectExistsErr(other)

	if !errors.Is(a, b) {
		t.Fatal("expected same-kind errors to match via errors.Is")
	}

	c := OutOfMemoryErr()
	if errors.Is(a, c) {
		t.Fatal("expected different-kind errors not to match")
	}
}

func TestIoErrorUnwrapsCause(t *testing.T) {
	wrapped := IoErrorErr("write failed", io.ErrClosedPipe)
	if !errors.Is(wrapped, io.ErrClosedPipe) {
		t.Fatal("expected IoError to unwrap to the original cause")
	}
}

func TestKindOf(t *testing.T) {
	id, err := ids.FromRandomObjectId()
	if err != nil {
		t.Fatalf("FromRandomObjectId: %v", err)
	}
	k, ok := KindOf(ObjectAlreadySealedErr(id))
	if !ok || k != ObjectAlreadySealed {
		t.Fatalf("KindOf = (%v, %v), want (ObjectAlreadySealed, true)", k, ok)
	}

	if _, ok := KindOf(errors.New("plain")); ok {
		t.Fatal("expected KindOf to report false for non-PlasmaError")
	}
}
