package clipboard

import (
	"errors"
	"testing"
)

func TestWrite(t *testing.T) {
	// Needs a desktop session; headless runs only check the error kind.
	err := Write("Photosynthesis summary")
	if err != nil {
		if !errors.Is(err, ErrUnavailable) {
			t.Fatalf("unexpected error kind: %v", err)
		}
		t.Skipf("clipboard not available: %v", err)
	}
}

func TestInitIsIdempotent(t *testing.T) {
	first := Init()
	if second := Init(); !errors.Is(second, first) && second != first {
		t.Fatalf("expected the same init result, got %v then %v", first, second)
	}
}
