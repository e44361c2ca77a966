package hunterrors

import (
	"fmt"
	"testing"
)

func TestIs_WrappedError(t *testing.T) {
	wrapped := fmt.Errorf("loading cache file: %w", ErrParse)
	if !Is(wrapped, ErrParse) {
		t.Errorf("expected Is(wrapped, ErrParse) to be true")
	}
	if Is(wrapped, ErrIO) {
		t.Errorf("expected Is(wrapped, ErrIO) to be false")
	}
}

func TestDistinctSentinels(t *testing.T) {
	if ErrParse == ErrIO || ErrIO == ErrConfig || ErrParse == ErrConfig {
		t.Errorf("expected ErrParse, ErrIO, ErrConfig to be distinct sentinels")
	}
}
