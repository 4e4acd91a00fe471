package game

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestNewCodeShape(t *testing.T) {
	ctx := context.Background()
	reg := NewMemoryRegistry()

	for i := 0; i < 100; i++ {
		code, err := NewCode(ctx, reg)
		if err != nil {
			t.Fatalf("generating code: %v", err)
		}
		if len(code) != 4 {
			t.Fatalf("expected 4-character code, got %q", code)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("expected numeric code, got %q", code)
			}
		}
	}
}

func TestNewCodeAvoidsCollisions(t *testing.T) {
	ctx := context.Background()
	reg := NewMemoryRegistry()

	// Occupy most of the code space, leaving a small gap to find.
	for i := 0; i < 10000; i++ {
		code := fmt.Sprintf("%04d", i)
		if code == "4242" {
			continue
		}
		if err := reg.Create(ctx, Room{Code: code}); err != nil {
			t.Fatalf("seeding registry: %v", err)
		}
	}

	// The retry budget makes this probabilistic, so accept either outcome:
	// the free code, or a clean exhaustion error. Never a duplicate.
	code, err := NewCode(ctx, reg)
	if err != nil {
		if !errors.Is(err, ErrCodeSpaceExhausted) {
			t.Fatalf("unexpected error: %v", err)
		}
		return
	}
	if code != "4242" {
		t.Fatalf("expected the only free code 4242, got %q", code)
	}
}

func TestNewCodeExhaustion(t *testing.T) {
	ctx := context.Background()
	reg := NewMemoryRegistry()

	for i := 0; i < 10000; i++ {
		if err := reg.Create(ctx, Room{Code: fmt.Sprintf("%04d", i)}); err != nil {
			t.Fatalf("seeding registry: %v", err)
		}
	}

	if _, err := NewCode(ctx, reg); !errors.Is(err, ErrCodeSpaceExhausted) {
		t.Fatalf("expected ErrCodeSpaceExhausted, got %v", err)
	}
}
