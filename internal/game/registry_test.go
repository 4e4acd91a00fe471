package game

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryRegistry(t *testing.T) {
	ctx := context.Background()
	reg := NewMemoryRegistry()

	room := Room{Code: "1234", NumberOfChords: 3, CurrentChordIndex: 1}
	if err := reg.Create(ctx, room); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := reg.Get(ctx, "1234")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.NumberOfChords != 3 || got.CurrentChordIndex != 1 {
		t.Errorf("unexpected room: %+v", got)
	}

	ok, err := reg.Exists(ctx, "1234")
	if err != nil || !ok {
		t.Errorf("expected code 1234 to exist, ok=%v err=%v", ok, err)
	}

	got.CurrentChordIndex = 2
	if err := reg.Update(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = reg.Get(ctx, "1234")
	if got.CurrentChordIndex != 2 {
		t.Errorf("expected index 2 after update, got %d", got.CurrentChordIndex)
	}

	if err := reg.Remove(ctx, "1234"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := reg.Get(ctx, "1234"); !errors.Is(err, ErrInvalidCode) {
		t.Errorf("expected ErrInvalidCode after remove, got %v", err)
	}

	// Removing again is a no-op.
	if err := reg.Remove(ctx, "1234"); err != nil {
		t.Errorf("second remove should be idempotent, got %v", err)
	}
}

func TestMemoryRegistryGetUnknown(t *testing.T) {
	reg := NewMemoryRegistry()

	if _, err := reg.Get(context.Background(), "0000"); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}
}
