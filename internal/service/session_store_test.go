package service

import (
	"context"
	"testing"
	"time"
)

func TestMemoryValidationSessionStore_TakeIsSingleUse(t *testing.T) {
	store := NewMemoryValidationSessionStore(time.Hour)
	ctx := context.Background()

	if err := store.SetValidated(ctx, "u1"); err != nil {
		t.Fatalf("set validated: %v", err)
	}

	ok, err := store.TakeValidated(ctx, "u1")
	if err != nil {
		t.Fatalf("take validated: %v", err)
	}
	if !ok {
		t.Fatalf("expected marker on first take")
	}

	ok, err = store.TakeValidated(ctx, "u1")
	if err != nil {
		t.Fatalf("take validated again: %v", err)
	}
	if ok {
		t.Fatalf("expected marker to be consumed by first take")
	}
}

func TestMemoryValidationSessionStore_UnknownUser(t *testing.T) {
	store := NewMemoryValidationSessionStore(time.Hour)

	ok, err := store.TakeValidated(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("take validated: %v", err)
	}
	if ok {
		t.Fatalf("expected no marker for unknown user")
	}
}

func TestMemoryValidationSessionStore_Expiry(t *testing.T) {
	store := NewMemoryValidationSessionStore(time.Nanosecond)
	ctx := context.Background()

	if err := store.SetValidated(ctx, "u1"); err != nil {
		t.Fatalf("set validated: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	ok, err := store.TakeValidated(ctx, "u1")
	if err != nil {
		t.Fatalf("take validated: %v", err)
	}
	if ok {
		t.Fatalf("expected expired marker to be rejected")
	}
}

func TestMemoryValidationSessionStore_IgnoresBlankUser(t *testing.T) {
	store := NewMemoryValidationSessionStore(time.Hour)
	ctx := context.Background()

	if err := store.SetValidated(ctx, "  "); err != nil {
		t.Fatalf("set validated: %v", err)
	}
	ok, err := store.TakeValidated(ctx, "  ")
	if err != nil {
		t.Fatalf("take validated: %v", err)
	}
	if ok {
		t.Fatalf("expected blank user ids to never be marked")
	}
}
