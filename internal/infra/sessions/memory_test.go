package sessions

import (
	"context"
	"testing"

	"tg-sleep-bot/internal/domain"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	sess, err := store.Get(ctx, 42)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !sess.Idle() {
		t.Fatal("expected a missing session to read as idle")
	}

	if err := store.Put(ctx, 42, domain.Session{State: domain.StateForm}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	sess, _ = store.Get(ctx, 42)
	if sess.State != domain.StateForm {
		t.Fatalf("expected the stored state, got %q", sess.State)
	}

	if err := store.Delete(ctx, 42); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	sess, _ = store.Get(ctx, 42)
	if !sess.Idle() {
		t.Fatal("expected delete to reset the session")
	}
}
