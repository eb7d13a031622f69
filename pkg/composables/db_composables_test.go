package composables

import (
	"context"
	"errors"
	"testing"
)

func TestUsePool_Missing(t *testing.T) {
	t.Parallel()

	if _, err := UsePool(context.Background()); !errors.Is(err, ErrNoPool) {
		t.Fatalf("expected ErrNoPool, got %v", err)
	}
}

func TestUseTx_FallsBackToPool(t *testing.T) {
	t.Parallel()

	if _, err := UseTx(context.Background()); !errors.Is(err, ErrNoPool) {
		t.Fatalf("expected ErrNoPool without tx and pool, got %v", err)
	}
}

func TestInTx_NoPool(t *testing.T) {
	t.Parallel()

	called := false
	err := InTx(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrNoPool) {
		t.Fatalf("expected ErrNoPool, got %v", err)
	}
	if called {
		t.Fatalf("fn must not run without a pool")
	}
}
