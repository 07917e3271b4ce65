package session

import (
	"context"
	"errors"
	"testing"

	"github.com/desertthunder/rewrapped/internal/models"
	"github.com/desertthunder/rewrapped/internal/shared"
)

// storeContract runs the behavior every [Store] must share.
func storeContract(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("Get Missing", func(t *testing.T) {
		_, err := store.Get(ctx, "nobody")
		if !errors.Is(err, shared.ErrTokenMissing) {
			t.Errorf("expected ErrTokenMissing, got %v", err)
		}
	})

	t.Run("Put Then Get", func(t *testing.T) {
		rec := models.TokenRecord{AccessToken: "a", RefreshToken: "r", ExpiresAt: 1000, Scopes: []string{"user-top-read"}}
		if err := store.Put(ctx, "s1", rec); err != nil {
			t.Fatalf("Put() error = %v", err)
		}

		got, err := store.Get(ctx, "s1")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.AccessToken != "a" || got.RefreshToken != "r" || got.ExpiresAt != 1000 || len(got.Scopes) != 1 {
			t.Errorf("unexpected record %+v", got)
		}
	})

	t.Run("Put Replaces Whole Record", func(t *testing.T) {
		store.Put(ctx, "s2", models.TokenRecord{AccessToken: "old", RefreshToken: "r", ExpiresAt: 1, Scopes: []string{"x"}})
		store.Put(ctx, "s2", models.TokenRecord{AccessToken: "new", ExpiresAt: 2})

		got, err := store.Get(ctx, "s2")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.AccessToken != "new" || got.ExpiresAt != 2 || got.RefreshToken != "" || len(got.Scopes) != 0 {
			t.Errorf("expected replaced record, got %+v", got)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		store.Put(ctx, "s3", models.TokenRecord{AccessToken: "a"})
		if err := store.Delete(ctx, "s3"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if _, err := store.Get(ctx, "s3"); !errors.Is(err, shared.ErrTokenMissing) {
			t.Errorf("expected ErrTokenMissing after delete, got %v", err)
		}
		if err := store.Delete(ctx, "s3"); err != nil {
			t.Errorf("deleting twice should succeed, got %v", err)
		}
	})

	t.Run("Empty Session ID", func(t *testing.T) {
		if err := store.Put(ctx, "", models.TokenRecord{AccessToken: "a"}); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	storeContract(t, store)

	t.Run("Copies Scopes", func(t *testing.T) {
		ctx := context.Background()
		scopes := []string{"a", "b"}
		store.Put(ctx, "copy", models.TokenRecord{AccessToken: "x", Scopes: scopes})
		scopes[0] = "mutated"

		got, _ := store.Get(ctx, "copy")
		if got.Scopes[0] != "a" {
			t.Errorf("store should not share the caller's slice, got %v", got.Scopes)
		}

		got.Scopes[1] = "mutated"
		again, _ := store.Get(ctx, "copy")
		if again.Scopes[1] != "b" {
			t.Errorf("store should not share returned slices, got %v", again.Scopes)
		}
	})
}
