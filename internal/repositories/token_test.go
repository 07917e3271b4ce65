package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/rewrapped/internal/models"
	"github.com/desertthunder/rewrapped/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(context.Background(), db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func TestTokenRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Put And Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTokenRepository(db)
		rec := models.TokenRecord{
			AccessToken:  "access",
			RefreshToken: "refresh",
			ExpiresAt:    1_700_000_000,
			Scopes:       []string{"user-top-read", "user-library-read"},
		}

		if err := repo.Put(ctx, "session-1", rec); err != nil {
			t.Fatalf("failed to put token: %v", err)
		}

		got, err := repo.Get(ctx, "session-1")
		if err != nil {
			t.Fatalf("failed to get token: %v", err)
		}

		if got.AccessToken != rec.AccessToken || got.RefreshToken != rec.RefreshToken || got.ExpiresAt != rec.ExpiresAt {
			t.Errorf("expected %+v, got %+v", rec, got)
		}

		if len(got.Scopes) != 2 || got.Scopes[1] != "user-library-read" {
			t.Errorf("expected scopes to round trip, got %v", got.Scopes)
		}
	})

	t.Run("Upsert Replaces Row", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTokenRepository(db)
		repo.Put(ctx, "s", models.TokenRecord{AccessToken: "old", RefreshToken: "r", ExpiresAt: 1})
		if err := repo.Put(ctx, "s", models.TokenRecord{AccessToken: "new", RefreshToken: "r2", ExpiresAt: 2}); err != nil {
			t.Fatalf("failed to replace token: %v", err)
		}

		got, err := repo.Get(ctx, "s")
		if err != nil {
			t.Fatalf("failed to get token: %v", err)
		}
		if got.AccessToken != "new" || got.ExpiresAt != 2 || got.RefreshToken != "r2" {
			t.Errorf("expected replaced token, got %+v", got)
		}

		count, err := repo.Count(ctx)
		if err != nil {
			t.Fatalf("failed to count: %v", err)
		}
		if count != 1 {
			t.Errorf("expected 1 row, got %d", count)
		}
	})

	t.Run("Get Missing", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		_, err := NewTokenRepository(db).Get(ctx, "nobody")
		if !errors.Is(err, shared.ErrTokenMissing) {
			t.Errorf("expected ErrTokenMissing, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTokenRepository(db)
		repo.Put(ctx, "s", models.TokenRecord{AccessToken: "a"})

		if err := repo.Delete(ctx, "s"); err != nil {
			t.Fatalf("failed to delete: %v", err)
		}
		if _, err := repo.Get(ctx, "s"); !errors.Is(err, shared.ErrTokenMissing) {
			t.Errorf("expected ErrTokenMissing after delete, got %v", err)
		}
		if err := repo.Delete(ctx, "s"); err != nil {
			t.Errorf("deleting an unknown session should succeed, got %v", err)
		}
	})

	t.Run("Empty Session ID", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		if err := NewTokenRepository(db).Put(ctx, "", models.TokenRecord{}); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("PurgeStale", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTokenRepository(db)
		repo.Put(ctx, "a", models.TokenRecord{AccessToken: "a"})
		repo.Put(ctx, "b", models.TokenRecord{AccessToken: "b"})

		n, err := repo.PurgeStale(ctx, time.Now().Add(-time.Hour))
		if err != nil {
			t.Fatalf("failed to purge: %v", err)
		}
		if n != 0 {
			t.Errorf("expected nothing purged, got %d", n)
		}

		n, err = repo.PurgeStale(ctx, time.Now().Add(time.Hour))
		if err != nil {
			t.Fatalf("failed to purge: %v", err)
		}
		if n != 2 {
			t.Errorf("expected 2 purged, got %d", n)
		}
	})

	t.Run("Closed Database", func(t *testing.T) {
		db := setupTestDB(t)
		db.Close()

		repo := NewTokenRepository(db)
		if _, err := repo.Get(ctx, "s"); err == nil || errors.Is(err, shared.ErrTokenMissing) {
			t.Errorf("expected query error, got %v", err)
		}
		if err := repo.Put(ctx, "s", models.TokenRecord{}); err == nil {
			t.Error("expected upsert error")
		}
	})
}
