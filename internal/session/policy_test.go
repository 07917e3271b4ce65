package session

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/rewrapped/internal/models"
	"github.com/desertthunder/rewrapped/internal/shared"
)

type fakeRefresher struct {
	calls atomic.Int32
	delay time.Duration
	next  models.TokenRecord
	err   error
}

func (f *fakeRefresher) Refresh(ctx context.Context, refreshToken string) (models.TokenRecord, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return models.TokenRecord{}, f.err
	}
	return f.next, nil
}

var epoch = time.Unix(1_700_000_000, 0)

func newTestPolicy(store Store, r Refresher) *Policy {
	return NewPolicy(store, r, &PolicyOpts{
		Logger: shared.NewLogger(io.Discard),
		Now:    func() time.Time { return epoch },
	})
}

func TestNeedsRefresh(t *testing.T) {
	tests := []struct {
		name      string
		expiresIn int64
		want      bool
	}{
		{"Far Future", 3600, false},
		{"Margin Plus One", 61, false},
		{"Exactly At Margin", 60, false},
		{"Margin Minus One", 59, true},
		{"Expired", -10, true},
		{"Zero", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := models.TokenRecord{AccessToken: "a", ExpiresAt: epoch.Unix() + tt.expiresIn}
			if got := NeedsRefresh(rec, epoch); got != tt.want {
				t.Errorf("NeedsRefresh(expires in %ds) = %v, want %v", tt.expiresIn, got, tt.want)
			}
		})
	}
}

func TestPolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("Token Missing", func(t *testing.T) {
		p := newTestPolicy(NewMemoryStore(), &fakeRefresher{})
		if _, err := p.Token(ctx, "nobody"); !errors.Is(err, shared.ErrTokenMissing) {
			t.Errorf("expected ErrTokenMissing, got %v", err)
		}
	})

	t.Run("Fresh Token Unchanged", func(t *testing.T) {
		store := NewMemoryStore()
		rec := models.TokenRecord{AccessToken: "a", RefreshToken: "r", ExpiresAt: epoch.Unix() + 60}
		store.Put(ctx, "s", rec)
		r := &fakeRefresher{}

		got, err := newTestPolicy(store, r).Token(ctx, "s")
		if err != nil {
			t.Fatalf("Token() error = %v", err)
		}
		if got.AccessToken != "a" || got.ExpiresAt != rec.ExpiresAt {
			t.Errorf("expected unchanged record, got %+v", got)
		}
		if r.calls.Load() != 0 {
			t.Errorf("expected no refresh at the boundary, got %d", r.calls.Load())
		}
	})

	t.Run("Refreshes Near Expiry", func(t *testing.T) {
		store := NewMemoryStore()
		store.Put(ctx, "s", models.TokenRecord{AccessToken: "old", RefreshToken: "r", ExpiresAt: epoch.Unix() + 59, Scopes: []string{"user-top-read"}})
		r := &fakeRefresher{next: models.TokenRecord{AccessToken: "new", ExpiresAt: epoch.Unix() + 3600}}

		got, err := newTestPolicy(store, r).Token(ctx, "s")
		if err != nil {
			t.Fatalf("Token() error = %v", err)
		}
		if got.AccessToken != "new" || got.ExpiresAt != epoch.Unix()+3600 {
			t.Errorf("expected refreshed record, got %+v", got)
		}
		if got.RefreshToken != "r" || len(got.Scopes) != 1 {
			t.Errorf("expected refresh token and scopes carried over, got %+v", got)
		}

		stored, _ := store.Get(ctx, "s")
		if stored.AccessToken != "new" || stored.ExpiresAt != got.ExpiresAt {
			t.Errorf("expected store to hold the new record, got %+v", stored)
		}
		if r.calls.Load() != 1 {
			t.Errorf("expected one refresh, got %d", r.calls.Load())
		}
	})

	t.Run("Refresh Failure", func(t *testing.T) {
		store := NewMemoryStore()
		old := models.TokenRecord{AccessToken: "old", RefreshToken: "r", ExpiresAt: epoch.Unix() - 1}
		store.Put(ctx, "s", old)
		r := &fakeRefresher{err: errors.New("invalid_grant")}

		_, err := newTestPolicy(store, r).Token(ctx, "s")
		if !errors.Is(err, shared.ErrRefreshFailed) {
			t.Fatalf("expected ErrRefreshFailed, got %v", err)
		}
		if errors.Is(err, shared.ErrTokenMissing) {
			t.Error("refresh failure should stay distinct from a missing token")
		}
		if r.calls.Load() != 1 {
			t.Errorf("expected no retry, got %d calls", r.calls.Load())
		}

		stored, _ := store.Get(ctx, "s")
		if stored.AccessToken != "old" {
			t.Errorf("failed refresh should leave the record alone, got %+v", stored)
		}
	})

	t.Run("Concurrent Requests Refresh Once", func(t *testing.T) {
		store := NewMemoryStore()
		store.Put(ctx, "s", models.TokenRecord{AccessToken: "old", RefreshToken: "r", ExpiresAt: epoch.Unix()})
		r := &fakeRefresher{
			delay: 20 * time.Millisecond,
			next:  models.TokenRecord{AccessToken: "new", RefreshToken: "r2", ExpiresAt: epoch.Unix() + 3600},
		}
		p := newTestPolicy(store, r)

		var wg sync.WaitGroup
		results := make([]models.TokenRecord, 8)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				rec, err := p.Token(ctx, "s")
				if err != nil {
					t.Errorf("Token() error = %v", err)
				}
				results[i] = rec
			}(i)
		}
		wg.Wait()

		if r.calls.Load() != 1 {
			t.Errorf("expected a single refresh, got %d", r.calls.Load())
		}
		for i, rec := range results {
			if rec.AccessToken != "new" || rec.ExpiresAt != epoch.Unix()+3600 {
				t.Errorf("result %d: expected new record, got %+v", i, rec)
			}
		}
		if len(p.locks) != 0 {
			t.Errorf("expected lock map to be empty, got %d entries", len(p.locks))
		}
	})

	t.Run("Different Sessions Do Not Share", func(t *testing.T) {
		store := NewMemoryStore()
		store.Put(ctx, "a", models.TokenRecord{AccessToken: "a", RefreshToken: "ra", ExpiresAt: epoch.Unix()})
		store.Put(ctx, "b", models.TokenRecord{AccessToken: "b", RefreshToken: "rb", ExpiresAt: epoch.Unix()})
		r := &fakeRefresher{next: models.TokenRecord{AccessToken: "n", ExpiresAt: epoch.Unix() + 3600}}
		p := newTestPolicy(store, r)

		p.Token(ctx, "a")
		p.Token(ctx, "b")
		if r.calls.Load() != 2 {
			t.Errorf("expected one refresh per session, got %d", r.calls.Load())
		}
	})

	t.Run("Cancelled While Waiting", func(t *testing.T) {
		store := NewMemoryStore()
		store.Put(ctx, "s", models.TokenRecord{AccessToken: "old", RefreshToken: "r", ExpiresAt: epoch.Unix()})
		p := newTestPolicy(store, &fakeRefresher{})

		unlock, err := p.lock(ctx, "s")
		if err != nil {
			t.Fatalf("lock() error = %v", err)
		}
		defer unlock()

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := p.Token(cctx, "s"); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("Store And Clear", func(t *testing.T) {
		p := newTestPolicy(NewMemoryStore(), &fakeRefresher{})
		if err := p.Store(ctx, "s", models.TokenRecord{AccessToken: "a", ExpiresAt: epoch.Unix() + 3600}); err != nil {
			t.Fatalf("Store() error = %v", err)
		}
		if _, err := p.Token(ctx, "s"); err != nil {
			t.Errorf("Token() error = %v", err)
		}
		if err := p.Clear(ctx, "s"); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}
		if _, err := p.Token(ctx, "s"); !IsReauth(err) {
			t.Errorf("expected reauth error, got %v", err)
		}
	})
}
