package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/rewrapped/internal/models"
	"github.com/desertthunder/rewrapped/internal/shared"
)

type fakeExchanger struct {
	token models.TokenRecord
	err   error
	codes []string
}

func (f *fakeExchanger) Exchange(ctx context.Context, code string) (models.TokenRecord, error) {
	f.codes = append(f.codes, code)
	return f.token, f.err
}

func TestOAuthHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		ex := &fakeExchanger{token: models.TokenRecord{AccessToken: "a", RefreshToken: "r"}}
		h := NewOAuthHandler(ex, "xyz", "")

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?state=xyz&code=abc", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		res := <-h.Result()
		if res.Error() != nil {
			t.Fatalf("unexpected error %v", res.Error())
		}
		if res.Token.AccessToken != "a" || len(ex.codes) != 1 || ex.codes[0] != "abc" {
			t.Errorf("unexpected result %+v (codes %v)", res.Token, ex.codes)
		}

		if _, open := <-h.Result(); open {
			t.Error("result channel should be closed after one result")
		}
	})

	t.Run("Invalid State", func(t *testing.T) {
		h := NewOAuthHandler(&fakeExchanger{}, "xyz", "/")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?state=nope&code=abc", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		res := <-h.Result()
		if !errors.Is(res.Error(), shared.ErrInvalidState) {
			t.Errorf("expected ErrInvalidState, got %v", res.Error())
		}
	})

	t.Run("Denied", func(t *testing.T) {
		h := NewOAuthHandler(&fakeExchanger{}, "xyz", "/")
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/?state=xyz&error=access_denied", nil))

		res := <-h.Result()
		if !errors.Is(res.Error(), shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", res.Error())
		}
	})

	t.Run("Exchange Failure", func(t *testing.T) {
		h := NewOAuthHandler(&fakeExchanger{err: shared.ErrAuthFailed}, "xyz", "/")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?state=xyz&code=abc", nil))

		if rec.Code != http.StatusBadGateway {
			t.Errorf("expected 502, got %d", rec.Code)
		}
		if res := <-h.Result(); res.Error() == nil {
			t.Error("expected exchange error")
		}
	})

	t.Run("Only Once", func(t *testing.T) {
		h := NewOAuthHandler(&fakeExchanger{}, "xyz", "/")
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/?state=xyz&code=abc", nil))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?state=xyz&code=abc", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected replay to be rejected, got %d", rec.Code)
		}
	})

	t.Run("Other Paths", func(t *testing.T) {
		h := NewOAuthHandler(&fakeExchanger{}, "xyz", "/")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/favicon.ico", nil))

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
		select {
		case <-h.Result():
			t.Error("unrelated request should not complete the flow")
		default:
		}
	})
}
