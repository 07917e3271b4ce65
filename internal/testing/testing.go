// package testing contains shared testing utilities
package testing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/rewrapped/internal/models"
)

// MockStatsService is a test double for services.StatsService returning canned payloads.
type MockStatsService struct {
	mu sync.Mutex

	TracksJSON   []byte
	ArtistsJSON  []byte
	FeaturesJSON []byte
	Err          error

	Calls      []string
	FeatureIDs []string
	Tokens     []models.TokenRecord
}

func (m *MockStatsService) record(call string, token models.TokenRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, call)
	m.Tokens = append(m.Tokens, token)
}

func (m *MockStatsService) TopTracks(ctx context.Context, token models.TokenRecord, tr models.TimeRange, limit int) ([]byte, error) {
	m.record("tracks:"+string(tr), token)
	return m.TracksJSON, m.Err
}

func (m *MockStatsService) TopArtists(ctx context.Context, token models.TokenRecord, tr models.TimeRange, limit int) ([]byte, error) {
	m.record("artists:"+string(tr), token)
	return m.ArtistsJSON, m.Err
}

func (m *MockStatsService) AudioFeatures(ctx context.Context, token models.TokenRecord, ids []string) ([]byte, error) {
	m.record("features", token)
	m.mu.Lock()
	m.FeatureIDs = append([]string(nil), ids...)
	m.mu.Unlock()
	return m.FeaturesJSON, m.Err
}

// CallCount returns how many calls were recorded.
func (m *MockStatsService) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MockOAuthService is a test double for services.OAuthService.
type MockOAuthService struct {
	Token       models.TokenRecord
	ExchangeErr error
	RefreshErr  error

	mu        sync.Mutex
	Codes     []string
	Refreshes int
}

func (m *MockOAuthService) AuthURL(state string) string {
	return "https://accounts.example.com/authorize?state=" + state
}

func (m *MockOAuthService) Exchange(ctx context.Context, code string) (models.TokenRecord, error) {
	m.mu.Lock()
	m.Codes = append(m.Codes, code)
	m.mu.Unlock()
	if m.ExchangeErr != nil {
		return models.TokenRecord{}, m.ExchangeErr
	}
	return m.Token, nil
}

func (m *MockOAuthService) Refresh(ctx context.Context, refreshToken string) (models.TokenRecord, error) {
	m.mu.Lock()
	m.Refreshes++
	m.mu.Unlock()
	if m.RefreshErr != nil {
		return models.TokenRecord{}, m.RefreshErr
	}
	return m.Token, nil
}

// TrackItem builds one item of a top tracks payload.
func TrackItem(id, name, album string, popularity int, artists ...string) map[string]any {
	names := make([]map[string]any, 0, len(artists))
	for _, a := range artists {
		names = append(names, map[string]any{"name": a})
	}
	return map[string]any{
		"id":         id,
		"name":       name,
		"popularity": popularity,
		"uri":        "spotify:track:" + id,
		"album": map[string]any{
			"name":   album,
			"images": []map[string]any{{"url": "https://i.scdn.co/image/" + id}},
		},
		"artists": names,
	}
}

// ArtistItem builds one item of a top artists payload.
func ArtistItem(id, name string, popularity int, genres ...string) map[string]any {
	if genres == nil {
		genres = []string{}
	}
	return map[string]any{
		"id":         id,
		"name":       name,
		"popularity": popularity,
		"genres":     genres,
		"images":     []map[string]any{{"url": "https://i.scdn.co/image/" + id}},
	}
}

// FeatureItem builds one entry of an audio-features payload.
func FeatureItem(id string, energy, tempo float64) map[string]any {
	return map[string]any{
		"id":               id,
		"danceability":     0.5,
		"energy":           energy,
		"speechiness":      0.05,
		"acousticness":     0.2,
		"instrumentalness": 0.0,
		"liveness":         0.1,
		"valence":          0.6,
		"key":              5,
		"mode":             1,
		"loudness":         -6.0,
		"tempo":            tempo,
		"time_signature":   4,
		"uri":              "spotify:track:" + id,
		"duration_ms":      200000,
	}
}

// Items wraps items in a {"items": [...]} envelope.
func Items(t *testing.T, items ...map[string]any) []byte {
	t.Helper()
	if items == nil {
		items = []map[string]any{}
	}
	return MustJSON(t, map[string]any{"items": items})
}

// Features wraps entries in an {"audio_features": [...]} envelope. Nil entries encode as null.
func Features(t *testing.T, entries ...map[string]any) []byte {
	t.Helper()
	out := make([]any, 0, len(entries))
	for _, e := range entries {
		if e == nil {
			out = append(out, nil)
			continue
		}
		out = append(out, e)
	}
	return MustJSON(t, map[string]any{"audio_features": out})
}

func MustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Failed to marshal JSON: %v", err)
	}
	return data
}

// FakeSpotify is an httptest server speaking the subset of the accounts and Web API used by the app.
type FakeSpotify struct {
	*httptest.Server

	mu            sync.Mutex
	TracksJSON    []byte
	ArtistsJSON   []byte
	FeaturesJSON  []byte
	TokenRequests int
}

// NewFakeSpotify starts a [FakeSpotify]; it is closed when the test ends.
func NewFakeSpotify(t *testing.T) *FakeSpotify {
	t.Helper()
	f := &FakeSpotify{}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)
	return f
}

// Exchanges returns how many token requests the server answered.
func (f *FakeSpotify) Exchanges() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.TokenRequests
}

func (f *FakeSpotify) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.URL.Path == "/api/token" {
		f.TokenRequests++
		r.ParseForm()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"access-%d","refresh_token":"refresh","token_type":"Bearer","expires_in":3600,"scope":"user-top-read"}`, f.TokenRequests)
		return
	}

	if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var body []byte
	switch r.URL.Path {
	case "/v1/me/top/tracks":
		body = f.TracksJSON
	case "/v1/me/top/artists":
		body = f.ArtistsJSON
	case "/v1/audio-features":
		body = f.FeaturesJSON
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

var _ io.ReadCloser = (*FCloser)(nil)

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
