// Spotify API implementation of [Service]
//
// Endpoints based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/rewrapped/internal/models"
	"github.com/desertthunder/rewrapped/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// MaxAudioFeatureIDs is the largest id list accepted by the audio-features endpoint.
	MaxAudioFeatureIDs = 50
)

// DefaultScopes are requested when the credentials do not name any.
var DefaultScopes = []string{
	"user-top-read",
	"user-read-recently-played",
	"user-library-read",
}

// SpotifyOpts overrides transport details of a [SpotifyService]. The zero value targets the public Spotify API.
type SpotifyOpts struct {
	HTTPClient *http.Client
	BaseURL    string
	Endpoint   *oauth2.Endpoint
	Scopes     []string
}

// SpotifyService implements [Service] for the Spotify Web API.
//
// It holds no per-user state: tokens are passed to every call.
type SpotifyService struct {
	config     *oauth2.Config
	httpClient *http.Client
	baseURL    string
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string, opts *SpotifyOpts) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://127.0.0.1:3000/"
	}

	if opts == nil {
		opts = &SpotifyOpts{}
	}

	endpoint := oauth2.Endpoint{
		AuthURL:   spotifyAuthURL,
		TokenURL:  spotifyTokenURL,
		AuthStyle: oauth2.AuthStyleInHeader,
	}
	if opts.Endpoint != nil {
		endpoint = *opts.Endpoint
	}

	scopes := opts.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = spotifyBaseURL
	}

	return &SpotifyService{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       scopes,
			Endpoint:     endpoint,
		},
		httpClient: httpClient,
		baseURL:    baseURL,
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// AuthURL returns the authorization URL. The consent dialog is always shown so users can switch accounts.
func (s *SpotifyService) AuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.SetAuthURLParam("show_dialog", "true"))
}

// Exchange trades an authorization code for tokens.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (models.TokenRecord, error) {
	if code == "" {
		return models.TokenRecord{}, fmt.Errorf("%w: empty authorization code", shared.ErrInvalidArgument)
	}

	tok, err := s.config.Exchange(s.withClient(ctx), code)
	if err != nil {
		return models.TokenRecord{}, fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
	}

	return TokenRecordFrom(tok), nil
}

// Refresh trades a refresh token for a new access token.
//
// Spotify may omit the refresh token from the response, in which case the previous one is kept.
func (s *SpotifyService) Refresh(ctx context.Context, refreshToken string) (models.TokenRecord, error) {
	if refreshToken == "" {
		return models.TokenRecord{}, shared.ErrNoRefreshToken
	}

	// A token without an access token is never valid, so the source always hits the token endpoint.
	src := s.config.TokenSource(s.withClient(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return models.TokenRecord{}, fmt.Errorf("failed to refresh token: %w", err)
	}

	return TokenRecordFrom(tok), nil
}

// TopTracks fetches GET /me/top/tracks.
func (s *SpotifyService) TopTracks(ctx context.Context, token models.TokenRecord, timeRange models.TimeRange, limit int) ([]byte, error) {
	return s.top(ctx, token, "tracks", timeRange, limit)
}

// TopArtists fetches GET /me/top/artists.
func (s *SpotifyService) TopArtists(ctx context.Context, token models.TokenRecord, timeRange models.TimeRange, limit int) ([]byte, error) {
	return s.top(ctx, token, "artists", timeRange, limit)
}

func (s *SpotifyService) top(ctx context.Context, token models.TokenRecord, kind string, timeRange models.TimeRange, limit int) ([]byte, error) {
	if _, err := models.ParseTimeRange(string(timeRange)); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidTimeRange, err)
	}
	if limit <= 0 || limit > 50 {
		limit = 50
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("time_range", string(timeRange))

	return s.doRequest(ctx, token, "/me/top/"+kind, query)
}

// AudioFeatures fetches GET /audio-features for at most [MaxAudioFeatureIDs] ids.
func (s *SpotifyService) AudioFeatures(ctx context.Context, token models.TokenRecord, ids []string) ([]byte, error) {
	if len(ids) == 0 {
		return []byte(`{"audio_features":[]}`), nil
	}
	if len(ids) > MaxAudioFeatureIDs {
		return nil, fmt.Errorf("%w: %d ids, maximum %d", shared.ErrTooManyIDs, len(ids), MaxAudioFeatureIDs)
	}

	query := url.Values{}
	query.Set("ids", strings.Join(ids, ","))

	return s.doRequest(ctx, token, "/audio-features", query)
}

// doRequest performs an authenticated GET against the Spotify API and returns the response body.
func (s *SpotifyService) doRequest(ctx context.Context, token models.TokenRecord, endpoint string, query url.Values) ([]byte, error) {
	if token.IsZero() {
		return nil, shared.ErrTokenMissing
	}

	apiURL := s.baseURL + endpoint
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", shared.ErrAPIRequest, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Endpoint: endpoint, Body: string(body)}
	}

	return body, nil
}

// withClient makes the oauth2 package use the service's HTTP client (and its timeout).
func (s *SpotifyService) withClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}

// APIError is returned for non-2xx responses of the Spotify API.
type APIError struct {
	StatusCode int
	Endpoint   string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%v: %s returned status %d", shared.ErrAPIRequest, e.Endpoint, e.StatusCode)
}

// Unwrap lets callers match the error with errors.Is(err, shared.ErrAPIRequest).
func (e *APIError) Unwrap() error {
	return shared.ErrAPIRequest
}

// TokenRecordFrom converts an [oauth2.Token] into a [models.TokenRecord].
//
// The expiry is absolute: oauth2 derives it from the "expires_in" of the token response.
func TokenRecordFrom(tok *oauth2.Token) models.TokenRecord {
	rec := models.TokenRecord{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
	}
	if !tok.Expiry.IsZero() {
		rec.ExpiresAt = tok.Expiry.Unix()
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		rec.Scopes = strings.Fields(scope)
	}
	return rec
}

// NewHTTPClient returns an HTTP client with the given timeout; zero means no timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
