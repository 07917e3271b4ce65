// package services defines the interfaces used to talk to the Spotify Web API
package services

import (
	"context"

	"github.com/desertthunder/rewrapped/internal/models"
)

// OAuthService performs the authorization code flow for a music provider.
type OAuthService interface {
	// AuthURL builds the URL the user is redirected to, carrying the given state token.
	AuthURL(state string) string

	// Exchange trades an authorization code for a new [models.TokenRecord].
	Exchange(ctx context.Context, code string) (models.TokenRecord, error)

	// Refresh trades a refresh token for a new [models.TokenRecord].
	// Implementations must not retry.
	Refresh(ctx context.Context, refreshToken string) (models.TokenRecord, error)
}

// StatsService exposes the listening-history queries. Every call takes the token explicitly
// and returns the raw JSON payload so shaping stays a pure function of the response.
type StatsService interface {
	// TopTracks returns the raw "top tracks" envelope for the given time range.
	TopTracks(ctx context.Context, token models.TokenRecord, timeRange models.TimeRange, limit int) ([]byte, error)

	// TopArtists returns the raw "top artists" envelope for the given time range.
	TopArtists(ctx context.Context, token models.TokenRecord, timeRange models.TimeRange, limit int) ([]byte, error)

	// AudioFeatures returns the raw audio-features envelope for up to [MaxAudioFeatureIDs] track ids.
	AudioFeatures(ctx context.Context, token models.TokenRecord, ids []string) ([]byte, error)
}

// Service combines both halves with a provider name.
type Service interface {
	OAuthService
	StatsService

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}
