// Package services defines the [Service] interface for the music provider and implements it for Spotify.
//
// # Service Interface
//
// [Service] is split in two halves:
//   - [OAuthService] : authorize URL, code exchange, refresh exchange
//   - [StatsService] : top tracks, top artists, audio features
//
// # Spotify Implementation
//
// [SpotifyService] wraps an [oauth2.Config] for the token endpoints and a plain [http.Client] for data calls.
// It carries no mutable auth state: every data call receives a [models.TokenRecord], so token freshness is decided
// by the caller (see package session) rather than by a hidden auto-refreshing client.
//
// Data calls return raw JSON. Shaping into records happens in package stats, where missing fields are detected
// instead of being decoded into zero values.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrMissingCredentials] : client id or secret not configured
//   - [shared.ErrAuthFailed] : authorization code exchange failed
//   - [shared.ErrNoRefreshToken] : refresh requested without a refresh token
//   - [shared.ErrAPIRequest] : transport failure or non-2xx status (see [APIError])
//   - [shared.ErrTooManyIDs] : more than [MaxAudioFeatureIDs] ids in one audio-features call
package services
