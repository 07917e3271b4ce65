// Package models defines the records passed between the token lifecycle, the Spotify client, and the
// statistics pipeline.
//
// The package contains two categories of types:
//
// 1. Session state
//   - [TokenRecord] : OAuth access/refresh token pair with its absolute expiry
//
// 2. Shaped API data
//   - [TrackRecord] : One entry of the user's top tracks
//   - [ArtistRecord] : One entry of the user's top artists
//   - [AudioFeatureRecord] : Per-track audio descriptors computed by Spotify
//   - [MergedTrackView] : A track joined with its audio features
//   - [GenreCount] : One row of the genre-word frequency table
//
// Query parameters accepted by the web app are modelled as [TimeRange] and [SearchKind].
package models
