// package models defines the data model for the listening statistics web app
package models

import (
	"fmt"
	"time"
)

// TokenRecord holds the OAuth tokens for one session.
//
// ExpiresAt is the server-reported absolute expiry of AccessToken in unix seconds.
// Stores replace the whole record at once; the fields are never updated independently.
type TokenRecord struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresAt    int64    `json:"expires_at"`
	Scopes       []string `json:"scopes"`
}

// IsZero reports whether the record carries no access token.
func (t TokenRecord) IsZero() bool {
	return t.AccessToken == ""
}

// ExpiresIn returns the number of seconds left before the access token expires, relative to now.
func (t TokenRecord) ExpiresIn(now time.Time) int64 {
	return t.ExpiresAt - now.Unix()
}

// Clone returns a copy that shares no memory with t.
func (t TokenRecord) Clone() TokenRecord {
	c := t
	if t.Scopes != nil {
		c.Scopes = append([]string(nil), t.Scopes...)
	}
	return c
}

// TrackRecord is one shaped entry of the user's top tracks.
type TrackRecord struct {
	Song          string   `json:"song"`
	Album         string   `json:"album"`
	Artists       []string `json:"artists"`
	ID            string   `json:"id"`
	Popularity    int      `json:"popularity"`
	CoverImageURL string   `json:"img"`
}

// ArtistRecord is one shaped entry of the user's top artists.
//
// Genres are the free-text labels as returned by Spotify (e.g. "indie pop").
type ArtistRecord struct {
	Artist     string   `json:"artist"`
	Genres     []string `json:"genres"`
	ID         string   `json:"id"`
	Popularity int      `json:"popularity"`
	ImageURL   string   `json:"images"`
}

// AudioFeatureRecord holds the audio descriptors of a single track.
type AudioFeatureRecord struct {
	ID               string  `json:"id"`
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Speechiness      float64 `json:"speechiness"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Liveness         float64 `json:"liveness"`
	Valence          float64 `json:"valence"`
	Key              int     `json:"key"`
	Mode             int     `json:"mode"`
	Loudness         float64 `json:"loudness"`
	Tempo            float64 `json:"tempo"`
	TimeSignature    int     `json:"time_signature"`
}

// MergedTrackView is a [TrackRecord] joined with its [AudioFeatureRecord] on ID.
type MergedTrackView struct {
	TrackRecord
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Speechiness      float64 `json:"speechiness"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Liveness         float64 `json:"liveness"`
	Valence          float64 `json:"valence"`
	Key              int     `json:"key"`
	Mode             int     `json:"mode"`
	Loudness         float64 `json:"loudness"`
	Tempo            float64 `json:"tempo"`
	TimeSignature    int     `json:"time_signature"`
}

// NewMergedTrackView joins a track with its features. The caller guarantees matching IDs.
func NewMergedTrackView(t TrackRecord, f AudioFeatureRecord) MergedTrackView {
	return MergedTrackView{
		TrackRecord:      t,
		Danceability:     f.Danceability,
		Energy:           f.Energy,
		Speechiness:      f.Speechiness,
		Acousticness:     f.Acousticness,
		Instrumentalness: f.Instrumentalness,
		Liveness:         f.Liveness,
		Valence:          f.Valence,
		Key:              f.Key,
		Mode:             f.Mode,
		Loudness:         f.Loudness,
		Tempo:            f.Tempo,
		TimeSignature:    f.TimeSignature,
	}
}

// GenreCount is one row of the genre-word frequency table.
type GenreCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// TimeRange is the window over which Spotify computes a user's top items.
type TimeRange string

const (
	ShortTerm  TimeRange = "short_term"  // roughly the last 4 weeks
	MediumTerm TimeRange = "medium_term" // roughly the last 6 months
	LongTerm   TimeRange = "long_term"   // several years
)

// ParseTimeRange validates a time_range query value.
func ParseTimeRange(s string) (TimeRange, error) {
	switch tr := TimeRange(s); tr {
	case ShortTerm, MediumTerm, LongTerm:
		return tr, nil
	default:
		return "", fmt.Errorf("unknown time range %q", s)
	}
}

// Label returns a human readable description of the range.
func (tr TimeRange) Label() string {
	switch tr {
	case ShortTerm:
		return "Last 4 weeks"
	case MediumTerm:
		return "Last 6 months"
	case LongTerm:
		return "All time"
	default:
		return string(tr)
	}
}

// SearchKind selects which report /user_data renders.
type SearchKind string

const (
	SearchTracks  SearchKind = "tracks"
	SearchArtists SearchKind = "artists"
)
