package stats

import (
	"encoding/json"
	"fmt"

	"github.com/desertthunder/rewrapped/internal/models"
	"github.com/desertthunder/rewrapped/internal/shared"
)

type wireImage struct {
	URL *string `json:"url"`
}

type wireNamed struct {
	Name *string `json:"name"`
}

type wireAlbum struct {
	Name   *string      `json:"name"`
	Images *[]wireImage `json:"images"`
}

type wireTrack struct {
	Name       *string      `json:"name"`
	Album      *wireAlbum   `json:"album"`
	Artists    *[]wireNamed `json:"artists"`
	ID         *string      `json:"id"`
	Popularity *int         `json:"popularity"`
}

type wireArtist struct {
	Name       *string      `json:"name"`
	Genres     *[]string    `json:"genres"`
	ID         *string      `json:"id"`
	Popularity *int         `json:"popularity"`
	Images     *[]wireImage `json:"images"`
}

type envelope[T any] struct {
	Items *[]*T `json:"items"`
}

func malformed(path string) error {
	return fmt.Errorf("%w: missing %s", shared.ErrMalformedRecord, path)
}

func decodeItems[T any](raw []byte) ([]*T, error) {
	var env envelope[T]
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrMalformedRecord, err)
	}
	if env.Items == nil {
		return nil, malformed("items")
	}
	return *env.Items, nil
}

// firstImage returns the URL of the first image, which Spotify lists widest first.
func firstImage(images *[]wireImage, path string) (string, error) {
	if images == nil || len(*images) == 0 {
		return "", malformed(path + "[0]")
	}
	if (*images)[0].URL == nil {
		return "", malformed(path + "[0].url")
	}
	return *(*images)[0].URL, nil
}

// ShapeTopTracks converts a GET /me/top/tracks payload into [models.TrackRecord] values, one per item.
func ShapeTopTracks(raw []byte) ([]models.TrackRecord, error) {
	items, err := decodeItems[wireTrack](raw)
	if err != nil {
		return nil, err
	}

	records := make([]models.TrackRecord, 0, len(items))
	for i, item := range items {
		rec, err := shapeTrack(item, fmt.Sprintf("items[%d]", i))
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func shapeTrack(item *wireTrack, path string) (models.TrackRecord, error) {
	switch {
	case item == nil:
		return models.TrackRecord{}, malformed(path)
	case item.Name == nil:
		return models.TrackRecord{}, malformed(path + ".name")
	case item.Album == nil:
		return models.TrackRecord{}, malformed(path + ".album")
	case item.Album.Name == nil:
		return models.TrackRecord{}, malformed(path + ".album.name")
	case item.Artists == nil:
		return models.TrackRecord{}, malformed(path + ".artists")
	case item.ID == nil:
		return models.TrackRecord{}, malformed(path + ".id")
	case item.Popularity == nil:
		return models.TrackRecord{}, malformed(path + ".popularity")
	}

	artists := make([]string, 0, len(*item.Artists))
	for j, a := range *item.Artists {
		if a.Name == nil {
			return models.TrackRecord{}, malformed(fmt.Sprintf("%s.artists[%d].name", path, j))
		}
		artists = append(artists, *a.Name)
	}

	cover, err := firstImage(item.Album.Images, path+".album.images")
	if err != nil {
		return models.TrackRecord{}, err
	}

	return models.TrackRecord{
		Song:          *item.Name,
		Album:         *item.Album.Name,
		Artists:       artists,
		ID:            *item.ID,
		Popularity:    *item.Popularity,
		CoverImageURL: cover,
	}, nil
}

// ShapeTopArtists converts a GET /me/top/artists payload into [models.ArtistRecord] values, one per item.
//
// Genre labels are kept verbatim.
func ShapeTopArtists(raw []byte) ([]models.ArtistRecord, error) {
	items, err := decodeItems[wireArtist](raw)
	if err != nil {
		return nil, err
	}

	records := make([]models.ArtistRecord, 0, len(items))
	for i, item := range items {
		path := fmt.Sprintf("items[%d]", i)
		switch {
		case item == nil:
			return nil, malformed(path)
		case item.Name == nil:
			return nil, malformed(path + ".name")
		case item.Genres == nil:
			return nil, malformed(path + ".genres")
		case item.ID == nil:
			return nil, malformed(path + ".id")
		case item.Popularity == nil:
			return nil, malformed(path + ".popularity")
		}

		image, err := firstImage(item.Images, path+".images")
		if err != nil {
			return nil, err
		}

		records = append(records, models.ArtistRecord{
			Artist:     *item.Name,
			Genres:     append([]string{}, *item.Genres...),
			ID:         *item.ID,
			Popularity: *item.Popularity,
			ImageURL:   image,
		})
	}
	return records, nil
}

type wireFeature struct {
	ID               *string  `json:"id"`
	Danceability     *float64 `json:"danceability"`
	Energy           *float64 `json:"energy"`
	Speechiness      *float64 `json:"speechiness"`
	Acousticness     *float64 `json:"acousticness"`
	Instrumentalness *float64 `json:"instrumentalness"`
	Liveness         *float64 `json:"liveness"`
	Valence          *float64 `json:"valence"`
	Key              *int     `json:"key"`
	Mode             int      `json:"mode"`
	Loudness         *float64 `json:"loudness"`
	Tempo            *float64 `json:"tempo"`
	TimeSignature    int      `json:"time_signature"`
}

type wireFeatures struct {
	AudioFeatures *[]*wireFeature `json:"audio_features"`
}

// ParseAudioFeatures decodes a GET /audio-features payload.
//
// Spotify answers null for ids it has no analysis for; those entries are skipped so the merge drops the track.
// mode and time_signature are optional; every other descriptor is required.
func ParseAudioFeatures(raw []byte) ([]models.AudioFeatureRecord, error) {
	var env wireFeatures
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrMalformedRecord, err)
	}
	if env.AudioFeatures == nil {
		return nil, malformed("audio_features")
	}

	features := make([]models.AudioFeatureRecord, 0, len(*env.AudioFeatures))
	for i, f := range *env.AudioFeatures {
		if f == nil {
			continue
		}
		rec, err := shapeFeature(f, fmt.Sprintf("audio_features[%d]", i))
		if err != nil {
			return nil, err
		}
		features = append(features, rec)
	}
	return features, nil
}

func shapeFeature(f *wireFeature, path string) (models.AudioFeatureRecord, error) {
	if f.ID == nil || *f.ID == "" {
		return models.AudioFeatureRecord{}, malformed(path + ".id")
	}

	floats := []struct {
		name string
		v    *float64
	}{
		{"danceability", f.Danceability},
		{"energy", f.Energy},
		{"speechiness", f.Speechiness},
		{"acousticness", f.Acousticness},
		{"instrumentalness", f.Instrumentalness},
		{"liveness", f.Liveness},
		{"valence", f.Valence},
		{"loudness", f.Loudness},
		{"tempo", f.Tempo},
	}
	for _, fl := range floats {
		if fl.v == nil {
			return models.AudioFeatureRecord{}, malformed(path + "." + fl.name)
		}
	}
	if f.Key == nil {
		return models.AudioFeatureRecord{}, malformed(path + ".key")
	}

	return models.AudioFeatureRecord{
		ID:               *f.ID,
		Danceability:     *f.Danceability,
		Energy:           *f.Energy,
		Speechiness:      *f.Speechiness,
		Acousticness:     *f.Acousticness,
		Instrumentalness: *f.Instrumentalness,
		Liveness:         *f.Liveness,
		Valence:          *f.Valence,
		Key:              *f.Key,
		Mode:             f.Mode,
		Loudness:         *f.Loudness,
		Tempo:            *f.Tempo,
		TimeSignature:    f.TimeSignature,
	}, nil
}
