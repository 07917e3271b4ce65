package stats

import (
	"fmt"
	"slices"
	"strings"

	"github.com/desertthunder/rewrapped/internal/models"
	"github.com/desertthunder/rewrapped/internal/shared"
	"github.com/samber/lo"
)

// MergeFeatures joins tracks with their audio features on ID, keeping the order of tracks.
//
// Tracks without features are dropped unless strict is set, in which case the first one is reported
// with [shared.ErrUnmatchedTrack].
func MergeFeatures(tracks []models.TrackRecord, features []models.AudioFeatureRecord, strict bool) ([]models.MergedTrackView, error) {
	byID := lo.KeyBy(features, func(f models.AudioFeatureRecord) string { return f.ID })

	merged := make([]models.MergedTrackView, 0, len(tracks))
	for _, t := range tracks {
		f, ok := byID[t.ID]
		if !ok {
			if strict {
				return nil, fmt.Errorf("%w: %s (%s)", shared.ErrUnmatchedTrack, t.ID, t.Song)
			}
			continue
		}
		merged = append(merged, models.NewMergedTrackView(t, f))
	}
	return merged, nil
}

// GenreOrder selects how [TopGenreWords] sorts counts.
type GenreOrder string

const (
	// OrderAscending puts the least frequent words first. It is the historical behavior of the report.
	OrderAscending GenreOrder = "ascending"
	// OrderDescending puts the most frequent words first.
	OrderDescending GenreOrder = "descending"
)

// ParseGenreOrder validates a genre_order setting; the empty string means [OrderAscending].
func ParseGenreOrder(s string) (GenreOrder, error) {
	switch o := GenreOrder(strings.ToLower(s)); o {
	case "":
		return OrderAscending, nil
	case OrderAscending, OrderDescending:
		return o, nil
	default:
		return "", fmt.Errorf("%w: unknown genre order %q", shared.ErrInvalidArgument, s)
	}
}

// GenreWords splits every genre label of every artist on whitespace. Words keep their case.
func GenreWords(artists []models.ArtistRecord) []string {
	return lo.FlatMap(artists, func(a models.ArtistRecord, _ int) []string {
		return lo.FlatMap(a.Genres, func(g string, _ int) []string { return strings.Fields(g) })
	})
}

// CountGenreWords returns the word counts in first-encountered order.
func CountGenreWords(artists []models.ArtistRecord) []models.GenreCount {
	words := GenreWords(artists)
	counts := lo.CountValues(words)

	return lo.Map(lo.Uniq(words), func(w string, _ int) models.GenreCount {
		return models.GenreCount{Word: w, Count: counts[w]}
	})
}

// TopGenreWords counts genre words, sorts them by count in the given order and returns the first limit rows.
//
// Ties keep their first-encountered order. A non-positive limit yields an empty table.
func TopGenreWords(artists []models.ArtistRecord, limit int, order GenreOrder) []models.GenreCount {
	if limit <= 0 {
		return []models.GenreCount{}
	}

	table := CountGenreWords(artists)
	slices.SortStableFunc(table, func(a, b models.GenreCount) int {
		if order == OrderDescending {
			return b.Count - a.Count
		}
		return a.Count - b.Count
	})

	if limit < len(table) {
		table = table[:limit]
	}
	return table
}
