package stats

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/desertthunder/rewrapped/internal/models"
	"github.com/desertthunder/rewrapped/internal/shared"
)

func TestMergeFeatures(t *testing.T) {
	tracks := []models.TrackRecord{
		{Song: "Song A", ID: "A", Popularity: 80, Artists: []string{"x"}},
		{Song: "Song B", ID: "B", Popularity: 40, Artists: []string{"y"}},
		{Song: "Song C", ID: "C", Popularity: 10, Artists: []string{"z"}},
	}

	t.Run("Drops Unmatched Tracks", func(t *testing.T) {
		merged, err := MergeFeatures(tracks[:2], []models.AudioFeatureRecord{{ID: "A", Energy: 0.9}}, false)
		if err != nil {
			t.Fatalf("MergeFeatures() error = %v", err)
		}

		if len(merged) != 1 {
			t.Fatalf("expected 1 merged row, got %d", len(merged))
		}
		if merged[0].ID != "A" || merged[0].Energy != 0.9 || merged[0].Popularity != 80 {
			t.Errorf("unexpected merged row %+v", merged[0])
		}
	})

	t.Run("Keeps Track Order", func(t *testing.T) {
		features := []models.AudioFeatureRecord{{ID: "C"}, {ID: "A"}, {ID: "B"}}
		merged, err := MergeFeatures(tracks, features, false)
		if err != nil {
			t.Fatalf("MergeFeatures() error = %v", err)
		}

		var ids []string
		for _, m := range merged {
			ids = append(ids, m.ID)
		}
		if strings.Join(ids, "") != "ABC" {
			t.Errorf("expected track order ABC, got %v", ids)
		}
	})

	t.Run("Strict Mode", func(t *testing.T) {
		_, err := MergeFeatures(tracks, []models.AudioFeatureRecord{{ID: "A"}, {ID: "C"}}, true)
		if !errors.Is(err, shared.ErrUnmatchedTrack) {
			t.Fatalf("expected ErrUnmatchedTrack, got %v", err)
		}
		if !strings.Contains(err.Error(), "B") {
			t.Errorf("expected error to name track B, got %v", err)
		}
	})

	t.Run("Strict Mode All Matched", func(t *testing.T) {
		merged, err := MergeFeatures(tracks[:1], []models.AudioFeatureRecord{{ID: "A"}}, true)
		if err != nil || len(merged) != 1 {
			t.Errorf("expected one row and no error, got %d, %v", len(merged), err)
		}
	})

	t.Run("Excluded Columns", func(t *testing.T) {
		raw := `{"audio_features": [{"id": "A", "danceability": 0.5, "energy": 0.8, "speechiness": 0.05, "acousticness": 0.1, "instrumentalness": 0, "liveness": 0.2, "valence": 0.6, "key": 5, "mode": 1, "loudness": -5.2, "tempo": 120.5, "time_signature": 4, "uri": "spotify:track:A", "track_href": "h", "analysis_url": "a", "duration_ms": 1}]}`
		features, err := ParseAudioFeatures([]byte(raw))
		if err != nil {
			t.Fatalf("ParseAudioFeatures() error = %v", err)
		}

		merged, _ := MergeFeatures(tracks[:1], features, false)
		data, err := json.Marshal(merged)
		if err != nil {
			t.Fatalf("failed to marshal: %v", err)
		}

		for _, key := range []string{"uri", "track_href", "analysis_url", "duration_ms"} {
			if strings.Contains(string(data), `"`+key+`"`) {
				t.Errorf("merged view should not carry %s: %s", key, data)
			}
		}
	})
}

func TestTopGenreWords(t *testing.T) {
	artists := []models.ArtistRecord{
		{Artist: "one", Genres: []string{"dance pop", "pop"}},
		{Artist: "two", Genres: []string{"indie pop"}},
	}

	// Every whitespace-separated word counts, so "dance pop", "pop" and "indie pop" give pop three times.
	t.Run("Counts", func(t *testing.T) {
		want := []models.GenreCount{{Word: "dance", Count: 1}, {Word: "pop", Count: 3}, {Word: "indie", Count: 1}}
		if got := CountGenreWords(artists); !reflect.DeepEqual(got, want) {
			t.Errorf("CountGenreWords() = %v, want %v", got, want)
		}
	})

	tests := []struct {
		name  string
		limit int
		order GenreOrder
		want  []models.GenreCount
	}{
		{"Ascending Limit 2", 2, OrderAscending, []models.GenreCount{{Word: "dance", Count: 1}, {Word: "indie", Count: 1}}},
		{"Ascending All", 10, OrderAscending, []models.GenreCount{{Word: "dance", Count: 1}, {Word: "indie", Count: 1}, {Word: "pop", Count: 3}}},
		{"Descending Limit 1", 1, OrderDescending, []models.GenreCount{{Word: "pop", Count: 3}}},
		{"Descending Ties", 3, OrderDescending, []models.GenreCount{{Word: "pop", Count: 3}, {Word: "dance", Count: 1}, {Word: "indie", Count: 1}}},
		{"Zero Limit", 0, OrderAscending, []models.GenreCount{}},
		{"Negative Limit", -1, OrderDescending, []models.GenreCount{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TopGenreWords(artists, tt.limit, tt.order); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("TopGenreWords() = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("Idempotent", func(t *testing.T) {
		a := TopGenreWords(artists, 2, OrderAscending)
		b := TopGenreWords(artists, 2, OrderAscending)
		if !reflect.DeepEqual(a, b) {
			t.Errorf("expected identical results, got %v and %v", a, b)
		}
	})

	t.Run("No Case Folding", func(t *testing.T) {
		got := CountGenreWords([]models.ArtistRecord{{Genres: []string{"Pop pop", "  k-pop\tpop "}}})
		want := []models.GenreCount{{Word: "Pop", Count: 1}, {Word: "pop", Count: 2}, {Word: "k-pop", Count: 1}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("CountGenreWords() = %v, want %v", got, want)
		}
	})

	t.Run("No Artists", func(t *testing.T) {
		if got := TopGenreWords(nil, 5, OrderAscending); len(got) != 0 {
			t.Errorf("expected empty table, got %v", got)
		}
	})
}

func TestParseGenreOrder(t *testing.T) {
	tests := []struct {
		in      string
		want    GenreOrder
		wantErr bool
	}{
		{"", OrderAscending, false},
		{"ascending", OrderAscending, false},
		{"Descending", OrderDescending, false},
		{"sideways", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseGenreOrder(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseGenreOrder(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseGenreOrder(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
