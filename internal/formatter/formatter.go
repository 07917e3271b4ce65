// package formatter renders report data as CSV, plain text and JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/rewrapped/internal/models"
	"github.com/desertthunder/rewrapped/internal/shared"
)

// NameWidth is the number of characters kept by [shared.Truncate] in text output.
const NameWidth = 20

// TrackHeaders are the CSV columns of the merged tracks view.
var TrackHeaders = []string{
	"Song", "Album", "Artists", "ID", "Popularity",
	"Danceability", "Energy", "Speechiness", "Acousticness", "Instrumentalness", "Liveness", "Valence",
	"Key", "Mode", "Loudness", "Tempo", "TimeSignature",
}

func writeCSV(headers []string, records [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// TracksToCSV converts merged track rows to CSV, one row per track with artists joined by "; ".
func TracksToCSV(rows []models.MergedTrackView) ([]byte, error) {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.Song,
			r.Album,
			strings.Join(r.Artists, "; "),
			r.ID,
			strconv.Itoa(r.Popularity),
			ftoa(r.Danceability),
			ftoa(r.Energy),
			ftoa(r.Speechiness),
			ftoa(r.Acousticness),
			ftoa(r.Instrumentalness),
			ftoa(r.Liveness),
			ftoa(r.Valence),
			strconv.Itoa(r.Key),
			strconv.Itoa(r.Mode),
			ftoa(r.Loudness),
			ftoa(r.Tempo),
			strconv.Itoa(r.TimeSignature),
		})
	}
	return writeCSV(TrackHeaders, records)
}

// GenresToCSV converts a genre word table to CSV with columns: Word, Count
func GenresToCSV(rows []models.GenreCount) ([]byte, error) {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{r.Word, strconv.Itoa(r.Count)})
	}
	return writeCSV([]string{"Word", "Count"}, records)
}

// ArtistsToCSV converts artist records to CSV with columns: Artist, Genres, ID, Popularity
func ArtistsToCSV(artists []models.ArtistRecord) ([]byte, error) {
	records := make([][]string, 0, len(artists))
	for _, a := range artists {
		records = append(records, []string{a.Artist, strings.Join(a.Genres, "; "), a.ID, strconv.Itoa(a.Popularity)})
	}
	return writeCSV([]string{"Artist", "Genres", "ID", "Popularity"}, records)
}

// TracksToText lists tracks as "1. Artist - Song (Album)" with long names truncated.
func TracksToText(title string, rows []models.MergedTrackView) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("%s\n", title))
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(rows)))

	for i, r := range rows {
		artist := shared.Truncate(strings.Join(r.Artists, ", "), NameWidth)
		buf.WriteString(fmt.Sprintf("%d. %s - %s (%s)\n", i+1, artist, shared.Truncate(r.Song, NameWidth), shared.Truncate(r.Album, NameWidth)))
	}

	return buf.Bytes()
}

// GenresToText lists genre words with their counts.
func GenresToText(title string, rows []models.GenreCount) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("%s\n", title))
	buf.WriteString(fmt.Sprintf("Words: %d\n\n", len(rows)))

	for i, r := range rows {
		buf.WriteString(fmt.Sprintf("%d. %s (%d)\n", i+1, r.Word, r.Count))
	}

	return buf.Bytes()
}

// MarshalJSON encodes v, indented when pretty is set.
func MarshalJSON(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

// WriteFile writes data to path, creating or truncating it.
func WriteFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
