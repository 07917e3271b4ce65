package tasks

import (
	"fmt"

	"github.com/desertthunder/rewrapped/internal/models"
)

// ProgressUpdate represents a progress event during a report.
//
// Used to send real-time updates to the CLI for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
}

// Operation phase enumeration
type Phase int

const (
	FetchTopTracks Phase = iota
	FetchTopArtists
	FetchFeatures
	Merge
	CountGenres
	ExportReport
)

func (p Phase) String() string {
	switch p {
	case FetchTopTracks:
		return "fetch_top_tracks"
	case FetchTopArtists:
		return "fetch_top_artists"
	case FetchFeatures:
		return "fetch_features"
	case Merge:
		return "merge"
	case CountGenres:
		return "count_genres"
	case ExportReport:
		return "export_report"
	default:
		return ""
	}
}

func fetchTopUpdate(phase Phase, tr models.TimeRange) ProgressUpdate {
	kind := "tracks"
	if phase == FetchTopArtists {
		kind = "artists"
	}
	return ProgressUpdate{
		Phase:   phase,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching top %s (%s)...", kind, tr.Label()),
	}
}

func fetchFeaturesUpdate(n int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchFeatures,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching audio features for %d tracks...", n),
	}
}

func mergeUpdate(tracks, features int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Merge,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Merging %d tracks with %d feature records...", tracks, features),
	}
}

func countGenresUpdate(artists int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CountGenres,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Counting genre words over %d artists...", artists),
	}
}

func exportUpdate(step, total int, name string, err error) ProgressUpdate {
	msg := fmt.Sprintf("Exported %s", name)
	if err != nil {
		msg = fmt.Sprintf("Failed %s: %v", name, err)
	}
	return ProgressUpdate{
		Phase:   ExportReport,
		Step:    step,
		Total:   total,
		Message: msg,
	}
}
