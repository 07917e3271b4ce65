package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/rewrapped/internal/models"
	"github.com/desertthunder/rewrapped/internal/services"
	"github.com/desertthunder/rewrapped/internal/shared"
	"github.com/desertthunder/rewrapped/internal/stats"
	"github.com/samber/lo"
)

// ReportOpts holds the settings shared by every report.
type ReportOpts struct {
	TopLimit    int              // Items requested from the top endpoints (1-50)
	StrictMerge bool             // Fail when a track has no audio features
	GenreOrder  stats.GenreOrder // Sort order of the genre table
	Bins        int              // Histogram bins per chart
}

// TracksReport is the data behind the tracks page.
type TracksReport struct {
	TimeRange models.TimeRange
	Tracks    []models.TrackRecord     // Shaped top tracks in ranking order
	Merged    []models.MergedTrackView // Tracks joined with their audio features
	Rows      []models.MergedTrackView // First num merged rows, shown in the feature table
	Charts    []stats.Chart            // Histograms over every merged row
}

// ArtistsReport is the data behind the artists page.
type ArtistsReport struct {
	TimeRange models.TimeRange
	Artists   []models.ArtistRecord
	Genres    []models.GenreCount
}

// ReportEngine builds reports from a [services.StatsService].
type ReportEngine struct {
	svc  services.StatsService
	opts ReportOpts
}

// NewReportEngine creates a new ReportEngine. Zero options fall back to the API maximum and [stats.DefaultBins].
func NewReportEngine(svc services.StatsService, opts ReportOpts) *ReportEngine {
	if opts.TopLimit <= 0 || opts.TopLimit > services.MaxAudioFeatureIDs {
		opts.TopLimit = services.MaxAudioFeatureIDs
	}
	if opts.Bins <= 0 {
		opts.Bins = stats.DefaultBins
	}
	if opts.GenreOrder == "" {
		opts.GenreOrder = stats.OrderAscending
	}
	return &ReportEngine{svc: svc, opts: opts}
}

// Opts returns the effective options.
func (e *ReportEngine) Opts() ReportOpts {
	return e.opts
}

// sendProgress sends a progress update through the channel without blocking.
func (e *ReportEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Tracks builds the top tracks report for tr, keeping num rows for the feature table.
func (e *ReportEngine) Tracks(ctx context.Context, progress chan<- ProgressUpdate, token models.TokenRecord, tr models.TimeRange, num int) (*TracksReport, error) {
	if e.svc == nil {
		return nil, fmt.Errorf("%w: stats service not initialized", shared.ErrInvalidConfig)
	}

	e.sendProgress(progress, fetchTopUpdate(FetchTopTracks, tr))
	raw, err := e.svc.TopTracks(ctx, token, tr, e.opts.TopLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch top tracks: %w", err)
	}

	tracks, err := stats.ShapeTopTracks(raw)
	if err != nil {
		return nil, err
	}

	ids := lo.Map(tracks, func(t models.TrackRecord, _ int) string { return t.ID })
	if len(ids) > services.MaxAudioFeatureIDs {
		ids = ids[:services.MaxAudioFeatureIDs]
	}

	e.sendProgress(progress, fetchFeaturesUpdate(len(ids)))
	rawFeatures, err := e.svc.AudioFeatures(ctx, token, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch audio features: %w", err)
	}

	features, err := stats.ParseAudioFeatures(rawFeatures)
	if err != nil {
		return nil, err
	}

	e.sendProgress(progress, mergeUpdate(len(tracks), len(features)))
	merged, err := stats.MergeFeatures(tracks, features, e.opts.StrictMerge)
	if err != nil {
		return nil, err
	}

	return &TracksReport{
		TimeRange: tr,
		Tracks:    tracks,
		Merged:    merged,
		Rows:      lo.Subset(merged, 0, uint(max(num, 0))),
		Charts:    stats.Charts(merged, e.opts.Bins),
	}, nil
}

// Artists builds the top artists report for tr with at most num genre words.
func (e *ReportEngine) Artists(ctx context.Context, progress chan<- ProgressUpdate, token models.TokenRecord, tr models.TimeRange, num int) (*ArtistsReport, error) {
	if e.svc == nil {
		return nil, fmt.Errorf("%w: stats service not initialized", shared.ErrInvalidConfig)
	}

	e.sendProgress(progress, fetchTopUpdate(FetchTopArtists, tr))
	raw, err := e.svc.TopArtists(ctx, token, tr, e.opts.TopLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch top artists: %w", err)
	}

	artists, err := stats.ShapeTopArtists(raw)
	if err != nil {
		return nil, err
	}

	e.sendProgress(progress, countGenresUpdate(len(artists)))
	return &ArtistsReport{
		TimeRange: tr,
		Artists:   artists,
		Genres:    stats.TopGenreWords(artists, num, e.opts.GenreOrder),
	}, nil
}
