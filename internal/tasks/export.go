package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/desertthunder/rewrapped/internal/formatter"
	"github.com/desertthunder/rewrapped/internal/models"
	"github.com/desertthunder/rewrapped/internal/shared"
	"golang.org/x/time/rate"
)

// ExportOpts contains configuration for exporting reports of every time range.
type ExportOpts struct {
	Kind       models.SearchKind // Report kind: tracks or artists
	Num        int               // Rows per report
	OutputDir  string            // Base output directory (default: rewrapped_export_{epoch})
	NumWorkers int               // Concurrent workers (default: 3)
	RateLimit  float64           // Report builds per second (default: 2)
}

// ExportReportResult describes the export of a single time range.
type ExportReportResult struct {
	TimeRange models.TimeRange `json:"time_range"`
	File      string           `json:"file,omitempty"`
	ListFile  string           `json:"list_file,omitempty"` // artists exports only: the artists behind the genre counts
	Rows      int              `json:"rows"`
	Error     string           `json:"error,omitempty"`
}

// ExportResult summarizes an [ReportEngine.Export] run.
type ExportResult struct {
	Kind            models.SearchKind    `json:"kind"`
	OutputDirectory string               `json:"output_directory"`
	Successful      int                  `json:"successful"`
	Failed          int                  `json:"failed"`
	Results         []ExportReportResult `json:"results"`
	ManifestPath    string               `json:"-"`
}

// Export builds the report of every time range concurrently and writes one CSV per range.
//
// Builds are throttled by a rate limiter shared by the workers. Partial failures are recorded in the result and the
// manifest; an error is returned only when nothing could be written.
func (e *ReportEngine) Export(ctx context.Context, prog chan<- ProgressUpdate, token models.TokenRecord, opts ExportOpts) (*ExportResult, error) {
	if opts.Kind != models.SearchTracks && opts.Kind != models.SearchArtists {
		return nil, fmt.Errorf("%w: unknown report kind %q", shared.ErrInvalidArgument, opts.Kind)
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("rewrapped_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 2.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	ranges := []models.TimeRange{models.ShortTerm, models.MediumTerm, models.LongTerm}
	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan models.TimeRange, len(ranges))
	results := make(chan ExportReportResult, len(ranges))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for tr := range jobs {
				if err := limiter.Wait(ctx); err != nil {
					results <- ExportReportResult{TimeRange: tr, Error: err.Error()}
					continue
				}
				results <- e.exportOne(ctx, token, tr, opts)
			}
		}()
	}

	for _, tr := range ranges {
		jobs <- tr
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	result := &ExportResult{Kind: opts.Kind, OutputDirectory: opts.OutputDir}
	byRange := make(map[models.TimeRange]ExportReportResult, len(ranges))
	completed := 0
	for res := range results {
		completed++
		byRange[res.TimeRange] = res

		var err error
		if res.Error != "" {
			result.Failed++
			err = fmt.Errorf("%s", res.Error)
		} else {
			result.Successful++
		}
		e.sendProgress(prog, exportUpdate(completed, len(ranges), res.TimeRange.Label(), err))
	}

	for _, tr := range ranges {
		result.Results = append(result.Results, byRange[tr])
	}

	manifest, err := formatter.MarshalJSON(result, true)
	if err != nil {
		return result, fmt.Errorf("failed to encode manifest: %w", err)
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteFile(manifestPath, manifest); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath

	if result.Successful == 0 {
		return result, fmt.Errorf("no report could be exported: %s", result.Results[0].Error)
	}
	return result, nil
}

// exportOne builds one report and writes it as CSV.
func (e *ReportEngine) exportOne(ctx context.Context, token models.TokenRecord, tr models.TimeRange, opts ExportOpts) ExportReportResult {
	res := ExportReportResult{TimeRange: tr}

	var (
		data, list []byte
		err        error
	)
	switch opts.Kind {
	case models.SearchArtists:
		var report *ArtistsReport
		if report, err = e.Artists(ctx, nil, token, tr, opts.Num); err == nil {
			res.Rows = len(report.Genres)
			data, err = formatter.GenresToCSV(report.Genres)
		}
		if err == nil {
			list, err = formatter.ArtistsToCSV(report.Artists)
		}
	default:
		var report *TracksReport
		if report, err = e.Tracks(ctx, nil, token, tr, opts.Num); err == nil {
			res.Rows = len(report.Rows)
			data, err = formatter.TracksToCSV(report.Rows)
		}
	}
	if err != nil {
		res.Error = err.Error()
		return res
	}

	path := filepath.Join(opts.OutputDir, fmt.Sprintf("%s_%s.csv", opts.Kind, tr))
	if err := formatter.WriteFile(path, data); err != nil {
		res.Error = err.Error()
		return res
	}
	res.File = path

	if list != nil {
		listPath := filepath.Join(opts.OutputDir, fmt.Sprintf("%s_%s_list.csv", opts.Kind, tr))
		if err := formatter.WriteFile(listPath, list); err != nil {
			res.Error = err.Error()
			return res
		}
		res.ListFile = listPath
	}
	return res
}
