package stats

import (
	"github.com/desertthunder/rewrapped/internal/models"
	"github.com/samber/lo"
)

// DefaultBins is the number of bins used by the tracks report charts.
const DefaultBins = 10

// Bin is one bar of a histogram covering [Lower, Upper). The last bin also includes Upper.
type Bin struct {
	Lower float64
	Upper float64
	Count int
}

// Histogram groups values into bins of equal width between their minimum and maximum.
//
// When every value is the same a single bin holds them all.
func Histogram(values []float64, bins int) []Bin {
	if len(values) == 0 || bins <= 0 {
		return nil
	}

	low, high := lo.Min(values), lo.Max(values)
	if low == high {
		return []Bin{{Lower: low, Upper: high, Count: len(values)}}
	}

	width := (high - low) / float64(bins)
	out := make([]Bin, bins)
	for i := range out {
		out[i].Lower = low + float64(i)*width
		out[i].Upper = low + float64(i+1)*width
	}
	out[bins-1].Upper = high

	for _, v := range values {
		i := int((v - low) / width)
		if i >= bins {
			i = bins - 1
		}
		out[i].Count++
	}
	return out
}

// Feature names a numeric column of [models.MergedTrackView].
type Feature struct {
	Name  string
	Value func(models.MergedTrackView) float64
}

// ChartFeatures are the columns charted on the tracks report.
var ChartFeatures = []Feature{
	{Name: "popularity", Value: func(m models.MergedTrackView) float64 { return float64(m.Popularity) }},
	{Name: "key", Value: func(m models.MergedTrackView) float64 { return float64(m.Key) }},
	{Name: "loudness", Value: func(m models.MergedTrackView) float64 { return m.Loudness }},
	{Name: "tempo", Value: func(m models.MergedTrackView) float64 { return m.Tempo }},
}

// Chart is the histogram of a single [Feature].
type Chart struct {
	Feature string
	Bins    []Bin
}

// MaxCount returns the tallest bar, or 0 for an empty chart.
func (c Chart) MaxCount() int {
	return lo.Max(lo.Map(c.Bins, func(b Bin, _ int) int { return b.Count }))
}

// Charts builds one histogram per entry of [ChartFeatures].
func Charts(rows []models.MergedTrackView, bins int) []Chart {
	return lo.Map(ChartFeatures, func(f Feature, _ int) Chart {
		return Chart{Feature: f.Name, Bins: Histogram(lo.Map(rows, func(m models.MergedTrackView, _ int) float64 { return f.Value(m) }), bins)}
	})
}
