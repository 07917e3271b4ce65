package web

import (
	"fmt"

	"github.com/desertthunder/rewrapped/internal/stats"
)

const (
	chartWidth  = 320
	chartHeight = 160
	labelHeight = 16
)

// Bar is one rectangle of an SVG histogram.
type Bar struct {
	X, Y, Width, Height int
	Count               int
	Title               string
}

// ChartView is a histogram laid out for the SVG template.
type ChartView struct {
	Feature string
	Width   int
	Height  int
	Bars    []Bar
	Min     string
	Max     string
}

// NewChartView scales the bins of c to a fixed size box; the tallest bin fills the height.
func NewChartView(c stats.Chart) ChartView {
	view := ChartView{Feature: c.Feature, Width: chartWidth, Height: chartHeight + labelHeight}
	if len(c.Bins) == 0 {
		return view
	}

	peak := c.MaxCount()
	width := chartWidth / len(c.Bins)
	for i, b := range c.Bins {
		h := 0
		if peak > 0 {
			h = b.Count * chartHeight / peak
		}
		view.Bars = append(view.Bars, Bar{
			X:      i * width,
			Y:      chartHeight - h,
			Width:  max(width-1, 1),
			Height: h,
			Count:  b.Count,
			Title:  fmt.Sprintf("%.1f to %.1f: %d", b.Lower, b.Upper, b.Count),
		})
	}

	view.Min = fmt.Sprintf("%.1f", c.Bins[0].Lower)
	view.Max = fmt.Sprintf("%.1f", c.Bins[len(c.Bins)-1].Upper)
	return view
}
