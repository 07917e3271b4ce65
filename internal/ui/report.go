package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/rewrapped/internal/models"
	"github.com/desertthunder/rewrapped/internal/shared"
	"github.com/desertthunder/rewrapped/internal/stats"
)

const (
	nameWidth = 20
	barWidth  = 40
)

func (p *Palette) table(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(p.help).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return p.ok.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...).
		Rows(rows...).
		String()
}

func pct(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// Tracks renders the audio-feature table, one row per merged track.
func (p *Palette) Tracks(rows []models.MergedTrackView) string {
	headers := []string{"#", "Song", "Artist", "Pop", "Dance", "Energy", "Speech", "Acoustic", "Instr", "Live", "Valence"}

	data := make([][]string, 0, len(rows))
	for i, r := range rows {
		data = append(data, []string{
			strconv.Itoa(i + 1),
			shared.Truncate(r.Song, nameWidth),
			shared.Truncate(strings.Join(r.Artists, ", "), nameWidth),
			strconv.Itoa(r.Popularity),
			pct(r.Danceability),
			pct(r.Energy),
			pct(r.Speechiness),
			pct(r.Acousticness),
			pct(r.Instrumentalness),
			pct(r.Liveness),
			pct(r.Valence),
		})
	}
	return p.table(headers, data)
}

// Genres renders the genre word table.
func (p *Palette) Genres(rows []models.GenreCount) string {
	data := make([][]string, 0, len(rows))
	for i, r := range rows {
		data = append(data, []string{strconv.Itoa(i + 1), r.Word, strconv.Itoa(r.Count)})
	}
	return p.table([]string{"#", "Word", "Count"}, data)
}

// Chart renders a histogram as one labeled bar per bin.
func (p *Palette) Chart(c stats.Chart) string {
	var b strings.Builder
	b.WriteString(p.Title(c.Feature))
	b.WriteString("\n")

	peak := c.MaxCount()
	if peak == 0 {
		b.WriteString(p.Help("no data"))
		return b.String()
	}

	for _, bin := range c.Bins {
		width := bin.Count * barWidth / peak
		label := fmt.Sprintf("%8.1f - %-8.1f", bin.Lower, bin.Upper)
		b.WriteString(fmt.Sprintf("%s %s %d\n", p.Help(label), p.bar.Render(strings.Repeat("█", width)), bin.Count))
	}
	return b.String()
}
