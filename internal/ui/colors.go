package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Scheme names the foreground colors of a [Palette].
type Scheme struct {
	Accent, OK, Err, Warn, Muted string
}

// SpotifyScheme follows the Spotify brand green.
var SpotifyScheme = Scheme{Accent: "#1DB954", OK: "#04B575", Err: "#FF0000", Warn: "#FFA500", Muted: "#626262"}

// DefaultPalette is the stylesheet used by the CLI.
var DefaultPalette = NewPalette(SpotifyScheme)

// Palette renders report text with named [lipgloss.Style] fields.
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
	bar   lipgloss.Style
}

func NewPalette(s Scheme) *Palette {
	fg := func(c string) lipgloss.Style { return lipgloss.NewStyle().Foreground(lipgloss.Color(c)) }
	return &Palette{
		title: fg(s.Accent).Bold(true).MarginBottom(1),
		ok:    fg(s.OK).Bold(true),
		err:   fg(s.Err).Bold(true),
		warn:  fg(s.Warn),
		help:  fg(s.Muted).Italic(true),
		bar:   fg(s.Accent),
	}
}

func (p *Palette) Title(s string) string { return p.title.Render(s) }
func (p *Palette) OK(s string) string    { return p.ok.Render(s) }
func (p *Palette) Err(s string) string   { return p.err.Render(s) }
func (p *Palette) Warn(s string) string  { return p.warn.Render(s) }
func (p *Palette) Help(s string) string  { return p.help.Render(s) }
