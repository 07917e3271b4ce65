// Package ui renders listening reports for the terminal with lipgloss.
//
// The `stats` CLI commands print through a [Palette]:
//   - [Palette.Tracks] : feature table of the merged tracks view
//   - [Palette.Genres] : genre word table
//   - [Palette.Chart] : horizontal bar chart of a histogram
package ui
