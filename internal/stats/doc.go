// Package stats turns raw Spotify payloads into records and computes the statistics shown by the web app.
//
// # Shaping
//
// [ShapeTopTracks] and [ShapeTopArtists] read the "items" envelope of the top-items endpoints and extract one
// record per item, in API ranking order. Wire structs use pointer fields so an absent or null field is told
// apart from a zero value; either one fails the whole payload with [shared.ErrMalformedRecord] and the JSON path
// of the first missing field (e.g. items[3].album.images[0].url).
//
// [ParseAudioFeatures] decodes the audio-features envelope. Null entries (unknown ids) are skipped, and the
// uri, track_href, analysis_url and duration_ms columns are never decoded.
//
// # Aggregation
//
//   - [MergeFeatures] : inner join of tracks and features on ID, in track order
//   - [TopGenreWords] : whitespace word counts over every genre label, sorted by count
//   - [Histogram] : equal-width bins for the charts of the tracks report
package stats
