// Package tasks builds listening reports by orchestrating the Spotify service and the stats pipeline.
//
// # Core Operations
//
// [ReportEngine] exposes three operations:
//
//  1. [ReportEngine.Tracks] : top tracks report
//     - Fetches the top tracks of a time range and shapes them
//     - Looks up audio features for their ids (one call, at most 50 ids)
//     - Merges tracks with features and builds the chart histograms
//
//  2. [ReportEngine.Artists] : top artists report
//     - Fetches and shapes the top artists of a time range
//     - Ranks genre words in the configured order
//
//  3. [ReportEngine.Export] : every time range at once
//     - Builds one report per time range on a small worker pool
//     - Throttles remote calls with a rate limiter
//     - Writes one CSV per report plus a JSON manifest
//
// # Progress Reporting
//
// Operations accept an optional progress channel. Updates are sent with select and default so a slow or absent
// reader never blocks a report.
package tasks
