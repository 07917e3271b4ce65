// Package web implements the browser front end: OAuth login, the tracks and artists reports, and CSV downloads.
//
// # Routes
//
//	GET|POST /     → index; with ?code= completes the login and redirects to /user_data
//	POST /login    → 303 to the Spotify authorize URL with a fresh state
//	GET /user_data → report selected by time_range, search and num (format=csv downloads it)
//	POST /logout   → clears the session token
//	GET /healthz   → ok
//
// # Sessions
//
// Handlers rely on server.SessionMiddleware for the session id. The token itself lives in a session.Store and is
// always read through a session.Policy, so every report request sees a token valid for at least a minute.
// A missing token and a failed refresh both send the user back to /, but are logged under different messages.
//
// # Rendering
//
// Templates are embedded with html/template. Histograms are drawn as inline SVG bars computed in [NewChartView];
// no charting library is involved.
package web
