// Package server provides HTTP routing, middleware, and OAuth callback handling for the CLI and web app.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering. Registering the same path
// for a second method adds it to the path's method table.
//
// # Middleware
//
//   - [LoggingMiddleware] : method, path, status and duration of every request
//   - [RecoverMiddleware] : panics become 500 responses
//   - [RateLimitMiddleware] : token bucket per client IP (golang.org/x/time/rate), used on POST /login
//   - [SessionMiddleware] : assigns the rewrapped_session cookie and exposes the id through [SessionID]
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the callback of the CLI login flow. When a `stats` command runs, a temporary server
// listens on the redirect URI, validates the state parameter (CSRF protection), exchanges the code through a
// [CodeExchanger] and sends the token through a channel. It only processes one callback to prevent replay attacks.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
