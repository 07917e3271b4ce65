// Package session keeps one OAuth token per browser session and decides when it must be refreshed.
//
// # Stores
//
// A [Store] holds exactly one [models.TokenRecord] per session id and replaces it as a whole:
//   - [MemoryStore] : process-local map, the default
//   - [RedisStore] : one JSON value per key, written with a single SET
//   - repositories.TokenRepository : SQLite table session_tokens (see package repositories)
//
// Get on an unknown session returns [shared.ErrTokenMissing].
//
// # Refresh Policy
//
// [Policy.Token] returns the stored token unless it expires in less than [RefreshMargin], in which case it is
// exchanged through a [Refresher] and written back before being returned. A failed exchange is reported as
// [shared.ErrRefreshFailed] and is not retried.
//
// Refreshes of the same session are serialized. The waiting request re-reads the store once it holds the lock,
// so duplicate browser tabs cause a single refresh call.
package session
