// Package repositories implements SQLite persistence for session tokens.
//
// [TokenRepository] stores one row per session in the session_tokens table created by the embedded
// migrations (see shared.RunMigrations). It satisfies session.Store, so the web app can keep tokens
// across restarts when the session driver is "sqlite".
//
// Writes are a single INSERT ... ON CONFLICT statement: the access token and its expiry are always
// replaced together and a concurrent reader sees either the old row or the new one.
package repositories
