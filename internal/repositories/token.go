package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/rewrapped/internal/models"
	"github.com/desertthunder/rewrapped/internal/shared"
)

// TokenRepository persists [models.TokenRecord] values keyed by session id.
type TokenRepository struct {
	db *sql.DB
}

// NewTokenRepository creates a new [TokenRepository] with the given database connection
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Get retrieves the token of a session
func (r *TokenRepository) Get(ctx context.Context, sessionID string) (models.TokenRecord, error) {
	query := `
		SELECT access_token, refresh_token, expires_at, scopes
		FROM session_tokens
		WHERE session_id = ?
	`

	var (
		rec    models.TokenRecord
		scopes string
	)

	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(&rec.AccessToken, &rec.RefreshToken, &rec.ExpiresAt, &scopes)
	if errors.Is(err, sql.ErrNoRows) {
		return models.TokenRecord{}, fmt.Errorf("%w: session %s", shared.ErrTokenMissing, sessionID)
	}
	if err != nil {
		return models.TokenRecord{}, fmt.Errorf("failed to query session token: %w", err)
	}

	rec.Scopes = strings.Fields(scopes)
	return rec, nil
}

// Put inserts or replaces the token of a session
func (r *TokenRepository) Put(ctx context.Context, sessionID string, rec models.TokenRecord) error {
	if sessionID == "" {
		return fmt.Errorf("%w: empty session id", shared.ErrInvalidArgument)
	}

	query := `
		INSERT INTO session_tokens (session_id, access_token, refresh_token, expires_at, scopes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			scopes = excluded.scopes,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, query, sessionID, rec.AccessToken, rec.RefreshToken, rec.ExpiresAt, strings.Join(rec.Scopes, " "), now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert session token: %w", err)
	}

	return nil
}

// Delete removes the token of a session. Deleting an unknown session is not an error.
func (r *TokenRepository) Delete(ctx context.Context, sessionID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM session_tokens WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to delete session token: %w", err)
	}
	return nil
}

// PurgeStale deletes sessions not written since before cutoff and returns how many were removed.
func (r *TokenRepository) PurgeStale(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM session_tokens WHERE updated_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows, nil
}

// Count returns the number of stored sessions
func (r *TokenRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM session_tokens`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return n, nil
}
