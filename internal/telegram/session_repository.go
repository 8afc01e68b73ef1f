package telegram

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"konbini-planner/internal/planner"
)

const sessionTimeLayout = "2006-01-02 15:04:05"

// DefaultSessionTTL is how long a remembered /plan request stays usable.
const DefaultSessionTTL = 30 * 24 * time.Hour

// SessionRepository remembers the last /plan arguments of each user so a
// bare /plan can repeat them.
type SessionRepository struct {
	db  *sql.DB
	ttl time.Duration
}

// NewSessionRepository creates a new SessionRepository instance
func NewSessionRepository(db *sql.DB, ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionRepository{db: db, ttl: ttl}
}

// SaveLastRequest replaces the stored request of userID.
func (sr *SessionRepository) SaveLastRequest(ctx context.Context, userID string, req planner.Request) error {
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = sr.db.ExecContext(ctx, `
		INSERT INTO sessions (user_id, request_data, expires_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			request_data = excluded.request_data,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at`,
		userID, data, now.Add(sr.ttl).Format(sessionTimeLayout), now.Format(sessionTimeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to save session for user %s: %w", userID, err)
	}
	return nil
}

// LastRequest returns the stored request, or nil when there is none or it expired.
func (sr *SessionRepository) LastRequest(ctx context.Context, userID string, now time.Time) (*planner.Request, error) {
	var data []byte
	err := sr.db.QueryRowContext(ctx,
		`SELECT request_data FROM sessions WHERE user_id = ? AND expires_at > ?`,
		userID, now.UTC().Format(sessionTimeLayout),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var req planner.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	req.UserID = userID
	return &req, nil
}

// CleanupExpired removes all expired sessions.
func (sr *SessionRepository) CleanupExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := sr.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, now.UTC().Format(sessionTimeLayout))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
