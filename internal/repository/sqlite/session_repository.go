package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"hazardcam/internal/model"
)

// SessionRepository implements repository.SessionRepository for SQLite.
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new SQLite session repository.
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Begin opens a session record and returns its id.
func (r *SessionRepository) Begin(clientID, endpoint string, at time.Time) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO sessions (client_id, endpoint, connected_at)
		VALUES (?, ?, ?)
	`, clientID, endpoint, at.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to insert session: %w", err)
	}

	return result.LastInsertId()
}

// End stamps the disconnect time of an open session.
func (r *SessionRepository) End(id int64, at time.Time) error {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		UPDATE sessions SET disconnected_at = ? WHERE id = ? AND disconnected_at IS NULL
	`, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("no open session with id %d", id)
	}
	return nil
}

// GetRecent returns the newest sessions first.
func (r *SessionRepository) GetRecent(limit int) ([]model.Session, error) {
	if limit <= 0 {
		limit = 20
	}

	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, client_id, endpoint, connected_at, disconnected_at
		FROM sessions ORDER BY connected_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []model.Session{}
	for rows.Next() {
		var s model.Session
		var ended sql.NullTime
		if err := rows.Scan(&s.ID, &s.ClientID, &s.Endpoint, &s.ConnectedAt, &ended); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		if ended.Valid {
			t := ended.Time
			s.DisconnectedAt = &t
		}
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}

// CloseDangling ends every session that was never closed.
func (r *SessionRepository) CloseDangling(at time.Time) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`UPDATE sessions SET disconnected_at = ? WHERE disconnected_at IS NULL`, at.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to close dangling sessions: %w", err)
	}
	return result.RowsAffected()
}
