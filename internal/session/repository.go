// Package session holds the auth session and the gate that decides whether
// protected content may be produced.
// This file implements the Repository, which persists the single credential
// in session.db so a restart does not force a new login.
package session

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Session is the bearer credential and the identity it was issued for.
type Session struct {
	Token     string    `json:"-"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository handles session database operations.
// The session table holds at most one row (id = 1); saving replaces it.
type Repository struct {
	db  *sql.DB        // session.db - session table
	log zerolog.Logger // Structured logger
}

// NewRepository creates a new session repository.
//
// Parameters:
//   - db: Database connection to session.db
//   - log: Structured logger
//
// Returns:
//   - *Repository: Initialized repository instance
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "session").Logger(),
	}
}

// Load returns the persisted session.
// Returns nil if no session is stored (not an error).
//
// Returns:
//   - *Session: Stored session, nil if absent
//   - error: Error if query fails
func (r *Repository) Load() (*Session, error) {
	var (
		s         Session
		createdAt int64
	)
	err := r.db.QueryRow(
		"SELECT token, email, role, created_at FROM session WHERE id = 1",
	).Scan(&s.Token, &s.Email, &s.Role, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	s.CreatedAt = time.Unix(createdAt, 0)
	return &s, nil
}

// Save stores s, replacing any previous session.
//
// Parameters:
//   - s: Session to persist; the token must be non-empty
//
// Returns:
//   - error: Error if the session is invalid or the write fails
func (r *Repository) Save(s Session) error {
	if s.Token == "" {
		return fmt.Errorf("cannot save session without token")
	}
	if s.Role == "" {
		s.Role = "user"
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(`
		INSERT INTO session (id, token, email, role, created_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			token = excluded.token,
			email = excluded.email,
			role = excluded.role,
			created_at = excluded.created_at
	`, s.Token, s.Email, s.Role, s.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	r.log.Debug().Str("email", s.Email).Msg("Session saved")
	return nil
}

// Delete removes the stored session. Deleting when none exists is not an error.
func (r *Repository) Delete() error {
	if _, err := r.db.Exec("DELETE FROM session"); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
