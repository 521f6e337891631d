package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Session groups answers for one play-through. It is distinct from the
// authentication session carried in the shared cookie.
type Session struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"ownerId"`
	SessionName *string    `json:"sessionName"`
	CreatedAt   time.Time  `json:"createdAt"`
	EndedAt     *time.Time `json:"endedAt"`
}

type SessionStore struct {
	db *pgxpool.Pool
}

func (s *SessionStore) Create(ctx context.Context, session *Session) error {
	query := `
		INSERT INTO wyr_sessions (id, owner_id, session_name)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := s.db.QueryRow(ctx, query,
		session.ID,
		session.OwnerID,
		session.SessionName,
	).Scan(&session.CreatedAt)

	if err != nil {
		return fmt.Errorf("error creating session: %w", err)
	}

	return nil
}

// End stamps ended_at on an owned session. COALESCE keeps the first end time
// if the session was already ended.
func (s *SessionStore) End(ctx context.Context, id, ownerID string) (*Session, error) {
	query := `
		UPDATE wyr_sessions
		SET ended_at = COALESCE(ended_at, NOW())
		WHERE id = $1 AND owner_id = $2
		RETURNING id, owner_id, session_name, created_at, ended_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var session Session
	err := s.db.QueryRow(ctx, query, id, ownerID).Scan(
		&session.ID,
		&session.OwnerID,
		&session.SessionName,
		&session.CreatedAt,
		&session.EndedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error ending session: %w", err)
	}

	return &session, nil
}
