package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Answer is an append-only record of one choice. SessionID is nil for answers
// recorded outside a play session.
type Answer struct {
	ID           string    `json:"id"`
	SessionID    *string   `json:"sessionId"`
	QuestionID   string    `json:"questionId"`
	UserID       string    `json:"userId"`
	ChosenOption string    `json:"chosenOption"`
	CreatedAt    time.Time `json:"createdAt"`
}

type AnswerStore struct {
	db *pgxpool.Pool
}

// Create inserts an answer after re-checking, inside one transaction, that the
// target session (if any) belongs to the recording user and that the question
// is active and visible to them. Both failures surface as ErrNotFound so a
// caller cannot probe for other users' rows.
func (s *AnswerStore) Create(ctx context.Context, answer *Answer) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if answer.SessionID != nil {
		var exists bool
		err := tx.QueryRow(ctx,
			`SELECT true FROM wyr_sessions WHERE id = $1 AND owner_id = $2`,
			*answer.SessionID, answer.UserID,
		).Scan(&exists)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("error checking session: %w", err)
		}
	}

	var visible bool
	err = tx.QueryRow(ctx,
		`SELECT true FROM wyr_questions
		WHERE id = $1 AND is_active = true AND (is_system = true OR owner_id = $2)`,
		answer.QuestionID, answer.UserID,
	).Scan(&visible)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("error checking question: %w", err)
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO wyr_answers (id, session_id, question_id, user_id, chosen_option)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		answer.ID,
		answer.SessionID,
		answer.QuestionID,
		answer.UserID,
		answer.ChosenOption,
	).Scan(&answer.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating answer: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("error committing answer: %w", err)
	}

	return nil
}

// ListBySession returns all answers of a session the caller owns, oldest first.
func (s *AnswerStore) ListBySession(ctx context.Context, sessionID, ownerID string) ([]Answer, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT true FROM wyr_sessions WHERE id = $1 AND owner_id = $2`,
		sessionID, ownerID,
	).Scan(&exists)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error checking session: %w", err)
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, session_id, question_id, user_id, chosen_option, created_at
		FROM wyr_answers
		WHERE session_id = $1
		ORDER BY created_at ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("error fetching answers: %w", err)
	}
	defer rows.Close()

	var answers []Answer
	for rows.Next() {
		var a Answer
		if err := rows.Scan(
			&a.ID,
			&a.SessionID,
			&a.QuestionID,
			&a.UserID,
			&a.ChosenOption,
			&a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning answer: %w", err)
		}
		answers = append(answers, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error fetching answers: %w", err)
	}

	return answers, nil
}
