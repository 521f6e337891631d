package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrNoFields          = errors.New("no fields to update")
	QueryTimeoutDuration = time.Second * 5
)

type Storage struct {
	Questions interface {
		Create(context.Context, *Question) error
		Update(ctx context.Context, id, ownerID string, update QuestionUpdate) (*Question, error)
		Archive(ctx context.Context, id, ownerID string) (*Question, error)
		List(context.Context, QuestionFilter) ([]Question, int, error)
	}
	Sessions interface {
		Create(context.Context, *Session) error
		End(ctx context.Context, id, ownerID string) (*Session, error)
	}
	Answers interface {
		Create(context.Context, *Answer) error
		ListBySession(ctx context.Context, sessionID, ownerID string) ([]Answer, error)
	}
}

func NewStorage(db *pgxpool.Pool) Storage {
	return Storage{
		Questions: &QuestionStore{db},
		Sessions:  &SessionStore{db},
		Answers:   &AnswerStore{db},
	}
}
