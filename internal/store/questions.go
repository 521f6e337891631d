package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Question is a binary-choice prompt. OwnerID is nil for system (global)
// questions. Archiving flips is_active; rows are never deleted.
type Question struct {
	ID        string    `json:"id"`
	OwnerID   *string   `json:"ownerId"`
	Prompt    string    `json:"prompt"`
	OptionA   string    `json:"optionA"`
	OptionB   string    `json:"optionB"`
	Category  *string   `json:"category"`
	Language  *string   `json:"language"`
	IsSystem  bool      `json:"isSystem"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// QuestionUpdate carries the fields of a partial update; nil means "leave as is".
type QuestionUpdate struct {
	Prompt   *string
	OptionA  *string
	OptionB  *string
	Category *string
	Language *string
	IsActive *bool
}

// HasFields reports whether at least one field was supplied.
func (u QuestionUpdate) HasFields() bool {
	return u.Prompt != nil || u.OptionA != nil || u.OptionB != nil ||
		u.Category != nil || u.Language != nil || u.IsActive != nil
}

func (u QuestionUpdate) columns() (fields []string, values []any) {
	add := func(name string, value any) {
		fields = append(fields, name)
		values = append(values, value)
	}
	if u.Prompt != nil {
		add("prompt", *u.Prompt)
	}
	if u.OptionA != nil {
		add("option_a", *u.OptionA)
	}
	if u.OptionB != nil {
		add("option_b", *u.OptionB)
	}
	if u.Category != nil {
		add("category", *u.Category)
	}
	if u.Language != nil {
		add("language", *u.Language)
	}
	if u.IsActive != nil {
		add("is_active", *u.IsActive)
	}
	return fields, values
}

// QuestionFilter holds the list query: visibility, optional tag filters and
// pagination. OwnerID is only consulted when IncludeMine is set.
type QuestionFilter struct {
	Category    string
	Language    string
	IncludeMine bool
	OwnerID     string
	Page        int `validate:"gte=1"`
	PageSize    int `validate:"gte=1,lte=100"`
}

// Parse extracts filter values from the request query string.
func (f QuestionFilter) Parse(r *http.Request) (QuestionFilter, error) {
	f.Page = 1
	f.PageSize = 20

	params := r.URL.Query()

	f.Category = params.Get("category")
	f.Language = params.Get("language")

	if includeMineStr := params.Get("includeMine"); includeMineStr != "" {
		includeMine, err := strconv.ParseBool(includeMineStr)
		if err != nil {
			return f, fmt.Errorf("invalid includeMine: %w", err)
		}
		f.IncludeMine = includeMine
	}

	if pageStr := params.Get("page"); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil || page < 1 {
			return f, fmt.Errorf("invalid page: %q", pageStr)
		}
		f.Page = page
	}

	if sizeStr := params.Get("pageSize"); sizeStr != "" {
		size, err := strconv.Atoi(sizeStr)
		if err != nil || size < 1 || size > 100 {
			return f, fmt.Errorf("invalid pageSize: %q", sizeStr)
		}
		f.PageSize = size
	}

	return f, nil
}

type QuestionStore struct {
	db *pgxpool.Pool
}

func (s *QuestionStore) Create(ctx context.Context, question *Question) error {
	query := `
		INSERT INTO wyr_questions
			(id, owner_id, prompt, option_a, option_b, category, language, is_system, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := s.db.QueryRow(ctx, query,
		question.ID,
		question.OwnerID,
		question.Prompt,
		question.OptionA,
		question.OptionB,
		question.Category,
		question.Language,
		question.IsSystem,
		question.IsActive,
	).Scan(
		&question.CreatedAt,
		&question.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("error creating question: %w", err)
	}

	return nil
}

// Update applies a partial update. The owner match lives in the WHERE clause,
// so a foreign, system, or absent question all come back as ErrNotFound and
// the check and the mutation are a single statement.
func (s *QuestionStore) Update(ctx context.Context, id, ownerID string, update QuestionUpdate) (*Question, error) {
	fields, args := update.columns()
	if len(fields) == 0 {
		return nil, ErrNoFields
	}

	setClauses := make([]string, 0, len(fields)+1)
	for i, field := range fields {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", field, i+1))
	}
	setClauses = append(setClauses, "updated_at = NOW()")

	args = append(args, id, ownerID)

	query := fmt.Sprintf(`
		UPDATE wyr_questions
		SET %s
		WHERE id = $%d AND owner_id = $%d
		RETURNING id, owner_id, prompt, option_a, option_b, category, language,
			is_system, is_active, created_at, updated_at
	`, strings.Join(setClauses, ", "), len(args)-1, len(args))

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var question Question
	err := s.db.QueryRow(ctx, query, args...).Scan(
		&question.ID,
		&question.OwnerID,
		&question.Prompt,
		&question.OptionA,
		&question.OptionB,
		&question.Category,
		&question.Language,
		&question.IsSystem,
		&question.IsActive,
		&question.CreatedAt,
		&question.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error updating question: %w", err)
	}

	return &question, nil
}

// Archive soft-deletes an owned question.
func (s *QuestionStore) Archive(ctx context.Context, id, ownerID string) (*Question, error) {
	inactive := false
	return s.Update(ctx, id, ownerID, QuestionUpdate{IsActive: &inactive})
}

// List returns one page of visible questions plus the total matching-row
// count taken from a window function in the same query.
func (s *QuestionStore) List(ctx context.Context, filter QuestionFilter) ([]Question, int, error) {
	conditions := []string{"is_active = true"}
	args := []any{}

	if filter.IncludeMine {
		args = append(args, filter.OwnerID)
		conditions = append(conditions, fmt.Sprintf("(is_system = true OR owner_id = $%d)", len(args)))
	} else {
		conditions = append(conditions, "is_system = true")
	}

	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}

	if filter.Language != "" {
		args = append(args, filter.Language)
		conditions = append(conditions, fmt.Sprintf("language = $%d", len(args)))
	}

	whereClause := strings.Join(conditions, " AND ")
	countArgs := make([]any, len(args))
	copy(countArgs, args)

	args = append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)

	query := fmt.Sprintf(`
		SELECT id, owner_id, prompt, option_a, option_b, category, language,
			is_system, is_active, created_at, updated_at,
			COUNT(*) OVER() AS total
		FROM wyr_questions
		WHERE %s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d
	`, whereClause, len(args)-1, len(args))

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing questions: %w", err)
	}
	defer rows.Close()

	var questions []Question
	var total int
	for rows.Next() {
		var q Question
		if err := rows.Scan(
			&q.ID,
			&q.OwnerID,
			&q.Prompt,
			&q.OptionA,
			&q.OptionB,
			&q.Category,
			&q.Language,
			&q.IsSystem,
			&q.IsActive,
			&q.CreatedAt,
			&q.UpdatedAt,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("error scanning question: %w", err)
		}
		questions = append(questions, q)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error listing questions: %w", err)
	}

	// An offset past the last match yields no rows and with them no window
	// total; count the same predicate separately so the caller still sees
	// how many rows matched.
	if len(questions) == 0 {
		countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM wyr_questions WHERE %s`, whereClause)
		if err := s.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("error counting questions: %w", err)
		}
	}

	return questions, total, nil
}
