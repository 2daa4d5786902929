package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"assessment-engine/internal/app"
	"assessment-engine/internal/domain"
)

// AttemptStore persists attempts as JSONB documents with the filterable
// columns (quiz, learner, status, passed) hoisted out for the listing
// surface.
type AttemptStore struct {
	pool *pgxpool.Pool
}

func NewAttemptStore(pool *pgxpool.Pool) *AttemptStore {
	return &AttemptStore{pool: pool}
}

func (s *AttemptStore) Create(ctx context.Context, attempt domain.Attempt) error {
	raw, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO attempts (id, quiz_id, learner_id, status, passed, data)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		attempt.ID, attempt.QuizID, attempt.LearnerID, string(attempt.Status), attempt.Passed, raw)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

func (s *AttemptStore) Get(ctx context.Context, id string) (domain.Attempt, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM attempts WHERE id=$1`, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("load attempt: %w", err)
	}
	var attempt domain.Attempt
	if err := json.Unmarshal(raw, &attempt); err != nil {
		return domain.Attempt{}, fmt.Errorf("unmarshal attempt: %w", err)
	}
	return attempt, nil
}

func (s *AttemptStore) Update(ctx context.Context, attempt domain.Attempt) error {
	raw, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE attempts SET status=$2, passed=$3, data=$4 WHERE id=$1`,
		attempt.ID, string(attempt.Status), attempt.Passed, raw)
	if err != nil {
		return fmt.Errorf("update attempt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAttemptNotFound
	}
	return nil
}

func (s *AttemptStore) List(ctx context.Context, filter app.AttemptFilter) ([]domain.Attempt, error) {
	where := make([]string, 0, 3)
	args := make([]interface{}, 0, 3)
	if filter.QuizID != "" {
		args = append(args, filter.QuizID)
		where = append(where, "quiz_id=$"+strconv.Itoa(len(args)))
	}
	if filter.LearnerID != "" {
		args = append(args, filter.LearnerID)
		where = append(where, "learner_id=$"+strconv.Itoa(len(args)))
	}
	if filter.Passed != nil {
		args = append(args, *filter.Passed)
		where = append(where, "passed=$"+strconv.Itoa(len(args)))
	}

	query := `SELECT data FROM attempts`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Attempt, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		var attempt domain.Attempt
		if err := json.Unmarshal(raw, &attempt); err != nil {
			return nil, fmt.Errorf("unmarshal attempt: %w", err)
		}
		out = append(out, attempt)
	}
	return out, rows.Err()
}
