package pgstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"goalmateAPI/internal/store"
	"goalmateAPI/internal/types/goal"
)

const goalColumns = `
		id, created_by_id, specific, measurable, achievable, relevant,
		time, thumbnail_url, visibility, status,
		COALESCE(progress, '[]'), created_at, updated_at`

func scanGoal(row pgx.Row) (*goal.Goal, error) {
	var g goal.Goal
	var progressRaw []byte

	err := row.Scan(
		&g.ID,
		&g.CreatedByID,
		&g.Specific,
		&g.Measurable,
		&g.Achievable,
		&g.Relevant,
		&g.Time,
		&g.ThumbnailURL,
		&g.Visibility,
		&g.Status,
		&progressRaw,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(progressRaw, &g.Progress); err != nil {
		return nil, fmt.Errorf("failed to decode goal progress: %w", err)
	}

	return &g, nil
}

func (s *PGStore) CreateGoal(ctx context.Context, g *goal.Goal) error {
	query := `
		INSERT INTO goals (
			id, created_by_id, specific, measurable, achievable, relevant,
			time, thumbnail_url, visibility, status, progress, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, '[]', $11, $11)
	`

	_, err := s.db.Exec(ctx, query,
		g.ID, g.CreatedByID, g.Specific, g.Measurable, g.Achievable, g.Relevant,
		g.Time, g.ThumbnailURL, g.Visibility, g.Status, g.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create goal: %w", err)
	}
	return nil
}

func (s *PGStore) RetrieveGoal(ctx context.Context, id uuid.UUID) (*goal.Goal, error) {
	query := `
		SELECT` + goalColumns + `
		FROM goals
		WHERE id = $1
	`

	g, err := scanGoal(s.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve goal: %w", err)
	}
	return g, nil
}

func (s *PGStore) GoalsByFilter(ctx context.Context, f goal.Filter) ([]*goal.Goal, error) {
	query := `
		SELECT` + goalColumns + `
		FROM goals
		WHERE 1=1
	`
	args := []any{}
	idx := 1

	if f.CreatedByID != nil {
		query += fmt.Sprintf(" AND created_by_id = $%d", idx)
		args = append(args, *f.CreatedByID)
		idx++
	}
	if f.CreatedByIDs != nil {
		query += fmt.Sprintf(" AND created_by_id = ANY($%d)", idx)
		args = append(args, f.CreatedByIDs)
		idx++
	}
	if f.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, *f.Status)
		idx++
	}

	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}
	defer rows.Close()

	var goals []*goal.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return goals, nil
}

func (s *PGStore) GoalsDueBetween(ctx context.Context, from, to time.Time) ([]*goal.Goal, error) {
	query := `
		SELECT` + goalColumns + `
		FROM goals
		WHERE status = $1 AND time >= $2 AND time < $3
		ORDER BY time ASC
	`

	rows, err := s.db.Query(ctx, query, goal.StatusInProgress, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query due goals: %w", err)
	}
	defer rows.Close()

	var goals []*goal.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return goals, nil
}

func (s *PGStore) UpdateGoalStatus(ctx context.Context, id uuid.UUID, status goal.Status) (int64, error) {
	query := `
		UPDATE goals
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := s.db.Exec(ctx, query, id, status)
	if err != nil {
		return 0, fmt.Errorf("failed to update goal status: %w", err)
	}
	return tag.RowsAffected(), nil
}

// AppendGoalProgress prepends one entry to the goal's progress list in a
// single statement, so concurrent appends never lose entries.
func (s *PGStore) AppendGoalProgress(ctx context.Context, goalID uuid.UUID, entry goal.ProgressEntry) (int64, error) {
	raw, err := json.Marshal([]goal.ProgressEntry{entry})
	if err != nil {
		return 0, fmt.Errorf("failed to encode progress entry: %w", err)
	}

	query := `
		UPDATE goals
		SET progress = $2::jsonb || COALESCE(progress, '[]'::jsonb), updated_at = NOW()
		WHERE id = $1
	`

	tag, err := s.db.Exec(ctx, query, goalID, raw)
	if err != nil {
		return 0, fmt.Errorf("failed to append goal progress: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PGStore) DeleteGoal(ctx context.Context, id uuid.UUID) (int64, error) {
	query := `DELETE FROM goals WHERE id = $1`

	tag, err := s.db.Exec(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete goal: %w", err)
	}
	return tag.RowsAffected(), nil
}
