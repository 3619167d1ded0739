package pgstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"goalmateAPI/internal/store"
	"goalmateAPI/internal/types/cheer"
)

func (s *PGStore) CreateCheer(ctx context.Context, c *cheer.Cheer) error {
	query := `
		INSERT INTO cheers (id, goal_id, created_by_id, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.db.Exec(ctx, query, c.ID, c.GoalID, c.CreatedByID, c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("failed to create cheer: %w", err)
	}
	return nil
}

func (s *PGStore) RetrieveCheer(ctx context.Context, id uuid.UUID) (*cheer.Cheer, error) {
	query := `
		SELECT id, goal_id, created_by_id, created_at
		FROM cheers
		WHERE id = $1
	`

	var c cheer.Cheer
	err := s.db.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.GoalID,
		&c.CreatedByID,
		&c.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve cheer: %w", err)
	}
	return &c, nil
}

func (s *PGStore) CheerByGoalAndUser(ctx context.Context, goalID, userID uuid.UUID) (*cheer.Cheer, error) {
	query := `
		SELECT id, goal_id, created_by_id, created_at
		FROM cheers
		WHERE goal_id = $1 AND created_by_id = $2
	`

	var c cheer.Cheer
	err := s.db.QueryRow(ctx, query, goalID, userID).Scan(
		&c.ID,
		&c.GoalID,
		&c.CreatedByID,
		&c.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve cheer: %w", err)
	}
	return &c, nil
}

func (s *PGStore) CheersByGoal(ctx context.Context, goalID uuid.UUID, page, pageSize int) ([]*cheer.Cheer, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM cheers WHERE goal_id = $1`
	if err := s.db.QueryRow(ctx, countQuery, goalID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count cheers: %w", err)
	}

	query := `
		SELECT id, goal_id, created_by_id, created_at
		FROM cheers
		WHERE goal_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.db.Query(ctx, query, goalID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query cheers: %w", err)
	}
	defer rows.Close()

	var cheers []*cheer.Cheer
	for rows.Next() {
		var c cheer.Cheer
		if err := rows.Scan(&c.ID, &c.GoalID, &c.CreatedByID, &c.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan cheer: %w", err)
		}
		cheers = append(cheers, &c)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, err
	}

	return cheers, total, nil
}

func (s *PGStore) CheersByGoalIDs(ctx context.Context, goalIDs []uuid.UUID) (map[uuid.UUID][]*cheer.Cheer, error) {
	cheers := make(map[uuid.UUID][]*cheer.Cheer)
	if len(goalIDs) == 0 {
		return cheers, nil
	}

	query := `
		SELECT id, goal_id, created_by_id, created_at
		FROM cheers
		WHERE goal_id = ANY($1)
		ORDER BY created_at DESC, id DESC
	`

	rows, err := s.db.Query(ctx, query, goalIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query cheers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c cheer.Cheer
		if err := rows.Scan(&c.ID, &c.GoalID, &c.CreatedByID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cheer: %w", err)
		}
		cheers[c.GoalID] = append(cheers[c.GoalID], &c)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return cheers, nil
}

func (s *PGStore) DeleteCheer(ctx context.Context, id uuid.UUID) (int64, error) {
	query := `DELETE FROM cheers WHERE id = $1`

	tag, err := s.db.Exec(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete cheer: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PGStore) DeleteCheersByGoal(ctx context.Context, goalID uuid.UUID) (int64, error) {
	query := `DELETE FROM cheers WHERE goal_id = $1`

	tag, err := s.db.Exec(ctx, query, goalID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete cheers for goal: %w", err)
	}
	return tag.RowsAffected(), nil
}
