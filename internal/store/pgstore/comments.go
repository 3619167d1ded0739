package pgstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"goalmateAPI/internal/store"
	"goalmateAPI/internal/types/comment"
)

const commentColumns = `
		id, goal_id, parent_id, comment, COALESCE(mentions, '[]'),
		created_by_id, created_at, updated_at`

func scanComment(row pgx.Row) (*comment.Comment, error) {
	var c comment.Comment
	var mentionsRaw []byte

	err := row.Scan(
		&c.ID,
		&c.GoalID,
		&c.ParentID,
		&c.Comment,
		&mentionsRaw,
		&c.CreatedByID,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(mentionsRaw, &c.Mentions); err != nil {
		return nil, fmt.Errorf("failed to decode comment mentions: %w", err)
	}

	return &c, nil
}

func (s *PGStore) CreateComment(ctx context.Context, c *comment.Comment) error {
	mentionsRaw, err := json.Marshal(c.Mentions)
	if err != nil {
		return fmt.Errorf("failed to encode comment mentions: %w", err)
	}

	query := `
		INSERT INTO comments (id, goal_id, parent_id, comment, mentions, created_by_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	`

	_, err = s.db.Exec(ctx, query, c.ID, c.GoalID, c.ParentID, c.Comment, mentionsRaw, c.CreatedByID, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

func (s *PGStore) RetrieveComment(ctx context.Context, id uuid.UUID) (*comment.Comment, error) {
	query := `
		SELECT` + commentColumns + `
		FROM comments
		WHERE id = $1
	`

	c, err := scanComment(s.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve comment: %w", err)
	}
	return c, nil
}

func (s *PGStore) UpdateCommentText(ctx context.Context, id uuid.UUID, text string) (int64, error) {
	query := `
		UPDATE comments
		SET comment = $2, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := s.db.Exec(ctx, query, id, text)
	if err != nil {
		return 0, fmt.Errorf("failed to update comment: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PGStore) CommentsByGoal(ctx context.Context, goalID uuid.UUID, page, pageSize int) ([]*comment.Comment, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM comments WHERE goal_id = $1`
	if err := s.db.QueryRow(ctx, countQuery, goalID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count comments: %w", err)
	}

	query := `
		SELECT` + commentColumns + `
		FROM comments
		WHERE goal_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.db.Query(ctx, query, goalID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	var comments []*comment.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, err
	}

	return comments, total, nil
}

// CommentStatsByGoalIDs returns, per goal, the comment count and the most
// recent comment. Recency ties on created_at break by id, newest first.
func (s *PGStore) CommentStatsByGoalIDs(ctx context.Context, goalIDs []uuid.UUID) (map[uuid.UUID]store.CommentStats, error) {
	stats := make(map[uuid.UUID]store.CommentStats)
	if len(goalIDs) == 0 {
		return stats, nil
	}

	countQuery := `
		SELECT goal_id, COUNT(*)
		FROM comments
		WHERE goal_id = ANY($1)
		GROUP BY goal_id
	`

	rows, err := s.db.Query(ctx, countQuery, goalIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to count comments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var goalID uuid.UUID
		var total int
		if err := rows.Scan(&goalID, &total); err != nil {
			return nil, fmt.Errorf("failed to scan comment count: %w", err)
		}
		stats[goalID] = store.CommentStats{Total: total}
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	latestQuery := `
		SELECT DISTINCT ON (goal_id)` + commentColumns + `
		FROM comments
		WHERE goal_id = ANY($1)
		ORDER BY goal_id, created_at DESC, id DESC
	`

	latestRows, err := s.db.Query(ctx, latestQuery, goalIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest comments: %w", err)
	}
	defer latestRows.Close()

	for latestRows.Next() {
		c, err := scanComment(latestRows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan latest comment: %w", err)
		}
		st := stats[c.GoalID]
		st.Latest = c
		stats[c.GoalID] = st
	}
	if err = latestRows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}

func (s *PGStore) DeleteComment(ctx context.Context, id uuid.UUID) (int64, error) {
	query := `DELETE FROM comments WHERE id = $1`

	tag, err := s.db.Exec(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete comment: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PGStore) DeleteCommentsByGoal(ctx context.Context, goalID uuid.UUID) (int64, error) {
	query := `DELETE FROM comments WHERE goal_id = $1`

	tag, err := s.db.Exec(ctx, query, goalID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete comments for goal: %w", err)
	}
	return tag.RowsAffected(), nil
}
