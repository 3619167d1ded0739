package pgstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"goalmateAPI/internal/store"
	"goalmateAPI/internal/types/support"
)

func (s *PGStore) CreateSupport(ctx context.Context, sup *support.Support) error {
	query := `
		INSERT INTO supports (id, supporter_id, supporting_id, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.db.Exec(ctx, query, sup.ID, sup.SupporterID, sup.SupportingID, sup.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("failed to create support: %w", err)
	}
	return nil
}

func (s *PGStore) RetrieveSupport(ctx context.Context, id uuid.UUID) (*support.Support, error) {
	query := `
		SELECT id, supporter_id, supporting_id, created_at
		FROM supports
		WHERE id = $1
	`

	var sup support.Support
	err := s.db.QueryRow(ctx, query, id).Scan(
		&sup.ID,
		&sup.SupporterID,
		&sup.SupportingID,
		&sup.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve support: %w", err)
	}
	return &sup, nil
}

// SupportsByViewer returns the viewer's support edge toward each owner in
// ownerIDs, keyed by owner. Owners the viewer does not support are absent.
func (s *PGStore) SupportsByViewer(ctx context.Context, viewerID uuid.UUID, ownerIDs []uuid.UUID) (map[uuid.UUID]*support.Support, error) {
	supports := make(map[uuid.UUID]*support.Support)
	if len(ownerIDs) == 0 {
		return supports, nil
	}

	query := `
		SELECT id, supporter_id, supporting_id, created_at
		FROM supports
		WHERE supporter_id = $1 AND supporting_id = ANY($2)
	`

	rows, err := s.db.Query(ctx, query, viewerID, ownerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query supports: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sup support.Support
		if err := rows.Scan(&sup.ID, &sup.SupporterID, &sup.SupportingID, &sup.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan support: %w", err)
		}
		supports[sup.SupportingID] = &sup
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return supports, nil
}

func (s *PGStore) SupporterCounts(ctx context.Context, ownerIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int)
	if len(ownerIDs) == 0 {
		return counts, nil
	}

	query := `
		SELECT supporting_id, COUNT(*)
		FROM supports
		WHERE supporting_id = ANY($1)
		GROUP BY supporting_id
	`

	rows, err := s.db.Query(ctx, query, ownerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to count supporters: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ownerID uuid.UUID
		var count int
		if err := rows.Scan(&ownerID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan supporter count: %w", err)
		}
		counts[ownerID] = count
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return counts, nil
}

func (s *PGStore) SupportsBy(ctx context.Context, f store.SupportFilter, page, pageSize int) ([]*support.Support, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	idx := 1

	if f.SupporterID != nil {
		where += fmt.Sprintf(" AND supporter_id = $%d", idx)
		args = append(args, *f.SupporterID)
		idx++
	}
	if f.SupportingID != nil {
		where += fmt.Sprintf(" AND supporting_id = $%d", idx)
		args = append(args, *f.SupportingID)
		idx++
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM supports` + where
	if err := s.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count supports: %w", err)
	}

	query := `
		SELECT id, supporter_id, supporting_id, created_at
		FROM supports` + where +
		fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query supports: %w", err)
	}
	defer rows.Close()

	var supports []*support.Support
	for rows.Next() {
		var sup support.Support
		if err := rows.Scan(&sup.ID, &sup.SupporterID, &sup.SupportingID, &sup.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan support: %w", err)
		}
		supports = append(supports, &sup)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, err
	}

	return supports, total, nil
}

func (s *PGStore) DeleteSupport(ctx context.Context, id uuid.UUID) (int64, error) {
	query := `DELETE FROM supports WHERE id = $1`

	tag, err := s.db.Exec(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete support: %w", err)
	}
	return tag.RowsAffected(), nil
}
