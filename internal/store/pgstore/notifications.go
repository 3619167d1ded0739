package pgstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"goalmateAPI/internal/types/notification"
)

const notificationColumns = `
		id, type, actor_id, recipient_id, message, is_read,
		COALESCE(entities, '{}'), thumbnail_url, created_at`

func scanNotification(row pgx.Row) (*notification.Notification, error) {
	var n notification.Notification
	var entitiesRaw []byte

	err := row.Scan(
		&n.ID,
		&n.Type,
		&n.ActorID,
		&n.RecipientID,
		&n.Message,
		&n.IsRead,
		&entitiesRaw,
		&n.ThumbnailURL,
		&n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(entitiesRaw, &n.Entities); err != nil {
		return nil, fmt.Errorf("failed to decode notification entities: %w", err)
	}

	return &n, nil
}

func (s *PGStore) CreateNotification(ctx context.Context, n *notification.Notification) error {
	entitiesRaw, err := json.Marshal(n.Entities)
	if err != nil {
		return fmt.Errorf("failed to encode notification entities: %w", err)
	}

	query := `
		INSERT INTO notifications (id, type, actor_id, recipient_id, message, is_read, entities, thumbnail_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = s.db.Exec(ctx, query,
		n.ID, n.Type, n.ActorID, n.RecipientID, n.Message, n.IsRead,
		entitiesRaw, n.ThumbnailURL, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// NotificationsByRecipient lists a user's notifications newest-first.
// Without an explicit type filter, system notifications are excluded.
func (s *PGStore) NotificationsByRecipient(ctx context.Context, recipientID uuid.UUID, f notification.Filter, page, pageSize int) ([]*notification.Notification, int, error) {
	where := " WHERE recipient_id = $1"
	args := []any{recipientID}
	idx := 2

	if f.Type != nil {
		where += fmt.Sprintf(" AND type = $%d", idx)
		args = append(args, *f.Type)
		idx++
	} else {
		where += fmt.Sprintf(" AND type <> $%d", idx)
		args = append(args, notification.TypeSystem)
		idx++
	}
	if f.IsRead != nil {
		where += fmt.Sprintf(" AND is_read = $%d", idx)
		args = append(args, *f.IsRead)
		idx++
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM notifications` + where
	if err := s.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	query := `
		SELECT` + notificationColumns + `
		FROM notifications` + where +
		fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*notification.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}

func (s *PGStore) MarkNotificationRead(ctx context.Context, id, recipientID uuid.UUID) (int64, error) {
	query := `
		UPDATE notifications
		SET is_read = TRUE
		WHERE id = $1 AND recipient_id = $2
	`

	tag, err := s.db.Exec(ctx, query, id, recipientID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notification read: %w", err)
	}
	return tag.RowsAffected(), nil
}
