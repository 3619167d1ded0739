// Package store defines the persistence contract shared by the pgx-backed
// implementation and the in-memory one used in tests. Repositories never
// reach for ambient state: every call runs against the store it is given,
// and WithTx hands the callback a store bound to a single transaction.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"goalmateAPI/internal/types/cheer"
	"goalmateAPI/internal/types/comment"
	"goalmateAPI/internal/types/goal"
	"goalmateAPI/internal/types/notification"
	"goalmateAPI/internal/types/support"
	"goalmateAPI/internal/types/user"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate maps storage-level unique violations. The application
	// pre-checks duplicates too, but only the constraint is race-safe.
	ErrDuplicate = errors.New("duplicate record")
)

// CommentStats carries the per-goal comment aggregate the feed needs:
// total count plus the single most recent comment.
type CommentStats struct {
	Total  int
	Latest *comment.Comment
}

// SupportFilter narrows support listings by either endpoint of the edge.
type SupportFilter struct {
	SupporterID  *uuid.UUID
	SupportingID *uuid.UUID
}

type Store interface {
	// WithTx runs fn inside one transaction: begin before fn, commit only
	// when fn returns nil, roll back otherwise. The session is released on
	// every exit path. fn receives a store bound to the transaction and
	// must not retain it.
	WithTx(ctx context.Context, fn func(Store) error) error

	// users
	RetrieveUser(ctx context.Context, id uuid.UUID) (*user.User, error)
	UsersByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*user.User, error)
	UpdateUserDeviceTokens(ctx context.Context, id uuid.UUID, tokens []user.DeviceToken) error

	// goals
	CreateGoal(ctx context.Context, g *goal.Goal) error
	RetrieveGoal(ctx context.Context, id uuid.UUID) (*goal.Goal, error)
	// GoalsByFilter returns candidate goals newest-first. Visibility is the
	// caller's job; pagination happens after the visibility pass.
	GoalsByFilter(ctx context.Context, f goal.Filter) ([]*goal.Goal, error)
	GoalsDueBetween(ctx context.Context, from, to time.Time) ([]*goal.Goal, error)
	UpdateGoalStatus(ctx context.Context, id uuid.UUID, status goal.Status) (int64, error)
	AppendGoalProgress(ctx context.Context, goalID uuid.UUID, entry goal.ProgressEntry) (int64, error)
	DeleteGoal(ctx context.Context, id uuid.UUID) (int64, error)

	// cheers
	CreateCheer(ctx context.Context, c *cheer.Cheer) error
	RetrieveCheer(ctx context.Context, id uuid.UUID) (*cheer.Cheer, error)
	CheerByGoalAndUser(ctx context.Context, goalID, userID uuid.UUID) (*cheer.Cheer, error)
	CheersByGoal(ctx context.Context, goalID uuid.UUID, page, pageSize int) ([]*cheer.Cheer, int, error)
	CheersByGoalIDs(ctx context.Context, goalIDs []uuid.UUID) (map[uuid.UUID][]*cheer.Cheer, error)
	DeleteCheer(ctx context.Context, id uuid.UUID) (int64, error)
	DeleteCheersByGoal(ctx context.Context, goalID uuid.UUID) (int64, error)

	// comments
	CreateComment(ctx context.Context, c *comment.Comment) error
	RetrieveComment(ctx context.Context, id uuid.UUID) (*comment.Comment, error)
	UpdateCommentText(ctx context.Context, id uuid.UUID, text string) (int64, error)
	CommentsByGoal(ctx context.Context, goalID uuid.UUID, page, pageSize int) ([]*comment.Comment, int, error)
	CommentStatsByGoalIDs(ctx context.Context, goalIDs []uuid.UUID) (map[uuid.UUID]CommentStats, error)
	DeleteComment(ctx context.Context, id uuid.UUID) (int64, error)
	DeleteCommentsByGoal(ctx context.Context, goalID uuid.UUID) (int64, error)

	// supports
	CreateSupport(ctx context.Context, s *support.Support) error
	RetrieveSupport(ctx context.Context, id uuid.UUID) (*support.Support, error)
	SupportsByViewer(ctx context.Context, viewerID uuid.UUID, ownerIDs []uuid.UUID) (map[uuid.UUID]*support.Support, error)
	SupporterCounts(ctx context.Context, ownerIDs []uuid.UUID) (map[uuid.UUID]int, error)
	SupportsBy(ctx context.Context, f SupportFilter, page, pageSize int) ([]*support.Support, int, error)
	DeleteSupport(ctx context.Context, id uuid.UUID) (int64, error)

	// notifications
	CreateNotification(ctx context.Context, n *notification.Notification) error
	NotificationsByRecipient(ctx context.Context, recipientID uuid.UUID, f notification.Filter, page, pageSize int) ([]*notification.Notification, int, error)
	MarkNotificationRead(ctx context.Context, id, recipientID uuid.UUID) (int64, error)
}
