package notification

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeSupport        Type = "support"
	TypeUnsupport      Type = "unsupport"
	TypeCheers         Type = "cheers"
	TypeComment        Type = "comment"
	TypeCommentReplied Type = "comment-replied"
	TypeGoalFailed     Type = "goal-failed"
	TypeSystem         Type = "system"
)

// Notification is an append-only record. Its lifecycle is independent of
// the entities that triggered it; deleting a goal does not cascade here.
type Notification struct {
	ID           uuid.UUID         `json:"id" db:"id"`
	Type         Type              `json:"type" db:"type"`
	ActorID      *uuid.UUID        `json:"actor_id,omitempty" db:"actor_id"`
	RecipientID  uuid.UUID         `json:"recipient_id" db:"recipient_id"`
	Message      string            `json:"message" db:"message"`
	IsRead       bool              `json:"is_read" db:"is_read"`
	Entities     map[string]string `json:"entities,omitempty" db:"entities"`
	ThumbnailURL string            `json:"thumbnail_url,omitempty" db:"thumbnail_url"`
	CreatedAt    time.Time         `json:"created_at" db:"created_at"`
}

// Filter narrows notification listings. Type defaults to "everything but
// system" when unset.
type Filter struct {
	IsRead *bool
	Type   *Type
}
