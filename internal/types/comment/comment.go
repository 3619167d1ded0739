package comment

import (
	"time"

	"github.com/google/uuid"
)

// Mention is a user referenced inside a comment body.
type Mention struct {
	ID    uuid.UUID `json:"id"`
	Label string    `json:"label"`
	Link  string    `json:"link,omitempty"`
}

type Comment struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	GoalID      uuid.UUID  `json:"goal_id" db:"goal_id"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty" db:"parent_id"`
	Comment     string     `json:"comment" db:"comment"`
	Mentions    []Mention  `json:"mentions,omitempty" db:"mentions"`
	CreatedByID uuid.UUID  `json:"created_by_id" db:"created_by_id"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}
