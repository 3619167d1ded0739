package cheer

import (
	"time"

	"github.com/google/uuid"
)

// Cheer is one user's applause on one goal. The (goal_id, created_by_id)
// pair is unique, backed by a storage-level constraint.
type Cheer struct {
	ID          uuid.UUID `json:"id" db:"id"`
	GoalID      uuid.UUID `json:"goal_id" db:"goal_id"`
	CreatedByID uuid.UUID `json:"created_by_id" db:"created_by_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
