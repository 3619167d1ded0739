package goal

import (
	"time"

	"github.com/google/uuid"
)

type Visibility string

const (
	VisibilityPublic     Visibility = "public"
	VisibilityPrivate    Visibility = "private"
	VisibilitySupporters Visibility = "supporters"
)

type Status string

const (
	StatusInProgress Status = "in-progress"
	StatusAchieved   Status = "achieved"
	StatusFailed     Status = "failed"
)

// ProgressEntry is one update inside a goal's embedded progress list.
// The list is kept newest-first and is only ever mutated by prepending.
type ProgressEntry struct {
	ID           uuid.UUID `json:"id" db:"id"`
	GoalID       uuid.UUID `json:"goal_id" db:"goal_id"`
	Caption      string    `json:"caption" db:"caption"`
	MediaURL     string    `json:"media_url" db:"media_url"`
	ThumbnailURL string    `json:"thumbnail_url" db:"thumbnail_url"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

type Goal struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	CreatedByID  uuid.UUID       `json:"created_by_id" db:"created_by_id"`
	Specific     string          `json:"specific" db:"specific"`
	Measurable   string          `json:"measurable" db:"measurable"`
	Achievable   string          `json:"achievable" db:"achievable"`
	Relevant     string          `json:"relevant" db:"relevant"`
	Time         time.Time       `json:"time" db:"time"`
	ThumbnailURL string          `json:"thumbnail_url" db:"thumbnail_url"`
	Visibility   Visibility      `json:"visibility" db:"visibility"`
	Status       Status          `json:"status" db:"status"`
	Progress     []ProgressEntry `json:"progress" db:"progress"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// Filter narrows goal listings before the visibility pass. CreatedByIDs
// restricts to a set of owners; the feed layer resolves "goals of people
// I support" into that set before it reaches storage.
type Filter struct {
	CreatedByID  *uuid.UUID
	CreatedByIDs []uuid.UUID
	Status       *Status
}
