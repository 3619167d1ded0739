package support

import (
	"time"

	"github.com/google/uuid"
)

// Support is a directed follow edge: supporter_id supports supporting_id.
// The pair is unique and self-support is rejected at creation.
type Support struct {
	ID           uuid.UUID `json:"id" db:"id"`
	SupporterID  uuid.UUID `json:"supporter_id" db:"supporter_id"`
	SupportingID uuid.UUID `json:"supporting_id" db:"supporting_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
