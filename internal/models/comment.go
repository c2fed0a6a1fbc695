package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Comment is a rating left against a completed transaction. The
// transaction_id column carries a unique constraint so a transaction
// can be reviewed at most once.
type Comment struct {
	bun.BaseModel `bun:"table:comments"`

	ID            string    `bun:"id,pk" json:"id"`
	TransactionID string    `bun:"transaction_id,unique,notnull" json:"transaction_id"`
	AttendeeID    string    `bun:"attendee_id,notnull" json:"attendee_id"`
	EventID       string    `bun:"event_id,notnull" json:"event_id"`
	Rating        int       `bun:"rating,notnull" json:"rating"`
	Text          string    `bun:"text,nullzero" json:"text,omitempty"`
	CreatedAt     time.Time `bun:"created_at,notnull" json:"created_at"`
}

type CreateCommentRequest struct {
	EventID string `json:"eventId"`
	Rating  int    `json:"rating"`
	Text    string `json:"text"`
}
