package models

import (
	"time"

	"github.com/uptrace/bun"
)

// UserPoint is a single grant of loyalty points. A user can hold many
// rows at once, each with its own expiry; debits drain the
// soonest-to-expire rows first.
type UserPoint struct {
	bun.BaseModel `bun:"table:user_points"`

	ID        string    `bun:"id,pk" json:"id"`
	UserID    string    `bun:"user_id,notnull" json:"user_id"`
	Points    int       `bun:"points,notnull" json:"points"`
	ExpiresAt time.Time `bun:"expires_at,notnull" json:"expires_at"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
}
