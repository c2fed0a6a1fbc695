package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	EventTypeFree = "Free"
	EventTypePaid = "Paid"
)

type Event struct {
	bun.BaseModel `bun:"table:events,alias:event"`

	ID             string    `bun:"id,pk" json:"id"`
	Name           string    `bun:"name,notnull" json:"name"`
	Description    string    `bun:"description,nullzero" json:"description,omitempty"`
	Datetime       time.Time `bun:"datetime,notnull" json:"datetime"`
	LocationID     string    `bun:"location_id,nullzero" json:"location_id,omitempty"`
	CategoryID     string    `bun:"category_id,nullzero" json:"category_id,omitempty"`
	OrganizerID    string    `bun:"organizer_id,notnull" json:"organizer_id"`
	AvailableSeats int       `bun:"available_seats,notnull" json:"available_seats"`
	Price          float64   `bun:"price,notnull" json:"price"`
	EventType      string    `bun:"event_type,notnull" json:"event_type"`
	CreatedAt      time.Time `bun:"created_at,notnull" json:"created_at"`
}
