package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Ticket is one admission credential, minted at settlement time only.
// Credentials is an opaque unique string; the QR code is a PNG render
// of it for gate scanning.
type Ticket struct {
	bun.BaseModel `bun:"table:tickets,alias:ticket"`

	ID          string    `bun:"id,pk" json:"id"`
	EventID     string    `bun:"event_id,notnull" json:"event_id"`
	AttendeeID  string    `bun:"attendee_id,notnull" json:"attendee_id"`
	Credentials string    `bun:"credentials,unique,notnull" json:"credentials"`
	QRCode      []byte    `bun:"qr_code" json:"qr_code,omitempty"`
	CreatedAt   time.Time `bun:"created_at,notnull" json:"created_at"`
}

type TicketWithEvent struct {
	Ticket
	EventName     string    `bun:"event_name" json:"event_name"`
	EventDatetime time.Time `bun:"event_datetime" json:"event_datetime"`
}
