package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	StatusPending   = "Pending"
	StatusCompleted = "Completed"
	StatusCancelled = "Cancelled"
)

// Transaction is a purchase order. It is created Pending at intake and
// moves exactly once to Completed or Cancelled at settlement.
type Transaction struct {
	bun.BaseModel `bun:"table:transactions,alias:transaction"`

	ID             string    `bun:"id,pk" json:"id"`
	UserID         string    `bun:"user_id,notnull" json:"user_id"`
	EventID        string    `bun:"event_id,notnull" json:"event_id"`
	TicketAmount   int       `bun:"ticket_amount,notnull" json:"ticket_amount"`
	TotalAmount    float64   `bun:"total_amount,notnull" json:"total_amount"`
	PointAmount    int       `bun:"point_amount" json:"point_amount"`
	DiscountAmount float64   `bun:"discount_amount" json:"discount_amount"`
	FinalAmount    float64   `bun:"final_amount,notnull" json:"final_amount"`
	Status         string    `bun:"status,notnull" json:"status"`
	CreatedAt      time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt      time.Time `bun:"updated_at,notnull" json:"updated_at"`
}

// Terminal reports whether the transaction has left the Pending state.
func (t *Transaction) Terminal() bool {
	return t.Status == StatusCompleted || t.Status == StatusCancelled
}

type CreateOrderRequest struct {
	EventID      string  `json:"eventId"`
	TicketAmount int     `json:"ticketAmount"`
	TotalAmount  float64 `json:"totalAmount"`
	PointAmount  int     `json:"pointAmount"`
	DiscountAmt  float64 `json:"discountAmount"`
	FinalAmount  float64 `json:"finalAmount"`
	DiscountID   string  `json:"discountId"`
	// Optional event promo code, resolved server-side.
	Code string `json:"code"`
}

type FinishOrderRequest struct {
	ID   string `json:"id"`
	Type int    `json:"type"` // 1 = complete, anything else = cancel
}

type FreeTicketRequest struct {
	EventID string `json:"eventId"`
	// Seat is the caller's idea of the pre-booking seat count. It is
	// accepted for wire compatibility but never trusted; the decrement
	// is conditional on the stored count.
	Seat   int `json:"seat"`
	Amount int `json:"amount"`
}

type TransactionWithEvent struct {
	Transaction
	EventName string `bun:"event_name" json:"event_name"`
}
