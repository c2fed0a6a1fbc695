package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	DiscountAvailable = "Available"
	DiscountUsed      = "Used"
)

// UserDiscount is a one-shot personal discount, typically granted
// through a referral. Once Used it never becomes Available again.
type UserDiscount struct {
	bun.BaseModel `bun:"table:user_discounts"`

	ID                 string    `bun:"id,pk" json:"id"`
	UserID             string    `bun:"user_id,notnull" json:"user_id"`
	DiscountPercentage int       `bun:"discount_percentage,notnull" json:"discount_percentage"`
	Status             string    `bun:"status,notnull" json:"status"`
	ExpiresAt          time.Time `bun:"expires_at,notnull" json:"expires_at"`
	CreatedAt          time.Time `bun:"created_at,notnull" json:"created_at"`
}

// EventDiscount is an organizer-issued promo code. It carries no usage
// state: any user may apply it any number of times while its validity
// window is open.
type EventDiscount struct {
	bun.BaseModel `bun:"table:event_discounts"`

	ID                 string    `bun:"id,pk" json:"id"`
	EventID            string    `bun:"event_id,notnull" json:"event_id"`
	Code               string    `bun:"code,notnull" json:"code"`
	DiscountPercentage int       `bun:"discount_percentage,notnull" json:"discount_percentage"`
	ValidFrom          time.Time `bun:"valid_from,notnull" json:"valid_from"`
	ValidTo            time.Time `bun:"valid_to,notnull" json:"valid_to"`
	CreatedAt          time.Time `bun:"created_at,notnull" json:"created_at"`
}

type CreateEventDiscountRequest struct {
	Code               string    `json:"code"`
	DiscountPercentage int       `json:"discountPercentage"`
	ValidFrom          time.Time `json:"validFrom"`
	ValidTo            time.Time `json:"validTo"`
}

type ApplyDiscountRequest struct {
	Code string `json:"code"`
}

type ApplyDiscountResponse struct {
	Code               string  `json:"code"`
	DiscountPercentage int     `json:"discount_percentage"`
	Price              float64 `json:"price"`
	DiscountedPrice    float64 `json:"discounted_price"`
}
