// Package discount resolves promo codes and one-time user discounts.
// Event promo codes are created by organizers; user discounts are earned
// through referrals and burn on redemption.
package discount

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"ms-eventpay/internal/apperr"
	"ms-eventpay/internal/logger"
	"ms-eventpay/internal/models"
)

type DBLayer interface {
	ActiveEventDiscount(ctx context.Context, eventID, code string, now time.Time) (*models.EventDiscount, error)
	EventDiscountByCode(ctx context.Context, eventID, code string) (*models.EventDiscount, error)
	InsertEventDiscount(ctx context.Context, discount models.EventDiscount) error
	UserDiscountByID(ctx context.Context, id string) (*models.UserDiscount, error)
	ListAvailable(ctx context.Context, userID string, now time.Time) ([]models.UserDiscount, error)
	ConsumeUserDiscount(ctx context.Context, id, userID string, now time.Time) (bool, error)
}

type EventStore interface {
	GetEventByID(ctx context.Context, id string) (*models.Event, error)
}

type Service struct {
	db     DBLayer
	events EventStore
	logger *logger.Logger
}

func NewService(db DBLayer, events EventStore, log *logger.Logger) *Service {
	return &Service{db: db, events: events, logger: log}
}

// ApplyCode resolves a promo code against an event. A code outside its
// validity window is indistinguishable from a missing one.
func (s *Service) ApplyCode(ctx context.Context, eventID, code string) (*models.ApplyDiscountResponse, error) {
	event, err := s.events.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, apperr.NotFound("event %s not found", eventID)
	}

	discount, err := s.db.ActiveEventDiscount(ctx, eventID, code, time.Now())
	if err != nil {
		return nil, err
	}
	if discount == nil {
		return nil, apperr.NotFound("no active discount code %q for event %s", code, eventID)
	}

	return &models.ApplyDiscountResponse{
		Code:               discount.Code,
		DiscountPercentage: discount.DiscountPercentage,
		Price:              event.Price,
		DiscountedPrice:    DiscountedPrice(event.Price, discount.DiscountPercentage),
	}, nil
}

// ResolveCode returns the raw active discount row for settlement math.
func (s *Service) ResolveCode(ctx context.Context, eventID, code string) (*models.EventDiscount, error) {
	discount, err := s.db.ActiveEventDiscount(ctx, eventID, code, time.Now())
	if err != nil {
		return nil, err
	}
	if discount == nil {
		return nil, apperr.NotFound("no active discount code %q for event %s", code, eventID)
	}
	return discount, nil
}

// CreateEventCode registers a promo code for an event. Only the event's
// organizer may do this, and codes are unique per event.
func (s *Service) CreateEventCode(ctx context.Context, organizerID, eventID string, req models.CreateEventDiscountRequest) (*models.EventDiscount, error) {
	if req.Code == "" {
		return nil, apperr.Validation("discount code is required")
	}
	if req.DiscountPercentage < 1 || req.DiscountPercentage > 100 {
		return nil, apperr.Validation("discount percentage must be between 1 and 100")
	}
	if !req.ValidTo.After(req.ValidFrom) {
		return nil, apperr.Validation("validity window must end after it starts")
	}

	event, err := s.events.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, apperr.NotFound("event %s not found", eventID)
	}
	if event.OrganizerID != organizerID {
		return nil, apperr.Forbidden("only the event organizer can create discounts")
	}

	existing, err := s.db.EventDiscountByCode(ctx, eventID, req.Code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict("discount code %q already exists for event %s", req.Code, eventID)
	}

	discount := models.EventDiscount{
		ID:                 uuid.New().String(),
		EventID:            eventID,
		Code:               req.Code,
		DiscountPercentage: req.DiscountPercentage,
		ValidFrom:          req.ValidFrom,
		ValidTo:            req.ValidTo,
		CreatedAt:          time.Now(),
	}
	if err := s.db.InsertEventDiscount(ctx, discount); err != nil {
		return nil, err
	}

	s.logger.Info("DISCOUNT", "created code "+discount.Code+" for event "+eventID)
	return &discount, nil
}

// UserDiscountFor fetches a user discount and checks it is redeemable by
// the given user right now.
func (s *Service) UserDiscountFor(ctx context.Context, id, userID string) (*models.UserDiscount, error) {
	discount, err := s.db.UserDiscountByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if discount == nil || discount.UserID != userID {
		return nil, apperr.NotFound("discount %s not found", id)
	}
	if discount.Status != models.DiscountAvailable {
		return nil, apperr.Conflict("discount %s already used", id)
	}
	if !discount.ExpiresAt.After(time.Now()) {
		return nil, apperr.Conflict("discount %s expired", id)
	}
	return discount, nil
}

// Consume burns a user discount. It fails with a conflict if the
// discount was redeemed concurrently.
func (s *Service) Consume(ctx context.Context, id, userID string) error {
	ok, err := s.db.ConsumeUserDiscount(ctx, id, userID, time.Now())
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Conflict("discount %s no longer available", id)
	}
	return nil
}

// Available lists the user's redeemable discounts.
func (s *Service) Available(ctx context.Context, userID string) ([]models.UserDiscount, error) {
	return s.db.ListAvailable(ctx, userID, time.Now())
}

// DiscountedPrice applies a percentage discount, rounded to cents.
func DiscountedPrice(price float64, pct int) float64 {
	discounted := price * (1 - float64(pct)/100)
	return math.Round(discounted*100) / 100
}
