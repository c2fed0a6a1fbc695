// Package loyalty keeps the per-user point ledger. Points are granted in
// rows with an expiry date and spent oldest-expiry-first during order
// settlement.
package loyalty

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"ms-eventpay/internal/config"
	"ms-eventpay/internal/logger"
	"ms-eventpay/internal/models"
)

type DBLayer interface {
	ListUnexpired(ctx context.Context, idb bun.IDB, userID string, now time.Time) ([]models.UserPoint, error)
	Balance(ctx context.Context, userID string, now time.Time) (int, error)
	Debit(ctx context.Context, idb bun.IDB, userID string, amount int, now time.Time) (int, error)
}

type Service struct {
	db     DBLayer
	bun    *bun.DB
	cfg    config.LoyaltyConfig
	logger *logger.Logger
}

func NewService(db DBLayer, bunDB *bun.DB, cfg config.LoyaltyConfig, log *logger.Logger) *Service {
	return &Service{db: db, bun: bunDB, cfg: cfg, logger: log}
}

// Balance returns the user's spendable point total, expired rows excluded.
func (s *Service) Balance(ctx context.Context, userID string) (int, error) {
	return s.db.Balance(ctx, userID, time.Now())
}

// Points lists the user's unexpired point rows for display.
func (s *Service) Points(ctx context.Context, userID string) ([]models.UserPoint, error) {
	return s.db.ListUnexpired(ctx, s.bun, userID, time.Now())
}

// Debit spends points inside an open settlement transaction. The amount
// actually taken is capped at the unexpired balance.
func (s *Service) Debit(ctx context.Context, idb bun.IDB, userID string, amount int) (int, error) {
	return s.db.Debit(ctx, idb, userID, amount, time.Now())
}

// ReferralGrant builds the point row a referrer earns when someone signs
// up with their code. Amount and validity come from configuration.
func (s *Service) ReferralGrant(referrerID string, now time.Time) models.UserPoint {
	return models.UserPoint{
		ID:        uuid.New().String(),
		UserID:    referrerID,
		Points:    s.cfg.ReferralPoints,
		ExpiresAt: now.Add(s.cfg.ReferralValidity),
		CreatedAt: now,
	}
}

// ReferralDiscount builds the one-time discount the new user receives for
// signing up with a referral code.
func (s *Service) ReferralDiscount(newUserID string, now time.Time) models.UserDiscount {
	return models.UserDiscount{
		ID:                 uuid.New().String(),
		UserID:             newUserID,
		DiscountPercentage: s.cfg.ReferralDiscountPct,
		Status:             models.DiscountAvailable,
		ExpiresAt:          now.Add(s.cfg.ReferralValidity),
		CreatedAt:          now,
	}
}
