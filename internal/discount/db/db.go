package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"ms-eventpay/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// ActiveEventDiscount looks up a promo code for an event whose validity
// window contains now. Both window edges are inclusive.
func (d *DB) ActiveEventDiscount(ctx context.Context, eventID, code string, now time.Time) (*models.EventDiscount, error) {
	var discount models.EventDiscount
	err := d.Bun.NewSelect().
		Model(&discount).
		Where("event_id = ?", eventID).
		Where("code = ?", code).
		Where("valid_from <= ?", now).
		Where("valid_to >= ?", now).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &discount, nil
}

func (d *DB) EventDiscountByCode(ctx context.Context, eventID, code string) (*models.EventDiscount, error) {
	var discount models.EventDiscount
	err := d.Bun.NewSelect().
		Model(&discount).
		Where("event_id = ?", eventID).
		Where("code = ?", code).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &discount, nil
}

func (d *DB) InsertEventDiscount(ctx context.Context, discount models.EventDiscount) error {
	_, err := d.Bun.NewInsert().Model(&discount).Exec(ctx)
	return err
}

func (d *DB) UserDiscountByID(ctx context.Context, id string) (*models.UserDiscount, error) {
	var discount models.UserDiscount
	err := d.Bun.NewSelect().
		Model(&discount).
		Where("id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &discount, nil
}

// ListAvailable returns the user's unredeemed, unexpired discounts.
func (d *DB) ListAvailable(ctx context.Context, userID string, now time.Time) ([]models.UserDiscount, error) {
	var discounts []models.UserDiscount
	err := d.Bun.NewSelect().
		Model(&discounts).
		Where("user_id = ?", userID).
		Where("status = ?", models.DiscountAvailable).
		Where("expires_at > ?", now).
		Order("expires_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return discounts, nil
}

// ConsumeUserDiscount flips an Available discount to Used. The status
// guard in the WHERE clause makes redemption single-use under
// concurrency; zero rows affected means someone else got there first.
func (d *DB) ConsumeUserDiscount(ctx context.Context, id, userID string, now time.Time) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.UserDiscount)(nil)).
		Set("status = ?", models.DiscountUsed).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Where("status = ?", models.DiscountAvailable).
		Where("expires_at > ?", now).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
