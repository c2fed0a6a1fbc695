package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"ms-eventpay/internal/apperr"
	"ms-eventpay/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// ListUnexpired returns the user's point rows that have not expired,
// soonest expiry first. This is the debit order.
func (d *DB) ListUnexpired(ctx context.Context, idb bun.IDB, userID string, now time.Time) ([]models.UserPoint, error) {
	var points []models.UserPoint
	err := idb.NewSelect().
		Model(&points).
		Where("user_id = ?", userID).
		Where("expires_at > ?", now).
		Order("expires_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return points, nil
}

// Balance sums the user's unexpired points.
func (d *DB) Balance(ctx context.Context, userID string, now time.Time) (int, error) {
	var balance sql.NullInt64
	err := d.Bun.NewSelect().
		Model((*models.UserPoint)(nil)).
		ColumnExpr("SUM(points)").
		Where("user_id = ?", userID).
		Where("expires_at > ?", now).
		Scan(ctx, &balance)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	return int(balance.Int64), nil
}

// Debit drains up to amount points from the user's unexpired rows,
// oldest expiry first. Each row is written with an optimistic guard on
// its previous balance; a concurrent writer makes the whole settlement
// transaction roll back rather than double-spend.
func (d *DB) Debit(ctx context.Context, idb bun.IDB, userID string, amount int, now time.Time) (int, error) {
	if amount <= 0 {
		return 0, nil
	}

	points, err := d.ListUnexpired(ctx, idb, userID, now)
	if err != nil {
		return 0, err
	}

	remaining := amount
	for _, row := range points {
		if remaining <= 0 {
			break
		}

		take := remaining
		if take > row.Points {
			take = row.Points
		}
		newBalance := row.Points - take
		if newBalance < 0 {
			newBalance = 0
		}

		res, err := idb.NewUpdate().
			Model((*models.UserPoint)(nil)).
			Set("points = ?", newBalance).
			Where("id = ?", row.ID).
			Where("points = ?", row.Points).
			Exec(ctx)
		if err != nil {
			return 0, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		if affected == 0 {
			return 0, apperr.Conflict("point balance for row %s changed concurrently", row.ID)
		}

		remaining -= take
	}

	return amount - remaining, nil
}
