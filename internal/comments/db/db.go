package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"ms-eventpay/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// FirstUncommentedCompleted finds the user's oldest Completed
// transaction for an event that has no comment yet. Nil means every
// Completed transaction is already reviewed, or there are none.
func (d *DB) FirstUncommentedCompleted(ctx context.Context, userID, eventID string) (*models.Transaction, error) {
	var txn models.Transaction
	err := d.Bun.NewSelect().
		Model(&txn).
		Where("user_id = ?", userID).
		Where("event_id = ?", eventID).
		Where("status = ?", models.StatusCompleted).
		Where("id NOT IN (SELECT transaction_id FROM comments)").
		Order("created_at ASC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// HasCompletedTransaction reports whether the user completed any
// purchase for the event.
func (d *DB) HasCompletedTransaction(ctx context.Context, userID, eventID string) (bool, error) {
	count, err := d.Bun.NewSelect().
		Model((*models.Transaction)(nil)).
		Where("user_id = ?", userID).
		Where("event_id = ?", eventID).
		Where("status = ?", models.StatusCompleted).
		Count(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (d *DB) InsertComment(ctx context.Context, comment models.Comment) error {
	_, err := d.Bun.NewInsert().Model(&comment).Exec(ctx)
	return err
}

func (d *DB) ListByEvent(ctx context.Context, eventID string) ([]models.Comment, error) {
	var comments []models.Comment
	err := d.Bun.NewSelect().
		Model(&comments).
		Where("event_id = ?", eventID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return comments, nil
}
