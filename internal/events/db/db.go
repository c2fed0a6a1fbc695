package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"ms-eventpay/internal/apperr"
	"ms-eventpay/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (d *DB) ListByOrganizer(ctx context.Context, organizerID string) ([]models.Event, error) {
	var events []models.Event
	err := d.Bun.NewSelect().
		Model(&events).
		Where("organizer_id = ?", organizerID).
		Order("datetime ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (d *DB) InsertEvent(ctx context.Context, event models.Event) error {
	_, err := d.Bun.NewInsert().Model(&event).Exec(ctx)
	return err
}

// DecrementSeats takes seats out of inventory. The guard in the WHERE
// clause is what prevents overselling: when fewer than n seats remain
// the update touches zero rows and the caller's transaction rolls back.
func (d *DB) DecrementSeats(ctx context.Context, idb bun.IDB, eventID string, n int) error {
	if n <= 0 {
		return apperr.Validation("seat count must be positive")
	}
	res, err := idb.NewUpdate().
		Model((*models.Event)(nil)).
		Set("available_seats = available_seats - ?", n).
		Where("id = ?", eventID).
		Where("available_seats >= ?", n).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.Conflict("not enough seats left for event %s", eventID)
	}
	return nil
}
