package db

import (
	"context"

	"github.com/uptrace/bun"

	"ms-eventpay/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// InsertTickets writes a batch of freshly minted tickets. Runs inside
// the settlement transaction; the UNIQUE constraint on credentials is
// the last line of defense against a credential collision.
func (d *DB) InsertTickets(ctx context.Context, idb bun.IDB, tickets []models.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	_, err := idb.NewInsert().Model(&tickets).Exec(ctx)
	return err
}

// ListByAttendee returns the user's tickets with the event each one
// belongs to.
func (d *DB) ListByAttendee(ctx context.Context, attendeeID string) ([]models.TicketWithEvent, error) {
	var tickets []models.TicketWithEvent
	err := d.Bun.NewSelect().
		Model((*models.Ticket)(nil)).
		ColumnExpr("ticket.*").
		ColumnExpr("event.name AS event_name").
		ColumnExpr("event.datetime AS event_datetime").
		Join("JOIN events AS event ON event.id = ticket.event_id").
		Where("ticket.attendee_id = ?", attendeeID).
		Order("ticket.created_at DESC").
		Scan(ctx, &tickets)
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

// CountByEvent counts issued tickets for an event.
func (d *DB) CountByEvent(ctx context.Context, eventID string) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.Ticket)(nil)).
		Where("event_id = ?", eventID).
		Count(ctx)
}
