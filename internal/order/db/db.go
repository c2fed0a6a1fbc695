package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"ms-eventpay/internal/apperr"
	eventsdb "ms-eventpay/internal/events/db"
	loyaltydb "ms-eventpay/internal/loyalty/db"
	"ms-eventpay/internal/models"
	ticketsdb "ms-eventpay/internal/tickets/db"
)

// DB owns the transactions table and composes the loyalty, event and
// ticket repos so a settlement commits or rolls back as one unit.
type DB struct {
	Bun     *bun.DB
	Loyalty *loyaltydb.DB
	Events  *eventsdb.DB
	Tickets *ticketsdb.DB
}

func NewDB(bunDB *bun.DB) *DB {
	return &DB{
		Bun:     bunDB,
		Loyalty: &loyaltydb.DB{Bun: bunDB},
		Events:  &eventsdb.DB{Bun: bunDB},
		Tickets: &ticketsdb.DB{Bun: bunDB},
	}
}

func (d *DB) CreateTransaction(ctx context.Context, txn models.Transaction) error {
	_, err := d.Bun.NewInsert().Model(&txn).Exec(ctx)
	return err
}

func (d *DB) GetTransactionByID(ctx context.Context, id string) (*models.Transaction, error) {
	return d.getTransaction(ctx, d.Bun, id)
}

func (d *DB) getTransaction(ctx context.Context, idb bun.IDB, id string) (*models.Transaction, error) {
	var txn models.Transaction
	err := idb.NewSelect().
		Model(&txn).
		Where("id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (d *DB) ListTransactionsByUser(ctx context.Context, userID string) ([]models.TransactionWithEvent, error) {
	var txns []models.TransactionWithEvent
	err := d.Bun.NewSelect().
		Model((*models.Transaction)(nil)).
		ColumnExpr("transaction.*").
		ColumnExpr("event.name AS event_name").
		Join("JOIN events AS event ON event.id = transaction.event_id").
		Where("transaction.user_id = ?", userID).
		Order("transaction.created_at DESC").
		Scan(ctx, &txns)
	if err != nil {
		return nil, err
	}
	return txns, nil
}

// markFinished flips a Pending transaction to its terminal status. The
// status guard means a transaction settles at most once no matter how
// many finishers race.
func (d *DB) markFinished(ctx context.Context, idb bun.IDB, id, status string, now time.Time) (bool, error) {
	res, err := idb.NewUpdate().
		Model((*models.Transaction)(nil)).
		Set("status = ?", status).
		Set("updated_at = ?", now).
		Where("id = ?", id).
		Where("status = ?", models.StatusPending).
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

// Settle applies an order's terminal outcome in one database
// transaction: status flip, point debit, seat decrement and ticket
// insertion all land together or not at all.
func (d *DB) Settle(ctx context.Context, txn models.Transaction, outcome string, tickets []models.Ticket, now time.Time) (int, error) {
	var pointsDebited int

	err := d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		flipped, err := d.markFinished(ctx, tx, txn.ID, outcome, now)
		if err != nil {
			return err
		}
		if !flipped {
			current, err := d.getTransaction(ctx, tx, txn.ID)
			if err != nil {
				return err
			}
			if current == nil {
				return apperr.NotFound("transaction %s not found", txn.ID)
			}
			return apperr.Conflict("transaction %s already %s", txn.ID, current.Status)
		}

		if outcome == models.StatusCancelled {
			return nil
		}

		pointsDebited, err = d.Loyalty.Debit(ctx, tx, txn.UserID, txn.PointAmount, now)
		if err != nil {
			return err
		}

		if err := d.Events.DecrementSeats(ctx, tx, txn.EventID, txn.TicketAmount); err != nil {
			return err
		}

		return d.Tickets.InsertTickets(ctx, tx, tickets)
	})
	if err != nil {
		return 0, err
	}
	return pointsDebited, nil
}

// IssueFreeTickets books seats and mints tickets for a free event in
// one transaction, with no order row involved.
func (d *DB) IssueFreeTickets(ctx context.Context, eventID string, tickets []models.Ticket) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if err := d.Events.DecrementSeats(ctx, tx, eventID, len(tickets)); err != nil {
			return err
		}
		return d.Tickets.InsertTickets(ctx, tx, tickets)
	})
}
