// Package analytics serves the organizer dashboard: revenue, inventory
// and transaction aggregates across the organizer's events.
package analytics

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"ms-eventpay/internal/models"
)

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

// RevenueSummary is the organizer's earnings over completed orders.
type RevenueSummary struct {
	OrganizerID  string  `json:"organizer_id"`
	TotalRevenue float64 `json:"total_revenue"`
	OrderCount   int     `json:"order_count"`
}

// TransactionStats counts the organizer's transactions by status.
type TransactionStats struct {
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
}

// Revenue sums the final amounts of completed transactions across the
// organizer's events. Final amount is what attendees were actually
// charged, after discounts and points.
func (s *Service) Revenue(ctx context.Context, organizerID string) (*RevenueSummary, error) {
	var result struct {
		Total sql.NullFloat64
		Count int
	}
	err := s.db.NewSelect().
		Model((*models.Transaction)(nil)).
		ColumnExpr(`SUM("transaction".final_amount) AS total`).
		ColumnExpr("COUNT(*) AS count").
		Join(`JOIN events AS event ON event.id = "transaction".event_id`).
		Where("event.organizer_id = ?", organizerID).
		Where(`"transaction".status = ?`, models.StatusCompleted).
		Scan(ctx, &result)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return &RevenueSummary{
		OrganizerID:  organizerID,
		TotalRevenue: result.Total.Float64,
		OrderCount:   result.Count,
	}, nil
}

// Stats counts transactions by status across the organizer's events.
func (s *Service) Stats(ctx context.Context, organizerID string) (*TransactionStats, error) {
	var rows []struct {
		Status string
		Count  int
	}
	err := s.db.NewSelect().
		Model((*models.Transaction)(nil)).
		ColumnExpr(`"transaction".status AS status`).
		ColumnExpr("COUNT(*) AS count").
		Join(`JOIN events AS event ON event.id = "transaction".event_id`).
		Where("event.organizer_id = ?", organizerID).
		GroupExpr(`"transaction".status`).
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}

	stats := &TransactionStats{}
	for _, row := range rows {
		switch row.Status {
		case models.StatusPending:
			stats.Pending = row.Count
		case models.StatusCompleted:
			stats.Completed = row.Count
		case models.StatusCancelled:
			stats.Cancelled = row.Count
		}
	}
	return stats, nil
}

// AvailableSeats sums the remaining inventory across the organizer's
// events.
func (s *Service) AvailableSeats(ctx context.Context, organizerID string) (int, error) {
	var total sql.NullInt64
	err := s.db.NewSelect().
		Model((*models.Event)(nil)).
		ColumnExpr("SUM(available_seats)").
		Where("organizer_id = ?", organizerID).
		Scan(ctx, &total)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	return int(total.Int64), nil
}

// BookedTickets counts tickets issued across the organizer's events.
func (s *Service) BookedTickets(ctx context.Context, organizerID string) (int, error) {
	return s.db.NewSelect().
		Model((*models.Ticket)(nil)).
		Join("JOIN events AS event ON event.id = ticket.event_id").
		Where("event.organizer_id = ?", organizerID).
		Count(ctx)
}

// Transactions lists all transactions on the organizer's events, newest
// first.
func (s *Service) Transactions(ctx context.Context, organizerID string) ([]models.TransactionWithEvent, error) {
	var txns []models.TransactionWithEvent
	err := s.db.NewSelect().
		Model((*models.Transaction)(nil)).
		ColumnExpr(`"transaction".*`).
		ColumnExpr("event.name AS event_name").
		Join(`JOIN events AS event ON event.id = "transaction".event_id`).
		Where("event.organizer_id = ?", organizerID).
		Order("transaction.created_at DESC").
		Scan(ctx, &txns)
	if err != nil {
		return nil, err
	}
	return txns, nil
}
