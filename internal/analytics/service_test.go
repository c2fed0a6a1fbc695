package analytics_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"ms-eventpay/internal/analytics"
	"ms-eventpay/internal/models"
)

func setupTestDB(t *testing.T) *bun.DB {
	sqldb, err := sql.Open(sqliteshim.ShimName, "file:"+uuid.New().String()+"?mode=memory&cache=shared")
	require.NoError(t, err)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	ctx := context.Background()
	for _, model := range []interface{}{
		(*models.Event)(nil),
		(*models.Transaction)(nil),
		(*models.Ticket)(nil),
	} {
		_, err = bunDB.NewCreateTable().Model(model).Exec(ctx)
		require.NoError(t, err)
	}

	t.Cleanup(func() { bunDB.Close() })
	return bunDB
}

func seedEvent(t *testing.T, bunDB *bun.DB, organizerID string, seats int) models.Event {
	event := models.Event{
		ID:             uuid.New().String(),
		Name:           "Organizer Event",
		Datetime:       time.Now().Add(24 * time.Hour),
		OrganizerID:    organizerID,
		AvailableSeats: seats,
		Price:          80,
		EventType:      models.EventTypePaid,
		CreatedAt:      time.Now(),
	}
	_, err := bunDB.NewInsert().Model(&event).Exec(context.Background())
	require.NoError(t, err)
	return event
}

func seedTransaction(t *testing.T, bunDB *bun.DB, eventID, status string, finalAmount float64) {
	now := time.Now()
	txn := models.Transaction{
		ID:           uuid.New().String(),
		UserID:       uuid.New().String(),
		EventID:      eventID,
		TicketAmount: 1,
		TotalAmount:  finalAmount,
		FinalAmount:  finalAmount,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err := bunDB.NewInsert().Model(&txn).Exec(context.Background())
	require.NoError(t, err)
}

func seedTicket(t *testing.T, bunDB *bun.DB, eventID string) {
	ticket := models.Ticket{
		ID:          uuid.New().String(),
		EventID:     eventID,
		AttendeeID:  uuid.New().String(),
		Credentials: uuid.New().String(),
		CreatedAt:   time.Now(),
	}
	_, err := bunDB.NewInsert().Model(&ticket).Exec(context.Background())
	require.NoError(t, err)
}

func TestRevenueCountsOnlyCompletedOnOwnEvents(t *testing.T) {
	bunDB := setupTestDB(t)
	svc := analytics.NewService(bunDB)
	ctx := context.Background()

	organizerID := uuid.New().String()
	mine := seedEvent(t, bunDB, organizerID, 10)
	theirs := seedEvent(t, bunDB, uuid.New().String(), 10)

	seedTransaction(t, bunDB, mine.ID, models.StatusCompleted, 100)
	seedTransaction(t, bunDB, mine.ID, models.StatusCompleted, 50)
	seedTransaction(t, bunDB, mine.ID, models.StatusPending, 999)
	seedTransaction(t, bunDB, mine.ID, models.StatusCancelled, 999)
	seedTransaction(t, bunDB, theirs.ID, models.StatusCompleted, 999)

	summary, err := svc.Revenue(ctx, organizerID)
	require.NoError(t, err)
	assert.Equal(t, 150.0, summary.TotalRevenue)
	assert.Equal(t, 2, summary.OrderCount)
}

func TestStatsGroupsByStatus(t *testing.T) {
	bunDB := setupTestDB(t)
	svc := analytics.NewService(bunDB)

	organizerID := uuid.New().String()
	event := seedEvent(t, bunDB, organizerID, 10)

	seedTransaction(t, bunDB, event.ID, models.StatusPending, 10)
	seedTransaction(t, bunDB, event.ID, models.StatusCompleted, 10)
	seedTransaction(t, bunDB, event.ID, models.StatusCompleted, 10)
	seedTransaction(t, bunDB, event.ID, models.StatusCancelled, 10)

	stats, err := svc.Stats(context.Background(), organizerID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 2, stats.Completed)
	assert.Equal(t, 1, stats.Cancelled)
}

func TestAvailableSeatsAndBookedTickets(t *testing.T) {
	bunDB := setupTestDB(t)
	svc := analytics.NewService(bunDB)
	ctx := context.Background()

	organizerID := uuid.New().String()
	first := seedEvent(t, bunDB, organizerID, 7)
	second := seedEvent(t, bunDB, organizerID, 3)
	other := seedEvent(t, bunDB, uuid.New().String(), 100)

	seedTicket(t, bunDB, first.ID)
	seedTicket(t, bunDB, second.ID)
	seedTicket(t, bunDB, other.ID)

	seats, err := svc.AvailableSeats(ctx, organizerID)
	require.NoError(t, err)
	assert.Equal(t, 10, seats)

	booked, err := svc.BookedTickets(ctx, organizerID)
	require.NoError(t, err)
	assert.Equal(t, 2, booked)
}

func TestRevenueEmptyOrganizer(t *testing.T) {
	bunDB := setupTestDB(t)
	svc := analytics.NewService(bunDB)

	summary, err := svc.Revenue(context.Background(), uuid.New().String())
	require.NoError(t, err)
	assert.Equal(t, 0.0, summary.TotalRevenue)
	assert.Equal(t, 0, summary.OrderCount)
}
