package comments_test

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

	"ms-eventpay/internal/apperr"
	"ms-eventpay/internal/comments"
	commentsdb "ms-eventpay/internal/comments/db"
	"ms-eventpay/internal/logger"
	"ms-eventpay/internal/models"
)

func setupService(t *testing.T) (*comments.Service, *bun.DB) {
	sqldb, err := sql.Open(sqliteshim.ShimName, "file:"+uuid.New().String()+"?mode=memory&cache=shared")
	require.NoError(t, err)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	ctx := context.Background()
	_, err = bunDB.NewCreateTable().Model((*models.Transaction)(nil)).Exec(ctx)
	require.NoError(t, err)
	_, err = bunDB.NewCreateTable().Model((*models.Comment)(nil)).Exec(ctx)
	require.NoError(t, err)

	t.Cleanup(func() { bunDB.Close() })
	return comments.NewService(&commentsdb.DB{Bun: bunDB}, logger.NewLogger()), bunDB
}

func seedTransaction(t *testing.T, bunDB *bun.DB, userID, eventID, status string) models.Transaction {
	now := time.Now()
	txn := models.Transaction{
		ID:           uuid.New().String(),
		UserID:       userID,
		EventID:      eventID,
		TicketAmount: 1,
		TotalAmount:  50,
		FinalAmount:  50,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err := bunDB.NewInsert().Model(&txn).Exec(context.Background())
	require.NoError(t, err)
	return txn
}

func TestCreateCommentRequiresCompletedPurchase(t *testing.T) {
	svc, bunDB := setupService(t)
	userID := uuid.New().String()
	eventID := uuid.New().String()

	// A Pending transaction is not enough.
	seedTransaction(t, bunDB, userID, eventID, models.StatusPending)

	_, err := svc.Create(context.Background(), userID, models.CreateCommentRequest{
		EventID: eventID,
		Rating:  4,
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestCreateCommentHappyPath(t *testing.T) {
	svc, bunDB := setupService(t)
	userID := uuid.New().String()
	eventID := uuid.New().String()

	txn := seedTransaction(t, bunDB, userID, eventID, models.StatusCompleted)

	comment, err := svc.Create(context.Background(), userID, models.CreateCommentRequest{
		EventID: eventID,
		Rating:  5,
		Text:    "great show",
	})
	require.NoError(t, err)
	assert.Equal(t, txn.ID, comment.TransactionID)
	assert.Equal(t, 5, comment.Rating)
}

func TestCreateSecondCommentConflicts(t *testing.T) {
	svc, bunDB := setupService(t)
	userID := uuid.New().String()
	eventID := uuid.New().String()

	seedTransaction(t, bunDB, userID, eventID, models.StatusCompleted)

	_, err := svc.Create(context.Background(), userID, models.CreateCommentRequest{EventID: eventID, Rating: 5})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), userID, models.CreateCommentRequest{EventID: eventID, Rating: 1})
	require.Error(t, err)
	assert.True(t, apperr.IsConflict(err))
}

func TestSecondPurchaseAllowsSecondComment(t *testing.T) {
	svc, bunDB := setupService(t)
	userID := uuid.New().String()
	eventID := uuid.New().String()

	first := seedTransaction(t, bunDB, userID, eventID, models.StatusCompleted)
	second := seedTransaction(t, bunDB, userID, eventID, models.StatusCompleted)

	one, err := svc.Create(context.Background(), userID, models.CreateCommentRequest{EventID: eventID, Rating: 5})
	require.NoError(t, err)

	two, err := svc.Create(context.Background(), userID, models.CreateCommentRequest{EventID: eventID, Rating: 3})
	require.NoError(t, err)

	assert.ElementsMatch(t,
		[]string{first.ID, second.ID},
		[]string{one.TransactionID, two.TransactionID})
}

func TestCreateCommentRatingBounds(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.Create(context.Background(), uuid.New().String(), models.CreateCommentRequest{
		EventID: uuid.New().String(),
		Rating:  6,
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
