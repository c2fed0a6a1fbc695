package db_test

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

	loyaltydb "ms-eventpay/internal/loyalty/db"
	"ms-eventpay/internal/models"
)

func setupTestDB(t *testing.T) *bun.DB {
	sqldb, err := sql.Open(sqliteshim.ShimName, "file:"+uuid.New().String()+"?mode=memory&cache=shared")
	require.NoError(t, err)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = bunDB.NewCreateTable().Model((*models.UserPoint)(nil)).Exec(context.Background())
	require.NoError(t, err)

	t.Cleanup(func() { bunDB.Close() })
	return bunDB
}

func seedPoints(t *testing.T, bunDB *bun.DB, userID string, points int, expiresIn time.Duration) models.UserPoint {
	row := models.UserPoint{
		ID:        uuid.New().String(),
		UserID:    userID,
		Points:    points,
		ExpiresAt: time.Now().Add(expiresIn),
		CreatedAt: time.Now(),
	}
	_, err := bunDB.NewInsert().Model(&row).Exec(context.Background())
	require.NoError(t, err)
	return row
}

func TestDebitDrainsOldestExpiryFirst(t *testing.T) {
	bunDB := setupTestDB(t)
	d := &loyaltydb.DB{Bun: bunDB}
	ctx := context.Background()
	userID := uuid.New().String()

	soon := seedPoints(t, bunDB, userID, 500, 10*24*time.Hour)
	later := seedPoints(t, bunDB, userID, 300, 60*24*time.Hour)

	debited, err := d.Debit(ctx, bunDB, userID, 600, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 600, debited)

	var first models.UserPoint
	require.NoError(t, bunDB.NewSelect().Model(&first).Where("id = ?", soon.ID).Scan(ctx))
	assert.Equal(t, 0, first.Points)

	var second models.UserPoint
	require.NoError(t, bunDB.NewSelect().Model(&second).Where("id = ?", later.ID).Scan(ctx))
	assert.Equal(t, 200, second.Points)
}

func TestDebitCappedAtUnexpiredBalance(t *testing.T) {
	bunDB := setupTestDB(t)
	d := &loyaltydb.DB{Bun: bunDB}
	ctx := context.Background()
	userID := uuid.New().String()

	seedPoints(t, bunDB, userID, 200, 30*24*time.Hour)

	debited, err := d.Debit(ctx, bunDB, userID, 1000, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 200, debited)

	balance, err := d.Balance(ctx, userID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
}

func TestDebitSkipsExpiredRows(t *testing.T) {
	bunDB := setupTestDB(t)
	d := &loyaltydb.DB{Bun: bunDB}
	ctx := context.Background()
	userID := uuid.New().String()

	expired := seedPoints(t, bunDB, userID, 400, -time.Hour)
	seedPoints(t, bunDB, userID, 100, 30*24*time.Hour)

	debited, err := d.Debit(ctx, bunDB, userID, 300, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 100, debited)

	var untouched models.UserPoint
	require.NoError(t, bunDB.NewSelect().Model(&untouched).Where("id = ?", expired.ID).Scan(ctx))
	assert.Equal(t, 400, untouched.Points)
}

func TestBalanceExcludesExpired(t *testing.T) {
	bunDB := setupTestDB(t)
	d := &loyaltydb.DB{Bun: bunDB}
	userID := uuid.New().String()

	seedPoints(t, bunDB, userID, 500, -time.Hour)
	seedPoints(t, bunDB, userID, 250, 24*time.Hour)

	balance, err := d.Balance(context.Background(), userID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 250, balance)
}

func TestDebitZeroAmountIsNoop(t *testing.T) {
	bunDB := setupTestDB(t)
	d := &loyaltydb.DB{Bun: bunDB}

	debited, err := d.Debit(context.Background(), bunDB, uuid.New().String(), 0, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, debited)
}
