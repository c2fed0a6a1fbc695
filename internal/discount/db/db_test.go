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

	discountdb "ms-eventpay/internal/discount/db"
	"ms-eventpay/internal/models"
)

func setupTestDB(t *testing.T) *bun.DB {
	sqldb, err := sql.Open(sqliteshim.ShimName, "file:"+uuid.New().String()+"?mode=memory&cache=shared")
	require.NoError(t, err)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	ctx := context.Background()
	_, err = bunDB.NewCreateTable().Model((*models.EventDiscount)(nil)).Exec(ctx)
	require.NoError(t, err)
	_, err = bunDB.NewCreateTable().Model((*models.UserDiscount)(nil)).Exec(ctx)
	require.NoError(t, err)

	t.Cleanup(func() { bunDB.Close() })
	return bunDB
}

func TestActiveEventDiscountWindowEdgesInclusive(t *testing.T) {
	bunDB := setupTestDB(t)
	d := &discountdb.DB{Bun: bunDB}
	ctx := context.Background()

	eventID := uuid.New().String()
	now := time.Now().Truncate(time.Second)
	row := models.EventDiscount{
		ID:                 uuid.New().String(),
		EventID:            eventID,
		Code:               "LAUNCH10",
		DiscountPercentage: 10,
		ValidFrom:          now,
		ValidTo:            now.Add(24 * time.Hour),
		CreatedAt:          now,
	}
	_, err := bunDB.NewInsert().Model(&row).Exec(ctx)
	require.NoError(t, err)

	got, err := d.ActiveEventDiscount(ctx, eventID, "LAUNCH10", now)
	require.NoError(t, err)
	require.NotNil(t, got, "valid_from edge should be inclusive")
	assert.Equal(t, 10, got.DiscountPercentage)

	got, err = d.ActiveEventDiscount(ctx, eventID, "LAUNCH10", now.Add(24*time.Hour))
	require.NoError(t, err)
	assert.NotNil(t, got, "valid_to edge should be inclusive")

	got, err = d.ActiveEventDiscount(ctx, eventID, "LAUNCH10", now.Add(25*time.Hour))
	require.NoError(t, err)
	assert.Nil(t, got, "expired code should not resolve")

	got, err = d.ActiveEventDiscount(ctx, eventID, "LAUNCH10", now.Add(-time.Minute))
	require.NoError(t, err)
	assert.Nil(t, got, "not-yet-valid code should not resolve")
}

func TestActiveEventDiscountScopedToEvent(t *testing.T) {
	bunDB := setupTestDB(t)
	d := &discountdb.DB{Bun: bunDB}
	ctx := context.Background()

	now := time.Now()
	row := models.EventDiscount{
		ID:                 uuid.New().String(),
		EventID:            uuid.New().String(),
		Code:               "SHARED",
		DiscountPercentage: 20,
		ValidFrom:          now.Add(-time.Hour),
		ValidTo:            now.Add(time.Hour),
		CreatedAt:          now,
	}
	_, err := bunDB.NewInsert().Model(&row).Exec(ctx)
	require.NoError(t, err)

	got, err := d.ActiveEventDiscount(ctx, uuid.New().String(), "SHARED", now)
	require.NoError(t, err)
	assert.Nil(t, got, "code from another event should not resolve")
}

func TestConsumeUserDiscountIsSingleUse(t *testing.T) {
	bunDB := setupTestDB(t)
	d := &discountdb.DB{Bun: bunDB}
	ctx := context.Background()

	userID := uuid.New().String()
	row := models.UserDiscount{
		ID:                 uuid.New().String(),
		UserID:             userID,
		DiscountPercentage: 10,
		Status:             models.DiscountAvailable,
		ExpiresAt:          time.Now().Add(30 * 24 * time.Hour),
		CreatedAt:          time.Now(),
	}
	_, err := bunDB.NewInsert().Model(&row).Exec(ctx)
	require.NoError(t, err)

	ok, err := d.ConsumeUserDiscount(ctx, row.ID, userID, time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = d.ConsumeUserDiscount(ctx, row.ID, userID, time.Now())
	require.NoError(t, err)
	assert.False(t, ok, "second redemption must fail")
}

func TestConsumeUserDiscountRejectsOtherUser(t *testing.T) {
	bunDB := setupTestDB(t)
	d := &discountdb.DB{Bun: bunDB}
	ctx := context.Background()

	row := models.UserDiscount{
		ID:                 uuid.New().String(),
		UserID:             uuid.New().String(),
		DiscountPercentage: 10,
		Status:             models.DiscountAvailable,
		ExpiresAt:          time.Now().Add(time.Hour),
		CreatedAt:          time.Now(),
	}
	_, err := bunDB.NewInsert().Model(&row).Exec(ctx)
	require.NoError(t, err)

	ok, err := d.ConsumeUserDiscount(ctx, row.ID, uuid.New().String(), time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}
