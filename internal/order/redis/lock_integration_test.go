package redis_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	orderredis "ms-eventpay/internal/order/redis"
)

// TestSettlementLockIntegration runs the lock against a real Redis
// container, including TTL expiry which miniredis does not advance on
// its own.
func TestSettlementLockIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping Redis integration test in short mode")
	}

	ctx := context.Background()
	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:latest",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("Skipping: could not start Redis container: %v", err)
	}
	defer redisContainer.Terminate(ctx)

	host, err := redisContainer.Host(ctx)
	require.NoError(t, err)

	port, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port.Port(),
		Password: "",
		DB:       0,
	})
	defer client.Close()

	lock := orderredis.NewRedis(client)

	locked, err := lock.LockSettlement("event-1", "order-1")
	require.NoError(t, err)
	assert.True(t, locked)

	locked, err = lock.LockSettlement("event-1", "order-2")
	require.NoError(t, err)
	assert.False(t, locked)

	require.NoError(t, lock.UnlockSettlement("event-1", "order-1"))

	locked, err = lock.LockSettlement("event-1", "order-2")
	require.NoError(t, err)
	assert.True(t, locked)
	require.NoError(t, lock.UnlockSettlement("event-1", "order-2"))

	// A crashed settler's lock expires on its own.
	os.Setenv("SETTLEMENT_LOCK_TTL_SECONDS", "1")
	defer os.Unsetenv("SETTLEMENT_LOCK_TTL_SECONDS")

	locked, err = lock.LockSettlement("event-2", "order-3")
	require.NoError(t, err)
	require.True(t, locked)

	time.Sleep(1500 * time.Millisecond)

	locked, err = lock.LockSettlement("event-2", "order-4")
	require.NoError(t, err)
	assert.True(t, locked, "expired lock should be free")
}
