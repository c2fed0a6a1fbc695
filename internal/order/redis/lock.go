package redis

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// Redis serializes settlements per event. The lock only narrows the
// window in which two finishers race; the conditional updates in the
// settlement transaction remain the source of truth.
type Redis struct {
	Client *redis.Client
	Logger *log.Logger
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{
		Client: client,
		Logger: log.Default(),
	}
}

// getLockDuration returns the settlement lock TTL, default 30 seconds.
// The TTL bounds how long a crashed settler can block an event.
func (r *Redis) getLockDuration() time.Duration {
	defaultDuration := 30 * time.Second

	ttlStr := os.Getenv("SETTLEMENT_LOCK_TTL_SECONDS")
	if ttlStr == "" {
		return defaultDuration
	}

	ttlSec, err := strconv.Atoi(ttlStr)
	if err != nil {
		r.Logger.Println("REDIS: Invalid SETTLEMENT_LOCK_TTL_SECONDS value '" + ttlStr + "', using default 30 seconds")
		return defaultDuration
	}
	return time.Duration(ttlSec) * time.Second
}

// LockSettlement takes the per-event settlement lock for an order.
// Returns false when another settlement holds it.
func (r *Redis) LockSettlement(eventID, orderID string) (bool, error) {
	key := "settlement_lock:" + eventID
	return r.Client.SetNX(context.Background(), key, orderID, r.getLockDuration()).Result()
}

// UnlockSettlement releases the event lock, but only if this order owns
// it. A lock that expired and was re-taken by another order stays put.
func (r *Redis) UnlockSettlement(eventID, orderID string) error {
	ctx := context.Background()
	key := "settlement_lock:" + eventID
	val, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	if val == orderID {
		_, err := r.Client.Del(ctx, key).Result()
		return err
	}
	return nil
}
