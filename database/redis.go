package database

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"agrirent-booking/logger"

	"github.com/redis/go-redis/v9"
)

var Redis *redis.Client

// InitRedis connects to the Redis instance that carries realtime booking
// events between the engine and the WebSocket hub.
func InitRedis() (*redis.Client, error) {
	db := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			db = parsed
		}
	}

	Redis = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT")),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
	})

	// Test connection
	ctx := context.Background()
	if err := Redis.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Success("Successfully connected to Redis")

	return Redis, nil
}
