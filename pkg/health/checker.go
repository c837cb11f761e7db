package health

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

// DatabaseChecker returns a health check function for PostgreSQL database
func DatabaseChecker(db *sql.DB) func() error {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return db.PingContext(ctx)
	}
}

// RedisChecker returns a health check function for Redis
func RedisChecker(client *redis.Client) func() error {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return client.Ping(ctx).Err()
	}
}

// NATSChecker returns a health check function for the broadcast bus
func NATSChecker(conn *nats.Conn) func() error {
	return func() error {
		if !conn.IsConnected() {
			return fmt.Errorf("nats connection is %s", conn.Status())
		}
		return nil
	}
}
