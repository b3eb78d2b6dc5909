package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultDialTimeout = 5 * time.Second

type Config struct {
	Addr     string
	Password string
	DB       int
	// Prefix namespaces every key; see NewStore.
	Prefix string
	// Timeout bounds the initial ping.
	Timeout time.Duration
}

// Open dials Redis, checks it answers, and returns a Store that owns the
// client. Close the store to release the connection pool.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	s := NewStore(client, cfg.Prefix)
	s.owned = true
	return s, nil
}

// Close releases the client when the store was created by Open.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}
