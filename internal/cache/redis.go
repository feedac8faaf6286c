package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis stores the snapshot as JSON under one key so every replica shares
// it. retain bounds how long a stale snapshot stays usable as a fallback.
type Redis[T any] struct {
	client *redis.Client
	key    string
	retain time.Duration
}

func NewRedis[T any](client *redis.Client, key string, retain time.Duration) *Redis[T] {
	return &Redis[T]{client: client, key: key, retain: retain}
}

// Connect opens a client from a redis:// URL and pings it.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func (r *Redis[T]) Load(ctx context.Context) (Entry[T], bool, error) {
	var e Entry[T]
	b, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return e, false, nil
		}
		return e, false, err
	}
	if err := json.Unmarshal(b, &e); err != nil {
		return e, false, fmt.Errorf("decode %s: %w", r.key, err)
	}
	return e, true, nil
}

func (r *Redis[T]) Save(ctx context.Context, e Entry[T]) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key, b, r.retain).Err()
}
