package history

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/agrigenius/core/internal/errx"
)

const defaultListKey = "agrigenius:chat_history"

// RedisStore appends turn records to a Redis list. The list is insert-only
// from this service's point of view.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = defaultListKey
	}
	return &RedisStore{client: client, key: key}
}

// NewRedisClient builds a client from a redis:// URL and verifies the
// connection.
func NewRedisClient(url string, timeout time.Duration) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	opts.ReadTimeout = timeout
	opts.WriteTimeout = timeout
	opts.DialTimeout = timeout

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return client, nil
}

// Append serializes the turn and pushes it onto the tail of the list.
func (s *RedisStore) Append(ctx context.Context, turn Turn) error {
	data, err := json.Marshal(turn)
	if err != nil {
		return errx.Persistence(err)
	}
	if err := s.client.RPush(ctx, s.key, data).Err(); err != nil {
		return errx.Persistence(err)
	}
	return nil
}
