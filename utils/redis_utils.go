package utils

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	// Redis only has string type, there is no boolean or int, so we use "1" to represent true
	RedisTrue = "1"

	requestKeyPrefix = "pingbot:request:"
	// Slack retries an unacknowledged request within seconds, a few minutes
	// comfortably covers every retry.
	requestKeyTTL = 5 * time.Minute
)

// RedisDeduplicator remembers Slack request ids so a retried slash command or
// a double submitted modal is handled once.
type RedisDeduplicator struct {
	inner *redis.Client
}

// GetRedisDeduplicator connects to the redis in env. It returns nil, nil when
// REDIS_HOST is not configured, deduplication is optional.
func GetRedisDeduplicator(ctx context.Context) (*RedisDeduplicator, error) {
	if os.Getenv("REDIS_HOST") == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT")),
		Password: os.Getenv("REDIS_PASSWD"),
		DB:       0, // use default DB
	})
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, err
	}
	return NewRedisDeduplicator(client), nil
}

func NewRedisDeduplicator(client *redis.Client) *RedisDeduplicator {
	return &RedisDeduplicator{inner: client}
}

func RequestKey(requestId string) string {
	return requestKeyPrefix + requestId
}

// IsDuplicate records requestId and reports whether it was seen before. Redis
// failures count as "not seen", a duplicate ping is better than a dropped one.
func (r *RedisDeduplicator) IsDuplicate(ctx context.Context, requestId string) (bool, error) {
	if requestId == "" {
		return false, nil
	}
	fresh, err := r.inner.SetNX(ctx, RequestKey(requestId), RedisTrue, requestKeyTTL).Result()
	if err != nil {
		return false, err
	}
	return !fresh, nil
}

// Forget drops requestId, its next delivery is handled as new.
func (r *RedisDeduplicator) Forget(ctx context.Context, requestId string) error {
	if requestId == "" {
		return nil
	}
	return r.inner.Del(ctx, RequestKey(requestId)).Err()
}
