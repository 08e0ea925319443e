package counter

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const counterKeyPrefix = "counters:"

// RedisStore keeps one hash per target with a field per counter.
type RedisStore struct {
	client    *redis.Client
	namespace string
}

// NewRedis stores counters under namespace + "counters:<target>".
func NewRedis(client *redis.Client, namespace string) *RedisStore {
	return &RedisStore{client: client, namespace: namespace}
}

func (s *RedisStore) key(target Target) string {
	return s.namespace + counterKeyPrefix + target.String()
}

func (s *RedisStore) Increment(ctx context.Context, target Target, field Field, amount int64) (int64, error) {
	value, err := s.client.HIncrBy(ctx, s.key(target), string(field), amount).Result()
	if err != nil {
		return 0, fmt.Errorf("increment %s.%s: %w", target, field, err)
	}
	return value, nil
}

func (s *RedisStore) Counts(ctx context.Context, target Target) (Counts, error) {
	raw, err := s.client.HGetAll(ctx, s.key(target)).Result()
	if err != nil {
		return nil, fmt.Errorf("read counters %s: %w", target, err)
	}
	out := make(Counts, len(raw))
	for field, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse counter %s.%s: %w", target, field, err)
		}
		out[Field(field)] = n
	}
	return out, nil
}
