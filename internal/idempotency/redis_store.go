package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces update records in Redis.
const KeyPrefix = "idempotency:update:"

// releaseScript deletes the entry only while it still holds the processing claim.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var processingValue = mustEncode(Record{Status: StatusProcessing})

// RedisStore keeps each update under a single string key holding its JSON record.
type RedisStore struct {
	client *redis.Client
	log    *slog.Logger
}

func NewRedisStore(client *redis.Client, log *slog.Logger) *RedisStore {
	if log == nil {
		log = slog.Default()
	}
	return &RedisStore{client: client, log: log}
}

func (s *RedisStore) Claim(ctx context.Context, key Key, lockTTL time.Duration) (bool, error) {
	claimed, err := s.client.SetNX(ctx, redisKey(key), processingValue, lockTTL).Result()
	if err != nil {
		s.log.ErrorContext(ctx, "claim update failed", slog.String("update", key.String()), slog.Any("error", err))
		return false, err
	}
	return claimed, nil
}

func (s *RedisStore) Get(ctx context.Context, key Key) (*Record, error) {
	raw, err := s.client.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var record Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decode record of update %s: %w", key, err)
	}
	return &record, nil
}

func (s *RedisStore) Complete(ctx context.Context, key Key, record Record, ttl time.Duration) error {
	record.Status = StatusCompleted
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record of update %s: %w", key, err)
	}

	return s.client.Set(ctx, redisKey(key), raw, ttl).Err()
}

func (s *RedisStore) Release(ctx context.Context, key Key) error {
	return releaseScript.Run(ctx, s.client, []string{redisKey(key)}, processingValue).Err()
}

func redisKey(key Key) string {
	return KeyPrefix + key.String()
}

func mustEncode(record Record) string {
	raw, err := json.Marshal(record)
	if err != nil {
		panic(err)
	}
	return string(raw)
}
