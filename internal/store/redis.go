package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mohammad-safakhou/askcampus/config"
	"github.com/mohammad-safakhou/askcampus/models"
	"github.com/redis/go-redis/v9"
)

// maxRecent bounds the recent-runs list.
const maxRecent = 1000

// RedisStore keeps each run as a JSON blob under <prefix>:run:<id> and the
// newest run ids in the <prefix>:runs list.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedis(ctx context.Context, cfg config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr(),
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.Timeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisWithClient(client, cfg.KeyPrefix, cfg.TTL), nil
}

func NewRedisWithClient(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "askcampus"
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) runKey(id string) string { return s.prefix + ":run:" + id }
func (s *RedisStore) listKey() string         { return s.prefix + ":runs" }

func (s *RedisStore) Save(ctx context.Context, result models.ResearchResult) (map[string]string, error) {
	if result.ID == "" {
		return nil, fmt.Errorf("result id must be provided")
	}
	data, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	key := s.runKey(result.ID)
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, key, data, s.ttl)
	pipe.LRem(ctx, s.listKey(), 0, result.ID)
	pipe.LPush(ctx, s.listKey(), result.ID)
	pipe.LTrim(ctx, s.listKey(), 0, maxRecent-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	return map[string]string{"redis": key}, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (models.ResearchResult, error) {
	raw, err := s.client.Get(ctx, s.runKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.ResearchResult{}, ErrNotFound
	}
	if err != nil {
		return models.ResearchResult{}, err
	}
	var r models.ResearchResult
	if err := json.Unmarshal(raw, &r); err != nil {
		return models.ResearchResult{}, fmt.Errorf("decode run %s: %w", id, err)
	}
	return r, nil
}

// List returns the newest runs first. Ids whose blob has expired are skipped.
func (s *RedisStore) List(ctx context.Context, limit int) ([]models.ResearchResult, error) {
	ids, err := s.client.LRange(ctx, s.listKey(), 0, int64(listLimit(limit))-1).Result()
	if err != nil {
		return nil, err
	}
	out := []models.ResearchResult{}
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.runKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var r models.ResearchResult
		if err := json.Unmarshal([]byte(str), &r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *RedisStore) Close() error { return s.client.Close() }
