package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/yanizio/pagesmith/internal/metrics"
	"github.com/yanizio/pagesmith/internal/record"
)

// RedisOptions configures the Redis backend.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// Redis stores each record as a JSON string under `subdomain:<name>`.
type Redis struct {
	rdb *redis.Client
	now func() time.Time
}

// NewRedis connects and pings so callers fail fast during bootstrap.
func NewRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	zap.S().Infow("redis store online", "addr", opts.Addr, "db", opts.DB)
	return &Redis{rdb: rdb, now: time.Now}, nil
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb, now: time.Now}
}

func (s *Redis) Get(ctx context.Context, subdomain string) (*record.Record, error) {
	k, err := key(subdomain)
	if err != nil {
		return nil, err
	}
	raw, err := s.rdb.Get(ctx, KeyPrefix+k).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.StoreOperationsTotal.WithLabelValues("redis", "get", "miss").Inc()
		return nil, ErrNotFound
	}
	if err != nil {
		metrics.StoreOperationsTotal.WithLabelValues("redis", "get", metrics.ResultError).Inc()
		return nil, fmt.Errorf("redis get %s: %w", k, err)
	}
	var rec record.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		metrics.StoreOperationsTotal.WithLabelValues("redis", "get", metrics.ResultError).Inc()
		return nil, fmt.Errorf("decode record %s: %w", k, err)
	}
	metrics.StoreOperationsTotal.WithLabelValues("redis", "get", metrics.ResultOK).Inc()
	return &rec, nil
}

func (s *Redis) Set(ctx context.Context, subdomain string, rec *record.Record) error {
	k, err := key(subdomain)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record %s: %w", k, err)
	}
	err = s.rdb.Set(ctx, KeyPrefix+k, raw, 0).Err()
	metrics.StoreOperationsTotal.WithLabelValues("redis", "set", metrics.Outcome(err)).Inc()
	if err != nil {
		return fmt.Errorf("redis set %s: %w", k, err)
	}
	return nil
}

// List walks the key space with SCAN and fetches values with one MGET.
// SCAN may yield a key more than once, so keys are de-duplicated first.
func (s *Redis) List(ctx context.Context) ([]Summary, error) {
	var keys []string
	iter := s.rdb.Scan(ctx, 0, KeyPrefix+"*", 200).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	keys = uniqueKeys(keys)
	if len(keys) == 0 {
		return []Summary{}, nil
	}

	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}

	now := s.now()
	out := make([]Summary, 0, len(keys))
	for i, k := range keys {
		sub := strings.TrimPrefix(k, KeyPrefix)
		var rec *record.Record
		if str, ok := vals[i].(string); ok {
			var r record.Record
			if err := json.Unmarshal([]byte(str), &r); err == nil {
				rec = &r
			} else {
				zap.S().Warnw("skipping undecodable record", "key", k, "err", err)
			}
		}
		out = append(out, summarize(sub, rec, now))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Subdomain < out[j].Subdomain })
	return out, nil
}

// uniqueKeys drops repeated keys in place, keeping first-seen order.
func uniqueKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := keys[:0]
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// Close releases the connection pool.
func (s *Redis) Close() error { return s.rdb.Close() }
