// Package session keeps checkout sessions in Redis.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/DanielPopoola/creski-storefront/internal/config"
	"github.com/DanielPopoola/creski-storefront/internal/domain"
	"github.com/redis/go-redis/v9"
)

const inFlightKey = "checkout:inflight"

var ErrSessionExists = errors.New("checkout session already exists")

// NewClient opens a client and checks the server answers.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// RedisStore stores each session as JSON under its own key. Sessions that
// are waiting on the gateway are also indexed by deadline in a sorted set.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) Create(ctx context.Context, s *domain.CheckoutSession) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session failed: %w", err)
	}

	ok, err := r.client.SetNX(ctx, sessionKey(s.ID), data, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("redis setnx failed: %w", err)
	}
	if !ok {
		return ErrSessionExists
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (*domain.CheckoutSession, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.NewSessionNotFoundError(id)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return decode(data)
}

// Update applies fn under WATCH. The write only lands if the key did not
// change since it was read.
func (r *RedisStore) Update(ctx context.Context, id string, fn func(s *domain.CheckoutSession) error) (*domain.CheckoutSession, error) {
	key := sessionKey(id)
	var updated *domain.CheckoutSession

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return domain.NewSessionNotFoundError(id)
		}
		if err != nil {
			return fmt.Errorf("redis get failed: %w", err)
		}

		s, err := decode(data)
		if err != nil {
			return err
		}

		if err := fn(s); err != nil {
			return err
		}
		s.Version++

		out, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("marshal session failed: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, r.ttl)
			if s.IsInFlight() && s.Deadline != nil {
				pipe.ZAdd(ctx, inFlightKey, redis.Z{
					Score:  float64(s.Deadline.UnixMilli()),
					Member: s.ID,
				})
			} else {
				pipe.ZRem(ctx, inFlightKey, s.ID)
			}
			return nil
		})
		if err != nil {
			return err
		}

		updated = s
		return nil
	}

	err := r.client.Watch(ctx, txf, key)
	switch {
	case err == nil:
		return updated, nil
	case errors.Is(err, redis.TxFailedErr):
		return nil, domain.ErrConcurrentUpdate
	case errors.Is(err, domain.ErrSessionNotFound):
		// expired sessions can leave a stale index entry behind
		_ = r.client.ZRem(ctx, inFlightKey, id).Err()
		return nil, err
	default:
		return nil, err
	}
}

// ExpiredInFlight returns ids of in-flight sessions whose deadline is at or
// before now, oldest first.
func (r *RedisStore) ExpiredInFlight(ctx context.Context, now time.Time, limit int) ([]string, error) {
	ids, err := r.client.ZRangeByScore(ctx, inFlightKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.UnixMilli(), 10),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("redis zrangebyscore failed: %w", err)
	}
	return ids, nil
}

func decode(data []byte) (*domain.CheckoutSession, error) {
	var s domain.CheckoutSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session failed: %w", err)
	}
	return &s, nil
}

func sessionKey(id string) string {
	return fmt.Sprintf("checkout:session:%s", id)
}
