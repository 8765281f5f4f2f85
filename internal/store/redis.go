package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient creates and pings a Redis client with optional password auth.
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return rdb, nil
}

const (
	orphanObjectsKey = "orphans:objects"
	orphanImagesKey  = "orphans:images"
)

// RedisLedger records references left dangling by a half-finished upload
// or delete, in two Redis sets, so a later sweep can finish the job.
type RedisLedger struct {
	rdb redis.Cmdable
}

func NewRedisLedger(rdb redis.Cmdable) *RedisLedger {
	return &RedisLedger{rdb: rdb}
}

// AddObject records a media-store deletion handle with no catalog record.
func (l *RedisLedger) AddObject(ctx context.Context, publicID string) error {
	if err := l.rdb.SAdd(ctx, orphanObjectsKey, publicID).Err(); err != nil {
		return fmt.Errorf("ledger add object: %w", err)
	}
	return nil
}

// AddImage records a catalog id whose media object is already gone.
func (l *RedisLedger) AddImage(ctx context.Context, imageID string) error {
	if err := l.rdb.SAdd(ctx, orphanImagesKey, imageID).Err(); err != nil {
		return fmt.Errorf("ledger add image: %w", err)
	}
	return nil
}

// PopObject removes and returns one orphaned deletion handle; ok is false
// when there is none.
func (l *RedisLedger) PopObject(ctx context.Context) (string, bool, error) {
	return l.pop(ctx, orphanObjectsKey)
}

// PopImage removes and returns one orphaned catalog id.
func (l *RedisLedger) PopImage(ctx context.Context) (string, bool, error) {
	return l.pop(ctx, orphanImagesKey)
}

func (l *RedisLedger) pop(ctx context.Context, key string) (string, bool, error) {
	v, err := l.rdb.SPop(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("ledger pop %s: %w", key, err)
	}
	return v, true, nil
}
