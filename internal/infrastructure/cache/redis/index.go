package redis

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kirillkom/paperbox/internal/core/domain"
)

const defaultKeyPrefix = "paperbox:notified"

// RecentNotificationIndex remembers announced dedupe keys with a TTL equal
// to the dedupe window. A miss always falls through to the notification store.
type RecentNotificationIndex struct {
	client *goredis.Client
	prefix string
}

func NewClient(addr, password string, db int) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
		PoolSize:     10,
		MinIdleConns: 2,
	})
}

func NewRecentNotificationIndex(client *goredis.Client, prefix string) *RecentNotificationIndex {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RecentNotificationIndex{client: client, prefix: prefix}
}

func (i *RecentNotificationIndex) Ping(ctx context.Context) error {
	if err := i.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (i *RecentNotificationIndex) Contains(ctx context.Context, key domain.DedupeKey) (bool, error) {
	_, err := i.client.Get(ctx, i.redisKey(key)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis get: %w", err)
	}
	return true, nil
}

func (i *RecentNotificationIndex) Remember(ctx context.Context, keys []domain.DedupeKey, ttl time.Duration) error {
	if len(keys) == 0 {
		return nil
	}
	pipe := i.client.Pipeline()
	for _, key := range keys {
		pipe.Set(ctx, i.redisKey(key), "1", ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline set: %w", err)
	}
	return nil
}

func (i *RecentNotificationIndex) Forget(ctx context.Context, keys []domain.DedupeKey) error {
	if len(keys) == 0 {
		return nil
	}
	redisKeys := make([]string, 0, len(keys))
	for _, key := range keys {
		redisKeys = append(redisKeys, i.redisKey(key))
	}
	if err := i.client.Del(ctx, redisKeys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (i *RecentNotificationIndex) Close() error {
	if i.client != nil {
		return i.client.Close()
	}
	return nil
}

// redisKey escapes each identifier so a ':' inside an owner or document id
// cannot shift the segment boundaries.
func (i *RecentNotificationIndex) redisKey(key domain.DedupeKey) string {
	return i.prefix + ":" + url.QueryEscape(key.OwnerID) + ":" + url.QueryEscape(key.DocumentID) + ":" + url.QueryEscape(key.DueOn)
}
