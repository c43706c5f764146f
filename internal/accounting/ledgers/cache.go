package ledgers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

const bumpChannel = "ledger.bump"

// RedisOpeningCache stores range openings keyed by the store watermark the
// opening was computed at. Rows at or below a watermark never change, so an
// entry can only be served to a statement pinned to the same rows. Bump drops
// a company's entries early to keep the keyspace small.
type RedisOpeningCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisOpeningCache instantiates the cache helper.
func NewRedisOpeningCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisOpeningCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisOpeningCache{client: client, ttl: ttl, logger: logger}
}

func companyPrefix(companyID int64) string {
	return fmt.Sprintf("ledger:opening:%d:", companyID)
}

// BuildKey composes the cache key of q at watermark.
func (c *RedisOpeningCache) BuildKey(q Query, watermark int64) string {
	return companyPrefix(q.CompanyID) + strings.Join([]string{
		"w" + strconv.FormatInt(watermark, 10),
		string(q.Kind),
		strconv.FormatInt(q.SubjectID, 10),
		shared.FormatDate(q.Range.From),
	}, ":")
}

// Opening serves a cached opening or computes and stores it. Redis failures
// are logged and the loader result is returned.
func (c *RedisOpeningCache) Opening(ctx context.Context, q Query, watermark int64, load func(context.Context) (Opening, error)) (Opening, error) {
	if c == nil || c.client == nil {
		return load(ctx)
	}
	key := c.BuildKey(q, watermark)
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var cached Opening
		if jsonErr := json.Unmarshal(payload, &cached); jsonErr == nil {
			return cached, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Debug("opening cache get", slog.String("key", key), slog.Any("error", err))
	}
	value, err := load(ctx)
	if err != nil {
		return Opening{}, err
	}
	raw, err := json.Marshal(value)
	if err == nil {
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.logger.Debug("opening cache set", slog.String("key", key), slog.Any("error", err))
		}
	}
	return value, nil
}

// Bump deletes every cached opening of a company and announces it on the
// bump channel.
func (c *RedisOpeningCache) Bump(ctx context.Context, companyID int64) error {
	if c == nil || c.client == nil {
		return nil
	}
	iter := c.client.Scan(ctx, 0, companyPrefix(companyID)+"*", 200).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) > 0 {
		if err := c.client.Unlink(ctx, keys...).Err(); err != nil {
			return err
		}
	}
	return c.client.Publish(ctx, bumpChannel, strconv.FormatInt(companyID, 10)).Err()
}
