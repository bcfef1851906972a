package reportstore

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisClient interface {
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	Close() error
}

// RedisPublisher stores each record as a hash under "<prefix>:run:<runId>" and pushes the run ID onto
// the list "<prefix>:runs", newest first.
type RedisPublisher struct {
	redis  redisClient
	prefix string
}

func NewRedisPublisher(options *redis.Options, prefix string) *RedisPublisher {
	return &RedisPublisher{redis: redis.NewClient(options), prefix: keyPrefix(prefix)}
}

func newRedisPublisherFromURL(u *url.URL) (*RedisPublisher, error) {
	// "prefix" is ours; go-redis rejects query parameters it doesn't know
	clean := *u
	query := clean.Query()
	prefix := query.Get("prefix")
	query.Del("prefix")
	clean.RawQuery = query.Encode()

	options, err := redis.ParseURL(clean.String())
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}
	return NewRedisPublisher(options, prefix), nil
}

func (p *RedisPublisher) RunKey(runID string) string {
	return p.prefix + ":run:" + runID
}

func (p *RedisPublisher) ListKey() string {
	return p.prefix + ":runs"
}

func (p *RedisPublisher) Publish(ctx context.Context, record RunRecord) error {
	data, err := record.MarshalJSON()
	if err != nil {
		return err
	}
	fields := map[string]string{
		"runId":     record.RunID,
		"startTime": record.StartTime.UTC().Format(time.RFC3339Nano),
		"success":   strconv.FormatBool(record.Success),
		"passed":    strconv.Itoa(record.PassCount()),
		"total":     strconv.Itoa(record.Total()),
		"record":    string(data),
	}
	if _, err := p.redis.HSet(ctx, p.RunKey(record.RunID), fields).Result(); err != nil {
		return fmt.Errorf("Redis HSET failed: %w", err) //nolint:stylecheck
	}
	if _, err := p.redis.LPush(ctx, p.ListKey(), record.RunID).Result(); err != nil {
		return fmt.Errorf("Redis LPUSH failed: %w", err) //nolint:stylecheck
	}
	return nil
}

func (p *RedisPublisher) Close() error {
	return p.redis.Close()
}
