package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/danve93/Amber-sub001/internal/types"
)

// Error codes for the events package.
const (
	ErrCodeEventBrokerUnreachable types.ErrorCode = "EVENT_BROKER_UNREACHABLE"
	ErrCodeEventEncodeFailed      types.ErrorCode = "EVENT_ENCODE_FAILED"
	ErrCodeEventPublishFailed     types.ErrorCode = "EVENT_PUBLISH_FAILED"
	ErrCodeEventInvalidConfig     types.ErrorCode = "EVENT_INVALID_CONFIG"
)

// RedisPublisherConfig contains connection settings for the Redis publisher.
type RedisPublisherConfig struct {
	// Addr is the Redis server address (host:port)
	Addr string

	// Password authenticates against the server (empty = no auth)
	Password string

	// DB selects the logical Redis database
	DB int

	// ChannelPrefix is prepended to every topic to form the channel name,
	// namespacing Amber events on a shared Redis instance
	ChannelPrefix string
}

// DefaultRedisPublisherConfig returns a config with sensible defaults for a
// local Redis instance.
func DefaultRedisPublisherConfig() RedisPublisherConfig {
	return RedisPublisherConfig{
		Addr:          "localhost:6379",
		DB:            0,
		ChannelPrefix: "amber.",
	}
}

// Validate checks the configuration for required fields.
func (c RedisPublisherConfig) Validate() error {
	if c.Addr == "" {
		return types.NewError(ErrCodeEventInvalidConfig, "redis address is required")
	}
	if c.DB < 0 {
		return types.NewError(ErrCodeEventInvalidConfig, "redis db must be non-negative")
	}
	return nil
}

// redisClient is the subset of the go-redis client the publisher uses.
// Narrowing the dependency keeps the publisher testable without a server.
type redisClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// RedisPublisher delivers events over Redis pub/sub. Each topic maps to one
// channel (prefix + topic) and payloads are published as JSON.
//
// Redis pub/sub is fire-and-forget: messages sent while no subscriber is
// listening are lost, which matches the best-effort contract of Publisher.
type RedisPublisher struct {
	client redisClient
	prefix string
}

// NewRedisPublisher creates a publisher backed by Redis pub/sub and verifies
// connectivity with a ping before returning.
func NewRedisPublisher(ctx context.Context, cfg RedisPublisherConfig) (*RedisPublisher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{cfg.Addr},
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, types.WrapRetryableError(ErrCodeEventBrokerUnreachable,
			fmt.Sprintf("pinging redis at %s", cfg.Addr), err)
	}

	return &RedisPublisher{
		client: client,
		prefix: cfg.ChannelPrefix,
	}, nil
}

// Publish marshals the payload to JSON and publishes it on the topic's
// channel. A publish that reaches zero subscribers still succeeds.
func (p *RedisPublisher) Publish(ctx context.Context, topic Topic, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return types.WrapError(ErrCodeEventEncodeFailed,
			fmt.Sprintf("encoding payload for topic %s", topic), err)
	}

	channel := p.channelFor(topic)
	if err := p.client.Publish(ctx, channel, data).Err(); err != nil {
		return types.WrapRetryableError(ErrCodeEventPublishFailed,
			fmt.Sprintf("publishing to channel %s", channel), err)
	}

	return nil
}

// Close releases the underlying Redis connection pool.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

// channelFor maps a topic to its Redis channel name.
func (p *RedisPublisher) channelFor(topic Topic) string {
	return p.prefix + string(topic)
}

// Ensure RedisPublisher implements Publisher at compile time.
var _ Publisher = (*RedisPublisher)(nil)
