package statestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/roach88/zeromem/internal/ir"
)

// DefaultRedisPrefix namespaces state keys in a shared Redis database.
const DefaultRedisPrefix = "zeromem:state:"

// RedisOptions configures DialRedis.
type RedisOptions struct {
	Addr        string
	Password    string
	DB          int
	Prefix      string
	DialTimeout time.Duration
}

// Redis is a Store backed by Redis strings, one key per state entry.
type Redis struct {
	client *redis.Client
	prefix string
}

var _ Store = (*Redis)(nil)

// NewRedis wraps an existing client. An empty prefix means DefaultRedisPrefix.
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &Redis{client: client, prefix: prefix}
}

// DialRedis connects to Redis and verifies the connection with PING.
func DialRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 5 * time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: opts.DialTimeout,
	})

	pong, err := client.Ping(ctx).Result()
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	if pong != "PONG" {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: expected PONG, got %s", opts.Addr, pong)
	}

	return NewRedis(client, opts.Prefix), nil
}

func (r *Redis) key(key string) string {
	return r.prefix + key
}

// Load implements Store. redis.Nil maps to found=false.
func (r *Redis) Load(ctx context.Context, key string) (ir.IRValue, bool, error) {
	if err := checkKey(key); err != nil {
		return nil, false, err
	}

	val, err := r.client.Get(ctx, r.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("load state %q: %w", key, err)
	}

	v, err := decodeValue(val)
	if err != nil {
		return nil, false, fmt.Errorf("load state %q: %w", key, err)
	}
	return v, true, nil
}

// Save implements Store. Entries never expire.
func (r *Redis) Save(ctx context.Context, key string, value ir.IRValue) error {
	if err := checkKey(key); err != nil {
		return err
	}

	data, err := encodeValue(value)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key(key), data, 0).Err(); err != nil {
		return fmt.Errorf("save state %q: %w", key, err)
	}
	return nil
}

// Close implements Store.
func (r *Redis) Close() error {
	return r.client.Close()
}
