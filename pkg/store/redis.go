package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	errs "github.com/matzehuels/jsonflow/pkg/errors"
)

// RedisConfig configures a [RedisStore].
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	// Prefix namespaces keys. Defaults to "jsonflow:doc:".
	Prefix string
}

// RedisStore keeps documents in Redis. Every Set also publishes the new
// value on the key's change channel, which Watch subscribes to.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and verifies the connection with PING.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		cfg.Addr = "localhost:6379"
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "jsonflow:doc:"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errs.Wrap(errs.ErrCodeStorage, err, "connect to redis at %s", cfg.Addr)
	}
	return &RedisStore{client: client, prefix: cfg.Prefix}, nil
}

// Channel returns the pub/sub channel that carries changes of key.
func Channel(key string) string { return "jsonflow:changed:" + key }

func (s *RedisStore) Get(ctx context.Context, key string) (value string, err error) {
	defer func(start time.Time) { observe(ctx, BackendRedis, "get", start, err) }(time.Now())
	if err := checkKey(key); err != nil {
		return "", err
	}
	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", errs.Wrap(errs.ErrCodeStorage, err, "redis get %s", key)
	}
	return v, nil
}

// Set stores value and publishes it in one transaction.
func (s *RedisStore) Set(ctx context.Context, key, value string) (err error) {
	defer func(start time.Time) { observe(ctx, BackendRedis, "set", start, err) }(time.Now())
	if err := checkKey(key); err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.prefix+key, value, 0)
		p.Publish(ctx, Channel(key), value)
		return nil
	})
	if err != nil {
		return errs.Wrap(errs.ErrCodeStorage, err, "redis set %s", key)
	}
	return nil
}

// Watch subscribes to the key's change channel.
func (s *RedisStore) Watch(ctx context.Context, key string) (<-chan Change, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	sub := s.client.Subscribe(ctx, Channel(key))
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, errs.Wrap(errs.ErrCodeStorage, err, "redis subscribe %s", key)
	}

	out := make(chan Change)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				if !deliver(ctx, out, BackendRedis, Change{Key: key, Value: msg.Payload}) {
					return
				}
			}
		}
	}()
	return out, nil
}

func (s *RedisStore) Close() error { return s.client.Close() }

var _ Store = (*RedisStore)(nil)
