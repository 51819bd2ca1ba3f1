// Package store holds the document text the viewer follows.
//
// A [Store] maps keys to JSON text and notifies watchers when a key
// changes. The viewer reads one key (by default [DefaultKey]) and redraws on
// every change notification.
//
// Backends:
//   - [MemoryStore]: in-process, for tests and throwaway sessions
//   - [FileStore]: one file per key, watched with fsnotify
//   - [RedisStore]: GET/SET plus a pub/sub channel per key
//   - [MongoStore]: one document per key, watched with a change stream
//
// Use [Open] to pick a backend from [Config].
package store

import (
	"context"
	"errors"
	"time"

	errs "github.com/matzehuels/jsonflow/pkg/errors"
	"github.com/matzehuels/jsonflow/pkg/observability"
)

// DefaultKey is the key the viewer follows unless configured otherwise.
const DefaultKey = "json"

// ErrNotFound is returned by Get when the key has never been set.
var ErrNotFound = errors.New("key not found")

// Backend names accepted by [Open].
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Backends lists every backend name.
var Backends = []string{BackendMemory, BackendFile, BackendRedis, BackendMongo}

// Change is one notification delivered by Watch.
type Change struct {
	Key     string
	Value   string
	Deleted bool
}

// Store is a key-value store for document text with change notification.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key and notifies watchers.
	Set(ctx context.Context, key, value string) error

	// Watch delivers a Change for every update of key until ctx is
	// cancelled, then closes the channel.
	Watch(ctx context.Context, key string) (<-chan Change, error)

	// Close releases backend resources.
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Backend string

	// Dir is the FileStore directory.
	Dir string

	// RedisAddr is host:port of the Redis server.
	RedisAddr string

	MongoURI        string
	MongoDatabase   string
	MongoCollection string
}

// Open creates the backend named by cfg.Backend. An empty backend means
// [BackendFile].
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendFile, "":
		return NewFileStore(cfg.Dir)
	case BackendRedis:
		return NewRedisStore(ctx, RedisConfig{Addr: cfg.RedisAddr})
	case BackendMongo:
		return NewMongoStore(ctx, MongoConfig{
			URI:        cfg.MongoURI,
			Database:   cfg.MongoDatabase,
			Collection: cfg.MongoCollection,
		})
	default:
		return nil, errs.New(errs.ErrCodeInvalidConfig, "unknown store backend %q", cfg.Backend)
	}
}

// observe reports one backend operation to the registered store hooks.
func observe(ctx context.Context, backend, op string, start time.Time, err error) {
	if errors.Is(err, ErrNotFound) {
		err = nil
	}
	observability.Store().OnOperation(ctx, backend, op, time.Since(start), err)
}

// deliver sends c on ch unless ctx is done first.
func deliver(ctx context.Context, ch chan<- Change, backend string, c Change) bool {
	select {
	case ch <- c:
		observability.Store().OnChange(ctx, backend)
		return true
	case <-ctx.Done():
		return false
	}
}

func checkKey(key string) error {
	return errs.ValidateStorageKey(key)
}
