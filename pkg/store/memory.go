package store

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu       sync.RWMutex
	values   map[string]string
	watchers map[string]map[chan Change]struct{}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values:   make(map[string]string),
		watchers: make(map[string]map[chan Change]struct{}),
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (value string, err error) {
	defer func(start time.Time) { observe(ctx, BackendMemory, "get", start, err) }(time.Now())
	if err := checkKey(key); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set stores value and notifies every watcher of key. A watcher that has
// not taken the previous change yet only sees the latest value.
func (s *MemoryStore) Set(ctx context.Context, key, value string) (err error) {
	defer func(start time.Time) { observe(ctx, BackendMemory, "set", start, err) }(time.Now())
	if err := checkKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	s.notifyLocked(Change{Key: key, Value: value})
	return nil
}

// Delete removes key and notifies watchers with a deletion.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; !ok {
		return nil
	}
	delete(s.values, key)
	s.notifyLocked(Change{Key: key, Deleted: true})
	return nil
}

func (s *MemoryStore) notifyLocked(c Change) {
	for ch := range s.watchers[c.Key] {
		select {
		case ch <- c:
		default:
			// replace the pending change
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- c:
			default:
			}
		}
	}
}

func (s *MemoryStore) Watch(ctx context.Context, key string) (<-chan Change, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	in := make(chan Change, 1)
	s.mu.Lock()
	if s.watchers[key] == nil {
		s.watchers[key] = make(map[chan Change]struct{})
	}
	s.watchers[key][in] = struct{}{}
	s.mu.Unlock()

	out := make(chan Change)
	go func() {
		defer close(out)
		defer s.unwatch(key, in)
		for {
			select {
			case <-ctx.Done():
				return
			case c := <-in:
				if !deliver(ctx, out, BackendMemory, c) {
					return
				}
			}
		}
	}()
	return out, nil
}

func (s *MemoryStore) unwatch(key string, ch chan Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.watchers[key], ch)
	if len(s.watchers[key]) == 0 {
		delete(s.watchers, key)
	}
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
