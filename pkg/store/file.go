package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	errs "github.com/matzehuels/jsonflow/pkg/errors"
)

// debounce coalesces the burst of events a single save produces.
const debounce = 50 * time.Millisecond

// FileStore keeps one file per key in a directory. External editors can
// change a key by writing its file; watchers see those edits too.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a file store rooted at baseDir, creating the
// directory if needed. If baseDir is empty, it defaults to
// ~/.config/jsonflow/documents/.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".config", "jsonflow", "documents")
	}
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, errs.Wrap(errs.ErrCodeStorage, err, "create document dir")
	}
	return &FileStore{baseDir: baseDir}, nil
}

// Path returns the file backing key.
func (s *FileStore) Path(key string) string {
	return filepath.Join(s.baseDir, key+".json")
}

// Dir returns the base directory.
func (s *FileStore) Dir() string { return s.baseDir }

func (s *FileStore) Get(ctx context.Context, key string) (value string, err error) {
	defer func(start time.Time) { observe(ctx, BackendFile, "get", start, err) }(time.Now())
	if err := checkKey(key); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(key)
}

func (s *FileStore) read(key string) (string, error) {
	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", errs.Wrap(errs.ErrCodeStorage, err, "read %s", key)
	}
	return string(data), nil
}

// Set writes value to a temporary file and renames it into place, so a
// reader never sees a partial document.
func (s *FileStore) Set(ctx context.Context, key, value string) (err error) {
	defer func(start time.Time) { observe(ctx, BackendFile, "set", start, err) }(time.Now())
	if err := checkKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.baseDir, "."+key+".*.tmp")
	if err != nil {
		return errs.Wrap(errs.ErrCodeStorage, err, "write %s", key)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		return errs.Wrap(errs.ErrCodeStorage, err, "write %s", key)
	}
	if err := tmp.Close(); err != nil {
		return errs.Wrap(errs.ErrCodeStorage, err, "write %s", key)
	}
	if err := os.Rename(tmp.Name(), s.Path(key)); err != nil {
		return errs.Wrap(errs.ErrCodeStorage, err, "write %s", key)
	}
	return nil
}

// Delete removes the file for key.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.Path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errs.Wrap(errs.ErrCodeStorage, err, "delete %s", key)
	}
	return nil
}

// Watch watches the base directory and reports changes to key's file.
// Events within 50ms of each other collapse into one Change carrying the
// file content at the end of the burst.
func (s *FileStore) Watch(ctx context.Context, key string) (<-chan Change, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeStorage, err, "create watcher")
	}
	if err := w.Add(s.baseDir); err != nil {
		w.Close()
		return nil, errs.Wrap(errs.ErrCodeStorage, err, "watch %s", s.baseDir)
	}

	target := filepath.Clean(s.Path(key))
	out := make(chan Change)

	go func() {
		defer close(out)
		defer w.Close()

		var timer *time.Timer
		var fire <-chan time.Time
		schedule := func() {
			if timer == nil {
				timer = time.NewTimer(debounce)
				fire = timer.C
			} else {
				timer.Reset(debounce)
			}
		}
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return

			case <-fire:
				s.mu.RLock()
				value, err := s.read(key)
				s.mu.RUnlock()
				c := Change{Key: key, Value: value}
				switch {
				case errors.Is(err, ErrNotFound):
					c = Change{Key: key, Deleted: true}
				case err != nil:
					continue
				}
				if !deliver(ctx, out, BackendFile, c) {
					return
				}

			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
					schedule()
				}

			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return out, nil
}

func (s *FileStore) Close() error { return nil }

var _ Store = (*FileStore)(nil)
