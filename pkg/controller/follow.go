package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/matzehuels/jsonflow/pkg/document"
	"github.com/matzehuels/jsonflow/pkg/store"
)

// Follow feeds the document stored under key into c. It posts the current
// value (or [document.DefaultDocument] when the key is unset) and then one
// DocumentChanged per change notification, until ctx is cancelled or the
// watch ends. A deleted key falls back to the default document.
//
// The watch is opened before the initial read so no change is lost in
// between.
func Follow(ctx context.Context, s store.Store, key string, c *Controller) error {
	changes, err := s.Watch(ctx, key)
	if err != nil {
		return fmt.Errorf("watch %s: %w", key, err)
	}

	text, err := s.Get(ctx, key)
	switch {
	case errors.Is(err, store.ErrNotFound):
		text = document.DefaultDocument
	case err != nil:
		return fmt.Errorf("read %s: %w", key, err)
	}
	if err := c.Post(ctx, Changed(text)); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ch, ok := <-changes:
			if !ok {
				return ctx.Err()
			}
			text := ch.Value
			if ch.Deleted {
				text = document.DefaultDocument
			}
			if err := c.Post(ctx, Changed(text)); err != nil {
				return err
			}
		}
	}
}
