package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer is a bytes.Buffer safe for the spinner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinnerDrawsAndClears(t *testing.T) {
	var out syncBuffer
	s := newSpinnerTo(context.Background(), &out, "Laying out")
	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.Update("Rendering")
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	got := out.String()
	if !strings.Contains(got, "Laying out") || !strings.Contains(got, "Rendering") {
		t.Errorf("output %q missing messages", got)
	}
	if !strings.HasSuffix(got, "\r") {
		t.Error("line not cleared after Stop")
	}
	if s.Cancelled() {
		t.Error("normal stop reported as cancelled")
	}
}

func TestSpinnerParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var out syncBuffer
	s := newSpinnerTo(ctx, &out, "Waiting")
	s.Start()
	cancel()
	s.Stop()
	if !s.Cancelled() {
		t.Error("spinner should report cancellation of its parent")
	}
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	var out syncBuffer
	s := newSpinnerTo(context.Background(), &out, "x")
	s.Stop() // before Start
	s.Stop()

	s = newSpinnerTo(context.Background(), &out, "y")
	s.Start()
	s.Stop()
	s.Stop()
}
