package storage

import (
	"context"
	"sync"
	"time"

	"github.com/buriosa/buriosa/internal/model"
)

// Writer saves store snapshots through an Adapter.
// With a zero delay every change is written before OnChange returns.
// With a positive delay changes are coalesced and only the last snapshot
// of a burst is written.
type Writer struct {
	adapter *Adapter
	delay   time.Duration

	// saveMu orders writes: a snapshot is taken and saved under it.
	saveMu sync.Mutex

	mu      sync.Mutex
	timer   *time.Timer
	pending *model.State
	closed  bool
}

// NewWriter creates a writer. Register OnChange as a store listener.
func NewWriter(adapter *Adapter, delay time.Duration) *Writer {
	if delay < 0 {
		delay = 0
	}
	return &Writer{adapter: adapter, delay: delay}
}

// OnChange records a new snapshot.
func (w *Writer) OnChange(s model.State) {
	w.mu.Lock()
	if w.delay == 0 || w.closed {
		w.mu.Unlock()
		w.saveMu.Lock()
		defer w.saveMu.Unlock()
		w.adapter.Save(context.Background(), s)
		return
	}

	w.pending = &s
	if w.timer == nil {
		w.timer = time.AfterFunc(w.delay, w.Flush)
	}
	w.mu.Unlock()
}

// Flush writes the pending snapshot, if any.
func (w *Writer) Flush() {
	w.saveMu.Lock()
	defer w.saveMu.Unlock()

	w.mu.Lock()
	s := w.pending
	w.pending = nil
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()

	if s != nil {
		w.adapter.Save(context.Background(), *s)
	}
}

// Close flushes pending work. Later changes are written synchronously.
func (w *Writer) Close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	w.Flush()
}
