package fifo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pipebus/pipebus/internal/config"
	"github.com/pipebus/pipebus/internal/logger"
	"github.com/pipebus/pipebus/pkg/types"
)

// HistoryEntry records one dispatched message
type HistoryEntry struct {
	ID        types.ID        `json:"id"`
	Message   string          `json:"message"`
	Origin    string          `json:"origin"`
	Timestamp types.Timestamp `json:"timestamp"`
}

// WorkerStats represents worker statistics
type WorkerStats struct {
	Ticks              uint64 `json:"ticks"`
	MessagesDispatched uint64 `json:"messages_dispatched"`
	MessagesUnmatched  uint64 `json:"messages_unmatched"`
	Subscriptions      int    `json:"subscriptions"`
}

// String returns a string representation of the stats
func (s WorkerStats) String() string {
	return fmt.Sprintf("WorkerStats{Ticks: %d, Dispatched: %d, Unmatched: %d, Subscriptions: %d}",
		s.Ticks, s.MessagesDispatched, s.MessagesUnmatched, s.Subscriptions)
}

// Worker owns one named pipe and polls it for messages. The pipe special
// file is created lazily on Run and persists on the filesystem after the
// process exits; it is a shared OS resource, not an owned one.
//
// Subscriptions must be registered before Run. Stats and History are safe
// to read from other goroutines while the worker runs.
type Worker struct {
	name    string // logical name, reported to handlers
	path    string // resolved filesystem path
	cfg     config.PipeConfig
	logger  *logger.Logger
	table   *Dispatcher
	mu      sync.RWMutex
	status  types.Status
	stats   WorkerStats
	history []HistoryEntry
}

// NewWorker creates a worker for the named pipe. Relative names resolve
// under the configured root.
func NewWorker(name string, cfg config.PipeConfig, log *logger.Logger) (*Worker, error) {
	if name == "" {
		return nil, types.NewError(types.ErrCodeInvalidArgument, "pipe name cannot be empty")
	}
	if log == nil {
		var err error
		log, err = logger.NewDefault()
		if err != nil {
			return nil, types.WrapError(types.ErrCodeInternal, "failed to create default logger", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	path := ResolvePath(name, cfg.Root)
	return &Worker{
		name:   name,
		path:   path,
		cfg:    cfg,
		logger: log.With("component", "fifo_worker", "pipe", name),
		table:  NewDispatcher(name),
		status: types.StatusIdle,
	}, nil
}

// Subscribe registers a handler for messages exactly equal to msg
func (w *Worker) Subscribe(fn Handler, msg string) error {
	return w.table.Subscribe(fn, msg)
}

// SubscribeRegex registers a handler for messages matching the expression
// at the start of the message
func (w *Worker) SubscribeRegex(fn Handler, pattern string) error {
	return w.table.SubscribeRegex(fn, pattern)
}

// SubscribeWildcard registers the fallback handler; first registration wins
func (w *Worker) SubscribeWildcard(fn Handler) {
	w.table.SubscribeWildcard(fn)
}

// Name returns the logical pipe name
func (w *Worker) Name() string {
	return w.name
}

// Path returns the resolved filesystem path of the pipe
func (w *Worker) Path() string {
	return w.path
}

// Status returns the current worker status
func (w *Worker) Status() types.Status {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.status
}

// Run creates the pipe if needed and polls it until a handler returns
// ErrQuit or the context is canceled. Each tick reads one batch, dispatches
// every framed line (an idle tick dispatches a single empty message), then
// sleeps for interval. A non-positive interval falls back to the configured
// one.
//
// A cooperative quit returns nil; context cancellation returns the context
// error; everything else is fatal and propagates. The read handle is
// released on every exit path.
func (w *Worker) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = w.cfg.Interval
	}

	if err := ensureExists(w.path); err != nil {
		w.setStatus(types.StatusError)
		return err
	}

	handle, err := openRead(w.path)
	if err != nil {
		w.setStatus(types.StatusError)
		return err
	}
	defer handle.Close()

	w.setStatus(types.StatusListening)
	w.logger.Info("Worker listening",
		"path", w.path,
		"interval", interval.String(),
		"read_buffer_size", w.cfg.ReadBufferSize)

	for {
		msgs, err := readBatch(handle, w.cfg.ReadBufferSize)
		if err != nil {
			w.setStatus(types.StatusError)
			return err
		}

		for _, msg := range msgs {
			if err := w.dispatch(msg); err != nil {
				if errors.Is(err, ErrQuit) {
					w.setStatus(types.StatusTerminated)
					w.logger.Info("Worker stopped")
					return nil
				}
				w.setStatus(types.StatusError)
				return err
			}
		}

		w.mu.Lock()
		w.stats.Ticks++
		w.mu.Unlock()

		select {
		case <-ctx.Done():
			w.setStatus(types.StatusTerminated)
			w.logger.Info("Worker canceled")
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

// dispatch resolves one message and records the outcome
func (w *Worker) dispatch(msg string) error {
	handled, err := w.table.Dispatch(msg)

	w.mu.Lock()
	if handled {
		w.stats.MessagesDispatched++
		if w.cfg.HistorySize > 0 {
			w.history = append(w.history, HistoryEntry{
				ID:        types.GenerateID(),
				Message:   msg,
				Origin:    w.name,
				Timestamp: types.NewTimestamp(),
			})
			if len(w.history) > w.cfg.HistorySize {
				w.history = w.history[len(w.history)-w.cfg.HistorySize:]
			}
		}
	} else {
		w.stats.MessagesUnmatched++
	}
	w.mu.Unlock()

	if !handled && msg != "" {
		w.logger.Debug("Message unmatched", "message", msg)
	}
	return err
}

// Stats returns a snapshot of worker statistics
func (w *Worker) Stats() WorkerStats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	stats := w.stats
	stats.Subscriptions = w.table.Len()
	return stats
}

// History returns copies of the recently dispatched messages, oldest first
func (w *Worker) History() []HistoryEntry {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]HistoryEntry, len(w.history))
	copy(out, w.history)
	return out
}

// String returns a string representation of the worker
func (w *Worker) String() string {
	return fmt.Sprintf("Worker{Name: %s, Path: %s, Status: %s}", w.name, w.path, w.Status())
}

func (w *Worker) setStatus(status types.Status) {
	w.mu.Lock()
	w.status = status
	w.mu.Unlock()
}
