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

// ClientStats represents client statistics
type ClientStats struct {
	MessagesWritten uint64 `json:"messages_written"`
	MessagesDropped uint64 `json:"messages_dropped"`
	MessagesFailed  uint64 `json:"messages_failed"`
	Retries         uint64 `json:"retries"`
}

// String returns a string representation of the stats
func (s ClientStats) String() string {
	return fmt.Sprintf("ClientStats{Written: %d, Dropped: %d, Failed: %d, Retries: %d}",
		s.MessagesWritten, s.MessagesDropped, s.MessagesFailed, s.Retries)
}

// Client writes messages into a named pipe. Each write is an independent
// non-blocking open/write/close; a pipe with no attached reader is a
// transient condition handled by the retry policy, since "worker not
// started yet" and "worker briefly between ticks" are indistinguishable at
// the OS level.
//
// The retry budget carries across Write calls: once exhausted without a
// delivery guarantee, subsequent writes stop retrying (and drop on first
// failure) until one write succeeds and resets the budget. This avoids
// retry storms against a reader that has gone away for good.
type Client struct {
	name      string
	path      string
	cfg       config.ClientConfig
	logger    *logger.Logger
	mu        sync.Mutex
	remaining int // remaining retry budget, reset by any successful write
	stats     ClientStats
}

// NewClient creates a client for the named pipe. Relative names resolve
// under the configured root.
func NewClient(name string, cfg config.ClientConfig, log *logger.Logger) (*Client, error) {
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

	return &Client{
		name:      name,
		path:      ResolvePath(name, cfg.Root),
		cfg:       cfg,
		logger:    log.With("component", "fifo_client", "pipe", name),
		remaining: cfg.Retries,
	}, nil
}

// Name returns the logical pipe name
func (c *Client) Name() string {
	return c.name
}

// Path returns the resolved filesystem path of the pipe
func (c *Client) Path() string {
	return c.path
}

// Write writes one message to the pipe. While no reader is attached it
// retries on the configured interval until the budget runs out; then it
// either fails with code PIPE_UNAVAILABLE (delivery guaranteed) or drops
// the message silently. Any other OS error is fatal and propagates.
func (c *Client) Write(ctx context.Context, msg string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for {
		handle, err := openWrite(c.path)
		if err == nil {
			return c.deliver(handle, msg)
		}
		if !errors.Is(err, errNoReader) {
			return err
		}

		if c.remaining > 0 {
			c.remaining--
			c.stats.Retries++
			if err := sleepCtx(ctx, c.cfg.RetryInterval); err != nil {
				return err
			}
			continue
		}

		if c.cfg.GuaranteeDelivery {
			c.stats.MessagesFailed++
			return types.NewError(types.ErrCodePipeUnavailable, "no reader attached to pipe "+c.name)
		}

		c.stats.MessagesDropped++
		c.logger.Warn("Message dropped, no reader attached", "message", msg)
		return nil
	}
}

// Put writes one message, waiting as long as it takes for a reader to
// attach. It never gives up on the no-reader condition; canceling the
// context is the only way out. Any other OS error propagates.
func (c *Client) Put(ctx context.Context, msg string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for {
		handle, err := openWrite(c.path)
		if err == nil {
			return c.deliver(handle, msg)
		}
		if !errors.Is(err, errNoReader) {
			return err
		}
		if err := sleepCtx(ctx, c.cfg.RetryInterval); err != nil {
			return err
		}
	}
}

// deliver writes the line through an open handle and resets the retry
// budget. Caller holds the lock.
func (c *Client) deliver(handle *Handle, msg string) error {
	werr := writeLine(handle, msg)
	cerr := handle.Close()
	if werr != nil {
		return werr
	}
	if cerr != nil {
		return cerr
	}

	c.remaining = c.cfg.Retries
	c.stats.MessagesWritten++
	c.logger.Debug("Message written", "message", msg)
	return nil
}

// Stats returns a snapshot of client statistics
func (c *Client) Stats() ClientStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// String returns a string representation of the client
func (c *Client) String() string {
	return fmt.Sprintf("Client{Name: %s, Path: %s, Retries: %d, Guarantee: %t}",
		c.name, c.path, c.cfg.Retries, c.cfg.GuaranteeDelivery)
}

// sleepCtx sleeps for d or until the context is canceled
func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return types.WrapError(types.ErrCodeCanceled, "write canceled", ctx.Err())
	case <-time.After(d):
		return nil
	}
}
