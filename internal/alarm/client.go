package alarm

import (
	"context"
	"log/slog"
	"time"
)

type poster interface {
	Post(Request) error
}

// Client is the app-side handle on a Worker. Failures are logged and
// dropped; foreground tick detection still completes the task.
type Client struct {
	worker poster
	logger *slog.Logger
}

func NewClient(w *Worker, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{worker: w, logger: logger}
}

func (c *Client) Schedule(ctx context.Context, label string, remaining time.Duration, token string) {
	if err := c.worker.Post(Schedule(label, remaining, token)); err != nil {
		c.logger.WarnContext(ctx, "alarm schedule failed", "task", label, "error", err)
	}
}

func (c *Client) Cancel(ctx context.Context) {
	if err := c.worker.Post(Cancel()); err != nil {
		c.logger.WarnContext(ctx, "alarm cancel failed", "error", err)
	}
}

// Noop is used when background alarms are disabled.
type Noop struct{}

func (Noop) Schedule(context.Context, string, time.Duration, string) {}

func (Noop) Cancel(context.Context) {}
