package service

import (
	"context"
	"time"
)

const defaultPublishTimeout = 2 * time.Second

// publishContext bounds a post-commit publish. It outlives the request
// context so a client disconnect does not drop an event that is already
// committed.
func publishContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}
