package browser

import (
	"context"
	"time"
)

// Engine is the driver context. It launches browser instances and owns the
// resources they share; Close releases them.
type Engine interface {
	Launch(ctx context.Context) (Instance, error)
	Close() error
}

// Instance is one running browser process.
type Instance interface {
	NewTab(ctx context.Context) (Tab, error)
	PID() int
	Close() error
}

// Tab is one page within an instance.
type Tab interface {
	Navigate(ctx context.Context, url string) error
	WaitVisible(ctx context.Context, selector string) error
	WaitStable(ctx context.Context, window time.Duration) error
	Screenshot(ctx context.Context) ([]byte, error)
}
