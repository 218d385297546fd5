package verify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ahrdadan/shotcheck/internal/browser"
)

// Settler decides when a loaded page is ready to be captured.
type Settler interface {
	Settle(ctx context.Context, tab browser.Tab) error
	String() string
}

// FixedDelay waits a fixed duration regardless of page state. Only
// cancellation of ctx ends it early.
type FixedDelay struct {
	Duration time.Duration
}

func (s FixedDelay) Settle(ctx context.Context, _ browser.Tab) error {
	if s.Duration <= 0 {
		return nil
	}

	timer := time.NewTimer(s.Duration)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s FixedDelay) String() string {
	return fmt.Sprintf("delay %s", s.Duration)
}

// SelectorVisible waits until a CSS selector matches a visible element.
type SelectorVisible struct {
	Selector string
	Timeout  time.Duration
}

func (s SelectorVisible) Settle(ctx context.Context, tab browser.Tab) error {
	return waitBounded(ctx, s.String(), s.Timeout, func(ctx context.Context) error {
		return tab.WaitVisible(ctx, s.Selector)
	})
}

func (s SelectorVisible) String() string {
	return fmt.Sprintf("selector %q", s.Selector)
}

// NetworkStable waits until requests and DOM have been quiet for Window.
type NetworkStable struct {
	Window  time.Duration
	Timeout time.Duration
}

func (s NetworkStable) Settle(ctx context.Context, tab browser.Tab) error {
	return waitBounded(ctx, s.String(), s.Timeout, func(ctx context.Context) error {
		return tab.WaitStable(ctx, s.Window)
	})
}

func (s NetworkStable) String() string {
	return fmt.Sprintf("stable %s", s.Window)
}

// waitBounded runs wait under timeout. A deadline becomes a ReadinessError;
// cancellation of the parent ctx is returned as is.
func waitBounded(ctx context.Context, strategy string, timeout time.Duration, wait func(context.Context) error) error {
	waitCtx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	err := wait(waitCtx)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(waitCtx.Err(), context.DeadlineExceeded) {
		return &ReadinessError{Strategy: strategy, Timeout: timeout, Err: context.DeadlineExceeded}
	}
	return &ReadinessError{Strategy: strategy, Timeout: timeout, Err: err}
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
