package verify

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// LaunchError means no usable browser could be started or opened.
type LaunchError struct {
	Err error
}

func (e *LaunchError) Error() string { return "launch failed: " + e.Err.Error() }
func (e *LaunchError) Unwrap() error { return e.Err }

// NavigationError means the target could not be loaded.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation to %s failed: %v", e.URL, e.Err)
}
func (e *NavigationError) Unwrap() error { return e.Err }

// ReadinessError means a readiness predicate did not hold before its timeout.
type ReadinessError struct {
	Strategy string
	Timeout  time.Duration
	Err      error
}

func (e *ReadinessError) Error() string {
	return fmt.Sprintf("page not ready (%s) within %s: %v", e.Strategy, e.Timeout, e.Err)
}
func (e *ReadinessError) Unwrap() error { return e.Err }

// CaptureError means the browser did not produce a usable screenshot.
type CaptureError struct {
	Err error
}

func (e *CaptureError) Error() string { return "screenshot failed: " + e.Err.Error() }
func (e *CaptureError) Unwrap() error { return e.Err }

// IOError means the screenshot could not be written.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}
func (e *IOError) Unwrap() error { return e.Err }

// Exit codes
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitUsage       = 2
	ExitLaunch      = 3
	ExitNavigation  = 4
	ExitReadiness   = 5
	ExitCapture     = 6
	ExitIO          = 7
	ExitInterrupted = 130
)

// ExitCode maps a run error to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	if errors.Is(err, context.Canceled) {
		return ExitInterrupted
	}

	var (
		launchErr    *LaunchError
		navErr       *NavigationError
		readinessErr *ReadinessError
		captureErr   *CaptureError
		ioErr        *IOError
	)
	switch {
	case errors.As(err, &launchErr):
		return ExitLaunch
	case errors.As(err, &navErr):
		return ExitNavigation
	case errors.As(err, &readinessErr):
		return ExitReadiness
	case errors.As(err, &captureErr):
		return ExitCapture
	case errors.As(err, &ioErr):
		return ExitIO
	}
	return ExitFailure
}

// Kind names the error class for reports.
func Kind(err error) string {
	switch ExitCode(err) {
	case ExitOK:
		return ""
	case ExitLaunch:
		return "launch"
	case ExitNavigation:
		return "navigation"
	case ExitReadiness:
		return "readiness"
	case ExitCapture:
		return "capture"
	case ExitIO:
		return "io"
	case ExitInterrupted:
		return "interrupted"
	}
	return "internal"
}
