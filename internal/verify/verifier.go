package verify

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ahrdadan/shotcheck/internal/browser"
	"github.com/google/uuid"
)

// EngineFactory acquires a driver context for one run.
type EngineFactory func(ctx context.Context) (browser.Engine, error)

// Options describes one verification run.
type Options struct {
	URL               string
	Output            string
	NavigationTimeout time.Duration
	Settle            Settler
}

// DefaultOptions returns the fixed behaviour: localhost:4000, a blind
// 10 second delay, verification.png.
func DefaultOptions() Options {
	return Options{
		URL:               "http://localhost:4000",
		Output:            "verification.png",
		NavigationTimeout: 30 * time.Second,
		Settle:            FixedDelay{Duration: 10 * time.Second},
	}
}

// Result describes a run. Run returns it on failure too, with only the
// identifying fields set.
type Result struct {
	RunID     string        `json:"run_id"`
	URL       string        `json:"url"`
	Output    string        `json:"output"`
	Width     int           `json:"width"`
	Height    int           `json:"height"`
	Bytes     int           `json:"bytes"`
	Settle    string        `json:"settle"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// Verifier drives one browser through launch, navigate, settle, capture
// and release.
type Verifier struct {
	open EngineFactory
	opts Options
}

// New creates a verifier. Zero-valued options fall back to DefaultOptions.
func New(open EngineFactory, opts Options) *Verifier {
	d := DefaultOptions()
	if opts.URL == "" {
		opts.URL = d.URL
	}
	if opts.Output == "" {
		opts.Output = d.Output
	}
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = d.NavigationTimeout
	}
	if opts.Settle == nil {
		opts.Settle = d.Settle
	}

	return &Verifier{
		open: open,
		opts: opts,
	}
}

// Options returns the effective options.
func (v *Verifier) Options() Options {
	return v.opts
}

// Run performs one verification. The browser instance and the driver
// context are released on every return path, instance first. The result
// is never nil, so a failed run keeps the ID it was logged under.
func (v *Verifier) Run(ctx context.Context) (*Result, error) {
	result := &Result{
		RunID:     uuid.NewString(),
		URL:       v.opts.URL,
		Output:    v.opts.Output,
		Settle:    v.opts.Settle.String(),
		StartedAt: time.Now(),
	}
	log.Printf("Run %s: verifying %s", result.RunID, result.URL)

	if err := v.run(ctx, result); err != nil {
		result.Duration = time.Since(result.StartedAt)
		return result, err
	}

	log.Printf("Run %s: wrote %s (%dx%d, %d bytes) in %s",
		result.RunID, result.Output, result.Width, result.Height, result.Bytes, result.Duration.Round(time.Millisecond))
	return result, nil
}

func (v *Verifier) run(ctx context.Context, result *Result) error {
	engine, err := v.open(ctx)
	if err != nil {
		return launchFailure(ctx, err)
	}
	defer release("driver", engine.Close)

	instance, err := engine.Launch(ctx)
	if err != nil {
		return launchFailure(ctx, err)
	}
	defer release("browser", instance.Close)

	tab, err := instance.NewTab(ctx)
	if err != nil {
		return launchFailure(ctx, err)
	}

	if err := v.navigate(ctx, tab); err != nil {
		return err
	}

	log.Printf("Run %s: settling (%s)", result.RunID, result.Settle)
	if err := v.opts.Settle.Settle(ctx, tab); err != nil {
		return err
	}

	data, err := tab.Screenshot(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &CaptureError{Err: err}
	}

	width, height, err := inspectPNG(data)
	if err != nil {
		return &CaptureError{Err: err}
	}

	if err := writeArtifact(v.opts.Output, data); err != nil {
		return &IOError{Path: v.opts.Output, Err: err}
	}

	result.Width = width
	result.Height = height
	result.Bytes = len(data)
	result.Duration = time.Since(result.StartedAt)
	return nil
}

// launchFailure reports an interrupted launch as the interruption itself.
func launchFailure(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return &LaunchError{Err: err}
}

func (v *Verifier) navigate(ctx context.Context, tab browser.Tab) error {
	navCtx, cancel := withTimeout(ctx, v.opts.NavigationTimeout)
	defer cancel()

	if err := tab.Navigate(navCtx, v.opts.URL); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if navCtx.Err() != nil {
			err = fmt.Errorf("no load event within %s: %w", v.opts.NavigationTimeout, err)
		}
		return &NavigationError{URL: v.opts.URL, Err: err}
	}
	return nil
}

func release(name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		log.Printf("Warning: failed to release %s: %v", name, err)
	}
}
