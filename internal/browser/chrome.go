package browser

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"
)

// Viewport is the emulated page size in CSS pixels.
type Viewport struct {
	Width  int
	Height int
}

// DefaultViewport returns 1280x720.
func DefaultViewport() Viewport {
	return Viewport{Width: 1280, Height: 720}
}

// LaunchOptions configures the driver and every instance it launches.
type LaunchOptions struct {
	Resolve   ResolveOptions
	Headless  bool
	NoSandbox bool
	Viewport  Viewport
}

// DefaultLaunchOptions returns headless launch options with the default viewport.
func DefaultLaunchOptions() LaunchOptions {
	return LaunchOptions{
		Headless: true,
		Viewport: DefaultViewport(),
	}
}

// Driver resolves a Chrome binary once and launches isolated instances
// from it. Each instance gets its own profile under the driver's root.
type Driver struct {
	opts    LaunchOptions
	binPath string
	rootDir string

	mu     sync.Mutex
	closed bool
}

// NewDriver resolves the browser binary and prepares a private profile root.
func NewDriver(ctx context.Context, opts LaunchOptions) (*Driver, error) {
	binPath, err := ResolveChrome(ctx, opts.Resolve)
	if err != nil {
		return nil, err
	}

	rootDir, err := os.MkdirTemp("", "shotcheck-")
	if err != nil {
		return nil, fmt.Errorf("failed to create profile root: %w", err)
	}

	if opts.Viewport.Width <= 0 || opts.Viewport.Height <= 0 {
		opts.Viewport = DefaultViewport()
	}

	log.Printf("Using browser %s", binPath)
	return &Driver{
		opts:    opts,
		binPath: binPath,
		rootDir: rootDir,
	}, nil
}

// BinPath returns the resolved browser binary.
func (d *Driver) BinPath() string {
	return d.binPath
}

// Launch starts Chrome and connects via CDP.
func (d *Driver) Launch(ctx context.Context) (Instance, error) {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return nil, errors.New("driver is closed")
	}

	l := launcher.New().
		Context(ctx).
		Bin(d.binPath).
		Headless(d.opts.Headless).
		NoSandbox(d.opts.NoSandbox).
		UserDataDir(filepath.Join(d.rootDir, uuid.NewString()))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("no-first-run"))
	l.Set(flags.Flag("hide-scrollbars"))

	wsURL, err := l.Launch()
	if err != nil {
		// Cleanup waits for the process to exit, so only call it when one was started.
		if l.PID() != 0 {
			l.Kill()
			l.Cleanup()
		}
		return nil, fmt.Errorf("failed to launch chrome: %w", err)
	}

	b := rod.New().ControlURL(wsURL).NoDefaultDevice()
	if err := b.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect to chrome: %w", err)
	}

	log.Printf("Chrome started (pid %d) with endpoint %s", l.PID(), wsURL)
	return &Chrome{
		launcher: l,
		browser:  b,
		viewport: d.opts.Viewport,
	}, nil
}

// Close removes the profile root. Instances must be closed first.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true

	if err := os.RemoveAll(d.rootDir); err != nil {
		return fmt.Errorf("failed to remove profile root: %w", err)
	}
	return nil
}

// Chrome is a Chromium/Chrome instance launched by rod.
type Chrome struct {
	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
	viewport Viewport
	closed   bool
}

// PID returns the browser process ID.
func (c *Chrome) PID() int {
	return c.launcher.PID()
}

// NewTab creates a new page sized to the configured viewport.
func (c *Chrome) NewTab(ctx context.Context) (Tab, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, errors.New("chrome is closed")
	}

	page, err := c.browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("failed to create new page: %w", err)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             c.viewport.Width,
		Height:            c.viewport.Height,
		DeviceScaleFactor: 1,
	}); err != nil {
		return nil, fmt.Errorf("failed to set viewport: %w", err)
	}

	return &chromeTab{page: page}, nil
}

// Close stops Chrome. The process is killed even when the CDP close fails.
func (c *Chrome) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if err := c.browser.Close(); err != nil {
		log.Printf("Warning: failed to close chrome: %v", err)
	}

	c.launcher.Kill()
	c.launcher.Cleanup()

	log.Println("Chrome stopped")
	return nil
}
