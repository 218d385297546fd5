package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// Version is the current version of shotcheck
	Version = "1"
	// AppName is the application name
	AppName = "shotcheck"
)

// Settle strategies
const (
	SettleDelay    = "delay"
	SettleSelector = "selector"
	SettleStable   = "stable"
)

// Config holds all configuration options for a verification run
type Config struct {
	// Target
	URL    string
	Output string

	// Timing
	NavigationTimeout time.Duration
	Settle            string
	Delay             time.Duration
	Selector          string
	StableWindow      time.Duration
	SettleTimeout     time.Duration

	// Browser
	Headless       bool
	NoSandbox      bool
	ChromeBin      string
	DownloadChrome bool
	ChromeRevision int
	InstallDeps    bool
	ViewportWidth  int
	ViewportHeight int

	// Notification (NATS)
	NatsURL     string
	NatsSubject string

	// Flags
	ShowVersion bool
	ShowHelp    bool
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		URL:               "http://localhost:4000",
		Output:            "verification.png",
		NavigationTimeout: 30 * time.Second,
		Settle:            SettleDelay,
		Delay:             10 * time.Second,
		Selector:          "",
		StableWindow:      time.Second,
		SettleTimeout:     30 * time.Second,
		Headless:          true,
		NoSandbox:         false,
		ChromeBin:         "",
		DownloadChrome:    false,
		ChromeRevision:    0,
		InstallDeps:       false,
		ViewportWidth:     1280,
		ViewportHeight:    720,
		NatsURL:           "",
		NatsSubject:       "shotcheck.results",
		ShowVersion:       false,
		ShowHelp:          false,
	}
}

// ParseFlags parses command line flags and returns the config.
// Invalid flags or values print the problem and exit with status 2.
func ParseFlags() *Config {
	cfg, err := Parse(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			PrintHelp()
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "%s: %v\n", AppName, err)
		os.Exit(2)
	}
	return cfg
}

// Parse parses args into a config and validates it.
func Parse(args []string) (*Config, error) {
	cfg := DefaultConfig()

	fs := flag.NewFlagSet(AppName, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	// Target flags
	fs.StringVar(&cfg.URL, "url", cfg.URL, "Page to verify")
	fs.StringVar(&cfg.Output, "output", cfg.Output, "Screenshot output path")

	// Timing flags
	fs.DurationVar(&cfg.NavigationTimeout, "nav-timeout", cfg.NavigationTimeout, "Maximum time to reach the load event")
	fs.StringVar(&cfg.Settle, "settle", cfg.Settle, "Settle strategy: delay, selector or stable")
	fs.DurationVar(&cfg.Delay, "delay", cfg.Delay, "Blind delay for the delay strategy")
	fs.StringVar(&cfg.Selector, "selector", cfg.Selector, "CSS selector for the selector strategy")
	fs.DurationVar(&cfg.StableWindow, "stable-window", cfg.StableWindow, "Quiet window for the stable strategy")
	fs.DurationVar(&cfg.SettleTimeout, "settle-timeout", cfg.SettleTimeout, "Upper bound for selector and stable strategies")

	// Browser flags
	fs.BoolVar(&cfg.Headless, "headless", cfg.Headless, "Run Chrome without a visible window")
	fs.BoolVar(&cfg.NoSandbox, "no-sandbox", cfg.NoSandbox, "Disable the Chrome sandbox (containers)")
	fs.StringVar(&cfg.ChromeBin, "chrome-bin", cfg.ChromeBin, "Path to a Chrome/Chromium binary")
	fs.BoolVar(&cfg.DownloadChrome, "download-chrome", cfg.DownloadChrome, "Download Chromium when none is installed")
	fs.IntVar(&cfg.ChromeRevision, "chrome-revision", cfg.ChromeRevision, "Chromium revision to download (0 uses default)")
	fs.BoolVar(&cfg.InstallDeps, "install-deps", cfg.InstallDeps, "Install OS packages required by Chromium")
	fs.IntVar(&cfg.ViewportWidth, "viewport-width", cfg.ViewportWidth, "Viewport width in CSS pixels")
	fs.IntVar(&cfg.ViewportHeight, "viewport-height", cfg.ViewportHeight, "Viewport height in CSS pixels")

	// NATS flags
	fs.StringVar(&cfg.NatsURL, "nats-url", cfg.NatsURL, "Publish the run outcome to this NATS server")
	fs.StringVar(&cfg.NatsSubject, "nats-subject", cfg.NatsSubject, "NATS subject for run outcomes")

	// Other flags
	fs.BoolVar(&cfg.ShowVersion, "version", cfg.ShowVersion, "Show version information")
	fs.BoolVar(&cfg.ShowHelp, "help", cfg.ShowHelp, "Show help message")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	if cfg.ShowVersion || cfg.ShowHelp {
		return cfg, nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", c.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid url %q: scheme must be http or https", c.URL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid url %q: missing host", c.URL)
	}

	if c.Output == "" {
		return fmt.Errorf("output path is required")
	}
	if strings.HasSuffix(c.Output, string(filepath.Separator)) {
		return fmt.Errorf("output path %q names a directory", c.Output)
	}
	if info, err := os.Stat(c.Output); err == nil && info.IsDir() {
		return fmt.Errorf("output path %q names a directory", c.Output)
	}

	if c.NavigationTimeout <= 0 {
		return fmt.Errorf("nav-timeout must be positive")
	}

	switch c.Settle {
	case SettleDelay:
		if c.Delay < 0 {
			return fmt.Errorf("delay must not be negative")
		}
	case SettleSelector:
		if strings.TrimSpace(c.Selector) == "" {
			return fmt.Errorf("selector is required for the selector strategy")
		}
		if c.SettleTimeout <= 0 {
			return fmt.Errorf("settle-timeout must be positive")
		}
	case SettleStable:
		if c.StableWindow <= 0 {
			return fmt.Errorf("stable-window must be positive")
		}
		if c.SettleTimeout <= 0 {
			return fmt.Errorf("settle-timeout must be positive")
		}
	default:
		return fmt.Errorf("unknown settle strategy %q", c.Settle)
	}

	if c.ViewportWidth < 1 || c.ViewportHeight < 1 {
		return fmt.Errorf("viewport must be at least 1x1, got %dx%d", c.ViewportWidth, c.ViewportHeight)
	}
	if c.ChromeRevision < 0 {
		return fmt.Errorf("chrome-revision must not be negative")
	}

	if c.NatsURL != "" && strings.TrimSpace(c.NatsSubject) == "" {
		return fmt.Errorf("nats-subject is required when nats-url is set")
	}

	return nil
}

// PrintVersion prints version information
func PrintVersion() {
	fmt.Printf("%s v%s\n", AppName, Version)
}

// PrintHelp prints help information
func PrintHelp() {
	d := DefaultConfig()
	fmt.Printf(`%s v%s (headless page verification)

Usage:
  ./verify [flags]

Target:
  -url              %s
  -output           %s

Timing:
  -nav-timeout      %s
  -settle           %s (delay, selector, stable)
  -delay            %s
  -selector         CSS selector, required for -settle=selector
  -stable-window    %s
  -settle-timeout   %s

Browser:
  -headless         %v
  -no-sandbox       %v
  -chrome-bin       path to Chrome/Chromium (system lookup if empty)
  -download-chrome  %v
  -chrome-revision  %d
  -install-deps     %v
  -viewport-width   %d
  -viewport-height  %d

Notification (NATS):
  -nats-url         disabled when empty
  -nats-subject     %s

Other:
  -version          show version
  -help             show this help

`, AppName, Version,
		d.URL, d.Output,
		d.NavigationTimeout, d.Settle, d.Delay, d.StableWindow, d.SettleTimeout,
		d.Headless, d.NoSandbox, d.DownloadChrome, d.ChromeRevision, d.InstallDeps,
		d.ViewportWidth, d.ViewportHeight,
		d.NatsSubject)
}

// HandleFlags handles version and help flags, exits if needed
func HandleFlags(cfg *Config) {
	if cfg.ShowVersion {
		PrintVersion()
		os.Exit(0)
	}

	if cfg.ShowHelp {
		PrintHelp()
		os.Exit(0)
	}
}
