package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ahrdadan/shotcheck/internal/browser"
	"github.com/ahrdadan/shotcheck/internal/config"
	"github.com/ahrdadan/shotcheck/internal/notify"
	"github.com/ahrdadan/shotcheck/internal/verify"
)

func main() {
	// Parse CLI flags
	cfg := config.ParseFlags()

	// Handle --version and --help
	config.HandleFlags(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, cfg, engineFactory(cfg))
	stop()

	os.Exit(code)
}

var connectPublisher = func(url, subject, name string) (notify.Publisher, error) {
	p, err := notify.Connect(url, subject, name)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// run returns the exit code after every deferred release has happened.
// Publishing is best-effort and never changes the exit code.
func run(ctx context.Context, cfg *config.Config, open verify.EngineFactory) int {
	log.Printf("Starting %s v%s", config.AppName, config.Version)

	var publisher notify.Publisher
	if cfg.NatsURL != "" {
		p, err := connectPublisher(cfg.NatsURL, cfg.NatsSubject, config.AppName)
		if err != nil {
			log.Printf("Warning: run outcome will not be published: %v", err)
		} else {
			publisher = p
			defer publisher.Close()
		}
	}

	verifier := verify.New(open, optionsFromConfig(cfg))
	result, err := verifier.Run(ctx)

	if publisher != nil {
		pubCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if pubErr := publisher.Publish(pubCtx, notify.NewEvent(cfg.URL, result, err)); pubErr != nil {
			log.Printf("Warning: failed to publish run outcome: %v", pubErr)
		}
		cancel()
	}

	if err != nil {
		log.Printf("Verification failed: %v", err)
		return verify.ExitCode(err)
	}

	log.Printf("Verification succeeded: %s", result.Output)
	return verify.ExitOK
}

func engineFactory(cfg *config.Config) verify.EngineFactory {
	opts := browser.LaunchOptions{
		Resolve: browser.ResolveOptions{
			Bin:         cfg.ChromeBin,
			Download:    cfg.DownloadChrome,
			Revision:    cfg.ChromeRevision,
			InstallDeps: cfg.InstallDeps,
		},
		Headless:  cfg.Headless,
		NoSandbox: cfg.NoSandbox,
		Viewport: browser.Viewport{
			Width:  cfg.ViewportWidth,
			Height: cfg.ViewportHeight,
		},
	}

	return func(ctx context.Context) (browser.Engine, error) {
		driver, err := browser.NewDriver(ctx, opts)
		if err != nil {
			return nil, err
		}
		return driver, nil
	}
}

func optionsFromConfig(cfg *config.Config) verify.Options {
	opts := verify.Options{
		URL:               cfg.URL,
		Output:            cfg.Output,
		NavigationTimeout: cfg.NavigationTimeout,
	}

	switch cfg.Settle {
	case config.SettleSelector:
		opts.Settle = verify.SelectorVisible{Selector: cfg.Selector, Timeout: cfg.SettleTimeout}
	case config.SettleStable:
		opts.Settle = verify.NetworkStable{Window: cfg.StableWindow, Timeout: cfg.SettleTimeout}
	default:
		opts.Settle = verify.FixedDelay{Duration: cfg.Delay}
	}

	return opts
}
