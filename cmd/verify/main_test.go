package main

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ahrdadan/shotcheck/internal/browser"
	"github.com/ahrdadan/shotcheck/internal/config"
	"github.com/ahrdadan/shotcheck/internal/notify"
	"github.com/ahrdadan/shotcheck/internal/verify"
)

func TestOptionsFromConfig(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want verify.Settler
	}{
		{"default delay", nil, verify.FixedDelay{Duration: 10 * time.Second}},
		{"zero delay", []string{"-delay", "0s"}, verify.FixedDelay{}},
		{"selector", []string{"-settle", "selector", "-selector", "#app", "-settle-timeout", "3s"},
			verify.SelectorVisible{Selector: "#app", Timeout: 3 * time.Second}},
		{"stable", []string{"-settle", "stable", "-stable-window", "500ms"},
			verify.NetworkStable{Window: 500 * time.Millisecond, Timeout: 30 * time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.Parse(tt.args)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}

			opts := optionsFromConfig(cfg)
			if opts.Settle != tt.want {
				t.Errorf("Settle = %#v, want %#v", opts.Settle, tt.want)
			}
			if opts.URL != cfg.URL || opts.Output != cfg.Output {
				t.Errorf("Expected URL and output to be carried over")
			}
			if opts.NavigationTimeout != cfg.NavigationTimeout {
				t.Errorf("Expected navigation timeout %s, got %s", cfg.NavigationTimeout, opts.NavigationTimeout)
			}
		})
	}
}

type fakePublisher struct {
	err    error
	events []notify.Event
	closed bool
}

func (p *fakePublisher) Publish(ctx context.Context, event notify.Event) error {
	p.events = append(p.events, event)
	return p.err
}

func (p *fakePublisher) Close() { p.closed = true }

type pngEngine struct{ shot []byte }

func (e *pngEngine) Launch(ctx context.Context) (browser.Instance, error) { return e, nil }
func (e *pngEngine) NewTab(ctx context.Context) (browser.Tab, error)       { return e, nil }
func (e *pngEngine) PID() int                                               { return 1 }
func (e *pngEngine) Close() error                                           { return nil }
func (e *pngEngine) Navigate(ctx context.Context, url string) error         { return nil }
func (e *pngEngine) WaitVisible(ctx context.Context, selector string) error { return nil }
func (e *pngEngine) WaitStable(ctx context.Context, d time.Duration) error  { return nil }
func (e *pngEngine) Screenshot(ctx context.Context) ([]byte, error)         { return e.shot, nil }

func stubPublisher(t *testing.T, p notify.Publisher, err error) *int {
	t.Helper()
	calls := new(int)
	orig := connectPublisher
	connectPublisher = func(url, subject, name string) (notify.Publisher, error) {
		*calls++
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	t.Cleanup(func() { connectPublisher = orig })
	return calls
}

func testConfig(t *testing.T, extra ...string) *config.Config {
	t.Helper()
	args := append([]string{
		"-delay", "0s",
		"-output", filepath.Join(t.TempDir(), "verification.png"),
	}, extra...)
	cfg, err := config.Parse(args)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return cfg
}

func noBrowser(ctx context.Context) (browser.Engine, error) {
	return nil, browser.ErrNoBrowser
}

func workingBrowser(t *testing.T) verify.EngineFactory {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1280, 720))); err != nil {
		t.Fatalf("Failed to encode PNG: %v", err)
	}
	engine := &pngEngine{shot: buf.Bytes()}
	return func(ctx context.Context) (browser.Engine, error) {
		return engine, nil
	}
}

func TestRunPublishFailureKeepsExitCode(t *testing.T) {
	tests := []struct {
		name       string
		open       func(t *testing.T) verify.EngineFactory
		wantCode   int
		wantStatus notify.Status
	}{
		{"launch failure", func(*testing.T) verify.EngineFactory { return noBrowser }, verify.ExitLaunch, notify.StatusFailed},
		{"success", workingBrowser, verify.ExitOK, notify.StatusSucceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &fakePublisher{err: errors.New("nats: connection closed")}
			stubPublisher(t, pub, nil)
			cfg := testConfig(t, "-nats-url", "nats://127.0.0.1:4222")

			code := run(context.Background(), cfg, tt.open(t))

			if code != tt.wantCode {
				t.Errorf("Expected exit code %d, got %d", tt.wantCode, code)
			}
			if len(pub.events) != 1 {
				t.Fatalf("Expected one published event, got %d", len(pub.events))
			}
			event := pub.events[0]
			if event.Status != tt.wantStatus {
				t.Errorf("Expected status %s, got %s", tt.wantStatus, event.Status)
			}
			if event.RunID == "" || event.URL != cfg.URL {
				t.Errorf("Unexpected event identity: %+v", event)
			}
			if !pub.closed {
				t.Errorf("Expected publisher to be closed")
			}
		})
	}
}

func TestRunConnectFailureStillVerifies(t *testing.T) {
	stubPublisher(t, nil, errors.New("nats: no servers available for connection"))
	cfg := testConfig(t, "-nats-url", "nats://127.0.0.1:4222")

	if code := run(context.Background(), cfg, workingBrowser(t)); code != verify.ExitOK {
		t.Errorf("Expected exit code %d, got %d", verify.ExitOK, code)
	}
	if _, err := os.Stat(cfg.Output); err != nil {
		t.Errorf("Expected screenshot to be written: %v", err)
	}
}

func TestRunWithoutNatsSkipsPublishing(t *testing.T) {
	calls := stubPublisher(t, &fakePublisher{}, nil)
	cfg := testConfig(t)

	if code := run(context.Background(), cfg, noBrowser); code != verify.ExitLaunch {
		t.Errorf("Expected exit code %d, got %d", verify.ExitLaunch, code)
	}
	if *calls != 0 {
		t.Errorf("Expected no NATS connection without -nats-url")
	}
}
