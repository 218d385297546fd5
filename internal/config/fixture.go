package config

import (
	"flag"
	"fmt"
	"io"
)

// FixtureConfig holds options for the local fixture server
type FixtureConfig struct {
	Host        string
	Port        int
	RenderDelay int // milliseconds before the page script fills #app
}

// DefaultFixtureConfig returns the default fixture configuration
func DefaultFixtureConfig() *FixtureConfig {
	return &FixtureConfig{
		Host:        "127.0.0.1",
		Port:        4000,
		RenderDelay: 500,
	}
}

// ParseFixture parses fixture server flags.
func ParseFixture(args []string) (*FixtureConfig, error) {
	cfg := DefaultFixtureConfig()

	fs := flag.NewFlagSet("fixture", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&cfg.Host, "host", cfg.Host, "Host address to bind the server")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "Port number for the server")
	fs.IntVar(&cfg.RenderDelay, "render-delay", cfg.RenderDelay, "Milliseconds before the page renders its content")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port out of range: %d", cfg.Port)
	}
	if cfg.RenderDelay < 0 {
		cfg.RenderDelay = 0
	}
	return cfg, nil
}

// Addr returns host:port
func (c *FixtureConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
