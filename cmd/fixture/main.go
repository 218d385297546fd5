package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ahrdadan/shotcheck/internal/config"
	"github.com/ahrdadan/shotcheck/internal/fixture"
)

func main() {
	cfg, err := config.ParseFixture(os.Args[1:])
	if err != nil {
		log.Fatalf("Invalid flags: %v", err)
	}

	app := fixture.New(fixture.Options{
		AppName:     config.AppName + " fixture",
		RenderDelay: time.Duration(cfg.RenderDelay) * time.Millisecond,
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down fixture server...")
		if err := app.Shutdown(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}()

	addr := cfg.Addr()
	log.Printf("Serving fixture page on http://%s", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
