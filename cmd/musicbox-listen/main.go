package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	var (
		wsURL      = flag.String("url", "ws://127.0.0.1:8088/ws", "musicboxd state stream URL")
		retries    = flag.Int("retries", 0, "Connection attempts before giving up (0 = retry forever)")
		retryDelay = flag.Duration("retry-delay", 500*time.Millisecond, "Delay between connection attempts")
		raw        = flag.Bool("raw", false, "Print frames as received instead of formatting them")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	l := &listener{
		url:        *wsURL,
		retries:    *retries,
		retryDelay: *retryDelay,
		raw:        *raw,
		out:        os.Stdout,
		logger:     log.New(os.Stderr, "", log.LstdFlags),
	}

	if err := l.Run(ctx); err != nil {
		log.Fatalf("listener stopped: %v", err)
	}
	log.Printf("shutting down...")
}
