package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

// listener follows the musicboxd state stream and prints every frame.
// It reconnects whenever the stream drops.
type listener struct {
	url        string
	retries    int // 0 means retry forever
	retryDelay time.Duration
	raw        bool

	out    io.Writer
	logger *log.Logger
}

// Run connects, prints frames until the connection drops, and reconnects until ctx
// is canceled or the retry budget is exhausted.
func (l *listener) Run(ctx context.Context) error {
	if _, err := url.Parse(l.url); err != nil {
		return fmt.Errorf("invalid websocket URL: %w", err)
	}

	f := &formatter{}
	for {
		conn, err := l.connectWithRetry(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		err = l.readLoop(ctx, conn, f)
		conn.Close()
		if ctx.Err() != nil {
			return nil
		}
		l.logger.Printf("connection lost (%v); reconnecting...", err)
	}
}

func (l *listener) connect(ctx context.Context) (*websocket.Conn, error) {
	d := websocket.Dialer{
		HandshakeTimeout: 2 * time.Second,
	}
	conn, _, err := d.DialContext(ctx, l.url, nil)
	return conn, err
}

// connectWithRetry attempts to connect with a fixed delay between attempts.
func (l *listener) connectWithRetry(ctx context.Context) (*websocket.Conn, error) {
	var lastErr error
	for attempt := 1; l.retries <= 0 || attempt <= l.retries; attempt++ {
		conn, err := l.connect(ctx)
		if err == nil {
			l.logger.Printf("connected to %s", l.url)
			return conn, nil
		}
		lastErr = err
		l.logger.Printf("connection failed; retrying... (attempt %d: %v)", attempt, err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retryDelay):
		}
	}
	return nil, fmt.Errorf("failed to connect after %d attempts: %w", l.retries, lastErr)
}

// readLoop prints frames until the connection fails or ctx is canceled.
func (l *listener) readLoop(ctx context.Context, conn *websocket.Conn, f *formatter) error {
	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	})
	defer stop()

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			var ce *websocket.CloseError
			if errors.As(err, &ce) {
				return fmt.Errorf("closed by server: %d %s", ce.Code, ce.Text)
			}
			return err
		}

		switch messageType {
		case websocket.TextMessage:
			if l.raw {
				fmt.Fprintf(l.out, "%s\n", message)
				continue
			}
			fmt.Fprintln(l.out, f.Format(message, time.Now()))
		case websocket.BinaryMessage:
			fmt.Fprintf(l.out, "[BINARY] %d bytes\n", len(message))
		}
	}
}
