package main

// Linux input event types and codes (from <linux/input.h>)
const (
	EV_KEY = 0x01

	KEY_POWER     = 116
	KEY_PLAYPAUSE = 164
)

// Input event value constants
const (
	evValueRelease = 0
	evValuePress   = 1
	evValueRepeat  = 2
)

// Daemon defaults
const (
	defaultSocketPath = "/tmp/musicbox.sock"
	defaultHTTPAddr   = "127.0.0.1:8088"
	defaultQueueSize  = 64
	defaultLogLevel   = "info"

	// Upper bound for daemon.queue_size; anything larger hides a stuck loop.
	maxQueueSize = 4096

	// broadcastQueueSize is the buffer between the daemon loop and the WS broadcaster.
	broadcastQueueSize = 64
)
