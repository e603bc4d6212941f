package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const version = "1.0.0"

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "musicboxd v%s\n", version)
	fmt.Fprintln(w, "Music player state machine daemon")
}

func printUsage(w io.Writer) {
	printVersion(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintln(w, "  musicboxd [OPTIONS]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "DESCRIPTION:")
	fmt.Fprintln(w, "  Runs the music player controller. Power and play/pause presses arrive from")
	fmt.Fprintln(w, "  Linux input devices or from musicbox-ctl over a Unix socket. State is served")
	fmt.Fprintln(w, "  read-only over HTTP (/state) and WebSocket (/ws).")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "OPTIONS:")
	fmt.Fprintln(w, "  -config string")
	fmt.Fprintln(w, "        Path to YAML config file (optional)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  -input-device string")
	fmt.Fprintln(w, "        Linux input event device with power/play-pause keys (empty disables input)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  -ipc-socket string")
	fmt.Fprintf(w, "        Unix domain socket path for IPC (default %q)\n", defaultSocketPath)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  -http-addr string")
	fmt.Fprintf(w, "        Listen address for /state and /ws (default %q)\n", defaultHTTPAddr)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  -http")
	fmt.Fprintln(w, "        Enable the HTTP server (default true)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  -notify")
	fmt.Fprintln(w, "        Show device actions as desktop notifications over D-Bus")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  -log-level string")
	fmt.Fprintln(w, "        Log level: error, warn, info, debug (default \"info\")")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  -version")
	fmt.Fprintln(w, "        Print version and exit")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  -help")
	fmt.Fprintln(w, "        Print this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "ENVIRONMENT:")
	fmt.Fprintln(w, "  MUSICBOX_INPUT_DEVICES, MUSICBOX_IPC_SOCKET_PATH, MUSICBOX_HTTP_ENABLED,")
	fmt.Fprintln(w, "  MUSICBOX_HTTP_LISTEN_ADDR, MUSICBOX_NOTIFY_ENABLED, MUSICBOX_DAEMON_QUEUE_SIZE,")
	fmt.Fprintln(w, "  MUSICBOX_LOGGING_LEVEL override the config file; flags override both.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "EXAMPLES:")
	fmt.Fprintln(w, "  musicboxd -input-device /dev/input/event3")
	fmt.Fprintln(w, "  musicboxd -config ~/.config/musicbox/config.yaml -log-level debug")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "NOTES:")
	fmt.Fprintln(w, "  - Requires read access to input device (run as root or add user to 'input' group)")
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig builds the effective config: defaults, file, environment, flags.
func loadConfig(args []string, stdout io.Writer) (Config, bool, error) {
	fs := flag.NewFlagSet("musicboxd", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configPath    = fs.String("config", "", "Path to YAML config file")
		inputDevice   = fs.String("input-device", "", "Linux input event device")
		ipcSocketPath = fs.String("ipc-socket", defaultSocketPath, "Unix domain socket path for IPC")
		httpAddr      = fs.String("http-addr", defaultHTTPAddr, "HTTP listen address")
		httpEnabled   = fs.Bool("http", true, "Enable the HTTP server")
		notifyEnabled = fs.Bool("notify", false, "Desktop notifications over D-Bus")
		logLevelStr   = fs.String("log-level", defaultLogLevel, "Log level: error, warn, info, debug")
		showVersion   = fs.Bool("version", false, "Print version and exit")
		showHelp      = fs.Bool("help", false, "Print help message")
	)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printUsage(stdout)
			return Config{}, true, nil
		}
		return Config{}, false, err
	}
	if *showHelp {
		printUsage(stdout)
		return Config{}, true, nil
	}
	if *showVersion {
		printVersion(stdout)
		return Config{}, true, nil
	}

	cfg := DefaultConfig()
	if *configPath != "" {
		loaded, err := LoadConfigFile(*configPath)
		if err != nil {
			return Config{}, false, err
		}
		cfg = loaded
	}

	// nil environment means the process environment.
	if err := ApplyEnv(&cfg, nil); err != nil {
		return Config{}, false, err
	}

	// Only flags given on the command line override file and environment.
	var o FlagOverrides
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input-device":
			o.InputDevice = inputDevice
		case "ipc-socket":
			o.IPCSocketPath = ipcSocketPath
		case "http-addr":
			o.HTTPAddr = httpAddr
		case "http":
			o.HTTPEnabled = httpEnabled
		case "notify":
			o.NotifyEnabled = notifyEnabled
		case "log-level":
			o.LogLevel = logLevelStr
		}
	})
	o.Apply(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, false, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, false, nil
}

func run(args []string) error {
	cfg, exit, err := loadConfig(args, os.Stdout)
	if err != nil || exit {
		return err
	}

	logLevel, err := parseLogLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	logger := setupLogger(os.Stdout, logLevel)

	socketPath := ExpandPath(cfg.IPC.SocketPath)

	logger.Debug("starting musicboxd", "version", version)
	logger.Debug("configuration",
		"input_devices", cfg.Input.Devices,
		"ipc_socket", socketPath,
		"http_enabled", cfg.HTTP.Enabled,
		"http_addr", cfg.HTTP.ListenAddr,
		"notify", cfg.Notify.Enabled,
		"queue_size", cfg.Daemon.QueueSize)

	// Device sinks: trace lines always, desktop notifications on request.
	device := multiDevice{newLogDevice(logger)}
	if cfg.Notify.Enabled {
		device = append(device, newNotifyDevice(logger))
	}

	ctrl := NewController(device, WithControllerLogger(logger))
	state := &DaemonState{
		InstanceID: uuid.NewString(),
		Since:      time.Now(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Central command bus
	messages := make(chan DaemonMessage, cfg.Daemon.QueueSize)

	var broadcasts chan StateBroadcast
	if cfg.HTTP.Enabled {
		broadcasts = make(chan StateBroadcast, broadcastQueueSize)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return runDaemon(gctx, messages, ctrl, state, broadcasts, logger)
	})

	g.Go(func() error {
		return runIPCServer(gctx, socketPath, messages, logger)
	})

	if len(cfg.Input.Devices) > 0 {
		g.Go(func() error {
			return runInputReader(gctx, cfg.Input.Devices, messages, logger)
		})
	} else {
		logger.Info("no input devices configured; events arrive over IPC only")
	}

	if cfg.HTTP.Enabled {
		ws := NewServer(logger, messages, ServerConfig{})

		g.Go(func() error {
			ws.Hub().Run(gctx)
			return nil
		})
		g.Go(func() error {
			RunBroadcaster(gctx, ws.Hub(), broadcasts, logger)
			return nil
		})
		g.Go(func() error {
			return runHTTPServer(gctx, cfg.HTTP.ListenAddr, newRouter(messages, ws, logger), logger)
		})
	}

	logger.Info("listening",
		"input_devices", len(cfg.Input.Devices),
		"ipc", socketPath,
		"http", httpInfo(cfg.HTTP))

	err = g.Wait()
	logger.Info("shutting down", "state", ctrl.CurrentState())
	return err
}

func httpInfo(c HTTPConfig) string {
	if !c.Enabled {
		return "disabled"
	}
	return c.ListenAddr
}
