package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// envPrefix is prepended to every environment override, e.g. MUSICBOX_IPC_SOCKET_PATH.
const envPrefix = "MUSICBOX_"

// Config is the top-level YAML configuration for the musicbox daemon.
//
// Sources are layered in this order, later ones winning:
//
//	DefaultConfig() -> YAML file -> MUSICBOX_* environment -> explicit flags
//
// Validate is run once on the merged result so the rest of the code can assume a
// well-formed config.
type Config struct {
	// Linux input devices that carry the power and play/pause keys
	Input InputConfig `yaml:"input" envPrefix:"INPUT_"`

	// Local control socket (musicbox-ctl)
	IPC IPCConfig `yaml:"ipc" envPrefix:"IPC_"`

	// Read-only state endpoints
	HTTP HTTPConfig `yaml:"http" envPrefix:"HTTP_"`

	// Desktop notifications for device actions
	Notify NotifyConfig `yaml:"notify" envPrefix:"NOTIFY_"`

	Daemon DaemonConfig `yaml:"daemon" envPrefix:"DAEMON_"`

	Logging LoggingConfig `yaml:"logging" envPrefix:"LOGGING_"`
}

type InputConfig struct {
	// Empty disables the input reader; events then only arrive over IPC.
	Devices []string `yaml:"devices,omitempty" env:"DEVICES" envSeparator:","`
}

type IPCConfig struct {
	SocketPath string `yaml:"socket_path" env:"SOCKET_PATH"`
}

type HTTPConfig struct {
	Enabled    bool   `yaml:"enabled" env:"ENABLED"`
	ListenAddr string `yaml:"listen_addr" env:"LISTEN_ADDR"`
}

type NotifyConfig struct {
	Enabled bool `yaml:"enabled" env:"ENABLED"`
}

type DaemonConfig struct {
	QueueSize int `yaml:"queue_size" env:"QUEUE_SIZE"`
}

type LoggingConfig struct {
	Level string `yaml:"level" env:"LEVEL"`
}

// DefaultConfig returns a fully-populated Config with defaults.
// Keep this aligned with constants.go.
func DefaultConfig() Config {
	return Config{
		Input: InputConfig{
			Devices: nil,
		},
		IPC: IPCConfig{
			SocketPath: defaultSocketPath,
		},
		HTTP: HTTPConfig{
			Enabled:    true,
			ListenAddr: defaultHTTPAddr,
		},
		Notify: NotifyConfig{
			Enabled: false,
		},
		Daemon: DaemonConfig{
			QueueSize: defaultQueueSize,
		},
		Logging: LoggingConfig{
			Level: defaultLogLevel,
		},
	}
}

// LoadConfigFile reads and parses a YAML config file on top of DefaultConfig.
//
// Unknown fields are rejected (helps catch typos) via KnownFields(true), and so is a
// second YAML document in the same file.
func LoadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	return parseConfig(b)
}

func parseConfig(b []byte) (Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		// An empty file is a valid "use the defaults" config.
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}

	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return Config{}, errors.New("decode config yaml: unexpected trailing document")
	}

	return cfg, nil
}

// ApplyEnv overlays MUSICBOX_* variables from environ onto cfg. Variables that are not
// set leave the corresponding field untouched.
func ApplyEnv(cfg *Config, environ map[string]string) error {
	if cfg == nil {
		return nil
	}
	if err := env.ParseWithOptions(cfg, env.Options{
		Prefix:      envPrefix,
		Environment: environ,
	}); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}

// FlagOverrides holds values from explicitly-set command line flags.
//
// Flags should pass pointers; each override is only applied if the pointer is non-nil.
// main.go decides which flags exist and uses flag.Visit to fill only the ones given.
type FlagOverrides struct {
	InputDevice *string

	IPCSocketPath *string
	HTTPAddr      *string
	HTTPEnabled   *bool
	NotifyEnabled *bool

	LogLevel *string
}

// Apply merges the overrides into cfg. If an override pointer is nil, it is ignored.
// If the pointer is non-nil, the value is applied (even if it is a "zero value").
func (o FlagOverrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.InputDevice != nil {
		if *o.InputDevice == "" {
			cfg.Input.Devices = nil
		} else {
			cfg.Input.Devices = []string{*o.InputDevice}
		}
	}
	if o.IPCSocketPath != nil {
		cfg.IPC.SocketPath = *o.IPCSocketPath
	}
	if o.HTTPAddr != nil {
		cfg.HTTP.ListenAddr = *o.HTTPAddr
	}
	if o.HTTPEnabled != nil {
		cfg.HTTP.Enabled = *o.HTTPEnabled
	}
	if o.NotifyEnabled != nil {
		cfg.Notify.Enabled = *o.NotifyEnabled
	}
	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
}

// Validate checks config invariants and returns a user-friendly error.
// This is intended to be called after defaults + file + env + overrides are applied.
func (c *Config) Validate() error {
	for i, dev := range c.Input.Devices {
		if dev == "" {
			return fmt.Errorf("input.devices[%d] is empty", i)
		}
	}

	if c.IPC.SocketPath == "" {
		return errors.New("ipc.socket_path must not be empty")
	}

	if c.HTTP.Enabled {
		if c.HTTP.ListenAddr == "" {
			return errors.New("http.enabled is true but http.listen_addr is empty")
		}
		if _, _, err := net.SplitHostPort(c.HTTP.ListenAddr); err != nil {
			return fmt.Errorf("http.listen_addr %q: %w", c.HTTP.ListenAddr, err)
		}
	}

	if c.Daemon.QueueSize <= 0 || c.Daemon.QueueSize > maxQueueSize {
		return fmt.Errorf("daemon.queue_size must be between 1 and %d", maxQueueSize)
	}

	if c.Logging.Level == "" {
		return errors.New("logging.level must not be empty")
	}
	if _, err := parseLogLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}

	return nil
}

// ExpandPath expands a leading "~" in a path using $HOME.
func ExpandPath(p string) string {
	if p == "" {
		return p
	}
	if p[0] != '~' {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	if len(p) >= 2 && (p[1] == '/' || p[1] == '\\') {
		return filepath.Join(home, p[2:])
	}
	return p
}
