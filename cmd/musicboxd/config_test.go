package main

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}
	if len(cfg.Input.Devices) != 0 {
		t.Fatalf("default input devices = %v, want none", cfg.Input.Devices)
	}
}

func TestParseConfig(t *testing.T) {
	yml := `
input:
  devices: ["/dev/input/event3", "/dev/input/event4"]
ipc:
  socket_path: /run/musicbox.sock
http:
  enabled: false
  listen_addr: ":9000"
notify:
  enabled: true
daemon:
  queue_size: 16
logging:
  level: debug
`
	cfg, err := parseConfig([]byte(yml))
	if err != nil {
		t.Fatalf("parseConfig: %v", err)
	}

	want := Config{
		Input:   InputConfig{Devices: []string{"/dev/input/event3", "/dev/input/event4"}},
		IPC:     IPCConfig{SocketPath: "/run/musicbox.sock"},
		HTTP:    HTTPConfig{Enabled: false, ListenAddr: ":9000"},
		Notify:  NotifyConfig{Enabled: true},
		Daemon:  DaemonConfig{QueueSize: 16},
		Logging: LoggingConfig{Level: "debug"},
	}
	if !reflect.DeepEqual(cfg, want) {
		t.Fatalf("cfg = %+v\nwant %+v", cfg, want)
	}
}

func TestParseConfig_PartialKeepsDefaults(t *testing.T) {
	cfg, err := parseConfig([]byte("logging:\n  level: warn\n"))
	if err != nil {
		t.Fatalf("parseConfig: %v", err)
	}
	if cfg.Logging.Level != "warn" {
		t.Fatalf("level = %q", cfg.Logging.Level)
	}
	if cfg.IPC.SocketPath != defaultSocketPath || cfg.HTTP.ListenAddr != defaultHTTPAddr || cfg.Daemon.QueueSize != defaultQueueSize {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestParseConfig_Empty(t *testing.T) {
	cfg, err := parseConfig(nil)
	if err != nil {
		t.Fatalf("parseConfig(empty): %v", err)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Fatalf("empty config = %+v, want defaults", cfg)
	}
}

func TestParseConfig_Rejects(t *testing.T) {
	tests := map[string]string{
		"unknown field":    "ipc:\n  socket: /tmp/x.sock\n",
		"unknown section":  "camilladsp:\n  ws_url: ws://x\n",
		"trailing doc":     "logging:\n  level: info\n---\nlogging:\n  level: debug\n",
		"trailing empty":   "logging:\n  level: info\n---\n{}\n",
		"trailing foreign": "logging:\n  level: info\n---\nfoo: 1\n",
		"wrong value type": "daemon:\n  queue_size: lots\n",
	}
	for name, yml := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := parseConfig([]byte(yml)); err == nil {
				t.Fatalf("parseConfig accepted %q", yml)
			}
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("ipc:\n  socket_path: /tmp/other.sock\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if cfg.IPC.SocketPath != "/tmp/other.sock" {
		t.Fatalf("socket path = %q", cfg.IPC.SocketPath)
	}

	if _, err := LoadConfigFile(""); err == nil {
		t.Fatalf("empty path accepted")
	}
	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("missing file accepted")
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := DefaultConfig()
	err := ApplyEnv(&cfg, map[string]string{
		"MUSICBOX_INPUT_DEVICES":      "/dev/input/event1,/dev/input/event2",
		"MUSICBOX_IPC_SOCKET_PATH":    "/run/mb.sock",
		"MUSICBOX_HTTP_ENABLED":       "false",
		"MUSICBOX_NOTIFY_ENABLED":     "true",
		"MUSICBOX_DAEMON_QUEUE_SIZE":  "8",
		"MUSICBOX_LOGGING_LEVEL":      "error",
		"UNRELATED_HTTP_LISTEN_ADDR":  ":1",
		"MUSICBOX_UNKNOWN_IS_IGNORED": "x",
	})
	if err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}

	if !reflect.DeepEqual(cfg.Input.Devices, []string{"/dev/input/event1", "/dev/input/event2"}) {
		t.Errorf("devices = %v", cfg.Input.Devices)
	}
	if cfg.IPC.SocketPath != "/run/mb.sock" {
		t.Errorf("socket = %q", cfg.IPC.SocketPath)
	}
	if cfg.HTTP.Enabled {
		t.Errorf("http still enabled")
	}
	if cfg.HTTP.ListenAddr != defaultHTTPAddr {
		t.Errorf("listen addr = %q, want default", cfg.HTTP.ListenAddr)
	}
	if !cfg.Notify.Enabled {
		t.Errorf("notify not enabled")
	}
	if cfg.Daemon.QueueSize != 8 {
		t.Errorf("queue size = %d", cfg.Daemon.QueueSize)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("level = %q", cfg.Logging.Level)
	}
}

func TestApplyEnv_BadValue(t *testing.T) {
	cfg := DefaultConfig()
	if err := ApplyEnv(&cfg, map[string]string{"MUSICBOX_DAEMON_QUEUE_SIZE": "many"}); err == nil {
		t.Fatalf("ApplyEnv accepted non-numeric queue size")
	}
}

func TestFlagOverrides_Apply(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Input.Devices = []string{"/dev/input/event1", "/dev/input/event2"}

	dev := "/dev/input/event9"
	sock := "/tmp/flag.sock"
	off := false
	level := "debug"
	FlagOverrides{
		InputDevice:   &dev,
		IPCSocketPath: &sock,
		HTTPEnabled:   &off,
		LogLevel:      &level,
	}.Apply(&cfg)

	if !reflect.DeepEqual(cfg.Input.Devices, []string{dev}) {
		t.Errorf("devices = %v", cfg.Input.Devices)
	}
	if cfg.IPC.SocketPath != sock || cfg.HTTP.Enabled || cfg.Logging.Level != level {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.HTTP.ListenAddr != defaultHTTPAddr {
		t.Errorf("unset override changed listen addr: %q", cfg.HTTP.ListenAddr)
	}

	empty := ""
	FlagOverrides{InputDevice: &empty}.Apply(&cfg)
	if cfg.Input.Devices != nil {
		t.Errorf("empty -input-device should disable input, got %v", cfg.Input.Devices)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"empty device entry", func(c *Config) { c.Input.Devices = []string{"/dev/input/event1", ""} }, "input.devices[1]"},
		{"empty socket", func(c *Config) { c.IPC.SocketPath = "" }, "ipc.socket_path"},
		{"http without addr", func(c *Config) { c.HTTP.ListenAddr = "" }, "http.listen_addr"},
		{"http bad addr", func(c *Config) { c.HTTP.ListenAddr = "localhost" }, "http.listen_addr"},
		{"queue zero", func(c *Config) { c.Daemon.QueueSize = 0 }, "daemon.queue_size"},
		{"queue huge", func(c *Config) { c.Daemon.QueueSize = maxQueueSize + 1 }, "daemon.queue_size"},
		{"empty level", func(c *Config) { c.Logging.Level = "" }, "logging.level"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error mentioning %q", err, tt.wantErr)
			}
		})
	}

	// A bad address is fine while HTTP is disabled.
	cfg := DefaultConfig()
	cfg.HTTP.Enabled = false
	cfg.HTTP.ListenAddr = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() with http disabled = %v", err)
	}
}

func TestLoadConfig_Layering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := "ipc:\n  socket_path: /tmp/file.sock\nlogging:\n  level: warn\nhttp:\n  listen_addr: \"127.0.0.1:7000\"\n"
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("MUSICBOX_LOGGING_LEVEL", "error")
	t.Setenv("MUSICBOX_HTTP_LISTEN_ADDR", "127.0.0.1:7001")

	cfg, exit, err := loadConfig([]string{"-config", path, "-http-addr", "127.0.0.1:7002"}, &bytes.Buffer{})
	if err != nil || exit {
		t.Fatalf("loadConfig = %v, exit=%v", err, exit)
	}

	if cfg.IPC.SocketPath != "/tmp/file.sock" {
		t.Errorf("file value lost: %q", cfg.IPC.SocketPath)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("env did not override file: %q", cfg.Logging.Level)
	}
	if cfg.HTTP.ListenAddr != "127.0.0.1:7002" {
		t.Errorf("flag did not override env: %q", cfg.HTTP.ListenAddr)
	}
}

func TestLoadConfig_VersionAndHelp(t *testing.T) {
	for _, arg := range []string{"-version", "-help", "-h"} {
		var out bytes.Buffer
		_, exit, err := loadConfig([]string{arg}, &out)
		if err != nil || !exit {
			t.Fatalf("%s: exit=%v err=%v", arg, exit, err)
		}
		if !strings.Contains(out.String(), "musicboxd v"+version) {
			t.Fatalf("%s output = %q", arg, out.String())
		}
	}
}

func TestLoadConfig_InvalidFlag(t *testing.T) {
	if _, _, err := loadConfig([]string{"-log-level", "loud"}, &bytes.Buffer{}); err == nil {
		t.Fatalf("invalid log level accepted")
	}
	if _, _, err := loadConfig([]string{"-no-such-flag"}, &bytes.Buffer{}); err == nil {
		t.Fatalf("unknown flag accepted")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	tests := map[string]string{
		"":                   "",
		"/abs/path":          "/abs/path",
		"~":                  home,
		"~/musicbox.yaml":    filepath.Join(home, "musicbox.yaml"),
		"~other/config.yaml": "~other/config.yaml",
	}
	for in, want := range tests {
		if got := ExpandPath(in); got != want {
			t.Errorf("ExpandPath(%q) = %q, want %q", in, got, want)
		}
	}
}
