package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// ============================================================================
// musicbox-ctl - Command-line IPC Client
// ============================================================================
// Presses the player's buttons and reads its state over the musicboxd socket.
//
// Usage:
//   musicbox-ctl power
//   musicbox-ctl play-pause
//   musicbox-ctl state
//   musicbox-ctl menu
//
// Options:
//   -socket PATH    Unix domain socket path (default: /tmp/musicbox.sock)
//   -timeout DUR    Per-request timeout (default: 2s)
// ============================================================================

const defaultSocketPath = "/tmp/musicbox.sock"

// Request types (duplicated from musicboxd for standalone binary)
const (
	typePowerToggle     = "power_toggle"
	typePlayPauseToggle = "play_pause_toggle"
	typeGetState        = "get_state"
)

// menuButton is one numbered entry of the interactive menu, in daemon event order.
type menuButton struct {
	Label string
	Type  string
}

var menuButtons = []menuButton{
	{Label: "on / off", Type: typePowerToggle},
	{Label: "play / pause", Type: typePlayPauseToggle},
}

// Envelope is the request wire format: {"type": "..."}
type Envelope struct {
	Type string `json:"type"`
}

// StateSnapshot mirrors the daemon's snapshot. Enum values stay as wire strings.
type StateSnapshot struct {
	InstanceID  string    `json:"instance_id"`
	State       string    `json:"state"`
	Indicator   bool      `json:"indicator"`
	Since       time.Time `json:"since"`
	Transitions uint64    `json:"transitions"`
	LastEvent   string    `json:"last_event,omitempty"`
}

// IPCResponse represents the daemon's response
type IPCResponse struct {
	Status string         `json:"status"`
	Error  string         `json:"error,omitempty"`
	State  *StateSnapshot `json:"state,omitempty"`
}

// requester sends one request and returns the daemon's snapshot.
type requester interface {
	Request(reqType string) (StateSnapshot, error)
}

// ipcClient talks to musicboxd over its Unix socket, one connection per request.
type ipcClient struct {
	socketPath string
	timeout    time.Duration
}

func (c ipcClient) Request(reqType string) (StateSnapshot, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return StateSnapshot{}, fmt.Errorf("connect to %s: %w", c.socketPath, err)
	}
	defer conn.Close()

	if c.timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(c.timeout))
	}

	data, err := json.Marshal(Envelope{Type: reqType})
	if err != nil {
		return StateSnapshot{}, fmt.Errorf("marshal request: %w", err)
	}

	// Line-delimited JSON
	if _, err := fmt.Fprintf(conn, "%s\n", data); err != nil {
		return StateSnapshot{}, fmt.Errorf("send request: %w", err)
	}

	var response IPCResponse
	if err := json.NewDecoder(conn).Decode(&response); err != nil {
		return StateSnapshot{}, fmt.Errorf("decode response: %w", err)
	}

	if response.Status != "ok" {
		return StateSnapshot{}, fmt.Errorf("daemon error: %s", response.Error)
	}
	if response.State == nil {
		return StateSnapshot{}, errors.New("daemon error: response has no state")
	}

	return *response.State, nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("musicbox-ctl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	socketPath := fs.String("socket", defaultSocketPath, "Unix domain socket path")
	timeout := fs.Duration("timeout", 2*time.Second, "Per-request timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printUsage(stdout)
			return 0
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		printUsage(stderr)
		return 1
	}

	rest := fs.Args()
	if len(rest) == 0 {
		printUsage(stderr)
		return 1
	}

	client := ipcClient{socketPath: *socketPath, timeout: *timeout}

	var err error
	switch rest[0] {
	case "power", "on-off":
		err = pressButton(client, typePowerToggle, stdout)

	case "play-pause", "play", "pause":
		err = pressButton(client, typePlayPauseToggle, stdout)

	case "state", "status":
		var snap StateSnapshot
		snap, err = client.Request(typeGetState)
		if err == nil {
			printState(stdout, snap, time.Now())
		}

	case "menu":
		err = runMenu(client, stdin, stdout)

	case "help", "-h", "--help":
		printUsage(stdout)
		return 0

	default:
		fmt.Fprintf(stderr, "error: unknown command: %s\n", rest[0])
		printUsage(stderr)
		return 1
	}

	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func pressButton(r requester, reqType string, out io.Writer) error {
	snap, err := r.Request(reqType)
	if err != nil {
		return err
	}
	printPlayerState(out, snap)
	return nil
}

// runMenu shows the numbered button menu until stdin ends or the user types "q".
// Empty input presses button 1.
func runMenu(r requester, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, "Press a button:\n\n")
		for i, b := range menuButtons {
			fmt.Fprintf(out, "%d. %s\n", i+1, b.Label)
		}
		fmt.Fprint(out, "\nPress a button: ")

		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "q" || input == "quit" {
			return nil
		}
		if input == "" {
			input = "1"
		}

		n, err := strconv.Atoi(input)
		if err != nil {
			fmt.Fprintf(out, "Error: '%s' is not a valid integer.\n\n", input)
			continue
		}
		if n < 1 || n > len(menuButtons) {
			fmt.Fprintf(out, "Invalid option number: %d\n\n", n)
			continue
		}

		snap, err := r.Request(menuButtons[n-1].Type)
		if err != nil {
			return err
		}
		printPlayerState(out, snap)
		fmt.Fprintln(out)
	}
}

func printPlayerState(out io.Writer, snap StateSnapshot) {
	fmt.Fprintf(out, "Player is in '%s' state\n", displayState(snap.State))
}

func printState(out io.Writer, snap StateSnapshot, now time.Time) {
	indicator := "off"
	if snap.Indicator {
		indicator = "on"
	}
	fmt.Fprintf(out, "state:       %s\n", displayState(snap.State))
	fmt.Fprintf(out, "indicator:   %s\n", indicator)
	if !snap.Since.IsZero() {
		fmt.Fprintf(out, "since:       %s\n", humanize.RelTime(snap.Since, now, "ago", "from now"))
	}
	fmt.Fprintf(out, "transitions: %s\n", humanize.Comma(int64(snap.Transitions)))
	if snap.LastEvent != "" {
		fmt.Fprintf(out, "last event:  %s\n", eventLabel(snap.LastEvent))
	}
	if snap.InstanceID != "" {
		fmt.Fprintf(out, "instance:    %s\n", snap.InstanceID)
	}
}

// displayState turns the wire form ("playing") into the state name ("Playing").
func displayState(s string) string {
	if s == "" {
		return "unknown"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func eventLabel(wire string) string {
	for _, b := range menuButtons {
		if b.Type == wire {
			return b.Label
		}
	}
	return wire
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `musicbox-ctl - Control the musicboxd player via IPC

Usage:
  musicbox-ctl [options] <command>

Options:
  -socket PATH    Unix domain socket path (default: %s)
  -timeout DUR    Per-request timeout (default: 2s)

Commands:
  power, on-off           Press the on / off button
  play-pause, play, pause Press the play / pause button
  state, status           Show the current player state
  menu                    Interactive numbered button menu
  help, -h, --help        Show this help message

Examples:
  musicbox-ctl power
  musicbox-ctl -socket /run/musicbox.sock state
`, defaultSocketPath)
}
