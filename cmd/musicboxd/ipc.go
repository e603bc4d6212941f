package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
)

// ============================================================================
// IPC Server - Unix Domain Socket Interface
// ============================================================================
// The IPC server lets local clients (musicbox-ctl, scripts) press the player's
// buttons and read its state. It is the only non-hardware input source.
//
// Protocol: Line-delimited JSON
//   - Client sends: {"type": "power_toggle"} | {"type": "play_pause_toggle"} | {"type": "get_state"}
//   - Server responds: {"status": "ok", "state": {...}} or {"status": "error", "error": "msg"}
//
// Requests that do not name a known event are answered with an error here and
// never reach the daemon.
// ============================================================================

// ipcTypeGetState is the request type for a read-only snapshot.
const ipcTypeGetState = "get_state"

// IPCResponse represents the response sent back to IPC clients
type IPCResponse struct {
	Status string         `json:"status"`          // "ok" or "error"
	Error  string         `json:"error,omitempty"` // error message if status == "error"
	State  *StateSnapshot `json:"state,omitempty"`
}

// runIPCServer starts the Unix domain socket server.
// It runs until ctx is canceled, at which point it closes the listener and exits.
func runIPCServer(ctx context.Context, socketPath string, messages chan<- DaemonMessage, logger *slog.Logger) error {
	// Remove existing socket file if it exists
	if err := os.RemoveAll(socketPath); err != nil {
		return fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", socketPath, err)
	}
	defer listener.Close()
	defer os.Remove(socketPath)

	// Local users may press buttons; nothing on the socket is privileged.
	if err := os.Chmod(socketPath, 0666); err != nil {
		return fmt.Errorf("chmod socket: %w", err)
	}

	logger.Info("IPC listening", "socket", socketPath)

	// Close the listener on shutdown. This unblocks Accept().
	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				logger.Debug("IPC listener closed (shutdown)")
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				logger.Debug("IPC listener closed")
				return nil
			}

			logger.Error("IPC accept error", "error", err)
			continue
		}

		go handleIPCConnection(ctx, conn, messages, logger)
	}
}

// handleIPCConnection serves one client until it disconnects.
func handleIPCConnection(ctx context.Context, conn net.Conn, messages chan<- DaemonMessage, logger *slog.Logger) {
	defer conn.Close()

	logger.Debug("IPC connection", "remote_addr", conn.RemoteAddr())

	scanner := bufio.NewScanner(conn)
	encoder := json.NewEncoder(conn)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		logger.Debug("IPC received", "line", line)

		resp := serveIPCRequest(ctx, []byte(line), messages)
		if err := encoder.Encode(resp); err != nil {
			logger.Error("IPC failed to send response", "error", err)
			return
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Warn("IPC read error", "error", err)
		_ = encoder.Encode(IPCResponse{Status: "error", Error: fmt.Sprintf("read request: %v", err)})
		return
	}

	logger.Debug("IPC connection closed")
}

// serveIPCRequest parses one request line and round-trips it through the daemon.
func serveIPCRequest(ctx context.Context, line []byte, messages chan<- DaemonMessage) IPCResponse {
	var env EventEnvelope
	if err := json.Unmarshal(line, &env); err != nil {
		return IPCResponse{Status: "error", Error: fmt.Sprintf("parse request: %v", err)}
	}

	var (
		snap StateSnapshot
		err  error
	)
	if env.Type == ipcTypeGetState {
		snap, err = requestSnapshot(ctx, messages)
	} else {
		ev, perr := unmarshalEvent(line)
		if perr != nil {
			return IPCResponse{Status: "error", Error: fmt.Sprintf("parse request: %v", perr)}
		}
		snap, err = deliverEvent(ctx, messages, ev)
	}
	if err != nil {
		return IPCResponse{Status: "error", Error: err.Error()}
	}

	return IPCResponse{Status: "ok", State: &snap}
}

// ============================================================================
// IPC Client Utility Functions
// ============================================================================

// sendIPCEvent sends an event to the daemon via IPC and returns the resulting state.
func sendIPCEvent(socketPath string, ev Event) (StateSnapshot, error) {
	data, err := marshalEvent(ev)
	if err != nil {
		return StateSnapshot{}, fmt.Errorf("marshal event: %w", err)
	}
	return sendIPCLine(socketPath, data)
}

// queryIPCState asks the daemon for its current state via IPC.
func queryIPCState(socketPath string) (StateSnapshot, error) {
	data, err := json.Marshal(EventEnvelope{Type: ipcTypeGetState})
	if err != nil {
		return StateSnapshot{}, fmt.Errorf("marshal request: %w", err)
	}
	return sendIPCLine(socketPath, data)
}

func sendIPCLine(socketPath string, data []byte) (StateSnapshot, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return StateSnapshot{}, fmt.Errorf("connect to %s: %w", socketPath, err)
	}
	defer conn.Close()

	if _, err := fmt.Fprintf(conn, "%s\n", strings.TrimSpace(string(data))); err != nil {
		return StateSnapshot{}, fmt.Errorf("send request: %w", err)
	}

	var resp IPCResponse
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return StateSnapshot{}, fmt.Errorf("decode response: %w", err)
	}

	if resp.Status != "ok" {
		return StateSnapshot{}, fmt.Errorf("ipc error: %s", resp.Error)
	}
	if resp.State == nil {
		return StateSnapshot{}, errors.New("ipc error: response has no state")
	}

	return *resp.State, nil
}
