package main

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

// These tests cover hub fanout and slow-client disconnection without a real
// websocket server. Clients have a nil conn; the hub guards against nil on close.

func newTestHub(t *testing.T, sendBuf int, broadcastBuf int) *Hub {
	t.Helper()
	return NewHub(discardLogger(), HubConfig{
		SendBuf:      sendBuf,
		BroadcastBuf: broadcastBuf,
	})
}

func runTestHub(t *testing.T, hub *Hub) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		hub.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Errorf("timeout waiting for hub to stop")
		}
	})
}

func newFakeClient(hub *Hub, name string, sendBuf int) *Client {
	return &Client{
		hub:        hub,
		send:       make(chan []byte, sendBuf),
		remoteAddr: name,
		logger:     discardLogger(),
	}
}

func registerClient(t *testing.T, hub *Hub, c *Client) {
	t.Helper()
	hub.register <- c
	waitUntil(t, 500*time.Millisecond, func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		_, ok := hub.clients[c]
		return ok
	}, "client "+c.remoteAddr+" not registered in time")
}

func TestHub_BroadcastDeliveredToAllClients(t *testing.T) {
	hub := newTestHub(t, 4, 8)
	runTestHub(t, hub)

	c1 := newFakeClient(hub, "c1", 4)
	c2 := newFakeClient(hub, "c2", 4)
	registerClient(t, hub, c1)
	registerClient(t, hub, c2)

	if n := hub.ClientCount(); n != 2 {
		t.Fatalf("ClientCount() = %d, want 2", n)
	}

	msg := []byte(`{"type":"state_changed","data":{"event":"power_toggle","from":"inactive","to":"on","indicator":true}}`)

	// Write to the channel directly; BroadcastBytes may drop under scheduling pressure.
	hub.broadcast <- msg

	for _, c := range []*Client{c1, c2} {
		select {
		case got := <-c.send:
			if string(got) != string(msg) {
				t.Fatalf("%s got %q, want %q", c.remoteAddr, got, msg)
			}
		case <-time.After(500 * time.Millisecond):
			t.Fatalf("timeout waiting for %s to receive broadcast", c.remoteAddr)
		}
	}
}

func TestHub_SlowClientDisconnectedOnFullSendBuffer(t *testing.T) {
	hub := newTestHub(t, 1, 8)
	runTestHub(t, hub)

	slow := newFakeClient(hub, "slow", 1)
	fast := newFakeClient(hub, "fast", 8)
	registerClient(t, hub, slow)
	registerClient(t, hub, fast)

	// Pre-fill slow client buffer to simulate it being stuck.
	slow.send <- []byte(`"already queued"`)

	msg := []byte(`{"type":"state_changed"}`)
	hub.broadcast <- msg

	select {
	case got := <-fast.send:
		if string(got) != string(msg) {
			t.Fatalf("fast client got %q, want %q", got, msg)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timeout waiting for fast client to receive broadcast")
	}

	// Drain the pre-filled message, then expect the channel to be closed.
	select {
	case <-slow.send:
	default:
	}

	waitUntil(t, 750*time.Millisecond, func() bool {
		select {
		case _, ok := <-slow.send:
			return !ok
		default:
			return false
		}
	}, "expected slow send channel to be closed")

	if n := hub.ClientCount(); n != 1 {
		t.Fatalf("ClientCount() = %d after eviction, want 1", n)
	}
}

func TestHub_UnregisterRemovesClient(t *testing.T) {
	hub := newTestHub(t, 4, 8)
	runTestHub(t, hub)

	c := newFakeClient(hub, "c", 4)
	registerClient(t, hub, c)

	hub.unregister <- c
	waitUntil(t, 500*time.Millisecond, func() bool { return hub.ClientCount() == 0 }, "client not removed")

	// A second unregister is harmless.
	hub.unregister <- c
	hub.BroadcastBytes([]byte(`{}`))
}

func TestRunBroadcaster_ConvertsStateChanged(t *testing.T) {
	hub := newTestHub(t, 4, 8)
	src := make(chan StateBroadcast, 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		RunBroadcaster(ctx, hub, src, discardLogger())
	}()

	at := time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)
	src <- BroadcastStateChanged{Event: PlayPauseToggle, From: StateOn, To: StatePlaying, Indicator: true, At: at}

	var raw []byte
	select {
	case raw = <-hub.broadcast:
	case <-time.After(time.Second):
		t.Fatalf("no frame broadcast")
	}

	var got struct {
		Type string             `json:"type"`
		Ts   time.Time          `json:"ts"`
		Data wsStateChangedData `json:"data"`
	}
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	if got.Type != wsTypeStateChanged || !got.Ts.Equal(at) {
		t.Fatalf("envelope = %+v", got)
	}
	want := wsStateChangedData{Event: PlayPauseToggle, From: StateOn, To: StatePlaying, Indicator: true}
	if got.Data != want {
		t.Fatalf("data = %+v, want %+v", got.Data, want)
	}

	close(src)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("broadcaster did not stop when source closed")
	}
}
