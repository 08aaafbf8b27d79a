package api

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sstewart199/ring/internal/infrastructure/config"
	"github.com/sstewart199/ring/internal/ring"
)

// connectWebSocket starts the router on a test listener and dials /ws.
func connectWebSocket(t *testing.T, srv *Server) *websocket.Conn {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go srv.hub.Run(ctx)

	ts := httptest.NewServer(srv.buildRouter())
	t.Cleanup(ts.Close)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws"
	ws, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v (resp: %v)", err, resp)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func subscribe(t *testing.T, ws *websocket.Conn, channels ...string) {
	t.Helper()

	if err := ws.WriteJSON(WSMessage{
		Type:    WSTypeSubscribe,
		ID:      "sub-1",
		Payload: WSSubscribePayload{Channels: channels},
	}); err != nil {
		t.Fatalf("write subscribe: %v", err)
	}

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var resp WSMessage
	if err := ws.ReadJSON(&resp); err != nil {
		t.Fatalf("read subscribe response: %v", err)
	}
	if resp.Type != WSTypeResponse || resp.ID != "sub-1" {
		t.Fatalf("subscribe response = %+v", resp)
	}
}

func readEvent(t *testing.T, ws *websocket.Conn) WSMessage {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg WSMessage
	if err := ws.ReadJSON(&msg); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return msg
}

func TestWebSocket_Ping(t *testing.T) {
	srv, _, _ := testServer(t, true, Deps{})
	ws := connectWebSocket(t, srv)

	if err := ws.WriteJSON(WSMessage{Type: WSTypePing, ID: "p1"}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	msg := readEvent(t, ws)
	if msg.Type != WSTypePong || msg.ID != "p1" {
		t.Errorf("reply = %+v, want pong p1", msg)
	}
}

func TestWebSocket_UnknownType(t *testing.T) {
	srv, _, _ := testServer(t, true, Deps{})
	ws := connectWebSocket(t, srv)

	if err := ws.WriteJSON(WSMessage{Type: "launch", ID: "x"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if msg := readEvent(t, ws); msg.Type != WSTypeError {
		t.Errorf("reply type = %q, want error", msg.Type)
	}
}

func TestWebSocket_DeviceEvents(t *testing.T) {
	srv, _, builder := testServer(t, true, Deps{})
	ws := connectWebSocket(t, srv)
	subscribe(t, ws, ChannelDeviceUpdated, ChannelDeviceDing)

	if got := srv.hub.ClientCount(); got != 1 {
		t.Errorf("hub client count = %d, want 1", got)
	}

	dir, err := builder.Current()
	if err != nil {
		t.Fatalf("Current() error: %v", err)
	}
	cam, _ := dir.Registry().Get(3)

	cam.UpdateData(ring.CameraData{ID: 3, Description: "Porch", LocationID: "L2"})
	msg := readEvent(t, ws)
	if msg.Type != WSTypeEvent || msg.EventType != ChannelDeviceUpdated {
		t.Fatalf("event = %+v, want device.updated", msg)
	}
	payload, _ := msg.Payload.(map[string]any)
	if payload["id"] != float64(3) {
		t.Errorf("payload id = %v, want 3", payload["id"])
	}

	cam.ProcessDing(ring.ActiveDing{ID: 9, DoorbotID: 3, Kind: ring.DingKindMotion})
	msg = readEvent(t, ws)
	if msg.EventType != ChannelDeviceDing {
		t.Fatalf("event = %+v, want device.ding", msg)
	}
	payload, _ = msg.Payload.(map[string]any)
	if payload["camera_id"] != float64(3) {
		t.Errorf("ding camera_id = %v, want 3", payload["camera_id"])
	}
}

func TestWebSocket_UnsubscribedChannelsNotSent(t *testing.T) {
	srv, _, builder := testServer(t, true, Deps{})
	ws := connectWebSocket(t, srv)
	subscribe(t, ws, ChannelDeviceDing)

	dir, _ := builder.Current()
	cam, _ := dir.Registry().Get(1)
	cam.UpdateData(ring.CameraData{ID: 1, LocationID: "L1"})
	cam.ProcessDing(ring.ActiveDing{ID: 1, DoorbotID: 1, Kind: ring.DingKindDing})

	// The first event received must be the ding; the update was filtered.
	if msg := readEvent(t, ws); msg.EventType != ChannelDeviceDing {
		t.Errorf("event = %q, want device.ding only", msg.EventType)
	}
}

func TestHub_BroadcastWithoutClients(t *testing.T) {
	h := NewHub(testWSConfig(), testLogger())
	h.Broadcast(ChannelDeviceUpdated, map[string]any{"id": 1})
	if h.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d, want 0", h.ClientCount())
	}
}

func testWSConfig() config.WebSocketConfig {
	_, ws := testConfig()
	return ws
}
