package transport

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// fakeGateway is an in-process gateway daemon: a WebSocket server that
// answers bridge frames and records what the client wrote.
type fakeGateway struct {
	t *testing.T

	// value is what read frames return.
	value []byte

	// failConnect makes the connect frame return an error frame.
	failConnect bool

	// dropAfterConnect sends an unsolicited disconnected frame after the
	// first read request instead of data.
	dropAfterConnect bool

	server  *httptest.Server
	writes  [][]byte
	devices []string
}

func newFakeGateway(t *testing.T) *fakeGateway {
	g := &fakeGateway{t: t}
	upgrader := websocket.Upgrader{}
	g.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		g.serve(conn)
	}))
	t.Cleanup(g.server.Close)
	return g
}

func (g *fakeGateway) url() string {
	return "ws" + strings.TrimPrefix(g.server.URL, "http")
}

func (g *fakeGateway) serve(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var frame bridgeFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			return
		}

		var reply bridgeFrame
		switch frame.Op {
		case opConnect:
			g.devices = append(g.devices, frame.Device)
			if g.failConnect {
				reply = bridgeFrame{Op: opError, Error: "unit not in range"}
			} else {
				reply = bridgeFrame{Op: opConnected}
			}
		case opWrite:
			data, err := base64.StdEncoding.DecodeString(frame.Data)
			if err != nil {
				reply = bridgeFrame{Op: opError, Error: "bad encoding"}
				break
			}
			g.writes = append(g.writes, data)
			reply = bridgeFrame{Op: opOK}
		case opRead:
			if g.dropAfterConnect {
				reply = bridgeFrame{Op: opDisconnected}
			} else {
				reply = bridgeFrame{Op: opData, Data: base64.StdEncoding.EncodeToString(g.value)}
			}
		default:
			reply = bridgeFrame{Op: opError, Error: "unknown op"}
		}

		payload, _ := json.Marshal(reply)
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

func TestBridgeConnectWriteRead(t *testing.T) {
	gw := newFakeGateway(t)
	gw.value = []byte{0xFF, 0x00, 1, 10, 0x00, 'h', 'i', 0x00, 0xFF}

	b := NewBridge(gw.url(), "AA:BB:CC:DD:EE:FF")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := b.Connect(ctx); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer b.Disconnect(ctx)

	if len(gw.devices) != 1 || gw.devices[0] != "AA:BB:CC:DD:EE:FF" {
		t.Errorf("gateway saw connect for %v, want the unit's MAC", gw.devices)
	}

	packet := []byte{0xFF, 0x00, 1, 5, 0x00, 'x'}
	if err := b.Write(ctx, packet); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if len(gw.writes) != 1 || !bytes.Equal(gw.writes[0], packet) {
		t.Errorf("gateway received %v, want %v", gw.writes, packet)
	}

	got, err := b.Read(ctx)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !bytes.Equal(got, gw.value) {
		t.Errorf("Read() = % x, want % x", got, gw.value)
	}
}

func TestBridgeConnectIdempotent(t *testing.T) {
	gw := newFakeGateway(t)
	b := NewBridge(gw.url(), "AA:BB:CC:DD:EE:FF")
	ctx := context.Background()

	if err := b.Connect(ctx); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if err := b.Connect(ctx); err != nil {
		t.Fatalf("second Connect() error = %v", err)
	}
	if len(gw.devices) != 1 {
		t.Errorf("gateway saw %d connect frames, want 1", len(gw.devices))
	}
	_ = b.Disconnect(ctx)
}

func TestBridgeConnectFailure(t *testing.T) {
	t.Run("gateway unreachable", func(t *testing.T) {
		b := NewBridge("ws://127.0.0.1:1/gatt", "AA:BB:CC:DD:EE:FF")
		b.HandshakeTimeout = 500 * time.Millisecond
		if err := b.Connect(context.Background()); err == nil {
			t.Fatal("Connect() to dead address succeeded")
		}
	})

	t.Run("gateway rejects the unit", func(t *testing.T) {
		gw := newFakeGateway(t)
		gw.failConnect = true
		b := NewBridge(gw.url(), "AA:BB:CC:DD:EE:FF")
		err := b.Connect(context.Background())
		if err == nil {
			t.Fatal("Connect() succeeded despite gateway error")
		}
		if !strings.Contains(err.Error(), "unit not in range") {
			t.Errorf("error = %v, want the gateway's message surfaced", err)
		}
		// Operations on the failed transport must report not connected.
		if err := b.Write(context.Background(), []byte{1}); err == nil {
			t.Error("Write() succeeded on a failed transport")
		}
	})
}

func TestBridgeUnsolicitedDisconnect(t *testing.T) {
	gw := newFakeGateway(t)
	gw.dropAfterConnect = true

	b := NewBridge(gw.url(), "AA:BB:CC:DD:EE:FF")
	notified := 0
	b.SetDisconnectHandler(func() { notified++ })

	ctx := context.Background()
	if err := b.Connect(ctx); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if _, err := b.Read(ctx); err == nil {
		t.Fatal("Read() succeeded despite link loss")
	}
	if notified != 1 {
		t.Errorf("disconnect handler fired %d times, want 1", notified)
	}

	// Already torn down; Disconnect must be a no-op and not re-notify.
	if err := b.Disconnect(ctx); err != nil {
		t.Fatalf("Disconnect() error = %v", err)
	}
	if notified != 1 {
		t.Errorf("disconnect handler fired %d times after Disconnect, want 1", notified)
	}
}

func TestBridgeDisconnectIdempotent(t *testing.T) {
	gw := newFakeGateway(t)
	b := NewBridge(gw.url(), "AA:BB:CC:DD:EE:FF")
	ctx := context.Background()

	if err := b.Connect(ctx); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if err := b.Disconnect(ctx); err != nil {
		t.Fatalf("Disconnect() error = %v", err)
	}
	if err := b.Disconnect(ctx); err != nil {
		t.Fatalf("second Disconnect() error = %v", err)
	}
}
