package transport

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muellr/sodatap/internal/logging"
)

// Bridge frame ops. The gateway daemon exposes the unit's characteristic
// over a WebSocket: every client frame gets exactly one reply frame, plus
// an unsolicited "disconnected" frame when the BLE link drops.
const (
	opConnect      = "connect"
	opConnected    = "connected"
	opWrite        = "write"
	opRead         = "read"
	opOK           = "ok"
	opData         = "data"
	opError        = "error"
	opDisconnected = "disconnected"
)

// DefaultHandshakeTimeout bounds the WebSocket dial to the gateway.
const DefaultHandshakeTimeout = 10 * time.Second

// bridgeFrame is the JSON envelope exchanged with the gateway daemon.
// Packet bytes travel base64-encoded in Data.
type bridgeFrame struct {
	Op     string `json:"op"`
	Device string `json:"device,omitempty"`
	Data   string `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Bridge is a Transport backed by a LAN BLE gateway daemon. The daemon owns
// the physical BLE link; Bridge tunnels characteristic reads and writes to
// it over a WebSocket.
type Bridge struct {
	// URL is the gateway WebSocket endpoint (e.g. "ws://192.168.1.40:8321/gatt").
	URL string

	// Device is the unit's BLE MAC address the gateway should connect to.
	Device string

	// HandshakeTimeout bounds the WebSocket dial.
	HandshakeTimeout time.Duration

	mu           sync.Mutex
	conn         *websocket.Conn
	onDisconnect func()
	notified     bool
}

// NewBridge creates a bridge transport for the unit at the given BLE
// address, reachable through the gateway at url.
func NewBridge(url, device string) *Bridge {
	return &Bridge{
		URL:              url,
		Device:           device,
		HandshakeTimeout: DefaultHandshakeTimeout,
	}
}

// SetDisconnectHandler registers the unsolicited-disconnect callback.
// Must be called before Connect.
func (b *Bridge) SetDisconnectHandler(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onDisconnect = fn
}

// Connect dials the gateway and asks it to open the BLE link to the unit.
func (b *Bridge) Connect(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn != nil {
		return nil
	}

	dialer := websocket.Dialer{HandshakeTimeout: b.HandshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, b.URL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("failed to reach gateway %s: %w", b.URL, err)
	}

	b.conn = conn
	b.notified = false

	reply, err := b.roundTrip(ctx, bridgeFrame{Op: opConnect, Device: b.Device})
	if err != nil {
		b.teardown(false)
		return fmt.Errorf("gateway could not connect to %s: %w", b.Device, err)
	}
	if reply.Op != opConnected {
		b.teardown(false)
		return fmt.Errorf("unexpected gateway reply %q during connect", reply.Op)
	}

	logging.LogConnection(b.Device, "ble_connected")
	return nil
}

// Write pushes one packet to the characteristic through the gateway.
func (b *Bridge) Write(ctx context.Context, packet []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn == nil {
		return fmt.Errorf("transport not connected")
	}

	logging.LogPacket("send", packet)
	reply, err := b.roundTrip(ctx, bridgeFrame{
		Op:   opWrite,
		Data: base64.StdEncoding.EncodeToString(packet),
	})
	if err != nil {
		return err
	}
	if reply.Op != opOK {
		return fmt.Errorf("unexpected gateway reply %q to write", reply.Op)
	}
	return nil
}

// Read returns the characteristic's current value through the gateway.
func (b *Bridge) Read(ctx context.Context) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn == nil {
		return nil, fmt.Errorf("transport not connected")
	}

	reply, err := b.roundTrip(ctx, bridgeFrame{Op: opRead})
	if err != nil {
		return nil, err
	}
	if reply.Op != opData {
		return nil, fmt.Errorf("unexpected gateway reply %q to read", reply.Op)
	}

	data, err := base64.StdEncoding.DecodeString(reply.Data)
	if err != nil {
		return nil, fmt.Errorf("gateway sent invalid packet encoding: %w", err)
	}
	return data, nil
}

// Disconnect closes the gateway connection. Idempotent.
func (b *Bridge) Disconnect(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn == nil {
		return nil
	}
	b.teardown(false)
	logging.LogConnection(b.Device, "ble_disconnected")
	return nil
}

// roundTrip sends one frame and reads reply frames until a non-disconnect
// reply arrives. Caller must hold b.mu.
func (b *Bridge) roundTrip(ctx context.Context, frame bridgeFrame) (*bridgeFrame, error) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = b.conn.SetWriteDeadline(deadline)
		_ = b.conn.SetReadDeadline(deadline)
	} else {
		_ = b.conn.SetWriteDeadline(time.Time{})
		_ = b.conn.SetReadDeadline(time.Time{})
	}

	payload, err := json.Marshal(frame)
	if err != nil {
		return nil, fmt.Errorf("failed to encode gateway frame: %w", err)
	}
	if err := b.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		b.teardown(true)
		return nil, fmt.Errorf("gateway write failed: %w", err)
	}

	for {
		_, raw, err := b.conn.ReadMessage()
		if err != nil {
			b.teardown(true)
			return nil, fmt.Errorf("gateway read failed: %w", err)
		}

		var reply bridgeFrame
		if err := json.Unmarshal(raw, &reply); err != nil {
			return nil, fmt.Errorf("gateway sent invalid frame: %w", err)
		}

		switch reply.Op {
		case opDisconnected:
			// The BLE link dropped mid-exchange.
			b.teardown(true)
			return nil, fmt.Errorf("unit disconnected")
		case opError:
			return nil, fmt.Errorf("gateway error: %s", reply.Error)
		default:
			return &reply, nil
		}
	}
}

// teardown closes the socket and, when notify is set, fires the registered
// disconnect handler once. Caller must hold b.mu.
func (b *Bridge) teardown(notify bool) {
	if b.conn != nil {
		_ = b.conn.Close()
		b.conn = nil
	}
	if notify && !b.notified && b.onDisconnect != nil {
		b.notified = true
		fn := b.onDisconnect
		logging.Debug("Unsolicited disconnect", zap.String("device", b.Device))
		// Fire outside the lock so the handler can call back into the
		// transport without deadlocking.
		b.mu.Unlock()
		fn()
		b.mu.Lock()
	}
}
