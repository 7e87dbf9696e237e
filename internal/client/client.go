package client

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/muellr/sodatap/internal/logging"
	"github.com/muellr/sodatap/internal/protocol"
	"github.com/muellr/sodatap/internal/transport"
)

// session is the state bound to one physical connection. It exists only
// between a successful pairing and the next disconnect.
type session struct {
	devID   string
	devType int
	engine  *protocol.Engine
}

// Client controls one Sodatap unit over a Transport.
//
// The client owns a single physical connection. It connects lazily on the
// first operation, performs the pairing handshake to obtain the device id,
// and reuses the connection for every following operation until the link
// drops or Disconnect is called. Concurrent callers collapse onto one
// connection attempt.
type Client struct {
	transport    transport.Transport
	connCallback func(bool)
	mtu          int

	// connectMu serializes connection attempts; mu guards pin and session.
	connectMu sync.Mutex
	mu        sync.Mutex
	pin       string
	session   *session
}

// NewClient creates a client for the unit behind t. connCallback receives
// true after a successful pairing and false on any disconnect; it may be
// nil. Returns a validation error if the PIN is not five digits.
func NewClient(pin string, t transport.Transport, connCallback func(bool)) (*Client, error) {
	if err := ValidatePINFormat(pin); err != nil {
		return nil, err
	}
	c := &Client{
		transport:    t,
		connCallback: connCallback,
		mtu:          protocol.DefaultMTU,
		pin:          pin,
	}
	t.SetDisconnectHandler(c.handleDisconnect)
	return c, nil
}

// SetMTU overrides the link MTU used for fragmentation. Takes effect on the
// next connection.
func (c *Client) SetMTU(mtu int) {
	c.mtu = mtu
}

// DeviceID returns the device id negotiated during pairing, or "" when not
// connected.
func (c *Client) DeviceID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ""
	}
	return c.session.devID
}

// DeviceType returns the device type reported during pairing, or 0 when not
// connected.
func (c *Client) DeviceType() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return 0
	}
	return c.session.devType
}

// Connected reports whether a paired session is active.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

// Disconnect closes the connection. A no-op when already disconnected.
func (c *Client) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	hadSession := c.session != nil
	c.session = nil
	c.mu.Unlock()

	if !hadSession {
		return nil
	}
	err := c.transport.Disconnect(ctx)
	c.notify(false)
	return err
}

// connect returns the active session, establishing and pairing a new one if
// necessary. Only one connection attempt runs at a time; concurrent callers
// block here and then reuse the session the first caller established.
func (c *Client) connect(ctx context.Context) (*session, error) {
	c.connectMu.Lock()
	defer c.connectMu.Unlock()

	c.mu.Lock()
	if s := c.session; s != nil {
		c.mu.Unlock()
		return s, nil
	}
	pin := c.pin
	c.mu.Unlock()

	logging.Debug("Connecting to unit")
	if err := c.transport.Connect(ctx); err != nil {
		return nil, NewConnectionError("failed to connect", err)
	}

	engine := protocol.NewEngine(c.mtu)
	s, err := c.pair(ctx, engine, pin)
	if err != nil {
		_ = c.transport.Disconnect(ctx)
		return nil, err
	}

	c.mu.Lock()
	c.session = s
	c.mu.Unlock()

	logging.Info("Paired with unit",
		zap.String("dev_id", s.devID),
		zap.Int("dev_type", s.devType),
	)
	c.notify(true)
	return s, nil
}

// pair performs the mandatory first transaction of a new connection and
// extracts the device identity from its response.
func (c *Client) pair(ctx context.Context, engine *protocol.Engine, pin string) (*session, error) {
	resp, err := engine.Pair(ctx, c.transport, pin)
	if err != nil {
		return nil, classifyTransactionError(err)
	}
	if resp.HasAuthError() {
		return nil, NewAuthError("wrong PIN")
	}
	devID := resp.DeviceID()
	if devID == "" {
		return nil, NewConnectionError("no device id in pairing response", nil)
	}
	return &session{
		devID:   devID,
		devType: resp.DeviceType(),
		engine:  engine,
	}, nil
}

// execute runs one transaction on the active session, connecting first if
// needed. A token-mismatch response tears the session down so the next
// operation is forced back through pairing.
func (c *Client) execute(ctx context.Context, evtType int, ctrl *int, pars map[string]any) (*protocol.Response, error) {
	s, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	pin := c.pin
	c.mu.Unlock()

	resp, err := s.engine.Execute(ctx, c.transport, protocol.Request{
		PIN:     pin,
		DevID:   s.devID,
		DevType: s.devType,
		EvtType: evtType,
		Ctrl:    ctrl,
		Pars:    pars,
	})
	if err != nil {
		return nil, classifyTransactionError(err)
	}

	if resp.HasAuthError() {
		logging.Warn("Unit rejected token mid-session, dropping session")
		c.mu.Lock()
		c.session = nil
		c.mu.Unlock()
		_ = c.transport.Disconnect(ctx)
		c.notify(false)
		return nil, NewAuthError("authentication error during operation")
	}

	return resp, nil
}

// handleDisconnect reacts to unsolicited link loss reported by the
// transport. The session is cleared before the callback fires so a racing
// reconnect cannot observe a half-torn-down session.
func (c *Client) handleDisconnect() {
	logging.Debug("Unit disconnected")
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
	c.notify(false)
}

func (c *Client) notify(connected bool) {
	if c.connCallback != nil {
		c.connCallback(connected)
	}
}

// ValidatePIN probes a PIN against the unit behind t by attempting a
// pairing transaction. It is the standalone variant of the handshake the
// client performs on connect, used by discovery and setup flows that have a
// raw transport but no Client yet.
//
// The returned result distinguishes an accepted PIN (device id and type
// filled in) from a rejected one. The raw pairing response is returned for
// callers that need to inspect it further.
func ValidatePIN(ctx context.Context, t protocol.Transport, pin string, engine *protocol.Engine) (*PinValidationResult, *protocol.Response, error) {
	if err := ValidatePINFormat(pin); err != nil {
		return nil, nil, err
	}
	if engine == nil {
		engine = protocol.NewEngine(protocol.DefaultMTU)
	}

	resp, err := engine.Pair(ctx, t, pin)
	if err != nil {
		return nil, nil, classifyTransactionError(err)
	}

	if resp.HasAuthError() {
		logging.Debug("PIN validation failed: wrong PIN")
		return &PinValidationResult{IsValid: false}, resp, nil
	}

	devID := resp.DeviceID()
	if devID == "" {
		logging.Debug("PIN validation failed: no device id in response")
		return &PinValidationResult{IsValid: false}, resp, nil
	}

	return &PinValidationResult{
		IsValid: true,
		DevID:   devID,
		DevType: resp.DeviceType(),
	}, resp, nil
}
