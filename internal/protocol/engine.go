package protocol

import (
	"bytes"
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/muellr/sodatap/internal/logging"
)

// Read-poll tuning. The characteristic has no notification path for
// responses, so the engine polls reads until the declared chunk count
// arrives. The attempt budget doubles as the transaction timeout.
const (
	// DefaultReadAttempts is the read-poll budget per transaction.
	DefaultReadAttempts = 40

	// DefaultPollInterval is the pause after a read that returned
	// unchanged bytes, so the loop does not hot-spin on an unready
	// characteristic.
	DefaultPollInterval = 50 * time.Millisecond
)

// Transport is the shared-channel contract the engine drives. Both
// operations may block; the unit has no reordering buffer, so writes are
// issued strictly in order and reads return the latest characteristic value.
type Transport interface {
	Write(ctx context.Context, packet []byte) error
	Read(ctx context.Context) ([]byte, error)
}

// IncompleteResponseError reports a read-poll budget exhausted before the
// full chunk set arrived. Surfaced as the transaction timeout.
type IncompleteResponseError struct {
	Got      int
	Expected int
}

func (e *IncompleteResponseError) Error() string {
	return fmt.Sprintf("incomplete response: got %d/%d chunks", e.Got, e.Expected)
}

// Request describes one transaction. Ctrl is optional; when nil the
// envelope carries no opts block. Pars is optional the same way.
type Request struct {
	PIN     string
	DevID   string
	DevType int
	EvtType int
	Ctrl    *int
	Pars    map[string]any
}

// Engine drives transactions over one connection. It owns the connection's
// session id and the cycling packet msg_id counter; create a fresh Engine
// per physical connection and discard it on disconnect.
//
// An Engine is not safe for concurrent transactions. The wire protocol has
// a single outstanding message id, so callers must serialize Execute calls.
type Engine struct {
	mtu          int
	sessionID    int
	msgID        int
	readAttempts int
	pollInterval time.Duration
}

// NewEngine creates an engine for a new connection with a fresh random
// session id. mtu values below MinMTU fall back to DefaultMTU.
func NewEngine(mtu int) *Engine {
	if mtu < MinMTU {
		mtu = DefaultMTU
	}
	return &Engine{
		mtu:          mtu,
		sessionID:    randomID(),
		msgID:        1,
		readAttempts: DefaultReadAttempts,
		pollInterval: DefaultPollInterval,
	}
}

// SessionID returns the session id generated for this connection.
func (e *Engine) SessionID() int {
	return e.sessionID
}

// nextMsgID advances the packet correlation counter, cycling 1..254.
func (e *Engine) nextMsgID() byte {
	e.msgID = (e.msgID % 254) + 1
	return byte(e.msgID)
}

// randomID generates a random 7-digit identifier, used for both session and
// transaction ids.
func randomID() int {
	return rand.IntN(9000000) + 1000000
}

// Pair executes the pairing transaction: EvtTypePairing with no device id.
// The response metadata carries the device id required by every later
// request.
func (e *Engine) Pair(ctx context.Context, t Transport, pin string) (*Response, error) {
	return e.Execute(ctx, t, Request{PIN: pin, DevType: 1, EvtType: EvtTypePairing})
}

// Execute runs one request/response transaction: build and sign the
// envelope, fragment it, write every packet in order, then poll-read and
// reassemble the response.
func (e *Engine) Execute(ctx context.Context, t Transport, req Request) (*Response, error) {
	txnID := randomID()
	salt := fmt.Sprintf("%d%d", e.sessionID, txnID)

	var opts map[string]int
	if req.Ctrl != nil {
		opts = map[string]int{"ctrl": *req.Ctrl}
	}
	pars := req.Pars
	if len(pars) == 0 {
		pars = nil
	}

	envelope := Envelope{
		Session: e.sessionID,
		ID:      txnID,
		Type:    EnvelopeTypeRequest,
		Token:   DeriveToken(req.PIN, salt),
		Salt:    salt,
		Body: Body{
			Meta: newMeta(req.EvtType, req.DevID, req.DevType),
			Opts: opts,
			Pars: pars,
		},
	}

	payload, err := envelope.Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize request: %w", err)
	}
	logging.LogRawBytes("Request payload", payload)

	packets, err := Fragment(payload, e.mtu, e.nextMsgID())
	if err != nil {
		return nil, fmt.Errorf("failed to fragment request: %w", err)
	}

	logging.Debug("Sending transaction",
		zap.Int("txn_id", txnID),
		zap.Int("evt_type", req.EvtType),
		zap.Int("packets", len(packets)),
	)

	// Strictly sequential: the unit has no reordering buffer.
	for i, packet := range packets {
		if err := t.Write(ctx, packet); err != nil {
			return nil, fmt.Errorf("failed to write packet %d/%d: %w", i+1, len(packets), err)
		}
	}

	chunks, err := e.readChunks(ctx, t)
	if err != nil {
		return nil, err
	}
	return Reassemble(chunks)
}

// readChunks polls the transport until the chunk count declared by the
// response header packet has been collected or the attempt budget runs out.
//
// The characteristic returns its latest value on every read, so a read that
// matches the previous one is stale and is skipped after a short pause.
// Individual read errors count as a spent attempt rather than aborting: the
// unit drops reads while it is still assembling the response.
func (e *Engine) readChunks(ctx context.Context, t Transport) ([][]byte, error) {
	var chunks [][]byte
	var last []byte
	expected := 1

	for attempt := 0; attempt < e.readAttempts; attempt++ {
		if len(chunks) >= expected {
			break
		}

		data, err := t.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logging.Debug("Read attempt failed", zap.Int("attempt", attempt+1), zap.Error(err))
			continue
		}

		if len(data) == 0 || bytes.Equal(data, last) {
			if err := sleepCtx(ctx, e.pollInterval); err != nil {
				return nil, err
			}
			continue
		}

		last = append(last[:0], data...)
		chunk := append([]byte(nil), data...)
		chunks = append(chunks, chunk)
		logging.LogPacket("recv", chunk)

		if total := DeclaredTotal(chunk); total > 0 {
			expected = total
		}
	}

	if len(chunks) < expected {
		return nil, &IncompleteResponseError{Got: len(chunks), Expected: expected}
	}
	return chunks, nil
}

// sleepCtx pauses for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
