package protocol

import (
	"encoding/json"
	"time"
)

// Event types carried in body.meta.evt_type.
const (
	// EvtTypePairing is the mandatory first transaction of a connection.
	// It authenticates the PIN and returns the device id.
	EvtTypePairing = 10

	// EvtTypeRequest is the general request event; opts.ctrl selects the
	// sub-operation.
	EvtTypeRequest = 7
)

// Envelope type field values.
const (
	// EnvelopeTypeRequest marks an outgoing request.
	EnvelopeTypeRequest = 1

	// EnvelopeTypeAck marks a response acknowledging a write operation.
	EnvelopeTypeAck = 2
)

// ctrl codes selecting the sub-operation of an EvtTypeRequest.
const (
	CtrlGetIdentity = 2
	CtrlQuery       = 3
	CtrlWriteParam  = 5
	CtrlGetWifiInfo = 10
	CtrlChangePin   = 13
	CtrlDispense    = 1000
)

// Query selectors sent as pars.evt_type with CtrlQuery.
const (
	QuerySystemInfo = 2
	QuerySettings   = 5
	QueryStatus     = 6
)

// Meta is the request metadata block. DevID stays empty (and off the wire)
// until pairing has produced one; after that every request must carry it.
type Meta struct {
	EvtType int    `json:"evt_type"`
	DevID   string `json:"dev_id,omitempty"`
	DevType int    `json:"dev_type"`
	EvtVer  int    `json:"evt_ver"`
	EvtTs   int64  `json:"evt_ts"`
}

// Body is the structured request body. Opts and Pars are omitted from the
// wire entirely when unset; the unit rejects explicit nulls.
type Body struct {
	Meta Meta           `json:"meta"`
	Opts map[string]int `json:"opts,omitempty"`
	Pars map[string]any `json:"pars,omitempty"`
}

// Envelope is the top-level signed request object. Salt is always
// "{session}{id}" byte-for-byte; the unit recomputes the token from those
// same fields.
type Envelope struct {
	Session int    `json:"session"`
	ID      int    `json:"id"`
	Type    int    `json:"type"`
	Token   string `json:"token"`
	Salt    string `json:"salt"`
	Body    Body   `json:"body"`
}

// Marshal serializes the envelope to compact JSON ready for fragmentation.
func (e *Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// newMeta builds request metadata stamped with the current time. devID is
// left off the wire when empty (pairing requests).
func newMeta(evtType int, devID string, devType int) Meta {
	return Meta{
		EvtType: evtType,
		DevID:   devID,
		DevType: devType,
		EvtVer:  1,
		EvtTs:   time.Now().UnixMilli(),
	}
}
