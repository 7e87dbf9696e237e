// Package protocol implements the Sodatap unit request/response protocol.
//
// The unit exposes a single read/write GATT characteristic with no native
// framing, so JSON request envelopes larger than the link MTU are fragmented
// into packets by this package and response packets are reassembled back into
// one envelope. The package also derives the per-request authentication token
// and drives one transaction at a time against a Transport.
//
// # Packet Format
//
// An envelope is serialized to compact JSON, terminated with the two-byte
// sentinel 0x00 0xFF, and split into packets:
//
//	Header packet:        [0xFF, 0x00, total, msg_id, 0x00, payload...]
//	Continuation packet:  [msg_id, seq, payload...]
//
// The header packet carries up to MTU-5 payload bytes, continuation packets
// up to MTU-2. msg_id cycles through 1..254; 0x00 and 0xFF are reserved as
// packet markers.
//
// # Envelope Format
//
// Requests and responses share one JSON envelope:
//
//	{
//	  "session": 4823611,        // random 7-digit id, fixed per connection
//	  "id":      9174002,        // random 7-digit id, fresh per transaction
//	  "type":    1,              // 1 = request, 2 = acknowledged
//	  "token":   "<64 hex>",     // sha256(sha256hex(pin) + salt)
//	  "salt":    "48236119174002", // "{session}{id}", recomputed by the unit
//	  "body": {
//	    "meta": {"evt_type": 7, "dev_id": "...", "dev_type": 1, "evt_ver": 1, "evt_ts": 1700000000000},
//	    "opts": {"ctrl": 3},     // omitted when no sub-operation
//	    "pars": {...}            // omitted when empty
//	  }
//	}
//
// The pairing request (evt_type 10) is the only request sent without a
// dev_id; its response carries the device id all later requests must echo.
//
// # Transactions
//
// Engine.Execute serializes, fragments, and writes every packet in order,
// then polls Transport.Read until the chunk count declared by the response
// header packet has been collected. The characteristic returns the latest
// written value on every read, so consecutive identical reads are dropped
// as stale rather than appended.
//
// Responses report failures as an "errs" list inside pars; err_code 4 is the
// unit's token-mismatch (wrong PIN) code. Other codes are surfaced untouched.
//
// # Thread Safety
//
// Fragment, JoinChunks, Reassemble, and DeriveToken are stateless and safe
// for concurrent use. An Engine owns its session id and msg_id counter and
// must only drive one transaction at a time, which matches the wire protocol:
// the unit cannot interleave responses.
package protocol
