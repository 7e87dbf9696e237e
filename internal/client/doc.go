// Package client implements the Sodatap unit client: the connection state
// machine, PIN authentication, and the typed device operations.
//
// # Connection Lifecycle
//
// A Client moves through Disconnected → Connecting → Pairing → Ready.
// Connection is lazy: the first operation after construction (or after any
// disconnect) opens the transport and runs the pairing handshake, which
// authenticates the PIN and returns the device id every later request must
// carry. Operations only run in Ready; they reuse the live connection
// rather than reconnecting.
//
// Disconnects are edge-triggered. When the transport reports link loss the
// session is cleared first and the connectivity callback fires second, so a
// concurrently racing reconnect never observes a half-torn-down session.
// The client performs no automatic reconnect or retry; that policy belongs
// to whatever coordinates it.
//
// # Operations
//
// Every operation validates its inputs locally before touching the network
// and decodes the response into a typed record, substituting documented
// defaults for fields the unit did not report. Write operations report
// success when the response envelope is an acknowledgment.
//
// # Errors
//
// Failures carry a *UnitError with a Type from the taxonomy in errors.go.
// An authentication failure (the unit's err_code 4) also tears down the
// session and clears the cached device id, forcing the next operation back
// through pairing.
package client
