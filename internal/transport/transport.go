package transport

import "context"

// Transport is the shared-channel contract the protocol engine and client
// consume. It models one read/write GATT characteristic: Write pushes one
// packet to the characteristic, Read returns its latest value. Every
// operation may block and honors context cancellation.
//
// Implementations must invoke the registered disconnect handler exactly once
// when the link is lost without a Disconnect call. Handlers must be
// registered before Connect.
type Transport interface {
	// Connect opens the link to the unit.
	Connect(ctx context.Context) error

	// Write pushes one packet to the characteristic.
	Write(ctx context.Context, packet []byte) error

	// Read returns the characteristic's current value. Reads between
	// device-side updates return the same bytes; deduplication is the
	// caller's job.
	Read(ctx context.Context) ([]byte, error)

	// Disconnect closes the link. Safe to call when already closed.
	Disconnect(ctx context.Context) error

	// SetDisconnectHandler registers a callback for unsolicited link loss.
	SetDisconnectHandler(fn func())
}
