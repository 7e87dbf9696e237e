// Package transport defines the shared-channel contract consumed by the
// protocol engine and provides the WebSocket gateway implementation.
//
// The Sodatap unit speaks over a single read/write GATT characteristic. On
// machines without a usable BLE stack, a small gateway daemon on the LAN
// owns the physical link and proxies characteristic access as JSON frames
// over a WebSocket; Bridge is the client side of that daemon. The protocol
// engine only ever sees the Transport interface and does not care which
// side of the bridge it is on.
package transport
