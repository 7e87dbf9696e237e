package discovery

import (
	"fmt"
	"time"
)

// Gateway represents a discovered BLE gateway on the network. A gateway
// owns the physical BLE link to one or more units and proxies their GATT
// characteristic over a WebSocket endpoint.
type Gateway struct {
	// Name is the mDNS instance name (e.g., "kitchen-gateway")
	Name string

	// Hostname is the mDNS hostname (e.g., "kitchen-gateway.local")
	Hostname string

	// IP is the IPv4 address (e.g., "192.168.1.40")
	IP string

	// Port is the WebSocket port (typically 8321)
	Port int

	// Units lists the BLE MAC addresses of units the gateway can reach,
	// parsed from its TXT records.
	Units []string

	// Metadata contains additional mDNS TXT record data
	Metadata map[string]string

	// DiscoveredAt is when the gateway was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the gateway
func (g *Gateway) String() string {
	return fmt.Sprintf("Sodatap gateway %s (%s) at %s:%d, %d unit(s)",
		g.Name, g.Hostname, g.IP, g.Port, len(g.Units))
}

// URL returns the WebSocket endpoint for the gateway
func (g *Gateway) URL() string {
	return fmt.Sprintf("ws://%s:%d/gatt", g.IP, g.Port)
}

// HasUnit reports whether the gateway advertises the unit with the given
// BLE MAC address.
func (g *Gateway) HasUnit(mac string) bool {
	for _, u := range g.Units {
		if u == mac {
			return true
		}
	}
	return false
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (g *Gateway) GetMetadata(key string) string {
	if g.Metadata == nil {
		return ""
	}
	return g.Metadata[key]
}
