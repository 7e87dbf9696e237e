package config

import "time"

// Registry represents the entire user configuration file.
// It stores user-defined metadata for known units and application
// preferences. The unit PIN is NEVER stored here.
type Registry struct {
	Version     int              `yaml:"version"`
	Units       map[string]*Unit `yaml:"units,omitempty"` // Keyed by BLE MAC address
	Preferences *Preferences     `yaml:"preferences,omitempty"`
}

// Unit represents user-defined metadata for a single Sodatap unit,
// keyed by its BLE MAC address in the Registry.
type Unit struct {
	Nickname   string    `yaml:"nickname,omitempty"`    // User-friendly name
	GatewayURL string    `yaml:"gateway_url,omitempty"` // Last known gateway WebSocket endpoint
	DevID      string    `yaml:"dev_id,omitempty"`      // Device id from the last successful pairing
	DevType    int       `yaml:"dev_type,omitempty"`    // Device type from the last successful pairing
	LastSeen   time.Time `yaml:"last_seen,omitempty"`   // Last connection time
}

// Preferences represents application-wide user preferences.
// Note: the PIN is NEVER stored - it is always prompted or flagged.
type Preferences struct {
	AutoDiscover    bool   `yaml:"auto_discover"`          // Enable automatic mDNS discovery on startup
	DiscoverTimeout int    `yaml:"discover_timeout"`       // mDNS discovery timeout in seconds
	DefaultUnit     string `yaml:"default_unit,omitempty"` // MAC of the unit used when --unit is not given
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version: 1,
		Units:   make(map[string]*Unit),
		Preferences: &Preferences{
			AutoDiscover:    true,
			DiscoverTimeout: 10,
		},
	}
}

// GetUnit retrieves unit metadata by BLE MAC address.
// Returns nil if the unit doesn't exist in the registry.
func (r *Registry) GetUnit(mac string) *Unit {
	return r.Units[mac]
}

// EnsureUnit ensures a unit entry exists in the registry.
// If the unit doesn't exist, creates a new entry with default values.
// Returns the unit entry (existing or newly created).
func (r *Registry) EnsureUnit(mac string) *Unit {
	if r.Units == nil {
		r.Units = make(map[string]*Unit)
	}

	if unit, exists := r.Units[mac]; exists {
		return unit
	}

	unit := &Unit{}
	r.Units[mac] = unit
	return unit
}

// UpdateUnitLastSeen records a successful connection: the gateway used,
// the negotiated identity, and the time.
func (r *Registry) UpdateUnitLastSeen(mac, gatewayURL, devID string, devType int) {
	unit := r.EnsureUnit(mac)
	unit.GatewayURL = gatewayURL
	unit.DevID = devID
	unit.DevType = devType
	unit.LastSeen = time.Now()
}

// SetUnitNickname sets a user-friendly nickname for a unit.
func (r *Registry) SetUnitNickname(mac, nickname string) {
	unit := r.EnsureUnit(mac)
	unit.Nickname = nickname
}

// DefaultUnit returns the MAC of the preferred unit: the configured
// default when set, otherwise the only known unit, otherwise "".
func (r *Registry) DefaultUnit() string {
	if r.Preferences != nil && r.Preferences.DefaultUnit != "" {
		return r.Preferences.DefaultUnit
	}
	if len(r.Units) == 1 {
		for mac := range r.Units {
			return mac
		}
	}
	return ""
}
