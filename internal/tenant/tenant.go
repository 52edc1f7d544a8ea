// Package tenant holds the network, location and membership configuration
// that scopes every other entity.
package tenant

import "time"

// NetworkStatus is the lifecycle of a customer network.
type NetworkStatus string

const (
	NetworkActive    NetworkStatus = "active"
	NetworkSuspended NetworkStatus = "suspended"
	NetworkArchived  NetworkStatus = "archived"
)

// Valid reports whether s is a known network status.
func (s NetworkStatus) Valid() bool {
	switch s {
	case NetworkActive, NetworkSuspended, NetworkArchived:
		return true
	}
	return false
}

// LocationStatus is the lifecycle of a physical location.
type LocationStatus string

const (
	LocationActive   LocationStatus = "active"
	LocationInactive LocationStatus = "inactive"
)

// Valid reports whether s is a known location status.
func (s LocationStatus) Valid() bool {
	return s == LocationActive || s == LocationInactive
}

// Role is a member's role within a network.
type Role string

const (
	RoleNetworkAdmin Role = "network_admin"
	RoleManager      Role = "manager"
	RoleViewer       Role = "viewer"
)

// ParseRole returns the role named by s, defaulting to viewer.
func ParseRole(s string) Role {
	switch r := Role(s); r {
	case RoleNetworkAdmin, RoleManager, RoleViewer:
		return r
	}
	return RoleViewer
}

// DefaultTimezone is used for locations created without one.
const DefaultTimezone = "UTC"

// NetworkConfig is a top-level tenant.
type NetworkConfig struct {
	NetworkID string        `json:"network_id"`
	Name      string        `json:"name"`
	CreatedAt time.Time     `json:"created_at"`
	Status    NetworkStatus `json:"status"`
}

// LocationConfig is a site within a network.
type LocationConfig struct {
	LocationID string         `json:"location_id"`
	NetworkID  string         `json:"network_id"`
	Name       string         `json:"name"`
	Timezone   string         `json:"timezone"`
	CreatedAt  time.Time      `json:"created_at"`
	Status     LocationStatus `json:"status"`
}

// MemberConfig grants a user a role in a network.
type MemberConfig struct {
	UID       string `json:"uid"`
	NetworkID string `json:"network_id"`
	Role      Role   `json:"role"`
}
