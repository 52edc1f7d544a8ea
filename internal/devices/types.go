// Package devices merges brain and node configuration with their live
// heartbeats. A device is online iff a live record is present; unlike
// slots there is no staleness check at this layer.
package devices

// BrainStatus is the operator-managed status of a brain.
type BrainStatus string

const (
	BrainProvisioning   BrainStatus = "provisioning"
	BrainOnline         BrainStatus = "online"
	BrainOffline        BrainStatus = "offline"
	BrainDecommissioned BrainStatus = "decommissioned"
)

// NodeStatus is the operator-managed status of a sensor node.
type NodeStatus string

const (
	NodeProvisioning NodeStatus = "provisioning"
	NodeOnline       NodeStatus = "online"
	NodeOffline      NodeStatus = "offline"
	NodeError        NodeStatus = "error"
)

// DeviceTypeBrain is the only device type.
const DeviceTypeBrain = "brain"

// BrainConfig is the durable configuration of a gateway controller.
type BrainConfig struct {
	BrainID         string      `json:"brain_id"`
	LocationID      string      `json:"location_id"`
	NetworkID       string      `json:"network_id"`
	Type            string      `json:"type"`
	Status          BrainStatus `json:"status"`
	FirmwareVersion string      `json:"firmware_version"`
	LastSeen        string      `json:"last_seen"`
	IPAddress       string      `json:"ip_address"`
}

// NodeConfig is the durable configuration of a sensor node. NodeID is the
// node's MAC address as a hex string.
type NodeConfig struct {
	NodeID          string         `json:"node_id"`
	LocationID      string         `json:"location_id"`
	NetworkID       string         `json:"network_id"`
	NodeMAC         string         `json:"node_mac"`
	PairedToBrain   string         `json:"paired_to_brain"`
	FirmwareVersion string         `json:"firmware_version"`
	LastSeen        string         `json:"last_seen"`
	RSSI            int            `json:"rssi"`
	ErrorCounters   map[string]int `json:"error_counters"`
	Status          NodeStatus     `json:"status"`
}

// BrainLiveState is a brain heartbeat.
type BrainLiveState struct {
	BrainID         string `json:"brain_id"`
	LastSeen        int64  `json:"last_seen"` // Unix ms
	FirmwareVersion string `json:"firmware_version"`
	IP              string `json:"ip"`
	QueueDepth      int    `json:"queue_depth"`
	ErrorCount      int    `json:"error_count"`
}

// NodeLiveState is a node heartbeat relayed by its brain. Battery is nil
// when the firmware does not report it.
type NodeLiveState struct {
	NodeID     string   `json:"node_id"`
	LastSeen   int64    `json:"last_seen"` // Unix ms
	RSSI       int      `json:"rssi"`
	ErrorCount int      `json:"error_count"`
	Battery    *float64 `json:"battery,omitempty"`
}

// BrainView is a brain config merged with its live heartbeat.
type BrainView struct {
	BrainConfig
	Live     *BrainLiveState `json:"live"`
	IsOnline bool            `json:"is_online"`
}

// NodeView is a node config merged with its live heartbeat.
type NodeView struct {
	NodeConfig
	Live     *NodeLiveState `json:"live"`
	IsOnline bool           `json:"is_online"`
}
