// Package inventory contains the slot status-projection core.
// This package has NO external dependencies (no storage, transport, or clock).
// Time is always injected as Unix epoch milliseconds.
package inventory

// Status is the resolved display status of a slot.
type Status string

// Statuses in resolution priority order, highest first.
const (
	StatusOfflineNode  Status = "OFFLINE_NODE"
	StatusStale        Status = "STALE"
	StatusErrorSensor  Status = "ERROR_SENSOR"
	StatusCalibrating  Status = "CALIBRATING"
	StatusUncalibrated Status = "UNCALIBRATED"
	StatusEmpty        Status = "EMPTY"
	StatusLow          Status = "LOW"
	StatusOK           Status = "OK"
)

// AllStatuses lists every status in resolution priority order.
var AllStatuses = []Status{
	StatusOfflineNode,
	StatusStale,
	StatusErrorSensor,
	StatusCalibrating,
	StatusUncalibrated,
	StatusEmpty,
	StatusLow,
	StatusOK,
}

var statusLabels = map[Status]string{
	StatusOK:           "In Stock",
	StatusLow:          "Low Stock",
	StatusEmpty:        "Empty",
	StatusErrorSensor:  "Sensor Error",
	StatusOfflineNode:  "Offline",
	StatusStale:        "Stale Data",
	StatusUncalibrated: "Needs Calibration",
	StatusCalibrating:  "Calibrating…",
}

// Label returns the human-readable label shown next to a status.
func (s Status) Label() string {
	return statusLabels[s]
}

// Alerting reports whether the status needs operator attention.
func (s Status) Alerting() bool {
	switch s {
	case StatusEmpty, StatusErrorSensor, StatusOfflineNode, StatusStale:
		return true
	}
	return false
}

// StaleThresholdMs is the age after which a live reading is considered stale.
// The comparison is exclusive: a reading exactly this old is still fresh.
const StaleThresholdMs int64 = 5 * 60 * 1000

// DefaultLowThreshold is the quantity at or below which a slot is LOW.
const DefaultLowThreshold = 2

// Flags is the 4-bit hardware status word sent by slot firmware.
// The bit layout is a wire contract with deployed firmware.
type Flags uint32

const (
	FlagStable      Flags = 1 << 0
	FlagOverload    Flags = 1 << 1
	FlagSensorError Flags = 1 << 2
	FlagCalibration Flags = 1 << 3
)

// Has reports whether every bit in mask is set.
func (f Flags) Has(mask Flags) bool { return f&mask == mask }

func (f Flags) Stable() bool      { return f.Has(FlagStable) }
func (f Flags) Overloaded() bool  { return f.Has(FlagOverload) }
func (f Flags) SensorError() bool { return f.Has(FlagSensorError) }
func (f Flags) Calibrating() bool { return f.Has(FlagCalibration) }

// Lifecycle is the operator-managed lifecycle of a slot.
type Lifecycle string

const (
	LifecycleProvisioning Lifecycle = "provisioning"
	LifecycleActive       Lifecycle = "active"
	LifecycleDisabled     Lifecycle = "disabled"
)

// Valid reports whether l is a known lifecycle value.
func (l Lifecycle) Valid() bool {
	switch l {
	case LifecycleProvisioning, LifecycleActive, LifecycleDisabled:
		return true
	}
	return false
}

// SlotConfig is the durable configuration of one monitored slot.
// A TareG of exactly 0 means the slot was never calibrated.
type SlotConfig struct {
	SlotID            string    `json:"slot_id"`
	ShelfID           string    `json:"shelf_id"`
	LocationID        string    `json:"location_id"`
	NetworkID         string    `json:"network_id"`
	Name              string    `json:"name"`
	NodeID            string    `json:"node_id"`
	SkuID             string    `json:"sku_id"`
	TareG             float64   `json:"tare_g"`
	CalibrationFactor float64   `json:"calibration_factor"`
	HysteresisG       float64   `json:"hysteresis_g"`
	MinQtyStep        int       `json:"min_qty_step"`
	Status            Lifecycle `json:"status"`
}

// WithDefaults fills unset fields with their defaults.
func (c SlotConfig) WithDefaults() SlotConfig {
	if c.MinQtyStep == 0 {
		c.MinQtyStep = 1
	}
	if c.Status == "" {
		c.Status = LifecycleProvisioning
	}
	return c
}

// SkuConfig describes a product stocked in slots.
type SkuConfig struct {
	SkuID            string  `json:"sku_id"`
	Name             string  `json:"name"`
	UnitWeightG      float64 `json:"unit_weight_g"`
	ToleranceG       float64 `json:"tolerance_g"`
	PackagingWeightG float64 `json:"packaging_weight_g"`
	Active           bool    `json:"active"`
}

// ShelfConfig groups slots for display.
type ShelfConfig struct {
	ShelfID    string `json:"shelf_id"`
	LocationID string `json:"location_id"`
	NetworkID  string `json:"network_id"`
	Name       string `json:"name"`
	OrderIndex int    `json:"order_index"`
}

// SlotLiveState is the latest reading written by the brain for a slot.
// It is never written by this system.
type SlotLiveState struct {
	SlotID     string  `json:"slot_id"`
	NetWeightG float64 `json:"net_weight_g"`
	Quantity   int     `json:"quantity"`
	UpdatedAt  int64   `json:"updated_at"` // Unix ms
	Confidence float64 `json:"confidence"`
	Flags      Flags   `json:"flags"`
	SourceNode string  `json:"source_node"`
	Seq        int64   `json:"seq"`
}

// NodeSet is a set of node identifiers currently reporting live.
type NodeSet map[string]struct{}

// Contains reports whether id is in the set. A nil set contains nothing.
func (s NodeSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// SlotViewModel is the read-only projection of a slot for presentation.
// The boolean status fields always restate Status.
type SlotViewModel struct {
	SlotID     string `json:"slot_id"`
	ShelfID    string `json:"shelf_id"`
	LocationID string `json:"location_id"`
	NetworkID  string `json:"network_id"`
	SlotName   string `json:"slot_name"`

	SkuID      string  `json:"sku_id"`
	SkuName    string  `json:"sku_name"`
	Quantity   int     `json:"quantity"`
	Confidence float64 `json:"confidence"`
	NetWeightG float64 `json:"net_weight_g"`

	Status      Status `json:"status"`
	StatusLabel string `json:"status_label"`
	IsStale     bool   `json:"is_stale"`
	IsOffline   bool   `json:"is_offline"`
	HasError    bool   `json:"has_error"`

	IsOverloaded   bool `json:"is_overloaded"`
	IsCalibrating  bool `json:"is_calibrating"`
	IsWeightStable bool `json:"is_weight_stable"`

	NodeID    string `json:"node_id"`
	UpdatedAt int64  `json:"updated_at"`
	Flags     Flags  `json:"flags"`
	Seq       int64  `json:"seq"`

	IsActive bool `json:"is_active"`
}
