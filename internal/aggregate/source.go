// Package aggregate keeps live, projected views of a location by merging
// configuration and telemetry snapshot streams.
package aggregate

import (
	"github.com/sweeney/stockwise/internal/devices"
	"github.com/sweeney/stockwise/internal/inventory"
	"github.com/sweeney/stockwise/internal/tenant"
)

// Unsubscribe cancels a subscription. It must be safe to call once.
type Unsubscribe func()

// ErrorFunc receives subscription failures from a collaborator.
type ErrorFunc func(error)

// Every subscribe function delivers a full snapshot on each change, never a
// delta. Callbacks may run on any goroutine.

// SlotConfigSource streams slot and SKU configuration for a location.
type SlotConfigSource interface {
	SubscribeSlotConfigs(networkID, locationID string, onChange func(map[string]inventory.SlotConfig), onErr ErrorFunc) Unsubscribe
	SubscribeSkus(networkID, locationID string, onChange func(map[string]inventory.SkuConfig), onErr ErrorFunc) Unsubscribe
}

// DeviceConfigSource streams brain and node configuration for a location.
type DeviceConfigSource interface {
	SubscribeBrains(networkID, locationID string, onChange func([]devices.BrainConfig), onErr ErrorFunc) Unsubscribe
	SubscribeNodes(networkID, locationID string, onChange func([]devices.NodeConfig), onErr ErrorFunc) Unsubscribe
}

// ConfigSource is the complete configuration collaborator.
type ConfigSource interface {
	SlotConfigSource
	DeviceConfigSource
	SubscribeShelves(networkID, locationID string, onChange func([]inventory.ShelfConfig), onErr ErrorFunc) Unsubscribe
	SubscribeMembers(networkID string, onChange func([]tenant.MemberConfig), onErr ErrorFunc) Unsubscribe
	SubscribeLocations(networkID string, onChange func([]tenant.LocationConfig), onErr ErrorFunc) Unsubscribe
	SubscribeNetworks(onChange func([]tenant.NetworkConfig), onErr ErrorFunc) Unsubscribe
}

// TelemetrySource is the live telemetry collaborator. Snapshots are keyed
// by slot ID, node MAC and brain ID respectively.
type TelemetrySource interface {
	SubscribeLiveReadings(locationID string, onChange func(map[string]inventory.SlotLiveState), onErr ErrorFunc) Unsubscribe
	SubscribeNodesLive(locationID string, onChange func(map[string]devices.NodeLiveState), onErr ErrorFunc) Unsubscribe
	SubscribeBrainsLive(locationID string, onChange func(map[string]devices.BrainLiveState), onErr ErrorFunc) Unsubscribe
}

// Key identifies the location a store is bound to.
type Key struct {
	NetworkID  string
	LocationID string
}

// LoadState reports collaborator progress, separate from slot status.
type LoadState struct {
	Loading bool
	Err     error
}
