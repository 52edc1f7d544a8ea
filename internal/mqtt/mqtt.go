// Package mqtt carries live telemetry in from brains and publishes slot
// status transitions and daemon lifecycle events.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/stockwise/internal/inventory"
)

// TransitionTopic is the topic for a location's slot status transitions.
func TransitionTopic(eventPrefix, locationID string) string {
	return eventPrefix + "/" + locationID + "/slot_status"
}

// SystemTopic is the topic for daemon lifecycle events.
func SystemTopic(eventPrefix string) string {
	return eventPrefix + "/system"
}

// TelemetryFilters returns the subscriptions covering every live record
// under prefix.
func TelemetryFilters(prefix string) []string {
	return []string{
		prefix + "/+/inventory_live/+",
		prefix + "/+/nodes_live/+",
		prefix + "/+/devices_live/+",
	}
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// PublishTransition sends a slot status change.
	// Returns error if publishing fails (should not crash the process).
	PublishTransition(t inventory.Transition) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// TransitionPayload is the MQTT payload for a slot status change.
type TransitionPayload struct {
	Slot SlotPayload `json:"slot"`
}

// SlotPayload contains the transition details.
type SlotPayload struct {
	Timestamp  string `json:"timestamp"`
	LocationID string `json:"location_id"`
	SlotID     string `json:"slot_id"`
	SlotName   string `json:"slot_name"`
	From       string `json:"from,omitempty"`
	To         string `json:"to"`
	Label      string `json:"label"`
	Alerting   bool   `json:"alerting"`
	Quantity   int    `json:"quantity"`
}

// FormatTransition creates the JSON payload for a transition.
func FormatTransition(t inventory.Transition) ([]byte, error) {
	payload := TransitionPayload{
		Slot: SlotPayload{
			Timestamp:  time.UnixMilli(t.AtMs).UTC().Format(time.RFC3339),
			LocationID: t.LocationID,
			SlotID:     t.SlotID,
			SlotName:   t.SlotName,
			From:       string(t.From),
			To:         string(t.To),
			Label:      t.To.Label(),
			Alerting:   t.To.Alerting(),
			Quantity:   t.Quantity,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
