// Package telemetry holds the live readings and heartbeats written by
// brains, and decodes them off the wire.
package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sweeney/stockwise/internal/devices"
	"github.com/sweeney/stockwise/internal/inventory"
)

// Kind names a live collection under a location.
type Kind string

const (
	KindInventory Kind = "inventory_live"
	KindNodes     Kind = "nodes_live"
	KindBrains    Kind = "devices_live"
)

// Kinds lists every live collection.
var Kinds = []Kind{KindInventory, KindNodes, KindBrains}

func (k Kind) valid() bool {
	return k == KindInventory || k == KindNodes || k == KindBrains
}

// ErrUnknownTopic is returned for topics or keys outside the live layout.
var ErrUnknownTopic = errors.New("unknown telemetry topic")

// Message is one write to a live record. An empty Payload removes the record.
type Message struct {
	Kind       Kind
	LocationID string
	ID         string
	Payload    []byte
}

// Path returns the record path relative to the topic prefix.
func (m Message) Path() string {
	return m.LocationID + "/" + string(m.Kind) + "/" + m.ID
}

// ParseTopic splits "{prefix}/{locationId}/{kind}/{id}" into a Message
// without payload.
func ParseTopic(prefix, topic string) (Message, error) {
	rest := topic
	if prefix != "" {
		var ok bool
		rest, ok = strings.CutPrefix(topic, strings.TrimSuffix(prefix, "/")+"/")
		if !ok {
			return Message{}, fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
		}
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[0] == "" || parts[2] == "" || !Kind(parts[1]).valid() {
		return Message{}, fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
	}
	return Message{LocationID: parts[0], Kind: Kind(parts[1]), ID: parts[2]}, nil
}

// fields is a decoded payload whose values are coerced on read, so a
// missing or malformed number becomes 0.
type fields map[string]any

func decodeFields(payload []byte) (fields, error) {
	var f fields
	if err := json.Unmarshal(payload, &f); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if f == nil {
		return nil, errors.New("decode payload: not an object")
	}
	return f, nil
}

func (f fields) float(key string) float64 {
	var v float64
	switch x := f[key].(type) {
	case float64:
		v = x
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0
		}
		p, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		v = p
	case bool:
		if x {
			v = 1
		}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func (f fields) int(key string) int { return int(f.float(key)) }

func (f fields) int64(key string) int64 { return int64(f.float(key)) }

func (f fields) str(key string) string {
	switch x := f[key].(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return ""
}

func (f fields) has(key string) bool {
	v, ok := f[key]
	return ok && v != nil
}

// DecodeSlot decodes an inventory_live record for slotID.
func DecodeSlot(slotID string, payload []byte) (inventory.SlotLiveState, error) {
	f, err := decodeFields(payload)
	if err != nil {
		return inventory.SlotLiveState{}, err
	}
	flags := f.float("flags")
	if flags < 0 || flags > math.MaxUint32 {
		flags = 0
	}
	return inventory.SlotLiveState{
		SlotID:     slotID,
		NetWeightG: f.float("net_weight_g"),
		Quantity:   f.int("quantity"),
		UpdatedAt:  f.int64("updated_at"),
		Confidence: f.float("confidence"),
		Flags:      inventory.Flags(uint32(flags)),
		SourceNode: f.str("source_node"),
		Seq:        f.int64("seq"),
	}, nil
}

// DecodeNode decodes a nodes_live heartbeat for nodeID. Battery stays nil
// unless reported.
func DecodeNode(nodeID string, payload []byte) (devices.NodeLiveState, error) {
	f, err := decodeFields(payload)
	if err != nil {
		return devices.NodeLiveState{}, err
	}
	n := devices.NodeLiveState{
		NodeID:     nodeID,
		LastSeen:   f.int64("last_seen"),
		RSSI:       f.int("rssi"),
		ErrorCount: f.int("error_count"),
	}
	if f.has("battery") {
		b := f.float("battery")
		n.Battery = &b
	}
	return n, nil
}

// DecodeBrain decodes a devices_live heartbeat for brainID.
func DecodeBrain(brainID string, payload []byte) (devices.BrainLiveState, error) {
	f, err := decodeFields(payload)
	if err != nil {
		return devices.BrainLiveState{}, err
	}
	return devices.BrainLiveState{
		BrainID:         brainID,
		LastSeen:        f.int64("last_seen"),
		FirmwareVersion: f.str("firmware_version"),
		IP:              f.str("ip"),
		QueueDepth:      f.int("queue_depth"),
		ErrorCount:      f.int("error_count"),
	}, nil
}
