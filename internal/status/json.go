package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/stockwise/internal/inventory"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string         `json:"event,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	Alerting      int            `json:"alerting"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	StartTime     string         `json:"start_time"`
	Timestamp     string         `json:"timestamp"`
	MQTT          MQTTStatus     `json:"mqtt"`
	Redis         bool           `json:"redis_connected"`
	AlertLamp     bool           `json:"alert_lamp"`
	Live          map[string]int `json:"live_records"`
	Locations     []LocationJSON `json:"locations"`
	Config        ConfigJSON     `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// LocationJSON is the JSON representation of a watched location.
type LocationJSON struct {
	NetworkID      string         `json:"network_id"`
	LocationID     string         `json:"location_id"`
	Slots          int            `json:"slots"`
	Alerting       int            `json:"alerting"`
	Counts         map[string]int `json:"counts"`
	Transitions    int            `json:"transitions"`
	LastProjection string         `json:"last_projection,omitempty"`
	Loading        bool           `json:"loading"`
	Error          string         `json:"error,omitempty"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Backend      string `json:"backend"`
	Broker       string `json:"broker"`
	Database     string `json:"database"`
	HTTPAddr     string `json:"http_addr"`
	LowThreshold int    `json:"low_threshold"`
	DebounceMs   int64  `json:"debounce_ms"`
	RefreshMs    int64  `json:"refresh_ms"`
	HeartbeatMs  int64  `json:"heartbeat_ms"`
}

func buildLocations(snap Snapshot) []LocationJSON {
	out := make([]LocationJSON, 0, len(snap.Locations))
	for _, l := range snap.Locations {
		counts := make(map[string]int, len(inventory.AllStatuses))
		for _, s := range inventory.AllStatuses {
			counts[string(s)] = l.Counts[s]
		}
		lj := LocationJSON{
			NetworkID:   l.NetworkID,
			LocationID:  l.LocationID,
			Slots:       l.Slots,
			Alerting:    l.Alerting(),
			Counts:      counts,
			Transitions: l.Transitions,
			Loading:     l.Loading,
			Error:       l.Err,
		}
		if !l.LastProjection.IsZero() {
			lj.LastProjection = l.LastProjection.UTC().Format(time.RFC3339)
		}
		out = append(out, lj)
	}
	return out
}

func buildInner(snap Snapshot) StatusInner {
	live := snap.Live
	if live == nil {
		live = map[string]int{}
	}
	return StatusInner{
		Alerting:      snap.Alerting(),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Redis:         snap.RedisConnected,
		AlertLamp:     snap.LampOn,
		Live:          live,
		Locations:     buildLocations(snap),
		Config: ConfigJSON{
			Backend:      snap.Config.Backend,
			Broker:       snap.Config.Broker,
			Database:     snap.Config.Database,
			HTTPAddr:     snap.Config.HTTPAddr,
			LowThreshold: snap.Config.LowThreshold,
			DebounceMs:   snap.Config.DebounceMs,
			RefreshMs:    snap.Config.RefreshMs,
			HeartbeatMs:  snap.Config.HeartbeatMs,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
