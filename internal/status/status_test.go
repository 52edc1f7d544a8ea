package status

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/stockwise/internal/inventory"
)

func slots(statuses ...inventory.Status) []inventory.SlotViewModel {
	out := make([]inventory.SlotViewModel, len(statuses))
	for i, s := range statuses {
		out[i] = inventory.SlotViewModel{Status: s}
	}
	return out
}

func TestNewTracker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{Backend: "mqtt", DebounceMs: 100, Broker: "tcp://localhost:1883", HTTPAddr: ":8080"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Config.DebounceMs != 100 {
		t.Errorf("Config.DebounceMs: got %d, want 100", snap.Config.DebounceMs)
	}
	if snap.Config.HTTPAddr != ":8080" {
		t.Errorf("Config.HTTPAddr: got %q, want %q", snap.Config.HTTPAddr, ":8080")
	}
	if len(snap.Locations) != 0 {
		t.Errorf("expected no locations initially, got %d", len(snap.Locations))
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
}

func TestUpdateLocation(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	at := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tr.SetLoadState("net", "loc", true, nil)
	tr.UpdateLocation("net", "loc", slots(inventory.StatusOK, inventory.StatusLow, inventory.StatusEmpty), 3, at)
	tr.UpdateLocation("net", "loc", slots(inventory.StatusOK, inventory.StatusLow, inventory.StatusOK), 1, at.Add(time.Second))

	snap := tr.Snapshot()
	if len(snap.Locations) != 1 {
		t.Fatalf("locations: got %d, want 1", len(snap.Locations))
	}
	l := snap.Locations[0]
	if l.Slots != 3 {
		t.Errorf("Slots: got %d, want 3", l.Slots)
	}
	if l.Counts[inventory.StatusOK] != 2 {
		t.Errorf("OK: got %d, want 2", l.Counts[inventory.StatusOK])
	}
	if l.Alerting() != 1 {
		t.Errorf("Alerting: got %d, want 1", l.Alerting())
	}
	if l.Transitions != 4 {
		t.Errorf("Transitions: got %d, want 4", l.Transitions)
	}
	if l.Loading {
		t.Error("expected Loading=false after a projection")
	}
	if !l.LastProjection.Equal(at.Add(time.Second)) {
		t.Errorf("LastProjection: got %v", l.LastProjection)
	}
}

func TestSetLoadStateError(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.SetLoadState("net", "loc", false, errors.New("slots: permission denied"))
	if got := tr.Snapshot().Locations[0].Err; got != "slots: permission denied" {
		t.Errorf("Err: got %q", got)
	}

	tr.SetLoadState("net", "loc", false, nil)
	if got := tr.Snapshot().Locations[0].Err; got != "" {
		t.Errorf("Err: got %q, want empty", got)
	}
}

func TestLocationsSorted(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	for _, id := range []string{"c", "a", "b"} {
		tr.UpdateLocation("net", id, nil, 0, time.Now())
	}

	snap := tr.Snapshot()
	for i, want := range []string{"a", "b", "c"} {
		if snap.Locations[i].LocationID != want {
			t.Errorf("location %d: got %s, want %s", i, snap.Locations[i].LocationID, want)
		}
	}
}

func TestConnectionFlags(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.SetMQTTConnected(true)
	tr.SetRedisConnected(true)
	tr.SetLamp(true)
	snap := tr.Snapshot()
	if !snap.MQTTConnected || !snap.RedisConnected || !snap.LampOn {
		t.Errorf("got mqtt=%v redis=%v lamp=%v, want all true", snap.MQTTConnected, snap.RedisConnected, snap.LampOn)
	}

	tr.SetMQTTConnected(false)
	if tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=false")
	}
}

func TestSnapshotUptime(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		StartTime: start,
		Now:       start.Add(15 * time.Minute),
	}

	if snap.Uptime() != 15*time.Minute {
		t.Errorf("Uptime: got %v, want 15m", snap.Uptime())
	}
}

func TestSnapshotNowIsSet(t *testing.T) {
	tr := NewTracker(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Config{})

	before := time.Now()
	snap := tr.Snapshot()
	after := time.Now()

	if snap.Now.Before(before) || snap.Now.After(after) {
		t.Errorf("Now (%v) not between %v and %v", snap.Now, before, after)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.UpdateLocation("net", "loc", slots(inventory.StatusOK), 0, time.Now())
	tr.SetLive(map[string]int{"inventory_live": 1})

	snap1 := tr.Snapshot()

	tr.UpdateLocation("net", "loc", slots(inventory.StatusEmpty, inventory.StatusEmpty), 2, time.Now())
	tr.SetLive(map[string]int{"inventory_live": 2})

	if snap1.Locations[0].Slots != 1 || snap1.Locations[0].Counts[inventory.StatusEmpty] != 0 {
		t.Error("snapshot should be a copy; location was modified")
	}
	if snap1.Live["inventory_live"] != 1 {
		t.Error("snapshot should be a copy; live counts were modified")
	}

	snap1.Locations[0].Counts[inventory.StatusOK] = 99
	if tr.Snapshot().Locations[0].Counts[inventory.StatusOK] == 99 {
		t.Error("mutating a snapshot leaked into the tracker")
	}
}

func TestFormatJSON(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		StartTime:     start,
		Now:           start.Add(15 * time.Minute),
		MQTTConnected: true,
		Live:          map[string]int{"inventory_live": 4},
		Locations: []Location{{
			NetworkID:      "net",
			LocationID:     "loc",
			Slots:          4,
			Counts:         inventory.CountStatuses(slots(inventory.StatusOK, inventory.StatusOK, inventory.StatusLow, inventory.StatusStale)),
			Transitions:    7,
			LastProjection: start.Add(14 * time.Minute),
		}},
		Config: Config{Backend: "mqtt", Broker: "tcp://localhost:1883", HTTPAddr: ":8080", LowThreshold: 2},
	}

	data := FormatJSON(snap)

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", parsed.Status.UptimeSeconds)
	}
	if !parsed.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if parsed.Status.Alerting != 2 {
		t.Errorf("Alerting: got %d, want 2", parsed.Status.Alerting)
	}
	if len(parsed.Status.Locations) != 1 {
		t.Fatalf("Locations: got %d, want 1", len(parsed.Status.Locations))
	}
	loc := parsed.Status.Locations[0]
	if loc.Counts["OK"] != 2 || loc.Counts["OFFLINE_NODE"] != 0 {
		t.Errorf("Counts: got %v", loc.Counts)
	}
	if loc.LastProjection != "2026-01-01T00:14:00Z" {
		t.Errorf("LastProjection: got %q", loc.LastProjection)
	}
	if parsed.Status.Live["inventory_live"] != 4 {
		t.Errorf("Live: got %v", parsed.Status.Live)
	}
	if parsed.Status.Config.LowThreshold != 2 {
		t.Errorf("Config.LowThreshold: got %d, want 2", parsed.Status.Config.LowThreshold)
	}
	// Event and Reason should be omitted
	if parsed.Status.Event != "" {
		t.Errorf("expected empty Event for web format, got %q", parsed.Status.Event)
	}
	if parsed.Status.Reason != "" {
		t.Errorf("expected empty Reason for web format, got %q", parsed.Status.Reason)
	}
}

func TestFormatJSONEmpty(t *testing.T) {
	snap := Snapshot{
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC),
	}

	var raw map[string]any
	if err := json.Unmarshal(FormatJSON(snap), &raw); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	status := raw["status"].(map[string]any)
	if locs, ok := status["locations"].([]any); !ok || len(locs) != 0 {
		t.Errorf("locations: got %v, want empty array", status["locations"])
	}
	if live, ok := status["live_records"].(map[string]any); !ok || len(live) != 0 {
		t.Errorf("live_records: got %v, want empty object", status["live_records"])
	}
}

func TestFormatStatusEvent(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		StartTime:     start,
		Now:           start.Add(15 * time.Minute),
		MQTTConnected: true,
		Config:        Config{DebounceMs: 100, Broker: "tcp://localhost:1883"},
	}

	data := FormatStatusEvent(snap, "HEARTBEAT", "")

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Event != "HEARTBEAT" {
		t.Errorf("Event: got %q, want HEARTBEAT", parsed.Status.Event)
	}
	if parsed.Status.Reason != "" {
		t.Errorf("Reason: got %q, want empty", parsed.Status.Reason)
	}
	if parsed.Status.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", parsed.Status.UptimeSeconds)
	}
}

func TestFormatStatusEventShutdown(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		StartTime: start,
		Now:       start.Add(30 * time.Minute),
		Config:    Config{Broker: "tcp://localhost:1883"},
	}

	data := FormatStatusEvent(snap, "SHUTDOWN", "SIGTERM")

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Event != "SHUTDOWN" {
		t.Errorf("Event: got %q, want SHUTDOWN", parsed.Status.Event)
	}
	if parsed.Status.Reason != "SIGTERM" {
		t.Errorf("Reason: got %q, want SIGTERM", parsed.Status.Reason)
	}
}

func TestFormatStatusEventOmitsReasonWhenEmpty(t *testing.T) {
	snap := Snapshot{
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC),
	}

	data := FormatStatusEvent(snap, "STARTUP", "")

	var raw map[string]any
	json.Unmarshal(data, &raw)
	status := raw["status"].(map[string]any)
	if _, exists := status["reason"]; exists {
		t.Error("reason should be omitted when empty")
	}
	if status["event"] != "STARTUP" {
		t.Errorf("event: got %v, want STARTUP", status["event"])
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	var wg sync.WaitGroup

	// Writer
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			tr.UpdateLocation("net", "loc", slots(inventory.StatusOK), 1, time.Now())
			tr.SetMQTTConnected(i%2 == 0)
			tr.SetLive(map[string]int{"nodes_live": i})
		}
	}()

	// Reader
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			snap := tr.Snapshot()
			_ = snap.Uptime()
			_ = FormatJSON(snap)
		}
	}()

	wg.Wait()
}
