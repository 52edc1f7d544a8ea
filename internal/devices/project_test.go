package devices

import "testing"

func TestProjectBrainsPresenceIsOnline(t *testing.T) {
	configs := []BrainConfig{
		{BrainID: "b1", Type: DeviceTypeBrain, Status: BrainOnline},
		{BrainID: "b2", Type: DeviceTypeBrain, Status: BrainOnline},
	}
	// An ancient heartbeat still counts: presence only.
	live := map[string]BrainLiveState{"b2": {BrainID: "b2", LastSeen: 1, QueueDepth: 4}}

	got := ProjectBrains(configs, live)
	if len(got) != 2 {
		t.Fatalf("expected 2 brains, got %d", len(got))
	}
	if got[0].IsOnline || got[0].Live != nil {
		t.Errorf("b1: expected offline with nil live, got %+v", got[0])
	}
	if !got[1].IsOnline || got[1].Live == nil || got[1].Live.QueueDepth != 4 {
		t.Errorf("b2: expected online with live, got %+v", got[1])
	}
	if got[1].BrainID != "b2" {
		t.Errorf("order not preserved: got %s", got[1].BrainID)
	}
}

func TestProjectNodes(t *testing.T) {
	battery := 3.7
	configs := []NodeConfig{{NodeID: "AABBCCDDEEFF"}, {NodeID: "112233445566"}}
	live := map[string]NodeLiveState{
		"AABBCCDDEEFF": {NodeID: "AABBCCDDEEFF", RSSI: -60, Battery: &battery},
		"FFFFFFFFFFFF": {NodeID: "FFFFFFFFFFFF"},
	}

	got := ProjectNodes(configs, live)
	if len(got) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(got))
	}
	if !got[0].IsOnline || got[0].Live.RSSI != -60 || *got[0].Live.Battery != 3.7 {
		t.Errorf("node 0: got %+v", got[0])
	}
	if got[1].IsOnline {
		t.Error("node 1: expected offline")
	}
}

func TestProjectEmpty(t *testing.T) {
	if got := ProjectBrains(nil, nil); got == nil || len(got) != 0 {
		t.Errorf("brains: expected empty non-nil slice, got %v", got)
	}
	if got := ProjectNodes(nil, nil); got == nil || len(got) != 0 {
		t.Errorf("nodes: expected empty non-nil slice, got %v", got)
	}
}

func TestOnlineNodeIDs(t *testing.T) {
	set := OnlineNodeIDs(map[string]NodeLiveState{"a": {}, "b": {}})
	if len(set) != 2 || !set.Contains("a") || !set.Contains("b") || set.Contains("c") {
		t.Errorf("unexpected set: %v", set)
	}
}
