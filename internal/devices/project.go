package devices

import "github.com/sweeney/stockwise/internal/inventory"

// ProjectBrains merges brain configs with live heartbeats keyed by brain ID.
// Output order follows configs.
func ProjectBrains(configs []BrainConfig, live map[string]BrainLiveState) []BrainView {
	out := make([]BrainView, 0, len(configs))
	for _, cfg := range configs {
		v := BrainView{BrainConfig: cfg}
		if l, ok := live[cfg.BrainID]; ok {
			v.Live = &l
			v.IsOnline = true
		}
		out = append(out, v)
	}
	return out
}

// ProjectNodes merges node configs with live heartbeats keyed by node ID.
// Output order follows configs.
func ProjectNodes(configs []NodeConfig, live map[string]NodeLiveState) []NodeView {
	out := make([]NodeView, 0, len(configs))
	for _, cfg := range configs {
		v := NodeView{NodeConfig: cfg}
		if l, ok := live[cfg.NodeID]; ok {
			v.Live = &l
			v.IsOnline = true
		}
		out = append(out, v)
	}
	return out
}

// OnlineNodeIDs returns the set of nodes with a live record.
func OnlineNodeIDs(live map[string]NodeLiveState) inventory.NodeSet {
	set := make(inventory.NodeSet, len(live))
	for id := range live {
		set[id] = struct{}{}
	}
	return set
}
