package aggregate

import (
	"sync"

	"github.com/sweeney/stockwise/internal/devices"
	"github.com/sweeney/stockwise/internal/inventory"
)

type fakeSub[T any] struct {
	location  string
	onChange  func(T)
	onErr     ErrorFunc
	cancelled bool
}

// fakeSource records subscriptions and lets tests push snapshots.
type fakeSource struct {
	mu sync.Mutex

	slotCfgs   []*fakeSub[map[string]inventory.SlotConfig]
	skus       []*fakeSub[map[string]inventory.SkuConfig]
	live       []*fakeSub[map[string]inventory.SlotLiveState]
	nodesLive  []*fakeSub[map[string]devices.NodeLiveState]
	brainsLive []*fakeSub[map[string]devices.BrainLiveState]
	brains     []*fakeSub[[]devices.BrainConfig]
	nodes      []*fakeSub[[]devices.NodeConfig]
}

func addSub[T any](mu *sync.Mutex, list *[]*fakeSub[T], loc string, fn func(T), onErr ErrorFunc) Unsubscribe {
	mu.Lock()
	s := &fakeSub[T]{location: loc, onChange: fn, onErr: onErr}
	*list = append(*list, s)
	mu.Unlock()
	return func() {
		mu.Lock()
		s.cancelled = true
		mu.Unlock()
	}
}

func pushTo[T any](mu *sync.Mutex, list []*fakeSub[T], loc string, v T) {
	mu.Lock()
	var targets []*fakeSub[T]
	for _, s := range list {
		if s.location == loc && !s.cancelled {
			targets = append(targets, s)
		}
	}
	mu.Unlock()
	for _, s := range targets {
		s.onChange(v)
	}
}

func activeCount[T any](mu *sync.Mutex, list []*fakeSub[T]) int {
	mu.Lock()
	defer mu.Unlock()
	n := 0
	for _, s := range list {
		if !s.cancelled {
			n++
		}
	}
	return n
}

func (f *fakeSource) SubscribeSlotConfigs(_, loc string, fn func(map[string]inventory.SlotConfig), onErr ErrorFunc) Unsubscribe {
	return addSub(&f.mu, &f.slotCfgs, loc, fn, onErr)
}

func (f *fakeSource) SubscribeSkus(_, loc string, fn func(map[string]inventory.SkuConfig), onErr ErrorFunc) Unsubscribe {
	return addSub(&f.mu, &f.skus, loc, fn, onErr)
}

func (f *fakeSource) SubscribeBrains(_, loc string, fn func([]devices.BrainConfig), onErr ErrorFunc) Unsubscribe {
	return addSub(&f.mu, &f.brains, loc, fn, onErr)
}

func (f *fakeSource) SubscribeNodes(_, loc string, fn func([]devices.NodeConfig), onErr ErrorFunc) Unsubscribe {
	return addSub(&f.mu, &f.nodes, loc, fn, onErr)
}

func (f *fakeSource) SubscribeLiveReadings(loc string, fn func(map[string]inventory.SlotLiveState), onErr ErrorFunc) Unsubscribe {
	return addSub(&f.mu, &f.live, loc, fn, onErr)
}

func (f *fakeSource) SubscribeNodesLive(loc string, fn func(map[string]devices.NodeLiveState), onErr ErrorFunc) Unsubscribe {
	return addSub(&f.mu, &f.nodesLive, loc, fn, onErr)
}

func (f *fakeSource) SubscribeBrainsLive(loc string, fn func(map[string]devices.BrainLiveState), onErr ErrorFunc) Unsubscribe {
	return addSub(&f.mu, &f.brainsLive, loc, fn, onErr)
}

func (f *fakeSource) pushSlotConfigs(loc string, m map[string]inventory.SlotConfig) {
	pushTo(&f.mu, f.slotCfgs, loc, m)
}

func (f *fakeSource) pushSkus(loc string, m map[string]inventory.SkuConfig) {
	pushTo(&f.mu, f.skus, loc, m)
}

func (f *fakeSource) pushLive(loc string, m map[string]inventory.SlotLiveState) {
	pushTo(&f.mu, f.live, loc, m)
}

func (f *fakeSource) pushNodesLive(loc string, m map[string]devices.NodeLiveState) {
	pushTo(&f.mu, f.nodesLive, loc, m)
}

func (f *fakeSource) pushBrainsLive(loc string, m map[string]devices.BrainLiveState) {
	pushTo(&f.mu, f.brainsLive, loc, m)
}

func (f *fakeSource) pushBrains(loc string, c []devices.BrainConfig) {
	pushTo(&f.mu, f.brains, loc, c)
}

func (f *fakeSource) pushNodes(loc string, c []devices.NodeConfig) {
	pushTo(&f.mu, f.nodes, loc, c)
}

func (f *fakeSource) activeSubs() int {
	return activeCount(&f.mu, f.slotCfgs) + activeCount(&f.mu, f.skus) + activeCount(&f.mu, f.live) +
		activeCount(&f.mu, f.nodesLive) + activeCount(&f.mu, f.brainsLive) + activeCount(&f.mu, f.brains) +
		activeCount(&f.mu, f.nodes)
}
