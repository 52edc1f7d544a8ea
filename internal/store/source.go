package store

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/sweeney/stockwise/internal/aggregate"
	"github.com/sweeney/stockwise/internal/devices"
	"github.com/sweeney/stockwise/internal/inventory"
	"github.com/sweeney/stockwise/internal/tenant"
)

var _ aggregate.ConfigSource = (*Source)(nil)

// queryTimeout bounds each snapshot reload.
const queryTimeout = 5 * time.Second

// Source streams configuration snapshots out of the database. Each
// subscription receives the current snapshot when it is made and a fresh
// one after every write to the same collection and scope.
type Source struct {
	db  *DB
	log zerolog.Logger

	mu   sync.Mutex
	next int
	subs map[int]*subscription
}

type subscription struct {
	match  func(Change) bool
	reload func()

	deliver sync.Mutex // keeps snapshots of one subscription in order
	closed  atomic.Bool
}

// NewSource registers a change watcher on db.
func NewSource(db *DB, logger zerolog.Logger) *Source {
	s := &Source{
		db:   db,
		log:  logger.With().Str("component", "config_source").Logger(),
		subs: map[int]*subscription{},
	}
	db.OnChange(s.dispatch)
	return s
}

func (s *Source) dispatch(c Change) {
	s.mu.Lock()
	var hit []*subscription
	for _, sub := range s.subs {
		if sub.match(c) {
			hit = append(hit, sub)
		}
	}
	s.mu.Unlock()

	for _, sub := range hit {
		sub.reload()
	}
}

// Active returns the number of open subscriptions.
func (s *Source) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func subscribe[T any](s *Source, match func(Change) bool, query func(context.Context) (T, error),
	onChange func(T), onErr aggregate.ErrorFunc) aggregate.Unsubscribe {

	sub := &subscription{match: match}
	sub.reload = func() {
		sub.deliver.Lock()
		defer sub.deliver.Unlock()
		if sub.closed.Load() {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
		v, err := query(ctx)
		cancel()
		if sub.closed.Load() {
			return
		}
		if err != nil {
			s.log.Warn().Err(err).Msg("snapshot query failed")
			if onErr != nil {
				onErr(err)
			}
			return
		}
		onChange(v)
	}

	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = sub
	s.mu.Unlock()

	sub.reload()

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.closed.Store(true)
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func scoped(kind Kind, networkID, locationID string) func(Change) bool {
	return func(c Change) bool {
		return c.Kind == kind && c.NetworkID == networkID && c.LocationID == locationID
	}
}

func (s *Source) SubscribeSlotConfigs(networkID, locationID string, onChange func(map[string]inventory.SlotConfig), onErr aggregate.ErrorFunc) aggregate.Unsubscribe {
	return subscribe(s, scoped(KindSlots, networkID, locationID), func(ctx context.Context) (map[string]inventory.SlotConfig, error) {
		return s.db.ListSlots(ctx, networkID, locationID)
	}, onChange, onErr)
}

func (s *Source) SubscribeSkus(networkID, locationID string, onChange func(map[string]inventory.SkuConfig), onErr aggregate.ErrorFunc) aggregate.Unsubscribe {
	return subscribe(s, scoped(KindSkus, networkID, locationID), func(ctx context.Context) (map[string]inventory.SkuConfig, error) {
		return s.db.ListSkus(ctx, networkID, locationID)
	}, onChange, onErr)
}

func (s *Source) SubscribeShelves(networkID, locationID string, onChange func([]inventory.ShelfConfig), onErr aggregate.ErrorFunc) aggregate.Unsubscribe {
	return subscribe(s, scoped(KindShelves, networkID, locationID), func(ctx context.Context) ([]inventory.ShelfConfig, error) {
		return s.db.ListShelves(ctx, networkID, locationID)
	}, onChange, onErr)
}

func (s *Source) SubscribeBrains(networkID, locationID string, onChange func([]devices.BrainConfig), onErr aggregate.ErrorFunc) aggregate.Unsubscribe {
	return subscribe(s, scoped(KindBrains, networkID, locationID), func(ctx context.Context) ([]devices.BrainConfig, error) {
		return s.db.ListBrains(ctx, networkID, locationID)
	}, onChange, onErr)
}

func (s *Source) SubscribeNodes(networkID, locationID string, onChange func([]devices.NodeConfig), onErr aggregate.ErrorFunc) aggregate.Unsubscribe {
	return subscribe(s, scoped(KindNodes, networkID, locationID), func(ctx context.Context) ([]devices.NodeConfig, error) {
		return s.db.ListNodes(ctx, networkID, locationID)
	}, onChange, onErr)
}

func (s *Source) SubscribeMembers(networkID string, onChange func([]tenant.MemberConfig), onErr aggregate.ErrorFunc) aggregate.Unsubscribe {
	return subscribe(s, scoped(KindMembers, networkID, ""), func(ctx context.Context) ([]tenant.MemberConfig, error) {
		return s.db.ListMembers(ctx, networkID)
	}, onChange, onErr)
}

func (s *Source) SubscribeLocations(networkID string, onChange func([]tenant.LocationConfig), onErr aggregate.ErrorFunc) aggregate.Unsubscribe {
	return subscribe(s, scoped(KindLocations, networkID, ""), func(ctx context.Context) ([]tenant.LocationConfig, error) {
		return s.db.ListLocations(ctx, networkID)
	}, onChange, onErr)
}

func (s *Source) SubscribeNetworks(onChange func([]tenant.NetworkConfig), onErr aggregate.ErrorFunc) aggregate.Unsubscribe {
	return subscribe(s, scoped(KindNetworks, "", ""), s.db.ListNetworks, onChange, onErr)
}
