package statecache

import (
	"context"
	"fmt"
	"log"
	"slices"

	"swarmcore/swarm"
)

// Manager mirrors committed swarm state into a Cache. Reads prefer the
// cache and fall back to the committed snapshot. A nil cache is allowed
// and simply means every read goes to the snapshot.
type Manager struct {
	cache  Cache
	source func() *swarm.State
}

func NewManager(cache Cache, source func() *swarm.State) *Manager {
	return &Manager{cache: cache, source: source}
}

// Sync rebuilds the whole mirror from st. Called on startup.
func (m *Manager) Sync(st *swarm.State) error {
	if m.cache == nil {
		return nil
	}
	ctx := context.Background()
	if err := m.cache.FlushAll(ctx); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	m.Refresh(st, st.RobotIDs(), st.LocationIDs())
	log.Printf("statecache: synced %d robots, %d locations", len(st.Robots), len(st.Locations))
	return nil
}

// Refresh rewrites the entries for the given robots and locations plus the
// global queue depth. Failures are logged; the mirror is advisory.
func (m *Manager) Refresh(st *swarm.State, robots []swarm.RobotID, locations []swarm.LocationID) {
	if m.cache == nil {
		return
	}
	ctx := context.Background()
	for _, id := range robots {
		r, ok := st.Robots[id]
		if !ok {
			continue
		}
		if err := m.cache.SetRobot(ctx, robotEntry(st, r)); err != nil {
			log.Printf("statecache: refresh robot %d: %v", id, err)
		}
	}
	for _, id := range locations {
		l, ok := st.Locations[id]
		if !ok {
			continue
		}
		if err := m.cache.SetLocation(ctx, locationEntry(l)); err != nil {
			log.Printf("statecache: refresh location %d: %v", id, err)
		}
	}
	if err := m.cache.SetGlobalDepth(ctx, st.Global.Len()); err != nil {
		log.Printf("statecache: refresh global depth: %v", err)
	}
}

// Robot reads a robot from the cache, falling back to the snapshot.
func (m *Manager) Robot(id swarm.RobotID) (*RobotEntry, error) {
	if m.cache != nil {
		e, err := m.cache.GetRobot(context.Background(), id)
		if err == nil && e != nil {
			return e, nil
		}
	}
	st := m.source()
	r, err := st.Robot(id)
	if err != nil {
		return nil, err
	}
	return robotEntry(st, r), nil
}

// Location reads a location from the cache, falling back to the snapshot.
func (m *Manager) Location(id swarm.LocationID) (*LocationEntry, error) {
	if m.cache != nil {
		e, err := m.cache.GetLocation(context.Background(), id)
		if err == nil && e != nil {
			return e, nil
		}
	}
	l, err := m.source().Location(id)
	if err != nil {
		return nil, err
	}
	return locationEntry(l), nil
}

// Robots returns every robot, preferring the cache.
func (m *Manager) Robots() ([]*RobotEntry, error) {
	st := m.source()
	ids := st.RobotIDs()
	if m.cache != nil {
		if cached, err := m.cache.RobotIDs(context.Background()); err == nil && len(cached) == len(ids) {
			ids = cached
			slices.Sort(ids)
		}
	}
	out := make([]*RobotEntry, 0, len(ids))
	for _, id := range ids {
		e, err := m.Robot(id)
		if err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// GlobalDepth is the number of commands waiting in the global inbox.
func (m *Manager) GlobalDepth() int {
	if m.cache != nil {
		if n, err := m.cache.GetGlobalDepth(context.Background()); err == nil {
			return n
		}
	}
	return m.source().Global.Len()
}
