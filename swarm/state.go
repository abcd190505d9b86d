package swarm

import (
	"fmt"
	"sort"
)

// Limits are the fixed capacities of a swarm.
type Limits struct {
	MaxSwarmSize        int
	MaxLocations        int
	MaxCommandsPerRobot int
	MaxGlobalCommands   int
	MaxTasksPerLocation int
}

// DefaultLimits mirrors the capacities the swarm ships with.
func DefaultLimits() Limits {
	return Limits{
		MaxSwarmSize:        64,
		MaxLocations:        256,
		MaxCommandsPerRobot: 16,
		MaxGlobalCommands:   128,
		MaxTasksPerLocation: 8,
	}
}

// State is the committed snapshot of the swarm: registries, queues, robot
// states and the occupancy ledger. Mutating methods are meant to be called
// on a Clone; the dispatch package never mutates a committed State.
type State struct {
	Limits Limits

	Robots    map[RobotID]*RobotState
	Locations map[LocationID]*LocationInfo
	Queues    map[RobotID]*Queue
	Global    *Queue

	ActiveRobots int
	Tick         uint64
}

// NewState returns an empty swarm with the given limits.
func NewState(limits Limits) *State {
	return &State{
		Limits:    limits,
		Robots:    make(map[RobotID]*RobotState),
		Locations: make(map[LocationID]*LocationInfo),
		Queues:    make(map[RobotID]*Queue),
		Global:    NewQueue(limits.MaxGlobalCommands),
	}
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	c := &State{
		Limits:       s.Limits,
		Robots:       make(map[RobotID]*RobotState, len(s.Robots)),
		Locations:    make(map[LocationID]*LocationInfo, len(s.Locations)),
		Queues:       make(map[RobotID]*Queue, len(s.Queues)),
		Global:       s.Global.clone(),
		ActiveRobots: s.ActiveRobots,
		Tick:         s.Tick,
	}
	for id, r := range s.Robots {
		c.Robots[id] = r.clone()
	}
	for id, l := range s.Locations {
		c.Locations[id] = l.clone()
	}
	for id, q := range s.Queues {
		c.Queues[id] = q.clone()
	}
	return c
}

// --- Registries ---

// IsRobotRegistered is a pure membership check.
func (s *State) IsRobotRegistered(id RobotID) bool {
	_, ok := s.Robots[id]
	return ok
}

// IsLocationRegistered is a pure membership check.
func (s *State) IsLocationRegistered(id LocationID) bool {
	_, ok := s.Locations[id]
	return ok
}

// Robot returns the state of a registered robot.
func (s *State) Robot(id RobotID) (*RobotState, error) {
	r, ok := s.Robots[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRobotID, id)
	}
	return r, nil
}

// Location returns the ledger entry of a registered location.
func (s *State) Location(id LocationID) (*LocationInfo, error) {
	l, ok := s.Locations[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLocationID, id)
	}
	return l, nil
}

// Queue returns the per-robot queue of a registered robot.
func (s *State) Queue(id RobotID) (*Queue, error) {
	if _, err := s.Robot(id); err != nil {
		return nil, err
	}
	return s.Queues[id], nil
}

// AddRobot registers id with a default RobotState and an empty queue.
func (s *State) AddRobot(id RobotID) error {
	if s.IsRobotRegistered(id) {
		return fmt.Errorf("%w: robot %d", ErrAlreadyRegistered, id)
	}
	if len(s.Robots) >= s.Limits.MaxSwarmSize {
		return fmt.Errorf("%w: swarm at %d robots", ErrCapacityFull, s.Limits.MaxSwarmSize)
	}
	s.Robots[id] = &RobotState{ID: id, Status: Idle()}
	s.Queues[id] = NewQueue(s.Limits.MaxCommandsPerRobot)
	s.ActiveRobots++
	return nil
}

// AddLocation registers id at coord with an empty task list. A taskCapacity
// of zero or above the swarm limit is clamped to MaxTasksPerLocation.
func (s *State) AddLocation(id LocationID, coord Coordinate, taskCapacity int) error {
	if s.IsLocationRegistered(id) {
		return fmt.Errorf("%w: location %d", ErrAlreadyRegistered, id)
	}
	if len(s.Locations) >= s.Limits.MaxLocations {
		return fmt.Errorf("%w: %d locations registered", ErrCapacityFull, s.Limits.MaxLocations)
	}
	if taskCapacity <= 0 || taskCapacity > s.Limits.MaxTasksPerLocation {
		taskCapacity = s.Limits.MaxTasksPerLocation
	}
	s.Locations[id] = &LocationInfo{
		ID:           id,
		Coordinate:   coord,
		Occupancy:    Available(),
		TaskCapacity: taskCapacity,
	}
	return nil
}

// RobotIDs returns registered robot ids in ascending order.
func (s *State) RobotIDs() []RobotID {
	ids := make([]RobotID, 0, len(s.Robots))
	for id := range s.Robots {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// LocationIDs returns registered location ids in ascending order.
func (s *State) LocationIDs() []LocationID {
	ids := make([]LocationID, 0, len(s.Locations))
	for id := range s.Locations {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// RecountActive recomputes ActiveRobots from robot statuses. Used after a
// snapshot is rebuilt from storage.
func (s *State) RecountActive() {
	s.ActiveRobots = 0
	for _, r := range s.Robots {
		if r.Status.Active() {
			s.ActiveRobots++
		}
	}
}
