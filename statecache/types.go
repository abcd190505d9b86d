package statecache

import "swarmcore/swarm"

// RobotEntry is the cached view of one robot.
type RobotEntry struct {
	ID              swarm.RobotID     `json:"id"`
	CurrentLocation *swarm.LocationID `json:"current_location,omitempty"`
	Status          swarm.RobotStatus `json:"status"`
	AssignedTick    uint64            `json:"assigned_tick"`
	QueueDepth      int               `json:"queue_depth"`
}

// LocationEntry is the cached view of one location.
type LocationEntry struct {
	ID           swarm.LocationID       `json:"id"`
	Coordinate   swarm.Coordinate       `json:"coordinate"`
	Occupancy    swarm.LocationStatus   `json:"occupancy"`
	TaskCapacity int                    `json:"task_capacity"`
	Tasks        []swarm.TaskDefinition `json:"tasks,omitempty"`
}

func robotEntry(st *swarm.State, r *swarm.RobotState) *RobotEntry {
	e := &RobotEntry{
		ID:           r.ID,
		Status:       r.Status,
		AssignedTick: r.AssignedTick,
	}
	if r.CurrentLocation != nil {
		l := *r.CurrentLocation
		e.CurrentLocation = &l
	}
	if q := st.Queues[r.ID]; q != nil {
		e.QueueDepth = q.Len()
	}
	return e
}

func locationEntry(l *swarm.LocationInfo) *LocationEntry {
	return &LocationEntry{
		ID:           l.ID,
		Coordinate:   l.Coordinate,
		Occupancy:    l.Occupancy,
		TaskCapacity: l.TaskCapacity,
		Tasks:        append([]swarm.TaskDefinition(nil), l.TasksAvailable...),
	}
}
