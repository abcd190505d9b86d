package swarm

import (
	"errors"
	"fmt"
)

// Check verifies the referential, occupancy, capacity and status invariants
// of s. All violations are joined into one error wrapping ErrInvariant.
func (s *State) Check() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvariant}, args...)...))
	}
	checkQueued := func(name string, q *Queue) {
		if q.Len() > q.Cap() {
			fail("%s queue holds %d commands, capacity %d", name, q.Len(), q.Cap())
		}
		for _, c := range q.items {
			if c.Kind == CommandGoToLocation && !s.IsLocationRegistered(c.Location) {
				fail("%s queue targets unknown location %d", name, c.Location)
			}
		}
	}

	active := 0
	for id, r := range s.Robots {
		if r.ID != id {
			fail("robot %d stored under id %d", r.ID, id)
		}
		if r.Status.Active() {
			active++
		}
		if _, ok := s.Queues[id]; !ok {
			fail("robot %d has no queue", id)
		}
		if r.CurrentLocation != nil {
			l, ok := s.Locations[*r.CurrentLocation]
			if !ok {
				fail("robot %d at unknown location %d", id, *r.CurrentLocation)
			} else if l.Occupancy != Occupied(id) {
				fail("robot %d at location %d which is %s", id, l.ID, l.Occupancy.Kind)
			}
		}
		switch r.Status.Kind {
		case StatusMoving:
			if !s.IsLocationRegistered(r.Status.Target) {
				fail("robot %d moving to unknown location %d", id, r.Status.Target)
			}
		case StatusPerformingTask:
			if r.CurrentLocation == nil {
				fail("robot %d performing a task with no location", id)
			}
		case StatusIdle, StatusWaitingForCommand, StatusError:
		default:
			fail("robot %d has unknown status %q", id, r.Status.Kind)
		}
	}
	if active != s.ActiveRobots {
		fail("active robot count %d, expected %d", s.ActiveRobots, active)
	}

	for id, q := range s.Queues {
		if !s.IsRobotRegistered(id) {
			fail("queue for unknown robot %d", id)
		}
		checkQueued(fmt.Sprintf("robot %d", id), q)
	}
	if s.Global != nil {
		checkQueued("global", s.Global)
	}

	for id, l := range s.Locations {
		if l.ID != id {
			fail("location %d stored under id %d", l.ID, id)
		}
		if len(l.TasksAvailable) > l.TaskCapacity {
			fail("location %d offers %d tasks, capacity %d", id, len(l.TasksAvailable), l.TaskCapacity)
		}
		if !l.Occupancy.IsOccupied() {
			continue
		}
		r, ok := s.Robots[l.Occupancy.Robot]
		if !ok {
			fail("location %d occupied by unknown robot %d", id, l.Occupancy.Robot)
			continue
		}
		if r.CurrentLocation == nil || *r.CurrentLocation != id {
			fail("location %d occupied by robot %d which is elsewhere", id, r.ID)
		}
	}
	return errors.Join(errs...)
}
