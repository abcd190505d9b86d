package swarm

import (
	"fmt"
	"slices"
)

// Occupy marks loc as held by robot. It fails with ErrOccupancyConflict if
// another robot holds loc or loc is under maintenance. Re-occupying by the
// same robot is a no-op.
func (s *State) Occupy(loc LocationID, robot RobotID) error {
	l, err := s.Location(loc)
	if err != nil {
		return err
	}
	switch l.Occupancy.Kind {
	case OccupancyOccupied:
		if l.Occupancy.Robot != robot {
			return fmt.Errorf("%w: location %d held by robot %d", ErrOccupancyConflict, loc, l.Occupancy.Robot)
		}
		return nil
	case OccupancyUnderMaintenance:
		return fmt.Errorf("%w: location %d under maintenance", ErrOccupancyConflict, loc)
	}
	l.Occupancy = Occupied(robot)
	return nil
}

// Vacate marks loc available if it is occupied. Locations under maintenance
// stay under maintenance.
func (s *State) Vacate(loc LocationID) error {
	l, err := s.Location(loc)
	if err != nil {
		return err
	}
	if l.Occupancy.IsOccupied() {
		l.Occupancy = Available()
	}
	return nil
}

// SetLocationStatus switches a location between Available and
// UnderMaintenance. Occupancy is only ever set through Occupy, and an
// occupied location cannot be switched.
func (s *State) SetLocationStatus(loc LocationID, status LocationStatus) error {
	l, err := s.Location(loc)
	if err != nil {
		return err
	}
	if status.Kind == OccupancyOccupied {
		return fmt.Errorf("%w: occupancy is set by robot movement", ErrInvalidCommand)
	}
	if status.Kind != OccupancyAvailable && status.Kind != OccupancyUnderMaintenance {
		return fmt.Errorf("%w: unknown location status %q", ErrInvalidCommand, status.Kind)
	}
	if l.Occupancy.IsOccupied() {
		return fmt.Errorf("%w: location %d held by robot %d", ErrOccupancyConflict, loc, l.Occupancy.Robot)
	}
	l.Occupancy = LocationStatus{Kind: status.Kind}
	return nil
}

// OfferTask appends task to the location's bounded task list.
func (s *State) OfferTask(loc LocationID, task TaskDefinition) error {
	l, err := s.Location(loc)
	if err != nil {
		return err
	}
	if len(l.TasksAvailable) >= l.TaskCapacity {
		return fmt.Errorf("%w: location %d offers %d/%d tasks", ErrCapacityFull, loc, len(l.TasksAvailable), l.TaskCapacity)
	}
	l.TasksAvailable = append(l.TasksAvailable, task)
	return nil
}

// ClaimTask removes the first entry equal to task from the location's list.
func (s *State) ClaimTask(loc LocationID, task TaskDefinition) error {
	l, err := s.Location(loc)
	if err != nil {
		return err
	}
	i := slices.Index(l.TasksAvailable, task)
	if i < 0 {
		return fmt.Errorf("%w: %q at location %d", ErrTaskNotAvailable, task, loc)
	}
	l.TasksAvailable = slices.Delete(l.TasksAvailable, i, i+1)
	if len(l.TasksAvailable) == 0 {
		l.TasksAvailable = nil
	}
	return nil
}
