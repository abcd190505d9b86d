package swarm

import "fmt"

// Completion describes what a completion report changed.
type Completion struct {
	Robot   RobotID
	Prior   RobotStatus
	Success bool
	// From and To are set when a move committed.
	From  *LocationID
	To    *LocationID
	Moved bool
}

// SetStatus replaces the robot's status, keeping ActiveRobots in step.
func (s *State) SetStatus(r *RobotState, status RobotStatus) {
	if r.Status.Active() && !status.Active() {
		s.ActiveRobots--
	} else if !r.Status.Active() && status.Active() {
		s.ActiveRobots++
	}
	r.Status = status
}

// Assign applies the pull transition for cmd to the robot:
//
//	GoToLocation(L)   -> Moving{L}; current location unchanged until completion
//	PerformTask(T)    -> PerformingTask{T}; claims T at the current location
//	Halt              -> Idle
//	WaitForCommand    -> WaitingForCommand
//
// The assignment tick is recorded for the watchdog.
func (s *State) Assign(id RobotID, cmd Command) error {
	r, err := s.Robot(id)
	if err != nil {
		return err
	}
	var next RobotStatus
	switch cmd.Kind {
	case CommandGoToLocation:
		if !s.IsLocationRegistered(cmd.Location) {
			return fmt.Errorf("%w: %d", ErrInvalidLocationID, cmd.Location)
		}
		next = Moving(cmd.Location)
	case CommandPerformTask:
		if r.CurrentLocation == nil {
			return fmt.Errorf("%w: robot %d has no location", ErrTaskNotAvailable, id)
		}
		if err := s.ClaimTask(*r.CurrentLocation, cmd.Task); err != nil {
			return err
		}
		next = PerformingTask(cmd.Task)
	case CommandHalt:
		next = Idle()
	case CommandWaitForCommand:
		next = WaitingForCommand()
	default:
		return fmt.Errorf("%w: %s", ErrInvalidCommand, cmd.Kind)
	}
	s.SetStatus(r, next)
	r.AssignedTick = s.Tick
	return nil
}

// Complete applies a completion report to the robot's in-flight command.
// A successful move vacates the previous location and occupies the target;
// an occupancy conflict is returned as-is and the caller must discard the
// state it was applied to.
func (s *State) Complete(id RobotID, success bool) (Completion, error) {
	r, err := s.Robot(id)
	if err != nil {
		return Completion{}, err
	}
	c := Completion{Robot: id, Prior: r.Status, Success: success}
	switch r.Status.Kind {
	case StatusMoving:
		if !success {
			s.SetStatus(r, Errored())
			return c, nil
		}
		target := r.Status.Target
		if err := s.Occupy(target, id); err != nil {
			return Completion{}, err
		}
		prev := r.CurrentLocation
		if prev != nil && *prev != target {
			if err := s.Vacate(*prev); err != nil {
				return Completion{}, err
			}
		}
		if prev != nil {
			from := *prev
			c.From = &from
		}
		to := target
		c.To = &to
		c.Moved = prev == nil || *prev != target
		r.CurrentLocation = &to
		s.SetStatus(r, Idle())
		return c, nil
	case StatusPerformingTask:
		s.SetStatus(r, Idle())
		return c, nil
	default:
		return Completion{}, fmt.Errorf("%w: robot %d is %s", ErrNotInFlight, id, r.Status)
	}
}

// Expire marks an in-flight robot as errored. It is the hook an external
// scheduler uses once an assignment has been outstanding for too long.
func (s *State) Expire(id RobotID) (RobotStatus, error) {
	r, err := s.Robot(id)
	if err != nil {
		return RobotStatus{}, err
	}
	if !r.Status.InFlight() {
		return RobotStatus{}, fmt.Errorf("%w: robot %d is %s", ErrNotInFlight, id, r.Status)
	}
	prior := r.Status
	s.SetStatus(r, Errored())
	return prior, nil
}
