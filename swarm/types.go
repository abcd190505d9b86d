package swarm

import "fmt"

// RobotID identifies a registered robot.
type RobotID uint32

// LocationID identifies a registered location.
type LocationID uint32

// TaskDefinition is an opaque task payload supplied by callers. Tasks are
// compared by value.
type TaskDefinition string

// Coordinate is the grid position of a location.
type Coordinate struct {
	X uint32 `json:"x"`
	Y uint32 `json:"y"`
}

func (c Coordinate) String() string { return fmt.Sprintf("(%d,%d)", c.X, c.Y) }

// CommandKind tags the Command variant.
type CommandKind string

const (
	CommandGoToLocation   CommandKind = "go_to_location"
	CommandPerformTask    CommandKind = "perform_task"
	CommandHalt           CommandKind = "halt"
	CommandWaitForCommand CommandKind = "wait_for_command"
)

// Command is a directive assignable to a robot. Only the field matching Kind
// is meaningful; constructors below keep the others zero so commands compare
// equal by value.
type Command struct {
	Kind     CommandKind    `json:"kind"`
	Location LocationID     `json:"location,omitempty"`
	Task     TaskDefinition `json:"task,omitempty"`
}

func GoToLocation(l LocationID) Command { return Command{Kind: CommandGoToLocation, Location: l} }
func PerformTask(t TaskDefinition) Command { return Command{Kind: CommandPerformTask, Task: t} }
func Halt() Command { return Command{Kind: CommandHalt} }
func WaitForCommand() Command { return Command{Kind: CommandWaitForCommand} }

// Valid reports whether the command is one of the known variants with its
// payload set.
func (c Command) Valid() bool {
	switch c.Kind {
	case CommandGoToLocation:
		return c.Task == ""
	case CommandPerformTask:
		return c.Task != "" && c.Location == 0
	case CommandHalt, CommandWaitForCommand:
		return c.Location == 0 && c.Task == ""
	default:
		return false
	}
}

func (c Command) String() string {
	switch c.Kind {
	case CommandGoToLocation:
		return fmt.Sprintf("GoToLocation(%d)", c.Location)
	case CommandPerformTask:
		return fmt.Sprintf("PerformTask(%s)", c.Task)
	case CommandHalt:
		return "Halt"
	case CommandWaitForCommand:
		return "WaitForCommand"
	default:
		return fmt.Sprintf("Command(%s)", c.Kind)
	}
}

// StatusKind tags the RobotStatus variant.
type StatusKind string

const (
	StatusIdle              StatusKind = "idle"
	StatusMoving            StatusKind = "moving"
	StatusPerformingTask    StatusKind = "performing_task"
	StatusWaitingForCommand StatusKind = "waiting_for_command"
	StatusError             StatusKind = "error"
)

// RobotStatus is the operational status of a robot. Target is set only for
// Moving, Task only for PerformingTask.
type RobotStatus struct {
	Kind   StatusKind     `json:"kind"`
	Target LocationID     `json:"target,omitempty"`
	Task   TaskDefinition `json:"task,omitempty"`
}

func Idle() RobotStatus { return RobotStatus{Kind: StatusIdle} }
func Moving(target LocationID) RobotStatus { return RobotStatus{Kind: StatusMoving, Target: target} }
func PerformingTask(task TaskDefinition) RobotStatus { return RobotStatus{Kind: StatusPerformingTask, Task: task} }
func WaitingForCommand() RobotStatus { return RobotStatus{Kind: StatusWaitingForCommand} }
func Errored() RobotStatus { return RobotStatus{Kind: StatusError} }

// InFlight reports whether the status represents an assigned command that
// has not been reported complete.
func (s RobotStatus) InFlight() bool {
	return s.Kind == StatusMoving || s.Kind == StatusPerformingTask
}

// Active reports whether a robot in this status counts towards the active
// robot count.
func (s RobotStatus) Active() bool { return s.Kind != StatusError }

func (s RobotStatus) String() string {
	switch s.Kind {
	case StatusMoving:
		return fmt.Sprintf("Moving{%d}", s.Target)
	case StatusPerformingTask:
		return fmt.Sprintf("PerformingTask{%s}", s.Task)
	default:
		return string(s.Kind)
	}
}

// OccupancyKind tags the LocationStatus variant.
type OccupancyKind string

const (
	OccupancyAvailable        OccupancyKind = "available"
	OccupancyOccupied         OccupancyKind = "occupied"
	OccupancyUnderMaintenance OccupancyKind = "under_maintenance"
)

// LocationStatus is the occupancy of a location. Robot is set only when
// Kind is OccupancyOccupied.
type LocationStatus struct {
	Kind  OccupancyKind `json:"kind"`
	Robot RobotID       `json:"robot,omitempty"`
}

func Available() LocationStatus { return LocationStatus{Kind: OccupancyAvailable} }
func Occupied(r RobotID) LocationStatus { return LocationStatus{Kind: OccupancyOccupied, Robot: r} }
func UnderMaintenance() LocationStatus { return LocationStatus{Kind: OccupancyUnderMaintenance} }
func (s LocationStatus) IsOccupied() bool { return s.Kind == OccupancyOccupied }

// ParseLocationStatus maps the externally settable occupancy kinds to a
// status. Occupied belongs to the ledger and is refused.
func ParseLocationStatus(kind OccupancyKind) (LocationStatus, error) {
	switch kind {
	case OccupancyAvailable:
		return Available(), nil
	case OccupancyUnderMaintenance:
		return UnderMaintenance(), nil
	default:
		return LocationStatus{}, fmt.Errorf("%w: location status %q", ErrInvalidCommand, kind)
	}
}

// RobotState is the per-robot record. It is created at registration and
// never removed.
type RobotState struct {
	ID              RobotID     `json:"id"`
	CurrentLocation *LocationID `json:"current_location,omitempty"`
	Status          RobotStatus `json:"status"`
	// AssignedTick is the tick at which the most recent command was pulled.
	AssignedTick uint64 `json:"assigned_tick"`
}

func (r *RobotState) clone() *RobotState {
	c := *r
	if r.CurrentLocation != nil {
		l := *r.CurrentLocation
		c.CurrentLocation = &l
	}
	return &c
}

// LocationInfo is the per-location record held by the occupancy ledger.
type LocationInfo struct {
	ID             LocationID       `json:"id"`
	Coordinate     Coordinate       `json:"coordinate"`
	Occupancy      LocationStatus   `json:"occupancy"`
	TaskCapacity   int              `json:"task_capacity"`
	TasksAvailable []TaskDefinition `json:"tasks_available"`
}

func (l *LocationInfo) clone() *LocationInfo {
	c := *l
	c.TasksAvailable = append([]TaskDefinition(nil), l.TasksAvailable...)
	return &c
}
