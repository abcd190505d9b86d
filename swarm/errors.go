package swarm

import "errors"

// Identity errors. Checked before anything else.
var (
	ErrInvalidRobotID    = errors.New("invalid robot id")
	ErrInvalidLocationID = errors.New("invalid location id")
	ErrAlreadyRegistered = errors.New("already registered")
	ErrInvalidCommand    = errors.New("invalid command")
)

// Capacity errors. The bounded container is left at capacity.
var (
	ErrQueueFull    = errors.New("queue full")
	ErrCapacityFull = errors.New("capacity full")
)

// ErrQueueEmpty is returned when there is nothing to pull. It is the expected
// steady state of an idle swarm.
var ErrQueueEmpty = errors.New("queue empty")

// Consistency errors. The operation is rejected and state is unchanged.
var (
	ErrOccupancyConflict = errors.New("occupancy conflict")
	ErrTaskNotAvailable  = errors.New("task not available")
	ErrNotInFlight       = errors.New("no command in flight")
	ErrWrongQueueMode    = errors.New("not available in this queue mode")
)

// ErrInvariant marks a broken invariant. Reaching it is a bug.
var ErrInvariant = errors.New("invariant violated")

// Code returns a stable, wire-friendly name for a core error, or "internal"
// for anything else.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRobotID):
		return "invalid_robot_id"
	case errors.Is(err, ErrInvalidLocationID):
		return "invalid_location_id"
	case errors.Is(err, ErrAlreadyRegistered):
		return "already_registered"
	case errors.Is(err, ErrInvalidCommand):
		return "invalid_command"
	case errors.Is(err, ErrQueueFull):
		return "queue_full"
	case errors.Is(err, ErrCapacityFull):
		return "capacity_full"
	case errors.Is(err, ErrQueueEmpty):
		return "queue_empty"
	case errors.Is(err, ErrOccupancyConflict):
		return "occupancy_conflict"
	case errors.Is(err, ErrTaskNotAvailable):
		return "task_not_available"
	case errors.Is(err, ErrNotInFlight):
		return "not_in_flight"
	case errors.Is(err, ErrWrongQueueMode):
		return "wrong_queue_mode"
	case errors.Is(err, ErrInvariant):
		return "invariant_violated"
	default:
		return "internal"
	}
}
