package dispatch

import (
	"fmt"

	"swarmcore/swarm"
)

// QueueMode selects which queue pull_next draws from.
type QueueMode string

const (
	// QueuePerRobot draws from the calling robot's own queue. The global
	// inbox is moved into robot queues with AssignGlobal.
	QueuePerRobot QueueMode = "per_robot"
	// QueueGlobal draws from the single shared queue regardless of caller.
	QueueGlobal QueueMode = "global"
)

// ParseQueueMode accepts the config spelling of a queue mode. Empty means
// per-robot.
func ParseQueueMode(s string) (QueueMode, error) {
	switch QueueMode(s) {
	case "", QueuePerRobot:
		return QueuePerRobot, nil
	case QueueGlobal:
		return QueueGlobal, nil
	default:
		return "", fmt.Errorf("unknown queue mode %q", s)
	}
}

// NotificationKind names a committed state change.
type NotificationKind string

const (
	NoteRobotRegistered       NotificationKind = "robot_registered"
	NoteLocationRegistered    NotificationKind = "location_registered"
	NoteCommandEnqueued       NotificationKind = "command_enqueued"
	NoteCommandPulled         NotificationKind = "command_pulled"
	NoteRobotMoved            NotificationKind = "robot_moved"
	NoteRobotTaskStarted      NotificationKind = "robot_task_started"
	NoteRobotTaskCompleted    NotificationKind = "robot_task_completed"
	NoteRobotStatusUpdated    NotificationKind = "robot_status_updated"
	NoteRobotError            NotificationKind = "robot_error"
	NoteTaskOffered           NotificationKind = "task_offered"
	NoteLocationStatusChanged NotificationKind = "location_status_changed"
)

// Notification describes one committed state change. Only the fields
// relevant to Kind are set.
type Notification struct {
	Kind       NotificationKind      `json:"kind"`
	Robot      *swarm.RobotID        `json:"robot,omitempty"`
	Location   *swarm.LocationID     `json:"location,omitempty"`
	Command    *swarm.Command        `json:"command,omitempty"`
	Coordinate *swarm.Coordinate     `json:"coordinate,omitempty"`
	From       *swarm.LocationID     `json:"from,omitempty"`
	To         *swarm.LocationID     `json:"to,omitempty"`
	Task       swarm.TaskDefinition  `json:"task,omitempty"`
	Success    *bool                 `json:"success,omitempty"`
	Status     *swarm.RobotStatus    `json:"status,omitempty"`
	Occupancy  *swarm.LocationStatus `json:"occupancy,omitempty"`
	// Queue is "global" or "robot" for CommandEnqueued.
	Queue   string `json:"queue,omitempty"`
	Details string `json:"details,omitempty"`
}

// Result is the outcome of a committed transition: the new state and the
// notifications in the order the changes happened.
type Result struct {
	State         *swarm.State
	Notifications []Notification
}

// PullResult adds the pulled command and, for moves, the target coordinate.
type PullResult struct {
	Result
	Command    swarm.Command
	Coordinate *swarm.Coordinate
}

func robotRef(id swarm.RobotID) *swarm.RobotID { return &id }
func locationRef(id swarm.LocationID) *swarm.LocationID { return &id }
func commandRef(c swarm.Command) *swarm.Command { return &c }
func statusRef(s swarm.RobotStatus) *swarm.RobotStatus { return &s }
func boolRef(b bool) *bool { return &b }
