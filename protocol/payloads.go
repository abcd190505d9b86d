package protocol

import (
	"swarmcore/dispatch"
	"swarmcore/swarm"
)

// --- Controller -> Core payloads ---

type RobotRegister struct {
	RobotID swarm.RobotID `json:"robot_id"`
}

type LocationRegister struct {
	LocationID   swarm.LocationID `json:"location_id"`
	X            uint32           `json:"x"`
	Y            uint32           `json:"y"`
	TaskCapacity int              `json:"task_capacity,omitempty"`
}

// CommandEnqueue queues a command. A nil RobotID targets the global inbox.
type CommandEnqueue struct {
	RobotID *swarm.RobotID `json:"robot_id,omitempty"`
	Command swarm.Command  `json:"command"`
}

type AssignGlobal struct {
	RobotID swarm.RobotID `json:"robot_id"`
}

type CommandPull struct {
	RobotID swarm.RobotID `json:"robot_id"`
}

type CommandComplete struct {
	RobotID swarm.RobotID `json:"robot_id"`
	Success bool          `json:"success"`
}

type TaskOffer struct {
	LocationID swarm.LocationID     `json:"location_id"`
	Task       swarm.TaskDefinition `json:"task"`
}

// LocationStatus switches a location between available and under_maintenance.
type LocationStatus struct {
	LocationID swarm.LocationID    `json:"location_id"`
	Status     swarm.OccupancyKind `json:"status"`
}

// --- Core -> Controller payloads ---

// CommandAssigned answers a pull with the command the robot must execute.
type CommandAssigned struct {
	RobotID    swarm.RobotID     `json:"robot_id"`
	Command    swarm.Command     `json:"command"`
	Coordinate *swarm.Coordinate `json:"coordinate,omitempty"`
}

type OpAck struct {
	Op string `json:"op"`
}

// OpError reports a rejected operation. Code is one of the stable error
// codes of the swarm package.
type OpError struct {
	Op     string `json:"op"`
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

// Notification carries one committed state change.
type Notification = dispatch.Notification
