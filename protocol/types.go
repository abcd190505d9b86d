package protocol

// Message type constants for the swarm protocol.
const (
	// Controller -> Core (published on the commands topic)
	TypeRobotRegister    = "robot.register"
	TypeLocationRegister = "location.register"
	TypeCommandEnqueue   = "command.enqueue"
	TypeAssignGlobal     = "command.assign_global"
	TypeCommandPull      = "command.pull"
	TypeCommandComplete  = "command.complete"
	TypeTaskOffer        = "task.offer"
	TypeLocationStatus   = "location.status"

	// Core -> Controller (published on the notify topic)
	TypeCommandAssigned = "command.assigned"
	TypeOpAck           = "op.ack"
	TypeOpError         = "op.error"
	TypeNotification    = "swarm.notification"
)

// Roles for Address.Role.
const (
	RoleController = "controller"
	RoleCore       = "core"
)

// Protocol version.
const Version = 1
