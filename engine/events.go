package engine

import (
	"swarmcore/dispatch"
	"swarmcore/swarm"
)

const (
	EventRobotRegistered EventType = iota + 1
	EventLocationRegistered
	EventCommandEnqueued
	EventCommandPulled
	EventRobotMoved
	EventRobotTaskStarted
	EventRobotTaskCompleted
	EventRobotStatusUpdated
	EventRobotError
	EventTaskOffered
	EventLocationStatusChanged
	EventTickAdvanced
	EventMessagingConnected
	EventMessagingDisconnected
)

var eventNames = map[EventType]string{
	EventRobotRegistered:       "robot-registered",
	EventLocationRegistered:    "location-registered",
	EventCommandEnqueued:       "command-enqueued",
	EventCommandPulled:         "command-pulled",
	EventRobotMoved:            "robot-moved",
	EventRobotTaskStarted:      "robot-task-started",
	EventRobotTaskCompleted:    "robot-task-completed",
	EventRobotStatusUpdated:    "robot-status-updated",
	EventRobotError:            "robot-error",
	EventTaskOffered:           "task-offered",
	EventLocationStatusChanged: "location-status-changed",
	EventTickAdvanced:          "tick-advanced",
	EventMessagingConnected:    "messaging-connected",
	EventMessagingDisconnected: "messaging-disconnected",
}

// Name is the SSE event name for t.
func (t EventType) Name() string {
	if n, ok := eventNames[t]; ok {
		return n
	}
	return "unknown"
}

var noteEvents = map[dispatch.NotificationKind]EventType{
	dispatch.NoteRobotRegistered:       EventRobotRegistered,
	dispatch.NoteLocationRegistered:    EventLocationRegistered,
	dispatch.NoteCommandEnqueued:       EventCommandEnqueued,
	dispatch.NoteCommandPulled:         EventCommandPulled,
	dispatch.NoteRobotMoved:            EventRobotMoved,
	dispatch.NoteRobotTaskStarted:      EventRobotTaskStarted,
	dispatch.NoteRobotTaskCompleted:    EventRobotTaskCompleted,
	dispatch.NoteRobotStatusUpdated:    EventRobotStatusUpdated,
	dispatch.NoteRobotError:            EventRobotError,
	dispatch.NoteTaskOffered:           EventTaskOffered,
	dispatch.NoteLocationStatusChanged: EventLocationStatusChanged,
}

// --- Event payloads ---

// NotificationEvent carries one committed notification together with the
// operation that produced it and its position in that operation's batch.
type NotificationEvent struct {
	Op           string
	Seq          int
	Notification dispatch.Notification
}

// TickEvent is emitted after the tick has advanced. It is internal and
// never leaves the process.
type TickEvent struct {
	Tick uint64
}

type ConnectionEvent struct {
	Detail string
}

// notificationEvent wraps n for the bus.
func notificationEvent(op string, seq int, n dispatch.Notification) Event {
	return Event{Type: noteEvents[n.Kind], Payload: NotificationEvent{Op: op, Seq: seq, Notification: n}}
}

// touched lists the robots and locations whose mirrored entries a batch of
// notifications changes.
func touched(notes []dispatch.Notification) ([]swarm.RobotID, []swarm.LocationID) {
	var robots []swarm.RobotID
	var locations []swarm.LocationID
	addLoc := func(l *swarm.LocationID) {
		if l != nil {
			locations = append(locations, *l)
		}
	}
	for _, n := range notes {
		if n.Robot != nil {
			robots = append(robots, *n.Robot)
		}
		addLoc(n.Location)
		addLoc(n.From)
		addLoc(n.To)
	}
	return robots, locations
}
