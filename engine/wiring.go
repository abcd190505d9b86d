package engine

import (
	"encoding/json"

	"swarmcore/dispatch"
	"swarmcore/protocol"
	"swarmcore/store"
)

func (e *Engine) wireEventHandlers() {
	// Robot errors are always worth a log line
	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(NotificationEvent)
		e.logFn("engine: robot %d error: %s", *ev.Notification.Robot, ev.Notification.Details)
	}, EventRobotError)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(ConnectionEvent)
		e.logFn("engine: %s", ev.Detail)
	}, EventMessagingConnected, EventMessagingDisconnected)

	if e.debug {
		e.Events.Subscribe(func(evt Event) {
			if ev, ok := evt.Payload.(NotificationEvent); ok {
				e.logFn("engine: [%s#%d] %s", ev.Op, ev.Seq, ev.Notification.Kind)
			}
		})
	}
}

// auditEntries turns a batch of notifications into audit rows, keyed to
// the robot or location each one is about.
func auditEntries(actor string, notes []dispatch.Notification) []*store.AuditEntry {
	out := make([]*store.AuditEntry, 0, len(notes))
	for _, n := range notes {
		entry := &store.AuditEntry{
			EntityType: "swarm",
			Action:     string(n.Kind),
			Actor:      actor,
		}
		switch {
		case n.Robot != nil:
			entry.EntityType = "robot"
			entry.EntityID = int64(*n.Robot)
		case n.Location != nil:
			entry.EntityType = "location"
			entry.EntityID = int64(*n.Location)
		}
		if data, err := json.Marshal(n); err == nil {
			entry.NewValue = string(data)
		}
		out = append(out, entry)
	}
	return out
}

// outboxMessages wraps each notification in a protocol envelope addressed
// to every controller. Nothing is queued when messaging is disabled.
func (e *Engine) outboxMessages(notes []dispatch.Notification) []*store.OutboxMessage {
	if e.cfg.Messaging.Backend == "" || len(notes) == 0 {
		return nil
	}
	dst := protocol.Address{Role: protocol.RoleController, Station: "*"}
	out := make([]*store.OutboxMessage, 0, len(notes))
	for i := range notes {
		env, err := protocol.NewEnvelope(protocol.TypeNotification, e.coreAddr, dst, &notes[i])
		if err != nil {
			e.logFn("engine: build notification envelope: %v", err)
			continue
		}
		data, err := env.Encode()
		if err != nil {
			e.logFn("engine: encode notification envelope: %v", err)
			continue
		}
		out = append(out, &store.OutboxMessage{
			Topic:     e.cfg.Messaging.NotifyTopic,
			Payload:   data,
			MsgType:   protocol.TypeNotification,
			StationID: e.coreAddr.Station,
		})
	}
	return out
}
