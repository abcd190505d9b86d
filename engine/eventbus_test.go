package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventBusFilteringAndOrder(t *testing.T) {
	eb := NewEventBus()
	var all, ticks []EventType
	eb.Subscribe(func(evt Event) { all = append(all, evt.Type) })
	eb.SubscribeTypes(func(evt Event) { ticks = append(ticks, evt.Type) }, EventTickAdvanced)

	eb.Emit(Event{Type: EventRobotRegistered})
	eb.Emit(Event{Type: EventTickAdvanced})
	eb.Emit(Event{Type: EventRobotError})

	assert.Equal(t, []EventType{EventRobotRegistered, EventTickAdvanced, EventRobotError}, all)
	assert.Equal(t, []EventType{EventTickAdvanced}, ticks)
}

func TestEventBusUnsubscribe(t *testing.T) {
	eb := NewEventBus()
	n := 0
	id := eb.Subscribe(func(Event) { n++ })
	eb.Emit(Event{Type: EventRobotMoved})
	eb.Unsubscribe(id)
	eb.Emit(Event{Type: EventRobotMoved})
	assert.Equal(t, 1, n)
}

func TestEventBusStampsTimestamp(t *testing.T) {
	eb := NewEventBus()
	var got Event
	eb.Subscribe(func(evt Event) { got = evt })
	eb.Emit(Event{Type: EventTaskOffered})
	assert.False(t, got.Timestamp.IsZero())
}

func TestEventNames(t *testing.T) {
	assert.Equal(t, "robot-moved", EventRobotMoved.Name())
	assert.Equal(t, "unknown", EventType(999).Name())
	for kind, typ := range noteEvents {
		assert.NotEqual(t, "unknown", typ.Name(), "kind %s", kind)
	}
}
