package engine

import (
	"slices"
	"sync"
	"time"
)

type EventType int

type SubscriberID int

type Event struct {
	Type      EventType
	Timestamp time.Time
	Payload   any
}

type subscriber struct {
	id    SubscriberID
	fn    func(Event)
	types []EventType // nil: every type
}

func (s subscriber) wants(t EventType) bool {
	return s.types == nil || slices.Contains(s.types, t)
}

// EventBus delivers engine events synchronously, in subscription order.
// Commits emit while holding the engine lock, so handlers must not call
// back into the engine.
type EventBus struct {
	mu     sync.RWMutex
	subs   []subscriber
	lastID SubscriberID
}

func NewEventBus() *EventBus {
	return &EventBus{}
}

func (eb *EventBus) Subscribe(fn func(Event)) SubscriberID {
	return eb.add(subscriber{fn: fn})
}

// SubscribeTypes registers fn for the listed types only.
func (eb *EventBus) SubscribeTypes(fn func(Event), types ...EventType) SubscriberID {
	return eb.add(subscriber{fn: fn, types: append([]EventType{}, types...)})
}

func (eb *EventBus) add(s subscriber) SubscriberID {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.lastID++
	s.id = eb.lastID
	eb.subs = append(eb.subs, s)
	return s.id
}

func (eb *EventBus) Unsubscribe(id SubscriberID) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.subs = slices.DeleteFunc(eb.subs, func(s subscriber) bool { return s.id == id })
}

func (eb *EventBus) Emit(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	eb.mu.RLock()
	subs := slices.Clone(eb.subs)
	eb.mu.RUnlock()

	for _, s := range subs {
		if s.wants(evt.Type) {
			s.fn(evt)
		}
	}
}
