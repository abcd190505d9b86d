package engine

import (
	"fmt"
	"log"
	"sync"
	"time"

	"swarmcore/config"
	"swarmcore/dispatch"
	"swarmcore/protocol"
	"swarmcore/statecache"
	"swarmcore/store"
	"swarmcore/swarm"
)

type LogFunc func(format string, args ...any)

// Connectivity is the slice of the messaging client the engine watches.
type Connectivity interface {
	IsConnected() bool
}

type Config struct {
	AppConfig *config.Config
	DB        *store.DB
	Cache     statecache.Cache // nil disables the mirror
	MsgClient Connectivity     // nil when messaging is disabled
	LogFunc   LogFunc
	Debug     bool
}

// Engine is the single sequencer of swarm operations. Every operation runs
// under one mutex: it computes the next state with the dispatcher,
// persists it with its audit rows and outbound messages in one
// transaction, and only then swaps it in and emits its notifications.
type Engine struct {
	mu sync.Mutex

	cfg        *config.Config
	db         *store.DB
	dispatcher *dispatch.Dispatcher
	state      *swarm.State
	cache      *statecache.Manager
	msgClient  Connectivity
	Events     *EventBus
	logFn      LogFunc
	debug      bool

	coreAddr     protocol.Address
	stopChan     chan struct{}
	stopOnce     sync.Once
	msgConnected bool
}

func New(c Config) (*Engine, error) {
	mode, err := dispatch.ParseQueueMode(c.AppConfig.Swarm.QueueMode)
	if err != nil {
		return nil, err
	}
	logFn := c.LogFunc
	if logFn == nil {
		logFn = log.Printf
	}
	e := &Engine{
		cfg:        c.AppConfig,
		db:         c.DB,
		dispatcher: dispatch.NewDispatcher(mode),
		state:      swarm.NewState(c.AppConfig.Limits()),
		msgClient:  c.MsgClient,
		Events:     NewEventBus(),
		logFn:      logFn,
		debug:      c.Debug || c.AppConfig.Swarm.Debug,
		coreAddr:   protocol.Address{Role: protocol.RoleCore, Station: c.AppConfig.Messaging.StationID},
		stopChan:   make(chan struct{}),
	}
	e.cache = statecache.NewManager(c.Cache, e.committed)
	return e, nil
}

// Start restores the committed swarm from the database, rebuilds the
// cache and wires event handlers. A stored swarm that violates its
// invariants or no longer fits the configured limits is refused.
func (e *Engine) Start() error {
	st, err := e.db.LoadSnapshot(e.cfg.Limits())
	if err != nil {
		return fmt.Errorf("restore swarm: %w", err)
	}
	e.mu.Lock()
	e.state = st
	e.mu.Unlock()

	if err := e.cache.Sync(st); err != nil {
		e.logFn("engine: cache sync: %v", err)
	}
	e.wireEventHandlers()

	if e.msgClient != nil {
		e.checkConnectionStatus()
		go e.connectionHealthLoop()
	}
	e.logFn("engine: started (%d robots, %d locations, tick %d, queue mode %s)",
		len(st.Robots), len(st.Locations), st.Tick, e.dispatcher.Mode())
	return nil
}

func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.stopChan) })
	e.logFn("engine: stopped")
}

// Accessors
func (e *Engine) DB() *store.DB                    { return e.db }
func (e *Engine) AppConfig() *config.Config        { return e.cfg }
func (e *Engine) Dispatcher() *dispatch.Dispatcher { return e.dispatcher }
func (e *Engine) Cache() *statecache.Manager       { return e.cache }

// MessagingConnected reports false when messaging is disabled.
func (e *Engine) MessagingConnected() bool {
	return e.msgClient != nil && e.msgClient.IsConnected()
}

// committed returns the current committed state. Callers must not mutate it.
func (e *Engine) committed() *swarm.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// commit runs one transition under the sequencer lock. Nothing is
// persisted, swapped or emitted unless the transition and the database
// write both succeed.
func (e *Engine) commit(op, actor string, apply func(*swarm.State) (dispatch.Result, error)) (dispatch.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	res, err := apply(e.state)
	if err != nil {
		if e.debug {
			e.logFn("engine: %s rejected: %v", op, err)
		}
		return dispatch.Result{}, err
	}
	if e.debug {
		if err := res.State.Check(); err != nil {
			e.logFn("engine: %s would break invariants: %v", op, err)
			return dispatch.Result{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	c := &store.Commit{
		Audit:  auditEntries(actor, res.Notifications),
		Outbox: e.outboxMessages(res.Notifications),
	}
	if op == OpAdvanceTick {
		tick := res.State.Tick
		c.Tick = &tick
	} else {
		c.State = res.State
	}
	if err := e.db.Apply(c); err != nil {
		e.logFn("engine: %s persist: %v", op, err)
		return dispatch.Result{}, fmt.Errorf("%s: persist: %w", op, err)
	}
	e.state = res.State

	robots, locations := touched(res.Notifications)
	e.cache.Refresh(res.State, robots, locations)
	for i, n := range res.Notifications {
		e.Events.Emit(notificationEvent(op, i, n))
	}
	if e.debug {
		e.logFn("engine: %s committed (%d notifications)", op, len(res.Notifications))
	}
	return res, nil
}

func (e *Engine) checkConnectionStatus() {
	if e.msgClient.IsConnected() {
		if !e.msgConnected {
			e.msgConnected = true
			e.Events.Emit(Event{Type: EventMessagingConnected, Payload: ConnectionEvent{Detail: "messaging connected"}})
		}
	} else if e.msgConnected {
		e.msgConnected = false
		e.Events.Emit(Event{Type: EventMessagingDisconnected, Payload: ConnectionEvent{Detail: "messaging disconnected"}})
	}
}

func (e *Engine) connectionHealthLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-e.stopChan:
			return
		case <-ticker.C:
			e.checkConnectionStatus()
		}
	}
}
