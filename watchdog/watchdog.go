package watchdog

import (
	"log"
	"sync"
	"time"

	"swarmcore/swarm"
)

// Clock is the part of the engine the watchdog drives.
type Clock interface {
	AdvanceTick() (uint64, error)
	ExpireStale(maxWait uint64) ([]swarm.RobotID, error)
}

// Watchdog is the external tick source. Every interval it advances the
// swarm tick by one and expires robots whose in-flight command has
// waited more than maxWait ticks.
type Watchdog struct {
	clock    Clock
	interval time.Duration
	maxWait  uint64

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func New(clock Clock, interval time.Duration, maxWait uint64) *Watchdog {
	if interval <= 0 {
		interval = time.Second
	}
	return &Watchdog{
		clock:    clock,
		interval: interval,
		maxWait:  maxWait,
		stopChan: make(chan struct{}),
	}
}

func (w *Watchdog) Start() {
	w.wg.Add(1)
	go w.run()
}

func (w *Watchdog) Stop() {
	w.stopOnce.Do(func() { close(w.stopChan) })
	w.wg.Wait()
}

func (w *Watchdog) run() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			w.step()
		}
	}
}

// step runs one watchdog pass.
func (w *Watchdog) step() {
	tick, err := w.clock.AdvanceTick()
	if err != nil {
		log.Printf("watchdog: advance tick: %v", err)
		return
	}
	expired, err := w.clock.ExpireStale(w.maxWait)
	if err != nil {
		log.Printf("watchdog: expire at tick %d: %v", tick, err)
		return
	}
	if len(expired) > 0 {
		log.Printf("watchdog: tick %d expired robots %v", tick, expired)
	}
}
