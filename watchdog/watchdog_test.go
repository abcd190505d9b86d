package watchdog

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"swarmcore/swarm"
)

type fakeClock struct {
	mu       sync.Mutex
	tick     uint64
	waits    []uint64
	tickErr  error
	inFlight map[swarm.RobotID]uint64 // robot -> assigned tick
}

func (c *fakeClock) AdvanceTick() (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tickErr != nil {
		return 0, c.tickErr
	}
	c.tick++
	return c.tick, nil
}

func (c *fakeClock) ExpireStale(maxWait uint64) ([]swarm.RobotID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.waits = append(c.waits, maxWait)
	var out []swarm.RobotID
	for id, at := range c.inFlight {
		if c.tick-at > maxWait {
			out = append(out, id)
			delete(c.inFlight, id)
		}
	}
	return out, nil
}

func (c *fakeClock) snapshot() (uint64, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tick, len(c.waits)
}

func TestStepAdvancesThenExpires(t *testing.T) {
	clock := &fakeClock{inFlight: map[swarm.RobotID]uint64{4: 0}}
	w := New(clock, time.Hour, 2)

	w.step()
	w.step()
	assert.Contains(t, clock.inFlight, swarm.RobotID(4))
	w.step()
	assert.NotContains(t, clock.inFlight, swarm.RobotID(4))
	assert.Equal(t, []uint64{2, 2, 2}, clock.waits)
}

func TestStepSkipsExpiryWhenTickFails(t *testing.T) {
	clock := &fakeClock{tickErr: errors.New("db down")}
	New(clock, time.Hour, 2).step()
	assert.Empty(t, clock.waits)
}

func TestRunLoopStops(t *testing.T) {
	clock := &fakeClock{}
	w := New(clock, 5*time.Millisecond, 10)
	w.Start()
	assert.Eventually(t, func() bool {
		tick, _ := clock.snapshot()
		return tick >= 3
	}, time.Second, 5*time.Millisecond)
	w.Stop()

	tick, passes := clock.snapshot()
	time.Sleep(20 * time.Millisecond)
	after, afterPasses := clock.snapshot()
	assert.Equal(t, tick, after)
	assert.Equal(t, passes, afterPasses)
	w.Stop()
}
