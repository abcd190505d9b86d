package engine

import (
	"errors"
	"fmt"

	"swarmcore/dispatch"
	"swarmcore/swarm"
)

// Op names recorded in audit rows and notification events.
const (
	OpRegisterRobot     = "register_robot"
	OpRegisterLocation  = "register_location"
	OpEnqueueGlobal     = "enqueue_global"
	OpEnqueueFor        = "enqueue_for"
	OpAssignGlobal      = "assign_global"
	OpPullNext          = "pull_next"
	OpReportCompletion  = "report_completion"
	OpOfferTask         = "offer_task"
	OpSetLocationStatus = "set_location_status"
	OpAdvanceTick       = "advance_tick"
	OpExpire            = "expire"
)

func (e *Engine) RegisterRobot(actor string, id swarm.RobotID) (dispatch.Result, error) {
	return e.commit(OpRegisterRobot, actor, func(st *swarm.State) (dispatch.Result, error) {
		return e.dispatcher.RegisterRobot(st, id)
	})
}

func (e *Engine) RegisterLocation(actor string, id swarm.LocationID, coord swarm.Coordinate, taskCapacity int) (dispatch.Result, error) {
	return e.commit(OpRegisterLocation, actor, func(st *swarm.State) (dispatch.Result, error) {
		return e.dispatcher.RegisterLocation(st, id, coord, taskCapacity)
	})
}

func (e *Engine) EnqueueGlobal(actor string, cmd swarm.Command) (dispatch.Result, error) {
	return e.commit(OpEnqueueGlobal, actor, func(st *swarm.State) (dispatch.Result, error) {
		return e.dispatcher.EnqueueGlobal(st, cmd)
	})
}

func (e *Engine) EnqueueFor(actor string, robot swarm.RobotID, cmd swarm.Command) (dispatch.Result, error) {
	return e.commit(OpEnqueueFor, actor, func(st *swarm.State) (dispatch.Result, error) {
		return e.dispatcher.EnqueueFor(st, robot, cmd)
	})
}

// AssignGlobal moves the head of the global inbox into robot's queue.
func (e *Engine) AssignGlobal(actor string, robot swarm.RobotID) (dispatch.Result, error) {
	return e.commit(OpAssignGlobal, actor, func(st *swarm.State) (dispatch.Result, error) {
		return e.dispatcher.AssignGlobal(st, robot)
	})
}

// PullNext hands robot its next command. ErrQueueEmpty means there is
// nothing to do and is not logged as a failure.
func (e *Engine) PullNext(actor string, robot swarm.RobotID) (dispatch.PullResult, error) {
	var pulled dispatch.PullResult
	_, err := e.commit(OpPullNext, actor, func(st *swarm.State) (dispatch.Result, error) {
		p, err := e.dispatcher.PullNext(st, robot)
		if err != nil {
			return dispatch.Result{}, err
		}
		pulled = p
		return p.Result, nil
	})
	if err != nil {
		return dispatch.PullResult{}, err
	}
	return pulled, nil
}

func (e *Engine) ReportCompletion(actor string, robot swarm.RobotID, success bool) (dispatch.Result, error) {
	return e.commit(OpReportCompletion, actor, func(st *swarm.State) (dispatch.Result, error) {
		return e.dispatcher.ReportCompletion(st, robot, success)
	})
}

func (e *Engine) OfferTask(actor string, loc swarm.LocationID, task swarm.TaskDefinition) (dispatch.Result, error) {
	return e.commit(OpOfferTask, actor, func(st *swarm.State) (dispatch.Result, error) {
		return e.dispatcher.OfferTask(st, loc, task)
	})
}

func (e *Engine) SetLocationStatus(actor string, loc swarm.LocationID, status swarm.LocationStatus) (dispatch.Result, error) {
	return e.commit(OpSetLocationStatus, actor, func(st *swarm.State) (dispatch.Result, error) {
		return e.dispatcher.SetLocationStatus(st, loc, status)
	})
}

// AdvanceTick moves the tick forward by one and returns the new value.
func (e *Engine) AdvanceTick() (uint64, error) {
	res, err := e.commit(OpAdvanceTick, "", func(st *swarm.State) (dispatch.Result, error) {
		return e.dispatcher.AdvanceTick(st), nil
	})
	if err != nil {
		return 0, err
	}
	e.Events.Emit(Event{Type: EventTickAdvanced, Payload: TickEvent{Tick: res.State.Tick}})
	return res.State.Tick, nil
}

func (e *Engine) Expire(actor string, robot swarm.RobotID, details string) (dispatch.Result, error) {
	return e.commit(OpExpire, actor, func(st *swarm.State) (dispatch.Result, error) {
		return e.dispatcher.Expire(st, robot, details)
	})
}

// ExpireStale errors every robot whose in-flight command has waited more
// than maxWait ticks. Zero disables the sweep. Robots that finish between
// the scan and their expiry are skipped.
func (e *Engine) ExpireStale(maxWait uint64) ([]swarm.RobotID, error) {
	if maxWait == 0 {
		return nil, nil
	}
	var expired []swarm.RobotID
	for _, id := range dispatch.Stale(e.committed(), maxWait) {
		details := fmt.Sprintf("no completion within %d ticks", maxWait)
		_, err := e.commit(OpExpire, "watchdog", func(st *swarm.State) (dispatch.Result, error) {
			r, err := st.Robot(id)
			if err != nil {
				return dispatch.Result{}, err
			}
			if !r.Status.InFlight() || st.Tick-r.AssignedTick <= maxWait {
				return dispatch.Result{}, swarm.ErrNotInFlight
			}
			return e.dispatcher.Expire(st, id, details)
		})
		if err != nil {
			if errors.Is(err, swarm.ErrNotInFlight) {
				continue
			}
			return expired, err
		}
		e.logFn("engine: robot %d expired: %s", id, details)
		expired = append(expired, id)
	}
	return expired, nil
}

// --- Queries against the committed state ---

// Snapshot returns a deep copy of the committed swarm.
func (e *Engine) Snapshot() *swarm.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

func (e *Engine) Robot(id swarm.RobotID) (swarm.RobotState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, err := e.state.Robot(id)
	if err != nil {
		return swarm.RobotState{}, err
	}
	out := *r
	if r.CurrentLocation != nil {
		loc := *r.CurrentLocation
		out.CurrentLocation = &loc
	}
	return out, nil
}

func (e *Engine) Location(id swarm.LocationID) (swarm.LocationInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, err := e.state.Location(id)
	if err != nil {
		return swarm.LocationInfo{}, err
	}
	out := *l
	out.TasksAvailable = append([]swarm.TaskDefinition(nil), l.TasksAvailable...)
	return out, nil
}

// Robots lists registered robots in ascending id order.
func (e *Engine) Robots() []swarm.RobotState {
	st := e.Snapshot()
	out := make([]swarm.RobotState, 0, len(st.Robots))
	for _, id := range st.RobotIDs() {
		out = append(out, *st.Robots[id])
	}
	return out
}

func (e *Engine) Locations() []swarm.LocationInfo {
	st := e.Snapshot()
	out := make([]swarm.LocationInfo, 0, len(st.Locations))
	for _, id := range st.LocationIDs() {
		out = append(out, *st.Locations[id])
	}
	return out
}

// Queue returns the pending commands of robot, head first.
func (e *Engine) Queue(robot swarm.RobotID) ([]swarm.Command, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	q, err := e.state.Queue(robot)
	if err != nil {
		return nil, err
	}
	return q.Items(), nil
}

func (e *Engine) GlobalQueue() []swarm.Command {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Global.Items()
}

func (e *Engine) ActiveRobotCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.ActiveRobots
}

func (e *Engine) Tick() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Tick
}
