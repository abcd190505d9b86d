package dispatch

import (
	"fmt"

	"swarmcore/swarm"
)

// Dispatcher applies swarm operations as pure transitions. Every method
// takes the committed state, works on a clone, and returns the clone with
// the notifications describing what changed. On error the input state is
// untouched and no result is returned.
type Dispatcher struct {
	mode QueueMode
}

func NewDispatcher(mode QueueMode) *Dispatcher {
	if mode == "" {
		mode = QueuePerRobot
	}
	return &Dispatcher{mode: mode}
}

func (d *Dispatcher) Mode() QueueMode { return d.mode }

// RegisterRobot adds a robot at Idle with no location. Re-registration is
// rejected with ErrAlreadyRegistered.
func (d *Dispatcher) RegisterRobot(st *swarm.State, id swarm.RobotID) (Result, error) {
	next := st.Clone()
	if err := next.AddRobot(id); err != nil {
		return Result{}, err
	}
	return Result{State: next, Notifications: []Notification{
		{Kind: NoteRobotRegistered, Robot: robotRef(id), Status: statusRef(swarm.Idle())},
	}}, nil
}

// RegisterLocation adds a location at coord offering up to taskCapacity tasks.
func (d *Dispatcher) RegisterLocation(st *swarm.State, id swarm.LocationID, coord swarm.Coordinate, taskCapacity int) (Result, error) {
	next := st.Clone()
	if err := next.AddLocation(id, coord, taskCapacity); err != nil {
		return Result{}, err
	}
	c := coord
	return Result{State: next, Notifications: []Notification{
		{Kind: NoteLocationRegistered, Location: locationRef(id), Coordinate: &c},
	}}, nil
}

// EnqueueGlobal appends cmd to the shared inbox.
func (d *Dispatcher) EnqueueGlobal(st *swarm.State, cmd swarm.Command) (Result, error) {
	if err := validateCommand(st, cmd); err != nil {
		return Result{}, err
	}
	next := st.Clone()
	if err := next.Global.Push(cmd); err != nil {
		return Result{}, fmt.Errorf("global: %w", err)
	}
	return Result{State: next, Notifications: []Notification{
		{Kind: NoteCommandEnqueued, Command: commandRef(cmd), Queue: "global"},
	}}, nil
}

// EnqueueFor appends cmd to the robot's own queue. Robot queues are never
// pulled in global mode, so it is rejected there.
func (d *Dispatcher) EnqueueFor(st *swarm.State, robot swarm.RobotID, cmd swarm.Command) (Result, error) {
	if !st.IsRobotRegistered(robot) {
		return Result{}, fmt.Errorf("%w: %d", swarm.ErrInvalidRobotID, robot)
	}
	if err := d.requirePerRobot("enqueue_for"); err != nil {
		return Result{}, err
	}
	if err := validateCommand(st, cmd); err != nil {
		return Result{}, err
	}
	next := st.Clone()
	q, _ := next.Queue(robot)
	if err := q.Push(cmd); err != nil {
		return Result{}, fmt.Errorf("robot %d: %w", robot, err)
	}
	return Result{State: next, Notifications: []Notification{
		{Kind: NoteCommandEnqueued, Robot: robotRef(robot), Command: commandRef(cmd), Queue: "robot"},
	}}, nil
}

// AssignGlobal moves the head of the global inbox to the tail of the
// robot's queue. Per-robot mode only.
func (d *Dispatcher) AssignGlobal(st *swarm.State, robot swarm.RobotID) (Result, error) {
	if !st.IsRobotRegistered(robot) {
		return Result{}, fmt.Errorf("%w: %d", swarm.ErrInvalidRobotID, robot)
	}
	if err := d.requirePerRobot("assign_global"); err != nil {
		return Result{}, err
	}
	next := st.Clone()
	q, _ := next.Queue(robot)
	if q.Full() {
		return Result{}, fmt.Errorf("robot %d: %w", robot, swarm.ErrQueueFull)
	}
	cmd, err := next.Global.Pop()
	if err != nil {
		return Result{}, fmt.Errorf("global: %w", err)
	}
	if err := q.Push(cmd); err != nil {
		return Result{}, fmt.Errorf("robot %d: %w", robot, err)
	}
	return Result{State: next, Notifications: []Notification{
		{Kind: NoteCommandEnqueued, Robot: robotRef(robot), Command: commandRef(cmd), Queue: "robot", Details: "assigned from global"},
	}}, nil
}

// PullNext removes the head of the robot's source queue and assigns it.
// Removal and the status transition commit together: if the transition is
// rejected the command stays at the head of the queue.
func (d *Dispatcher) PullNext(st *swarm.State, robot swarm.RobotID) (PullResult, error) {
	if !st.IsRobotRegistered(robot) {
		return PullResult{}, fmt.Errorf("%w: %d", swarm.ErrInvalidRobotID, robot)
	}
	next := st.Clone()
	src := next.Global
	if d.mode == QueuePerRobot {
		src, _ = next.Queue(robot)
	}
	cmd, err := src.Pop()
	if err != nil {
		return PullResult{}, err
	}
	prior := next.Robots[robot].Status
	location := next.Robots[robot].CurrentLocation
	if err := next.Assign(robot, cmd); err != nil {
		return PullResult{}, fmt.Errorf("pull %s: %w", cmd, err)
	}

	res := PullResult{Command: cmd}
	pulled := Notification{Kind: NoteCommandPulled, Robot: robotRef(robot), Command: commandRef(cmd)}
	if cmd.Kind == swarm.CommandGoToLocation {
		coord := next.Locations[cmd.Location].Coordinate
		res.Coordinate = &coord
		pulled.Coordinate = &coord
	}
	notes := []Notification{pulled}
	if cmd.Kind == swarm.CommandPerformTask {
		notes = append(notes, Notification{
			Kind:     NoteRobotTaskStarted,
			Robot:    robotRef(robot),
			Location: locationRef(*location),
			Task:     cmd.Task,
		})
	}
	status := next.Robots[robot].Status
	notes = append(notes, Notification{
		Kind:    NoteRobotStatusUpdated,
		Robot:   robotRef(robot),
		Status:  statusRef(status),
		Details: fmt.Sprintf("%s -> %s", prior, status),
	})
	res.Result = Result{State: next, Notifications: notes}
	return res, nil
}

// ReportCompletion closes the robot's in-flight command.
func (d *Dispatcher) ReportCompletion(st *swarm.State, robot swarm.RobotID, success bool) (Result, error) {
	if !st.IsRobotRegistered(robot) {
		return Result{}, fmt.Errorf("%w: %d", swarm.ErrInvalidRobotID, robot)
	}
	next := st.Clone()
	c, err := next.Complete(robot, success)
	if err != nil {
		return Result{}, err
	}

	var notes []Notification
	status := next.Robots[robot].Status
	switch c.Prior.Kind {
	case swarm.StatusMoving:
		if c.Success && c.Moved {
			notes = append(notes, Notification{Kind: NoteRobotMoved, Robot: robotRef(robot), From: c.From, To: c.To})
		}
		notes = append(notes, Notification{Kind: NoteRobotStatusUpdated, Robot: robotRef(robot), Status: statusRef(status)})
		if !c.Success {
			notes = append(notes, Notification{
				Kind:     NoteRobotError,
				Robot:    robotRef(robot),
				Location: locationRef(c.Prior.Target),
				Details:  fmt.Sprintf("move to location %d failed", c.Prior.Target),
			})
		}
	case swarm.StatusPerformingTask:
		notes = append(notes,
			Notification{Kind: NoteRobotTaskCompleted, Robot: robotRef(robot), Task: c.Prior.Task, Success: boolRef(c.Success)},
			Notification{Kind: NoteRobotStatusUpdated, Robot: robotRef(robot), Status: statusRef(status)},
		)
	}
	return Result{State: next, Notifications: notes}, nil
}

// OfferTask adds task to the location's bounded task list.
func (d *Dispatcher) OfferTask(st *swarm.State, loc swarm.LocationID, task swarm.TaskDefinition) (Result, error) {
	if task == "" {
		return Result{}, fmt.Errorf("%w: empty task", swarm.ErrInvalidCommand)
	}
	next := st.Clone()
	if err := next.OfferTask(loc, task); err != nil {
		return Result{}, err
	}
	return Result{State: next, Notifications: []Notification{
		{Kind: NoteTaskOffered, Location: locationRef(loc), Task: task},
	}}, nil
}

// SetLocationStatus switches a free location between Available and
// UnderMaintenance.
func (d *Dispatcher) SetLocationStatus(st *swarm.State, loc swarm.LocationID, status swarm.LocationStatus) (Result, error) {
	next := st.Clone()
	if err := next.SetLocationStatus(loc, status); err != nil {
		return Result{}, err
	}
	occ := next.Locations[loc].Occupancy
	return Result{State: next, Notifications: []Notification{
		{Kind: NoteLocationStatusChanged, Location: locationRef(loc), Occupancy: &occ},
	}}, nil
}

// AdvanceTick moves the external tick forward by one. It emits nothing.
func (d *Dispatcher) AdvanceTick(st *swarm.State) Result {
	next := st.Clone()
	next.Tick++
	return Result{State: next}
}

// Expire errors a robot whose in-flight command has been outstanding too
// long. Deciding "too long" is the caller's business.
func (d *Dispatcher) Expire(st *swarm.State, robot swarm.RobotID, details string) (Result, error) {
	if !st.IsRobotRegistered(robot) {
		return Result{}, fmt.Errorf("%w: %d", swarm.ErrInvalidRobotID, robot)
	}
	next := st.Clone()
	prior, err := next.Expire(robot)
	if err != nil {
		return Result{}, err
	}
	if details == "" {
		details = fmt.Sprintf("command wait exceeded while %s", prior)
	}
	return Result{State: next, Notifications: []Notification{
		{Kind: NoteRobotStatusUpdated, Robot: robotRef(robot), Status: statusRef(swarm.Errored())},
		{Kind: NoteRobotError, Robot: robotRef(robot), Details: details},
	}}, nil
}

// Stale lists robots whose in-flight command was assigned more than
// maxWait ticks ago, in ascending id order.
func Stale(st *swarm.State, maxWait uint64) []swarm.RobotID {
	var out []swarm.RobotID
	for _, id := range st.RobotIDs() {
		r := st.Robots[id]
		if r.Status.InFlight() && st.Tick-r.AssignedTick > maxWait {
			out = append(out, id)
		}
	}
	return out
}

func (d *Dispatcher) requirePerRobot(op string) error {
	if d.mode != QueuePerRobot {
		return fmt.Errorf("%s: %w (%s)", op, swarm.ErrWrongQueueMode, d.mode)
	}
	return nil
}

func validateCommand(st *swarm.State, cmd swarm.Command) error {
	if !cmd.Valid() {
		return fmt.Errorf("%w: %+v", swarm.ErrInvalidCommand, cmd)
	}
	if cmd.Kind == swarm.CommandGoToLocation && !st.IsLocationRegistered(cmd.Location) {
		return fmt.Errorf("%w: %d", swarm.ErrInvalidLocationID, cmd.Location)
	}
	return nil
}
