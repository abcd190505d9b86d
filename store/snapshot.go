package store

import (
	"database/sql"
	"errors"
	"fmt"

	"swarmcore/swarm"
)

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

const (
	queueGlobal = "global"
	queueRobot  = "robot"
)

// Commit is one committed transition: the full swarm snapshot plus the
// audit rows and outbound messages it produced. A commit that only moves
// the tick sets Tick and leaves State nil.
type Commit struct {
	State  *swarm.State
	Tick   *uint64
	Audit  []*AuditEntry
	Outbox []*OutboxMessage
}

// Apply writes c in a single transaction. Either the snapshot, its audit
// rows and its outbox messages all land, or none do.
func (db *DB) Apply(c *Commit) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	switch {
	case c.State != nil:
		if err := db.writeSnapshot(tx, c.State); err != nil {
			return err
		}
	case c.Tick != nil:
		if err := db.writeTick(tx, *c.Tick); err != nil {
			return err
		}
	}
	for _, e := range c.Audit {
		if err := db.appendAudit(tx, e); err != nil {
			return fmt.Errorf("audit %s: %w", e.Action, err)
		}
	}
	for _, m := range c.Outbox {
		if err := db.enqueueOutbox(tx, m); err != nil {
			return fmt.Errorf("outbox %s: %w", m.MsgType, err)
		}
	}
	return tx.Commit()
}

// SaveSnapshot persists st on its own.
func (db *DB) SaveSnapshot(st *swarm.State) error {
	return db.Apply(&Commit{State: st})
}

// writeSnapshot replaces the stored swarm with st. The swarm is bounded
// by its limits, so a full rewrite stays small.
func (db *DB) writeSnapshot(tx *sql.Tx, st *swarm.State) error {
	for _, table := range []string{"command_queue", "location_tasks", "robots", "locations"} {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, id := range st.LocationIDs() {
		l := st.Locations[id]
		_, err := tx.Exec(db.Q(`INSERT INTO locations (id, x, y, task_capacity, occupancy, occupant) VALUES (?, ?, ?, ?, ?, ?)`),
			int64(l.ID), int64(l.Coordinate.X), int64(l.Coordinate.Y), l.TaskCapacity, string(l.Occupancy.Kind), int64(l.Occupancy.Robot))
		if err != nil {
			return fmt.Errorf("insert location %d: %w", id, err)
		}
		for i, task := range l.TasksAvailable {
			if _, err := tx.Exec(db.Q(`INSERT INTO location_tasks (location_id, position, task) VALUES (?, ?, ?)`),
				int64(id), i, string(task)); err != nil {
				return fmt.Errorf("insert task %d/%d: %w", id, i, err)
			}
		}
	}

	for _, id := range st.RobotIDs() {
		r := st.Robots[id]
		var loc sql.NullInt64
		if r.CurrentLocation != nil {
			loc = sql.NullInt64{Int64: int64(*r.CurrentLocation), Valid: true}
		}
		_, err := tx.Exec(db.Q(`INSERT INTO robots (id, location_id, status, target, task, assigned_tick) VALUES (?, ?, ?, ?, ?, ?)`),
			int64(id), loc, string(r.Status.Kind), int64(r.Status.Target), string(r.Status.Task), int64(r.AssignedTick))
		if err != nil {
			return fmt.Errorf("insert robot %d: %w", id, err)
		}
		if err := db.writeQueue(tx, queueRobot, id, st.Queues[id]); err != nil {
			return err
		}
	}
	if err := db.writeQueue(tx, queueGlobal, 0, st.Global); err != nil {
		return err
	}

	return db.writeTick(tx, st.Tick)
}

func (db *DB) writeTick(ex execer, tick uint64) error {
	_, err := ex.Exec(db.Q(`INSERT INTO swarm_meta (key, value) VALUES ('tick', ?) ON CONFLICT (key) DO UPDATE SET value=excluded.value`), int64(tick))
	if err != nil {
		return fmt.Errorf("save tick: %w", err)
	}
	return nil
}

func (db *DB) writeQueue(tx *sql.Tx, queue string, robot swarm.RobotID, q *swarm.Queue) error {
	if q == nil {
		return nil
	}
	for i, c := range q.Items() {
		_, err := tx.Exec(db.Q(`INSERT INTO command_queue (queue, robot_id, position, kind, location_id, task) VALUES (?, ?, ?, ?, ?, ?)`),
			queue, int64(robot), i, string(c.Kind), int64(c.Location), string(c.Task))
		if err != nil {
			return fmt.Errorf("insert %s queue %d/%d: %w", queue, robot, i, err)
		}
	}
	return nil
}

// LoadSnapshot rebuilds the swarm from storage under limits. An empty
// database yields an empty swarm. A stored swarm that does not fit limits
// or fails its invariants is an error.
func (db *DB) LoadSnapshot(limits swarm.Limits) (*swarm.State, error) {
	st := swarm.NewState(limits)

	var tick int64
	err := db.QueryRow(`SELECT value FROM swarm_meta WHERE key='tick'`).Scan(&tick)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load tick: %w", err)
	}
	st.Tick = uint64(tick)

	if err := db.loadLocations(st); err != nil {
		return nil, err
	}
	if err := db.loadRobots(st); err != nil {
		return nil, err
	}
	if err := db.loadQueues(st); err != nil {
		return nil, err
	}
	st.RecountActive()
	if err := st.Check(); err != nil {
		return nil, fmt.Errorf("stored swarm: %w", err)
	}
	return st, nil
}

func (db *DB) loadLocations(st *swarm.State) error {
	rows, err := db.Query(`SELECT id, x, y, task_capacity, occupancy, occupant FROM locations ORDER BY id`)
	if err != nil {
		return fmt.Errorf("load locations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, x, y, occupant int64
		var capacity int
		var occupancy string
		if err := rows.Scan(&id, &x, &y, &capacity, &occupancy, &occupant); err != nil {
			return err
		}
		if len(st.Locations) >= st.Limits.MaxLocations {
			return fmt.Errorf("%w: stored locations exceed limit %d", swarm.ErrInvariant, st.Limits.MaxLocations)
		}
		l := &swarm.LocationInfo{
			ID:           swarm.LocationID(id),
			Coordinate:   swarm.Coordinate{X: uint32(x), Y: uint32(y)},
			Occupancy:    swarm.LocationStatus{Kind: swarm.OccupancyKind(occupancy)},
			TaskCapacity: capacity,
		}
		if l.Occupancy.IsOccupied() {
			l.Occupancy.Robot = swarm.RobotID(occupant)
		}
		st.Locations[l.ID] = l
	}
	if err := rows.Err(); err != nil {
		return err
	}

	trows, err := db.Query(`SELECT location_id, task FROM location_tasks ORDER BY location_id, position`)
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	defer trows.Close()
	for trows.Next() {
		var id int64
		var task string
		if err := trows.Scan(&id, &task); err != nil {
			return err
		}
		l, ok := st.Locations[swarm.LocationID(id)]
		if !ok {
			return fmt.Errorf("%w: task for unknown location %d", swarm.ErrInvariant, id)
		}
		l.TasksAvailable = append(l.TasksAvailable, swarm.TaskDefinition(task))
	}
	return trows.Err()
}

func (db *DB) loadRobots(st *swarm.State) error {
	rows, err := db.Query(`SELECT id, location_id, status, target, task, assigned_tick FROM robots ORDER BY id`)
	if err != nil {
		return fmt.Errorf("load robots: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, target, tick int64
		var loc sql.NullInt64
		var status, task string
		if err := rows.Scan(&id, &loc, &status, &target, &task, &tick); err != nil {
			return err
		}
		if len(st.Robots) >= st.Limits.MaxSwarmSize {
			return fmt.Errorf("%w: stored robots exceed limit %d", swarm.ErrInvariant, st.Limits.MaxSwarmSize)
		}
		r := &swarm.RobotState{
			ID:           swarm.RobotID(id),
			Status:       swarm.RobotStatus{Kind: swarm.StatusKind(status)},
			AssignedTick: uint64(tick),
		}
		switch r.Status.Kind {
		case swarm.StatusMoving:
			r.Status.Target = swarm.LocationID(target)
		case swarm.StatusPerformingTask:
			r.Status.Task = swarm.TaskDefinition(task)
		}
		if loc.Valid {
			l := swarm.LocationID(loc.Int64)
			r.CurrentLocation = &l
		}
		st.Robots[r.ID] = r
		st.Queues[r.ID] = swarm.NewQueue(st.Limits.MaxCommandsPerRobot)
	}
	return rows.Err()
}

func (db *DB) loadQueues(st *swarm.State) error {
	rows, err := db.Query(`SELECT queue, robot_id, kind, location_id, task FROM command_queue ORDER BY queue, robot_id, position`)
	if err != nil {
		return fmt.Errorf("load queues: %w", err)
	}
	defer rows.Close()

	global := []swarm.Command{}
	perRobot := make(map[swarm.RobotID][]swarm.Command)
	for rows.Next() {
		var queue, kind, task string
		var robot, loc int64
		if err := rows.Scan(&queue, &robot, &kind, &loc, &task); err != nil {
			return err
		}
		c := swarm.Command{Kind: swarm.CommandKind(kind), Location: swarm.LocationID(loc), Task: swarm.TaskDefinition(task)}
		if !c.Valid() {
			return fmt.Errorf("%w: stored command %+v", swarm.ErrInvariant, c)
		}
		switch queue {
		case queueGlobal:
			global = append(global, c)
		case queueRobot:
			id := swarm.RobotID(robot)
			if !st.IsRobotRegistered(id) {
				return fmt.Errorf("%w: queue for unknown robot %d", swarm.ErrInvariant, id)
			}
			perRobot[id] = append(perRobot[id], c)
		default:
			return fmt.Errorf("%w: unknown queue %q", swarm.ErrInvariant, queue)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for id, items := range perRobot {
		q, err := swarm.RestoreQueue(st.Limits.MaxCommandsPerRobot, items)
		if err != nil {
			return fmt.Errorf("robot %d: %w", id, err)
		}
		st.Queues[id] = q
	}
	q, err := swarm.RestoreQueue(st.Limits.MaxGlobalCommands, global)
	if err != nil {
		return fmt.Errorf("global: %w", err)
	}
	st.Global = q
	return nil
}
