package swarm

import "fmt"

// Queue is a bounded FIFO of commands. Capacity is enforced on insertion.
type Queue struct {
	capacity int
	items    []Command
}

// NewQueue returns an empty queue holding at most capacity commands.
func NewQueue(capacity int) *Queue {
	return &Queue{capacity: capacity}
}

func (q *Queue) Len() int { return len(q.items) }
func (q *Queue) Cap() int { return q.capacity }
func (q *Queue) Full() bool { return len(q.items) >= q.capacity }
func (q *Queue) Empty() bool { return len(q.items) == 0 }

// Push appends c, failing with ErrQueueFull at capacity.
func (q *Queue) Push(c Command) error {
	if q.Full() {
		return fmt.Errorf("%w: %d/%d", ErrQueueFull, len(q.items), q.capacity)
	}
	q.items = append(q.items, c)
	return nil
}

// Pop removes and returns the head.
func (q *Queue) Pop() (Command, error) {
	if q.Empty() {
		return Command{}, ErrQueueEmpty
	}
	c := q.items[0]
	q.items = append([]Command(nil), q.items[1:]...)
	return c, nil
}

// Peek returns the head without removing it.
func (q *Queue) Peek() (Command, bool) {
	if q.Empty() {
		return Command{}, false
	}
	return q.items[0], true
}

// Items returns a copy of the queued commands, head first.
func (q *Queue) Items() []Command {
	return append([]Command(nil), q.items...)
}

func (q *Queue) clone() *Queue {
	return &Queue{capacity: q.capacity, items: q.Items()}
}

// RestoreQueue rebuilds a queue from persisted items. Items beyond capacity
// are rejected rather than truncated.
func RestoreQueue(capacity int, items []Command) (*Queue, error) {
	if len(items) > capacity {
		return nil, fmt.Errorf("%w: restoring %d commands into queue of %d", ErrInvariant, len(items), capacity)
	}
	return &Queue{capacity: capacity, items: append([]Command(nil), items...)}, nil
}
