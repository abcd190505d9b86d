package swarm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueFIFO(t *testing.T) {
	q := NewQueue(4)
	in := []Command{GoToLocation(1), PerformTask("weld"), Halt(), WaitForCommand()}
	for _, c := range in {
		require.NoError(t, q.Push(c))
	}

	var out []Command
	for !q.Empty() {
		c, err := q.Pop()
		require.NoError(t, err)
		out = append(out, c)
	}
	assert.Equal(t, in, out)
}

func TestQueueCapacityBoundary(t *testing.T) {
	q := NewQueue(3)
	for i := 0; i < 3; i++ {
		require.NoError(t, q.Push(Halt()))
	}
	err := q.Push(Halt())
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, 3, q.Len())
}

func TestQueuePopEmpty(t *testing.T) {
	q := NewQueue(1)
	_, err := q.Pop()
	assert.ErrorIs(t, err, ErrQueueEmpty)

	_, ok := q.Peek()
	assert.False(t, ok)
}

func TestQueueCloneIsIndependent(t *testing.T) {
	q := NewQueue(2)
	require.NoError(t, q.Push(Halt()))
	c := q.clone()
	require.NoError(t, c.Push(WaitForCommand()))

	assert.Equal(t, 1, q.Len())
	assert.Equal(t, 2, c.Len())
}

func TestRestoreQueueRejectsOverflow(t *testing.T) {
	_, err := RestoreQueue(1, []Command{Halt(), Halt()})
	assert.ErrorIs(t, err, ErrInvariant)

	q, err := RestoreQueue(2, []Command{GoToLocation(3)})
	require.NoError(t, err)
	head, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, GoToLocation(3), head)
}

func TestCommandValid(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want bool
	}{
		{"goto", GoToLocation(0), true},
		{"task", PerformTask("scan"), true},
		{"empty task", PerformTask(""), false},
		{"halt", Halt(), true},
		{"wait", WaitForCommand(), true},
		{"halt with payload", Command{Kind: CommandHalt, Task: "x"}, false},
		{"unknown", Command{Kind: "teleport"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cmd.Valid())
		})
	}
}
