package swarm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func placeRobot(t *testing.T, st *State, r RobotID, l LocationID) {
	t.Helper()
	require.NoError(t, st.Assign(r, GoToLocation(l)))
	_, err := st.Complete(r, true)
	require.NoError(t, err)
}

func TestAssignTransitions(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want RobotStatus
	}{
		{"goto", GoToLocation(20), Moving(20)},
		{"halt", Halt(), Idle()},
		{"wait", WaitForCommand(), WaitingForCommand()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := testState(t)
			st.Tick = 42
			require.NoError(t, st.Assign(1, tt.cmd))
			assert.Equal(t, tt.want, st.Robots[1].Status)
			assert.Equal(t, uint64(42), st.Robots[1].AssignedTick)
			assert.Nil(t, st.Robots[1].CurrentLocation)
		})
	}
}

func TestAssignUnknownLocation(t *testing.T) {
	st := testState(t)
	assert.ErrorIs(t, st.Assign(1, GoToLocation(99)), ErrInvalidLocationID)
}

func TestMoveCompletionOccupies(t *testing.T) {
	st := testState(t)
	placeRobot(t, st, 1, 10)

	r := st.Robots[1]
	require.NotNil(t, r.CurrentLocation)
	assert.Equal(t, LocationID(10), *r.CurrentLocation)
	assert.Equal(t, Idle(), r.Status)
	assert.Equal(t, Occupied(1), st.Locations[10].Occupancy)

	require.NoError(t, st.Assign(1, GoToLocation(20)))
	// Still holds the old location while moving.
	assert.Equal(t, Occupied(1), st.Locations[10].Occupancy)

	c, err := st.Complete(1, true)
	require.NoError(t, err)
	assert.True(t, c.Moved)
	assert.Equal(t, LocationID(10), *c.From)
	assert.Equal(t, LocationID(20), *c.To)
	assert.Equal(t, Available(), st.Locations[10].Occupancy)
	assert.Equal(t, Occupied(1), st.Locations[20].Occupancy)
	assert.NoError(t, st.Check())
}

func TestMoveCompletionConflict(t *testing.T) {
	st := testState(t)
	placeRobot(t, st, 1, 10)
	require.NoError(t, st.Assign(2, GoToLocation(10)))

	_, err := st.Complete(2, true)
	assert.ErrorIs(t, err, ErrOccupancyConflict)
}

func TestMoveFailureErrors(t *testing.T) {
	st := testState(t)
	require.NoError(t, st.Assign(1, GoToLocation(10)))
	c, err := st.Complete(1, false)
	require.NoError(t, err)
	assert.False(t, c.Moved)
	assert.Equal(t, Errored(), st.Robots[1].Status)
	assert.Equal(t, 1, st.ActiveRobots)
	assert.Equal(t, Available(), st.Locations[10].Occupancy)

	// Any subsequent command recovers from Error.
	require.NoError(t, st.Assign(1, Halt()))
	assert.Equal(t, 2, st.ActiveRobots)
	assert.NoError(t, st.Check())
}

func TestPerformTaskClaimsOffer(t *testing.T) {
	st := testState(t)
	placeRobot(t, st, 1, 10)
	require.NoError(t, st.OfferTask(10, "scan"))

	require.NoError(t, st.Assign(1, PerformTask("scan")))
	assert.Equal(t, PerformingTask("scan"), st.Robots[1].Status)
	assert.Empty(t, st.Locations[10].TasksAvailable)

	assert.ErrorIs(t, st.Assign(1, PerformTask("scan")), ErrTaskNotAvailable)

	c, err := st.Complete(1, false)
	require.NoError(t, err)
	assert.Equal(t, PerformingTask("scan"), c.Prior)
	assert.Equal(t, Idle(), st.Robots[1].Status)
}

func TestPerformTaskWithoutLocation(t *testing.T) {
	st := testState(t)
	assert.ErrorIs(t, st.Assign(1, PerformTask("scan")), ErrTaskNotAvailable)
}

func TestCompleteNotInFlight(t *testing.T) {
	st := testState(t)
	_, err := st.Complete(1, true)
	assert.ErrorIs(t, err, ErrNotInFlight)

	require.NoError(t, st.Assign(1, WaitForCommand()))
	_, err = st.Complete(1, true)
	assert.ErrorIs(t, err, ErrNotInFlight)
}

func TestExpire(t *testing.T) {
	st := testState(t)
	_, err := st.Expire(1)
	assert.ErrorIs(t, err, ErrNotInFlight)

	require.NoError(t, st.Assign(1, GoToLocation(20)))
	prior, err := st.Expire(1)
	require.NoError(t, err)
	assert.Equal(t, Moving(20), prior)
	assert.Equal(t, Errored(), st.Robots[1].Status)
	assert.Equal(t, 1, st.ActiveRobots)
}

func TestHaltKeepsLocation(t *testing.T) {
	st := testState(t)
	placeRobot(t, st, 1, 10)
	require.NoError(t, st.Assign(1, GoToLocation(20)))
	require.NoError(t, st.Assign(1, Halt()))

	assert.Equal(t, Idle(), st.Robots[1].Status)
	assert.Equal(t, LocationID(10), *st.Robots[1].CurrentLocation)
	assert.NoError(t, st.Check())
}
