package swarm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOccupyExclusive(t *testing.T) {
	st := testState(t)
	require.NoError(t, st.Occupy(10, 1))
	require.NoError(t, st.Occupy(10, 1), "same robot re-occupying is a no-op")
	assert.ErrorIs(t, st.Occupy(10, 2), ErrOccupancyConflict)
	assert.ErrorIs(t, st.Occupy(99, 1), ErrInvalidLocationID)
}

func TestOccupyUnderMaintenance(t *testing.T) {
	st := testState(t)
	require.NoError(t, st.SetLocationStatus(20, UnderMaintenance()))
	assert.ErrorIs(t, st.Occupy(20, 1), ErrOccupancyConflict)

	require.NoError(t, st.Vacate(20))
	assert.Equal(t, UnderMaintenance(), st.Locations[20].Occupancy)

	require.NoError(t, st.SetLocationStatus(20, Available()))
	require.NoError(t, st.Occupy(20, 1))
}

func TestSetLocationStatusRejectsOccupied(t *testing.T) {
	st := testState(t)
	placeRobot(t, st, 1, 10)

	assert.ErrorIs(t, st.SetLocationStatus(10, UnderMaintenance()), ErrOccupancyConflict)
	assert.ErrorIs(t, st.SetLocationStatus(20, Occupied(2)), ErrInvalidCommand)
}

func TestOfferTaskCapacity(t *testing.T) {
	st := testState(t)
	require.NoError(t, st.OfferTask(20, "scan"))
	assert.ErrorIs(t, st.OfferTask(20, "weld"), ErrCapacityFull)
	assert.Equal(t, []TaskDefinition{"scan"}, st.Locations[20].TasksAvailable)
}

func TestClaimTaskRemovesFirstMatch(t *testing.T) {
	st := testState(t)
	require.NoError(t, st.OfferTask(10, "scan"))
	require.NoError(t, st.OfferTask(10, "scan"))

	require.NoError(t, st.ClaimTask(10, "scan"))
	assert.Equal(t, []TaskDefinition{"scan"}, st.Locations[10].TasksAvailable)
	assert.ErrorIs(t, st.ClaimTask(10, "weld"), ErrTaskNotAvailable)
}

func TestCheckDetectsViolations(t *testing.T) {
	st := testState(t)
	require.NoError(t, st.Check())

	// Occupied by a robot that believes it is elsewhere.
	st.Locations[10].Occupancy = Occupied(2)
	st.ActiveRobots = 5
	err := st.Check()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvariant)
	assert.Contains(t, err.Error(), "location 10 occupied by robot 2")
	assert.Contains(t, err.Error(), "active robot count 5")
}
