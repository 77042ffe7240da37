package workorder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otoservice/workshop-scheduler/internal/httperr"
	"github.com/otoservice/workshop-scheduler/internal/models"
)

func TestTransitionTable(t *testing.T) {
	all := []Status{StatusPending, StatusInProgress, StatusPartsNeeded, StatusCompleted, StatusCancelled}

	allowed := map[Status]map[Status]bool{
		StatusPending:     {StatusInProgress: true, StatusCancelled: true},
		StatusInProgress:  {StatusCompleted: true, StatusPartsNeeded: true, StatusCancelled: true},
		StatusPartsNeeded: {StatusInProgress: true, StatusCancelled: true},
		StatusCompleted:   {},
		StatusCancelled:   {},
	}

	for _, from := range all {
		for _, to := range all {
			err := CanTransition(from, to)
			if allowed[from][to] {
				assert.NoError(t, err, "%s -> %s should be allowed", from, to)
			} else {
				assert.True(t, httperr.IsBusiness(err, httperr.CodeIllegalTransition),
					"%s -> %s should be illegal", from, to)
			}
		}
	}
}

func TestTerminalStates(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusInProgress.Terminal())
	assert.False(t, StatusPartsNeeded.Terminal())
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("parts_needed")
	require.NoError(t, err)
	assert.Equal(t, StatusPartsNeeded, st)

	_, err = ParseStatus("done")
	assert.True(t, httperr.IsBusiness(err, httperr.CodeInvalidRequest))
}

func TestTransitionStampsTimestamps(t *testing.T) {
	now := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	wo := &models.WorkOrder{Status: string(StatusPending)}

	require.NoError(t, Transition(wo, StatusInProgress, now))
	require.NotNil(t, wo.StartedAt)
	assert.Equal(t, now, *wo.StartedAt)

	later := now.Add(2 * time.Hour)
	require.NoError(t, Transition(wo, StatusCompleted, later))
	require.NotNil(t, wo.CompletedAt)
	assert.Equal(t, later, *wo.CompletedAt)
	assert.Nil(t, wo.CancelledAt)
}

func TestTransitionKeepsOriginalStartAfterPartsCycle(t *testing.T) {
	start := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	wo := &models.WorkOrder{Status: string(StatusPending)}

	require.NoError(t, Transition(wo, StatusInProgress, start))
	require.NoError(t, Transition(wo, StatusPartsNeeded, start.Add(30*time.Minute)))
	require.NoError(t, Transition(wo, StatusInProgress, start.Add(2*time.Hour)))

	require.NotNil(t, wo.StartedAt)
	assert.Equal(t, start, *wo.StartedAt)
}

func TestTransitionRejectsReopeningCompletedOrder(t *testing.T) {
	now := time.Now()
	wo := &models.WorkOrder{Status: string(StatusCompleted)}

	err := Transition(wo, StatusInProgress, now)
	assert.True(t, httperr.IsBusiness(err, httperr.CodeIllegalTransition))
	assert.Equal(t, string(StatusCompleted), wo.Status)
	assert.Nil(t, wo.StartedAt)
}

func TestTransitionCancelStampsCancelledAt(t *testing.T) {
	now := time.Now()
	wo := &models.WorkOrder{Status: string(StatusPartsNeeded)}

	require.NoError(t, Transition(wo, StatusCancelled, now))
	require.NotNil(t, wo.CancelledAt)
	assert.Equal(t, string(StatusCancelled), wo.Status)
}
