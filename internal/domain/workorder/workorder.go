package workorder

import (
	"time"

	"github.com/otoservice/workshop-scheduler/internal/domain/schedule"
	"github.com/otoservice/workshop-scheduler/internal/models"
)

// Transition applies a status change to the order and stamps the
// lifecycle timestamps. The order is unchanged when the move is
// illegal. Calendar side effects (a cancellation releasing its
// reservation) are the assignment engine's job, not done here.
func Transition(wo *models.WorkOrder, to Status, now time.Time) error {
	if err := CanTransition(Status(wo.Status), to); err != nil {
		return err
	}

	wo.Status = string(to)
	switch to {
	case StatusInProgress:
		// parts_needed -> in_progress keeps the original start.
		if wo.StartedAt == nil {
			wo.StartedAt = &now
		}
	case StatusCompleted:
		wo.CompletedAt = &now
	case StatusCancelled:
		wo.CancelledAt = &now
	}
	return nil
}

// ScheduledInterval is the order's committed slot as a calendar interval.
func ScheduledInterval(wo *models.WorkOrder) schedule.Interval {
	return schedule.Interval{Start: wo.StartTime, End: wo.EndTime}
}
