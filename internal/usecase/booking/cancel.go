package booking

import (
	"context"

	"github.com/otoservice/workshop-scheduler/internal/domain/workorder"
	"github.com/otoservice/workshop-scheduler/internal/models"
	"github.com/otoservice/workshop-scheduler/internal/timezone"
)

// Cancel terminates a non-terminal work order and releases its
// reservation. The cancellation is committed first: once the status
// change is stored it is never rolled back, even if freeing the
// calendar fails. That single case is reported as releaseFailed,
// logged and audited for operator cleanup.
func (e *Engine) Cancel(ctx context.Context, orderID uint, actorID *uint) (*models.WorkOrder, bool, error) {
	wo, err := e.repo.GetWorkOrder(ctx, orderID)
	if err != nil {
		return nil, false, err
	}

	now := timezone.Now()
	if err := workorder.Transition(wo, workorder.StatusCancelled, now); err != nil {
		return nil, false, err
	}

	if err := e.repo.UpdateWorkOrder(ctx, wo); err != nil {
		return nil, false, err
	}

	releaseFailed := false
	if wo.MechanicID != nil {
		iv := workorder.ScheduledInterval(wo)

		if err := e.cal.Release(*wo.MechanicID, iv); err != nil {
			releaseFailed = true
			e.log.WithError(err).WithFields(map[string]any{
				"work_order_id": wo.ID,
				"mechanic_id":   *wo.MechanicID,
			}).Warn("calendar release failed after cancellation")
		} else if err := e.repo.RemoveCalendarEntry(ctx, *wo.MechanicID, wo.StartTime, wo.EndTime); err != nil {
			releaseFailed = true
			e.log.WithError(err).WithFields(map[string]any{
				"work_order_id": wo.ID,
				"mechanic_id":   *wo.MechanicID,
			}).Warn("calendar entry removal failed after cancellation")
		}

		if releaseFailed {
			e.audit.Dispatch(event(actorID, "work_order_release_failed", &wo.ID, nil))
		}
	}

	e.audit.Dispatch(event(actorID, "work_order_cancelled", &wo.ID, nil))

	return wo, releaseFailed, nil
}
