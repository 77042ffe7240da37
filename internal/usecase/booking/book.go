package booking

import (
	"context"

	"github.com/google/uuid"

	"github.com/otoservice/workshop-scheduler/internal/domain/schedule"
	"github.com/otoservice/workshop-scheduler/internal/domain/workorder"
	"github.com/otoservice/workshop-scheduler/internal/httperr"
	"github.com/otoservice/workshop-scheduler/internal/models"
)

// BookService plans an assignment and commits it: reserve the slot,
// then persist the work order in pending. Planning runs against a
// snapshot, so the reserve can lose a race with a concurrent booking;
// on that one conflict the engine replans excluding the contested
// mechanic and tries once more before giving up.
func (e *Engine) BookService(ctx context.Context, req schedule.Request) (*models.WorkOrder, error) {
	asg, err := e.sched.Plan(ctx, req, nil)
	if err != nil {
		return nil, err
	}

	if err := e.cal.Reserve(asg.MechanicID, asg.Slot); err != nil {
		if !httperr.IsBusiness(err, httperr.CodeConflict) {
			return nil, err
		}

		exclude := map[uint]bool{asg.MechanicID: true}
		asg, err = e.sched.Plan(ctx, req, exclude)
		if err != nil {
			return nil, err
		}
		if err := e.cal.Reserve(asg.MechanicID, asg.Slot); err != nil {
			return nil, err
		}
	}

	mechanicID := asg.MechanicID
	wo := &models.WorkOrder{
		Reference:  uuid.New(),
		CustomerID: req.CustomerID,
		VehicleID:  req.VehicleID,
		ServiceID:  req.ServiceID,
		MechanicID: &mechanicID,
		StartTime:  asg.Slot.Start,
		EndTime:    asg.Slot.End,
		Status:     string(workorder.InitialStatus()),
		Notes:      req.Notes,
	}

	if err := e.repo.CreateWorkOrder(ctx, wo); err != nil {
		// The reservation must not outlive a failed commit.
		if rerr := e.cal.Release(asg.MechanicID, asg.Slot); rerr != nil {
			e.log.WithError(rerr).WithField("mechanic_id", asg.MechanicID).
				Error("failed to roll back reservation after store error")
		}
		return nil, err
	}

	e.audit.Dispatch(event(
		&req.CustomerID,
		"work_order_booked",
		&wo.ID,
		map[string]any{
			"mechanic_id": asg.MechanicID,
			"start":       asg.Slot.Start,
			"end":         asg.Slot.End,
		},
	))

	return wo, nil
}
