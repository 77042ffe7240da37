package booking

import (
	"context"

	"github.com/otoservice/workshop-scheduler/internal/domain/workorder"
	"github.com/otoservice/workshop-scheduler/internal/httperr"
	"github.com/otoservice/workshop-scheduler/internal/models"
)

// Reassign moves a pending or parts_needed order to another mechanic,
// keeping its interval. The new reservation is taken before the old
// one is touched: a conflict on the new mechanic leaves the original
// assignment fully intact.
func (e *Engine) Reassign(ctx context.Context, orderID uint, newMechanicID uint, actorID *uint) (*models.WorkOrder, error) {
	wo, err := e.repo.GetWorkOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	status := workorder.Status(wo.Status)
	if status != workorder.StatusPending && status != workorder.StatusPartsNeeded {
		return nil, httperr.ErrBusinessf(
			httperr.CodeIllegalTransition,
			"cannot reassign a %s work order", status,
		)
	}

	if wo.MechanicID != nil && *wo.MechanicID == newMechanicID {
		return wo, nil
	}

	mech, err := e.dir.Mechanic(ctx, newMechanicID)
	if err != nil {
		return nil, err
	}

	svc, err := e.dir.ServiceEntry(ctx, wo.ServiceID)
	if err != nil {
		return nil, err
	}
	if !mech.HasSkill(svc.Category) {
		return nil, httperr.ErrBusinessf(
			httperr.CodeNoQualifiedMechanic,
			"mechanic %d is not qualified for %q", newMechanicID, svc.Category,
		)
	}

	iv := workorder.ScheduledInterval(wo)
	if err := e.cal.Reserve(newMechanicID, iv); err != nil {
		return nil, err
	}

	oldMechanicID := wo.MechanicID
	wo.MechanicID = &newMechanicID
	if err := e.repo.UpdateWorkOrder(ctx, wo); err != nil {
		wo.MechanicID = oldMechanicID
		if rerr := e.cal.Release(newMechanicID, iv); rerr != nil {
			e.log.WithError(rerr).Error("failed to roll back reservation after store error")
		}
		return nil, err
	}

	if oldMechanicID != nil {
		if err := e.cal.Release(*oldMechanicID, iv); err != nil {
			e.log.WithError(err).WithField("mechanic_id", *oldMechanicID).
				Warn("stale reservation left on previous mechanic")
		}
		if err := e.repo.RemoveCalendarEntry(ctx, *oldMechanicID, wo.StartTime, wo.EndTime); err != nil {
			e.log.WithError(err).WithField("mechanic_id", *oldMechanicID).
				Warn("stale calendar entry left on previous mechanic")
		}
	}

	entry := models.CalendarEntry{
		MechanicID:  newMechanicID,
		WorkOrderID: wo.ID,
		StartTime:   wo.StartTime,
		EndTime:     wo.EndTime,
	}
	if err := e.repo.SaveCalendarEntry(ctx, &entry); err != nil {
		e.log.WithError(err).WithField("work_order_id", wo.ID).
			Error("failed to persist calendar entry after reassign")
	}

	e.audit.Dispatch(event(
		actorID,
		"work_order_reassigned",
		&wo.ID,
		map[string]any{"mechanic_id": newMechanicID},
	))

	return wo, nil
}
