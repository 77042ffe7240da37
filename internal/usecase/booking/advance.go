package booking

import (
	"context"

	"github.com/otoservice/workshop-scheduler/internal/domain/workorder"
	"github.com/otoservice/workshop-scheduler/internal/httperr"
	"github.com/otoservice/workshop-scheduler/internal/models"
	"github.com/otoservice/workshop-scheduler/internal/timezone"
)

// Advance moves a work order through the state machine. Cancellation
// has calendar side effects and must go through Cancel instead.
// Completing an order stamps the cost from the catalog; the slot stays
// on the calendar as historical record.
func (e *Engine) Advance(ctx context.Context, orderID uint, actorID *uint, to workorder.Status) (*models.WorkOrder, error) {
	if to == workorder.StatusCancelled {
		return nil, httperr.ErrBusinessf(
			httperr.CodeInvalidRequest,
			"cancellation must go through the cancel operation",
		)
	}

	wo, err := e.repo.GetWorkOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	now := timezone.Now()
	if err := workorder.Transition(wo, to, now); err != nil {
		return nil, err
	}

	if to == workorder.StatusCompleted && wo.Cost == nil {
		if svc, err := e.dir.ServiceEntry(ctx, wo.ServiceID); err == nil && svc != nil {
			price := svc.Price
			wo.Cost = &price
		}
	}

	if err := e.repo.UpdateWorkOrder(ctx, wo); err != nil {
		return nil, err
	}

	e.audit.Dispatch(event(
		actorID,
		"work_order_"+string(to),
		&wo.ID,
		nil,
	))

	return wo, nil
}
