package booking

import (
	"context"
	"time"

	"github.com/otoservice/workshop-scheduler/internal/domain/schedule"
	"github.com/otoservice/workshop-scheduler/internal/httperr"
	"github.com/otoservice/workshop-scheduler/internal/models"
)

// Schedule lists a mechanic's work orders whose start falls in
// [from, to).
func (e *Engine) Schedule(ctx context.Context, mechanicID uint, from, to time.Time) ([]models.WorkOrder, error) {
	if !from.Before(to) {
		return nil, httperr.ErrBusinessf(httperr.CodeInvalidRequest, "empty date range")
	}
	if _, err := e.dir.Mechanic(ctx, mechanicID); err != nil {
		return nil, err
	}
	return e.repo.ListWorkOrdersForMechanic(ctx, mechanicID, from, to)
}

// CustomerOrders lists a customer's work-order history, newest first.
func (e *Engine) CustomerOrders(ctx context.Context, customerID uint) ([]models.WorkOrder, error) {
	return e.repo.ListWorkOrdersForCustomer(ctx, customerID)
}

// FreeSlots lists the bookable start slots for one mechanic, one
// service and one day: the free gaps of the calendar, cut to the
// mechanic's shift and stepped by the service duration.
func (e *Engine) FreeSlots(ctx context.Context, mechanicID uint, serviceID uint, day time.Time) ([]schedule.Interval, error) {
	mech, err := e.dir.Mechanic(ctx, mechanicID)
	if err != nil {
		return nil, err
	}

	svc, err := e.dir.ServiceEntry(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if svc.Duration <= 0 {
		return nil, httperr.ErrBusinessf(httperr.CodeInvalidRequest, "service %d has no duration estimate", serviceID)
	}

	var slots []schedule.Interval
	for _, seg := range mech.Hours.SegmentsOn(day) {
		for _, gap := range e.cal.FreeSlotsWithin(mechanicID, seg, svc.Duration) {
			for cur := gap.Start; !cur.Add(svc.Duration).After(gap.End); cur = cur.Add(svc.Duration) {
				slots = append(slots, schedule.Interval{Start: cur, End: cur.Add(svc.Duration)})
			}
		}
	}
	return slots, nil
}
