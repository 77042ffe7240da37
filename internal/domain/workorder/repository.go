package workorder

import (
	"context"
	"time"

	"github.com/otoservice/workshop-scheduler/internal/models"
)

// Repository is the durable store behind the assignment engine. The
// engine treats it as synchronous and durable; the storage engine
// behind it is an infrastructure concern.
type Repository interface {
	// CreateWorkOrder persists the order together with its calendar
	// entry in one atomic write.
	CreateWorkOrder(ctx context.Context, wo *models.WorkOrder) error

	GetWorkOrder(ctx context.Context, id uint) (*models.WorkOrder, error)

	UpdateWorkOrder(ctx context.Context, wo *models.WorkOrder) error

	ListWorkOrdersForMechanic(
		ctx context.Context,
		mechanicID uint,
		start time.Time,
		end time.Time,
	) ([]models.WorkOrder, error)

	ListWorkOrdersForCustomer(
		ctx context.Context,
		customerID uint,
	) ([]models.WorkOrder, error)

	// -------- Calendar mirror --------

	SaveCalendarEntry(ctx context.Context, entry *models.CalendarEntry) error

	RemoveCalendarEntry(
		ctx context.Context,
		mechanicID uint,
		start time.Time,
		end time.Time,
	) error

	ListCalendarEntries(ctx context.Context) ([]models.CalendarEntry, error)
}
