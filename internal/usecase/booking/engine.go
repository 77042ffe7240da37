package booking

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/otoservice/workshop-scheduler/internal/audit"
	"github.com/otoservice/workshop-scheduler/internal/domain/schedule"
	"github.com/otoservice/workshop-scheduler/internal/domain/workorder"
)

// Engine is the only component that creates work orders and the sole
// writer of the availability calendar. Everything else reads.
type Engine struct {
	repo  workorder.Repository
	dir   schedule.Directory
	cal   *schedule.Calendar
	sched *schedule.Scheduler
	audit *audit.Dispatcher
	log   *logrus.Logger
}

func NewEngine(
	repo workorder.Repository,
	dir schedule.Directory,
	cal *schedule.Calendar,
	dispatcher *audit.Dispatcher,
	log *logrus.Logger,
) *Engine {
	return &Engine{
		repo:  repo,
		dir:   dir,
		cal:   cal,
		sched: schedule.NewScheduler(dir, cal),
		audit: dispatcher,
		log:   log,
	}
}

// Restore rebuilds the in-memory calendar from the persisted entries.
// Called once at startup before the engine takes traffic.
func (e *Engine) Restore(ctx context.Context) error {
	entries, err := e.repo.ListCalendarEntries(ctx)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		iv, err := schedule.NewInterval(entry.StartTime, entry.EndTime)
		if err != nil {
			e.log.WithField("entry_id", entry.ID).WithError(err).
				Warn("skipping corrupt calendar entry")
			continue
		}
		if err := e.cal.Reserve(entry.MechanicID, iv); err != nil {
			e.log.WithField("entry_id", entry.ID).WithError(err).
				Warn("skipping overlapping calendar entry")
		}
	}

	e.log.WithField("entries", len(entries)).Info("availability calendar restored")
	return nil
}

func event(userID *uint, action string, orderID *uint, metadata any) audit.Event {
	return audit.Event{
		UserID:   userID,
		Action:   action,
		Entity:   "work_order",
		EntityID: orderID,
		Metadata: metadata,
	}
}
