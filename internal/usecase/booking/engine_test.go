package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otoservice/workshop-scheduler/internal/audit"
	"github.com/otoservice/workshop-scheduler/internal/domain/schedule"
	"github.com/otoservice/workshop-scheduler/internal/domain/workorder"
	"github.com/otoservice/workshop-scheduler/internal/httperr"
	"github.com/otoservice/workshop-scheduler/internal/models"
)

// fakeRepo keeps work orders and calendar entries in memory. Error
// injection hooks let tests exercise the failure paths.
type fakeRepo struct {
	mu      sync.Mutex
	nextID  uint
	orders  map[uint]*models.WorkOrder
	entries []models.CalendarEntry

	failCreate      bool
	failUpdate      bool
	failRemoveEntry bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{nextID: 1, orders: make(map[uint]*models.WorkOrder)}
}

func (r *fakeRepo) CreateWorkOrder(_ context.Context, wo *models.WorkOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate {
		return errors.New("storage unavailable")
	}
	wo.ID = r.nextID
	r.nextID++
	cp := *wo
	r.orders[wo.ID] = &cp
	if wo.MechanicID != nil {
		r.entries = append(r.entries, models.CalendarEntry{
			MechanicID:  *wo.MechanicID,
			WorkOrderID: wo.ID,
			StartTime:   wo.StartTime,
			EndTime:     wo.EndTime,
		})
	}
	return nil
}

func (r *fakeRepo) GetWorkOrder(_ context.Context, id uint) (*models.WorkOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wo, ok := r.orders[id]
	if !ok {
		return nil, httperr.ErrBusinessf(httperr.CodeNotFound, "work order %d not found", id)
	}
	cp := *wo
	return &cp, nil
}

func (r *fakeRepo) UpdateWorkOrder(_ context.Context, wo *models.WorkOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdate {
		return errors.New("storage unavailable")
	}
	if _, ok := r.orders[wo.ID]; !ok {
		return httperr.ErrBusinessf(httperr.CodeNotFound, "work order %d not found", wo.ID)
	}
	cp := *wo
	r.orders[wo.ID] = &cp
	return nil
}

func (r *fakeRepo) ListWorkOrdersForMechanic(_ context.Context, mechanicID uint, start, end time.Time) ([]models.WorkOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.WorkOrder
	for _, wo := range r.orders {
		if wo.MechanicID != nil && *wo.MechanicID == mechanicID &&
			wo.StartTime.Before(end) && start.Before(wo.EndTime) {
			out = append(out, *wo)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListWorkOrdersForCustomer(_ context.Context, customerID uint) ([]models.WorkOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.WorkOrder
	for _, wo := range r.orders {
		if wo.CustomerID == customerID {
			out = append(out, *wo)
		}
	}
	return out, nil
}

func (r *fakeRepo) SaveCalendarEntry(_ context.Context, entry *models.CalendarEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeRepo) RemoveCalendarEntry(_ context.Context, mechanicID uint, start, end time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failRemoveEntry {
		return errors.New("storage unavailable")
	}
	for i, e := range r.entries {
		if e.MechanicID == mechanicID && e.StartTime.Equal(start) && e.EndTime.Equal(end) {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return nil
		}
	}
	return httperr.ErrBusinessf(httperr.CodeNotFound, "calendar entry not found")
}

func (r *fakeRepo) ListCalendarEntries(_ context.Context) ([]models.CalendarEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.CalendarEntry(nil), r.entries...), nil
}

var _ workorder.Repository = (*fakeRepo)(nil)

// fakeDirectory mirrors the scheduler tests: fixed roster, fixed catalog.
type fakeDirectory struct {
	mechanics []schedule.Mechanic
	services  map[uint]schedule.ServiceEntry
}

func (d *fakeDirectory) MechanicsBySkill(_ context.Context, category string) ([]schedule.Mechanic, error) {
	var out []schedule.Mechanic
	for _, m := range d.mechanics {
		if m.HasSkill(category) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (d *fakeDirectory) Mechanic(_ context.Context, id uint) (*schedule.Mechanic, error) {
	for _, m := range d.mechanics {
		if m.ID == id {
			mm := m
			return &mm, nil
		}
	}
	return nil, httperr.ErrBusinessf(httperr.CodeNotFound, "mechanic %d not found", id)
}

func (d *fakeDirectory) ServiceEntry(_ context.Context, id uint) (*schedule.ServiceEntry, error) {
	svc, ok := d.services[id]
	if !ok {
		return nil, httperr.ErrBusinessf(httperr.CodeNotFound, "service %d not in catalog", id)
	}
	return &svc, nil
}

func fullWeek(start, end string) schedule.WorkingHours {
	h := make(schedule.WorkingHours)
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		h[wd] = schedule.DayHours{Start: start, End: end, Active: true}
	}
	return h
}

func at(t *testing.T, hm string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02 15:04", "2024-03-04 "+hm)
	require.NoError(t, err)
	return ts
}

func ivl(t *testing.T, start, end string) schedule.Interval {
	t.Helper()
	return schedule.Interval{Start: at(t, start), End: at(t, end)}
}

type fixture struct {
	engine *Engine
	repo   *fakeRepo
	cal    *schedule.Calendar
	dir    *fakeDirectory
}

func newFixture(t *testing.T, mechanics ...schedule.Mechanic) *fixture {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	dir := &fakeDirectory{
		mechanics: mechanics,
		services: map[uint]schedule.ServiceEntry{
			10: {ID: 10, Name: "Brake Pad Replacement", Category: "brakes", Duration: time.Hour, Price: 150},
		},
	}
	repo := newFakeRepo()
	cal := schedule.NewCalendar()
	dispatcher := audit.NewDispatcher(audit.New(nil), log)

	return &fixture{
		engine: NewEngine(repo, dir, cal, dispatcher, log),
		repo:   repo,
		cal:    cal,
		dir:    dir,
	}
}

func brakeRequest(t *testing.T, earliest, latest string) schedule.Request {
	t.Helper()
	return schedule.Request{
		ServiceID:     10,
		VehicleID:     1,
		CustomerID:    6,
		EarliestStart: at(t, earliest),
		LatestStart:   at(t, latest),
	}
}

func TestBookServiceCommitsOrderAndReservation(t *testing.T) {
	fx := newFixture(t, schedule.Mechanic{ID: 2, Skills: []string{"brakes"}, Hours: fullWeek("09:00", "17:00")})

	req := brakeRequest(t, "09:00", "11:00")
	wo, err := fx.engine.BookService(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, string(workorder.StatusPending), wo.Status)
	require.NotNil(t, wo.MechanicID)
	assert.Equal(t, uint(2), *wo.MechanicID)
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", wo.Reference.String())

	// Slot start honors the requested window.
	assert.False(t, wo.StartTime.Before(req.EarliestStart))
	assert.False(t, wo.StartTime.After(req.LatestStart))

	// The slot is reserved and mirrored to storage.
	assert.False(t, fx.cal.IsFree(2, ivl(t, "09:00", "10:00")))
	require.Len(t, fx.repo.entries, 1)
	assert.Equal(t, wo.ID, fx.repo.entries[0].WorkOrderID)
}

func TestBookServiceRollsBackReservationOnStoreError(t *testing.T) {
	fx := newFixture(t, schedule.Mechanic{ID: 2, Skills: []string{"brakes"}, Hours: fullWeek("09:00", "17:00")})
	fx.repo.failCreate = true

	_, err := fx.engine.BookService(context.Background(), brakeRequest(t, "09:00", "11:00"))
	require.Error(t, err)
	assert.True(t, fx.cal.IsFree(2, ivl(t, "09:00", "10:00")))
}

func TestConcurrentBookingSingleMechanic(t *testing.T) {
	// One mechanic, one slot: exactly one of two racing bookings lands,
	// the other runs out of options after its retry.
	fx := newFixture(t, schedule.Mechanic{ID: 2, Skills: []string{"brakes"}, Hours: fullWeek("09:00", "10:00")})

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := fx.engine.BookService(context.Background(), brakeRequest(t, "09:00", "09:00"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, unavailable int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case httperr.IsBusiness(err, httperr.CodeNoAvailability):
			unavailable++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, unavailable)
	require.Len(t, fx.repo.entries, 1)
}

func TestConcurrentBookingSpillsToSecondMechanic(t *testing.T) {
	fx := newFixture(t,
		schedule.Mechanic{ID: 2, Skills: []string{"brakes"}, Hours: fullWeek("09:00", "10:00")},
		schedule.Mechanic{ID: 3, Skills: []string{"brakes"}, Hours: fullWeek("09:00", "10:00")},
	)

	type result struct {
		wo  *models.WorkOrder
		err error
	}
	results := make(chan result, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wo, err := fx.engine.BookService(context.Background(), brakeRequest(t, "09:00", "09:00"))
			results <- result{wo, err}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[uint]bool)
	for res := range results {
		require.NoError(t, res.err)
		require.NotNil(t, res.wo.MechanicID)
		seen[*res.wo.MechanicID] = true
	}
	assert.Len(t, seen, 2, "each booking must land on a different mechanic")
}

func TestCancelReleasesSlotForRebooking(t *testing.T) {
	fx := newFixture(t, schedule.Mechanic{ID: 2, Skills: []string{"brakes"}, Hours: fullWeek("09:00", "10:00")})
	ctx := context.Background()

	first, err := fx.engine.BookService(ctx, brakeRequest(t, "09:00", "09:00"))
	require.NoError(t, err)

	actor := uint(6)
	cancelled, releaseFailed, err := fx.engine.Cancel(ctx, first.ID, &actor)
	require.NoError(t, err)
	assert.False(t, releaseFailed)
	assert.Equal(t, string(workorder.StatusCancelled), cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)
	assert.Empty(t, fx.repo.entries)

	second, err := fx.engine.BookService(ctx, brakeRequest(t, "09:00", "09:00"))
	require.NoError(t, err)
	assert.Equal(t, first.StartTime, second.StartTime)
	assert.Equal(t, first.EndTime, second.EndTime)
}

func TestCancelTerminalOrderIsIllegal(t *testing.T) {
	fx := newFixture(t, schedule.Mechanic{ID: 2, Skills: []string{"brakes"}, Hours: fullWeek("09:00", "17:00")})
	ctx := context.Background()

	wo, err := fx.engine.BookService(ctx, brakeRequest(t, "09:00", "11:00"))
	require.NoError(t, err)

	_, _, err = fx.engine.Cancel(ctx, wo.ID, nil)
	require.NoError(t, err)

	_, _, err = fx.engine.Cancel(ctx, wo.ID, nil)
	assert.True(t, httperr.IsBusiness(err, httperr.CodeIllegalTransition))
}

func TestCancelReportsReleaseFailure(t *testing.T) {
	fx := newFixture(t, schedule.Mechanic{ID: 2, Skills: []string{"brakes"}, Hours: fullWeek("09:00", "17:00")})
	ctx := context.Background()

	wo, err := fx.engine.BookService(ctx, brakeRequest(t, "09:00", "11:00"))
	require.NoError(t, err)

	fx.repo.failRemoveEntry = true
	cancelled, releaseFailed, err := fx.engine.Cancel(ctx, wo.ID, nil)
	require.NoError(t, err)

	// The cancellation itself stands even though cleanup failed.
	assert.True(t, releaseFailed)
	assert.Equal(t, string(workorder.StatusCancelled), cancelled.Status)

	stored, err := fx.repo.GetWorkOrder(ctx, wo.ID)
	require.NoError(t, err)
	assert.Equal(t, string(workorder.StatusCancelled), stored.Status)
}

func TestAdvanceThroughLifecycle(t *testing.T) {
	fx := newFixture(t, schedule.Mechanic{ID: 2, Skills: []string{"brakes"}, Hours: fullWeek("09:00", "17:00")})
	ctx := context.Background()

	wo, err := fx.engine.BookService(ctx, brakeRequest(t, "09:00", "11:00"))
	require.NoError(t, err)

	wo, err = fx.engine.Advance(ctx, wo.ID, nil, workorder.StatusInProgress)
	require.NoError(t, err)
	assert.NotNil(t, wo.StartedAt)

	wo, err = fx.engine.Advance(ctx, wo.ID, nil, workorder.StatusPartsNeeded)
	require.NoError(t, err)

	wo, err = fx.engine.Advance(ctx, wo.ID, nil, workorder.StatusInProgress)
	require.NoError(t, err)

	wo, err = fx.engine.Advance(ctx, wo.ID, nil, workorder.StatusCompleted)
	require.NoError(t, err)
	assert.NotNil(t, wo.CompletedAt)
	require.NotNil(t, wo.Cost)
	assert.Equal(t, 150.0, *wo.Cost)

	_, err = fx.engine.Advance(ctx, wo.ID, nil, workorder.StatusInProgress)
	assert.True(t, httperr.IsBusiness(err, httperr.CodeIllegalTransition))
}

func TestAdvanceRejectsCancellation(t *testing.T) {
	fx := newFixture(t, schedule.Mechanic{ID: 2, Skills: []string{"brakes"}, Hours: fullWeek("09:00", "17:00")})
	ctx := context.Background()

	wo, err := fx.engine.BookService(ctx, brakeRequest(t, "09:00", "11:00"))
	require.NoError(t, err)

	_, err = fx.engine.Advance(ctx, wo.ID, nil, workorder.StatusCancelled)
	assert.True(t, httperr.IsBusiness(err, httperr.CodeInvalidRequest))
}

func TestReassignMovesReservation(t *testing.T) {
	fx := newFixture(t,
		schedule.Mechanic{ID: 2, Skills: []string{"brakes"}, Hours: fullWeek("09:00", "17:00")},
		schedule.Mechanic{ID: 3, Skills: []string{"brakes"}, Hours: fullWeek("09:00", "17:00")},
	)
	ctx := context.Background()

	wo, err := fx.engine.BookService(ctx, brakeRequest(t, "09:00", "11:00"))
	require.NoError(t, err)
	require.Equal(t, uint(2), *wo.MechanicID)

	moved, err := fx.engine.Reassign(ctx, wo.ID, 3, nil)
	require.NoError(t, err)
	assert.Equal(t, uint(3), *moved.MechanicID)
	assert.Equal(t, wo.StartTime, moved.StartTime)

	slot := schedule.Interval{Start: wo.StartTime, End: wo.EndTime}
	assert.True(t, fx.cal.IsFree(2, slot))
	assert.False(t, fx.cal.IsFree(3, slot))

	require.Len(t, fx.repo.entries, 1)
	assert.Equal(t, uint(3), fx.repo.entries[0].MechanicID)
}

func TestReassignConflictLeavesOriginalIntact(t *testing.T) {
	fx := newFixture(t,
		schedule.Mechanic{ID: 2, Skills: []string{"brakes"}, Hours: fullWeek("09:00", "17:00")},
		schedule.Mechanic{ID: 3, Skills: []string{"brakes"}, Hours: fullWeek("09:00", "17:00")},
	)
	ctx := context.Background()

	wo, err := fx.engine.BookService(ctx, brakeRequest(t, "09:00", "11:00"))
	require.NoError(t, err)

	// The target mechanic is busy over the same interval.
	require.NoError(t, fx.cal.Reserve(3, schedule.Interval{Start: wo.StartTime, End: wo.EndTime}))

	_, err = fx.engine.Reassign(ctx, wo.ID, 3, nil)
	assert.True(t, httperr.IsBusiness(err, httperr.CodeConflict))

	stored, err := fx.repo.GetWorkOrder(ctx, wo.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(2), *stored.MechanicID)
	assert.False(t, fx.cal.IsFree(2, schedule.Interval{Start: wo.StartTime, End: wo.EndTime}))
}

func TestReassignChecksSkill(t *testing.T) {
	fx := newFixture(t,
		schedule.Mechanic{ID: 2, Skills: []string{"brakes"}, Hours: fullWeek("09:00", "17:00")},
		schedule.Mechanic{ID: 4, Skills: []string{"tires"}, Hours: fullWeek("09:00", "17:00")},
	)
	ctx := context.Background()

	wo, err := fx.engine.BookService(ctx, brakeRequest(t, "09:00", "11:00"))
	require.NoError(t, err)

	_, err = fx.engine.Reassign(ctx, wo.ID, 4, nil)
	assert.True(t, httperr.IsBusiness(err, httperr.CodeNoQualifiedMechanic))
}

func TestReassignRejectsInProgressOrder(t *testing.T) {
	fx := newFixture(t,
		schedule.Mechanic{ID: 2, Skills: []string{"brakes"}, Hours: fullWeek("09:00", "17:00")},
		schedule.Mechanic{ID: 3, Skills: []string{"brakes"}, Hours: fullWeek("09:00", "17:00")},
	)
	ctx := context.Background()

	wo, err := fx.engine.BookService(ctx, brakeRequest(t, "09:00", "11:00"))
	require.NoError(t, err)

	_, err = fx.engine.Advance(ctx, wo.ID, nil, workorder.StatusInProgress)
	require.NoError(t, err)

	_, err = fx.engine.Reassign(ctx, wo.ID, 3, nil)
	assert.True(t, httperr.IsBusiness(err, httperr.CodeIllegalTransition))
}

func TestRestoreRebuildsCalendar(t *testing.T) {
	fx := newFixture(t, schedule.Mechanic{ID: 2, Skills: []string{"brakes"}, Hours: fullWeek("09:00", "17:00")})
	ctx := context.Background()

	fx.repo.entries = []models.CalendarEntry{
		{ID: 1, MechanicID: 2, WorkOrderID: 1, StartTime: at(t, "09:00"), EndTime: at(t, "10:00")},
		// Corrupt row: zero-length interval.
		{ID: 2, MechanicID: 2, WorkOrderID: 2, StartTime: at(t, "11:00"), EndTime: at(t, "11:00")},
		// Overlaps the first row; only one of the two can be honored.
		{ID: 3, MechanicID: 2, WorkOrderID: 3, StartTime: at(t, "09:30"), EndTime: at(t, "10:30")},
	}

	require.NoError(t, fx.engine.Restore(ctx))

	assert.False(t, fx.cal.IsFree(2, ivl(t, "09:00", "10:00")))
	assert.True(t, fx.cal.IsFree(2, ivl(t, "11:00", "12:00")))
	assert.True(t, fx.cal.IsFree(2, ivl(t, "10:30", "11:00")))
}
