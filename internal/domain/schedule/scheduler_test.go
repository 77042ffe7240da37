package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otoservice/workshop-scheduler/internal/httperr"
)

// fakeDirectory serves a fixed mechanic roster and catalog.
type fakeDirectory struct {
	mechanics []Mechanic
	services  map[uint]ServiceEntry
}

func (d *fakeDirectory) MechanicsBySkill(_ context.Context, category string) ([]Mechanic, error) {
	var out []Mechanic
	for _, m := range d.mechanics {
		if m.HasSkill(category) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (d *fakeDirectory) Mechanic(_ context.Context, id uint) (*Mechanic, error) {
	for _, m := range d.mechanics {
		if m.ID == id {
			mm := m
			return &mm, nil
		}
	}
	return nil, httperr.ErrBusinessf(httperr.CodeNotFound, "mechanic %d not found", id)
}

func (d *fakeDirectory) ServiceEntry(_ context.Context, id uint) (*ServiceEntry, error) {
	svc, ok := d.services[id]
	if !ok {
		return nil, httperr.ErrBusinessf(httperr.CodeNotFound, "service %d not in catalog", id)
	}
	return &svc, nil
}

func fullWeek(start, end string) WorkingHours {
	h := make(WorkingHours)
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		h[wd] = DayHours{Start: start, End: end, Active: true}
	}
	return h
}

func brakeShop(mechanics ...Mechanic) *fakeDirectory {
	return &fakeDirectory{
		mechanics: mechanics,
		services: map[uint]ServiceEntry{
			10: {ID: 10, Name: "Brake Pad Replacement", Category: "brakes", Duration: time.Hour, Price: 150},
		},
	}
}

func brakeRequest(t *testing.T, earliest, latest string) Request {
	t.Helper()
	return Request{
		ServiceID:     10,
		VehicleID:     1,
		CustomerID:    6,
		EarliestStart: at(t, earliest),
		LatestStart:   at(t, latest),
	}
}

func TestPlanEarliestSlot(t *testing.T) {
	// Mechanic free 09:00-12:00, request for 1h in [09:00, 11:00]
	// lands at 09:00.
	dir := brakeShop(Mechanic{ID: 2, Skills: []string{"brakes"}, Hours: fullWeek("09:00", "12:00")})
	sched := NewScheduler(dir, NewCalendar())

	asg, err := sched.Plan(context.Background(), brakeRequest(t, "09:00", "11:00"), nil)
	require.NoError(t, err)
	assert.Equal(t, uint(2), asg.MechanicID)
	assert.Equal(t, ivl(t, "09:00", "10:00"), asg.Slot)
}

func TestPlanSkipsBookedSlots(t *testing.T) {
	dir := brakeShop(Mechanic{ID: 2, Skills: []string{"brakes"}, Hours: fullWeek("09:00", "17:00")})
	cal := NewCalendar()
	require.NoError(t, cal.Reserve(2, ivl(t, "09:00", "10:30")))

	sched := NewScheduler(dir, cal)
	asg, err := sched.Plan(context.Background(), brakeRequest(t, "09:00", "14:00"), nil)
	require.NoError(t, err)
	assert.Equal(t, ivl(t, "10:30", "11:30"), asg.Slot)
}

func TestPlanNoQualifiedMechanic(t *testing.T) {
	dir := brakeShop(Mechanic{ID: 2, Skills: []string{"tires"}, Hours: fullWeek("09:00", "17:00")})
	sched := NewScheduler(dir, NewCalendar())

	_, err := sched.Plan(context.Background(), brakeRequest(t, "09:00", "11:00"), nil)
	assert.True(t, httperr.IsBusiness(err, httperr.CodeNoQualifiedMechanic))
}

func TestPlanNoAvailability(t *testing.T) {
	dir := brakeShop(Mechanic{ID: 2, Skills: []string{"brakes"}, Hours: fullWeek("09:00", "11:00")})
	cal := NewCalendar()
	require.NoError(t, cal.Reserve(2, ivl(t, "09:00", "11:00")))

	sched := NewScheduler(dir, cal)
	_, err := sched.Plan(context.Background(), brakeRequest(t, "09:00", "10:00"), nil)
	assert.True(t, httperr.IsBusiness(err, httperr.CodeNoAvailability))
}

func TestPlanOutsideWorkingHours(t *testing.T) {
	dir := brakeShop(Mechanic{ID: 2, Skills: []string{"brakes"}, Hours: fullWeek("09:00", "12:00")})
	sched := NewScheduler(dir, NewCalendar())

	_, err := sched.Plan(context.Background(), brakeRequest(t, "13:00", "16:00"), nil)
	assert.True(t, httperr.IsBusiness(err, httperr.CodeNoAvailability))
}

func TestPlanRespectsLunchBreak(t *testing.T) {
	hours := make(WorkingHours)
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		hours[wd] = DayHours{
			Start: "09:00", End: "17:00",
			LunchStart: "12:00", LunchEnd: "13:00",
			Active: true,
		}
	}
	dir := brakeShop(Mechanic{ID: 2, Skills: []string{"brakes"}, Hours: hours})
	cal := NewCalendar()
	require.NoError(t, cal.Reserve(2, ivl(t, "09:00", "12:00")))

	sched := NewScheduler(dir, cal)
	asg, err := sched.Plan(context.Background(), brakeRequest(t, "09:00", "14:00"), nil)
	require.NoError(t, err)
	assert.Equal(t, ivl(t, "13:00", "14:00"), asg.Slot)
}

func TestPlanInvalidRequest(t *testing.T) {
	dir := brakeShop(Mechanic{ID: 2, Skills: []string{"brakes"}, Hours: fullWeek("09:00", "17:00")})
	sched := NewScheduler(dir, NewCalendar())

	_, err := sched.Plan(context.Background(), brakeRequest(t, "11:00", "09:00"), nil)
	assert.True(t, httperr.IsBusiness(err, httperr.CodeInvalidRequest))
}

func TestPlanUnknownService(t *testing.T) {
	dir := brakeShop(Mechanic{ID: 2, Skills: []string{"brakes"}, Hours: fullWeek("09:00", "17:00")})
	sched := NewScheduler(dir, NewCalendar())

	req := brakeRequest(t, "09:00", "11:00")
	req.ServiceID = 99
	_, err := sched.Plan(context.Background(), req, nil)
	assert.True(t, httperr.IsBusiness(err, httperr.CodeNotFound))
}

func TestPlanLoadBalancing(t *testing.T) {
	dir := brakeShop(
		Mechanic{ID: 2, Skills: []string{"brakes"}, Hours: fullWeek("09:00", "17:00")},
		Mechanic{ID: 3, Skills: []string{"brakes"}, Hours: fullWeek("09:00", "17:00")},
	)
	cal := NewCalendar()
	// Mechanic 2 already has a booking in the window; 3 is idle.
	require.NoError(t, cal.Reserve(2, ivl(t, "10:00", "11:00")))

	sched := NewScheduler(dir, cal)
	asg, err := sched.Plan(context.Background(), brakeRequest(t, "09:00", "11:00"), nil)
	require.NoError(t, err)
	assert.Equal(t, uint(3), asg.MechanicID)
}

func TestPlanLoadTieBreaksByMechanicID(t *testing.T) {
	dir := brakeShop(
		Mechanic{ID: 5, Skills: []string{"brakes"}, Hours: fullWeek("09:00", "17:00")},
		Mechanic{ID: 3, Skills: []string{"brakes"}, Hours: fullWeek("09:00", "17:00")},
	)

	sched := NewScheduler(dir, NewCalendar())
	asg, err := sched.Plan(context.Background(), brakeRequest(t, "09:00", "11:00"), nil)
	require.NoError(t, err)
	assert.Equal(t, uint(3), asg.MechanicID)
}

func TestPlanPreferredMechanicFirst(t *testing.T) {
	dir := brakeShop(
		Mechanic{ID: 2, Skills: []string{"brakes"}, Hours: fullWeek("09:00", "17:00")},
		Mechanic{ID: 3, Skills: []string{"brakes"}, Hours: fullWeek("09:00", "17:00")},
	)

	preferred := uint(3)
	req := brakeRequest(t, "09:00", "11:00")
	req.PreferredMechanicID = &preferred

	sched := NewScheduler(dir, NewCalendar())
	asg, err := sched.Plan(context.Background(), req, nil)
	require.NoError(t, err)
	assert.Equal(t, uint(3), asg.MechanicID)
}

func TestPlanExcludedMechanicsReportNoAvailability(t *testing.T) {
	dir := brakeShop(Mechanic{ID: 2, Skills: []string{"brakes"}, Hours: fullWeek("09:00", "17:00")})
	sched := NewScheduler(dir, NewCalendar())

	_, err := sched.Plan(context.Background(), brakeRequest(t, "09:00", "11:00"), map[uint]bool{2: true})
	assert.True(t, httperr.IsBusiness(err, httperr.CodeNoAvailability))
}

func TestPlanSlotStaysInsideRequestedWindow(t *testing.T) {
	dir := brakeShop(Mechanic{ID: 2, Skills: []string{"brakes"}, Hours: fullWeek("09:00", "17:00")})
	cal := NewCalendar()
	// First free gap opens exactly at the latest allowed start.
	require.NoError(t, cal.Reserve(2, ivl(t, "09:00", "11:00")))

	sched := NewScheduler(dir, cal)
	req := brakeRequest(t, "09:00", "11:00")
	asg, err := sched.Plan(context.Background(), req, nil)
	require.NoError(t, err)

	assert.False(t, asg.Slot.Start.Before(req.EarliestStart))
	assert.False(t, asg.Slot.Start.After(req.LatestStart))
	assert.Equal(t, time.Hour, asg.Slot.Duration())
}
