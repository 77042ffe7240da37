package schedule

import (
	"context"
	"time"
)

// Directory is the read-only lookup the scheduler consumes: who the
// mechanics are, what they can do and when they work, and what each
// catalog entry requires. It is owned elsewhere (users, vehicles and
// catalog are directory data, not scheduling state).
type Directory interface {
	MechanicsBySkill(ctx context.Context, category string) ([]Mechanic, error)
	Mechanic(ctx context.Context, id uint) (*Mechanic, error)
	ServiceEntry(ctx context.Context, id uint) (*ServiceEntry, error)
}

type ServiceEntry struct {
	ID       uint
	Name     string
	Category string
	Duration time.Duration
	Price    float64
}

type Mechanic struct {
	ID     uint
	Name   string
	Skills []string
	Hours  WorkingHours
}

func (m Mechanic) HasSkill(category string) bool {
	for _, s := range m.Skills {
		if s == category {
			return true
		}
	}
	return false
}

// DayHours is one weekday's shift, "15:04" wall-clock strings. An
// optional lunch break splits the shift in two.
type DayHours struct {
	Start      string
	End        string
	LunchStart string
	LunchEnd   string
	Active     bool
}

// WorkingHours maps weekday to that day's shift.
type WorkingHours map[time.Weekday]DayHours

// SegmentsOn resolves the shift for day's weekday into concrete
// intervals on that date, in day's location. A lunch break yields two
// segments; an inactive or unset day yields none.
func (h WorkingHours) SegmentsOn(day time.Time) []Interval {
	dh, ok := h[day.Weekday()]
	if !ok || !dh.Active || dh.Start == "" || dh.End == "" {
		return nil
	}

	loc := day.Location()
	parseHM := func(hm string) (time.Time, bool) {
		t, err := time.Parse("15:04", hm)
		if err != nil {
			return time.Time{}, false
		}
		return time.Date(
			day.Year(), day.Month(), day.Day(),
			t.Hour(), t.Minute(), 0, 0,
			loc,
		), true
	}

	shiftStart, ok1 := parseHM(dh.Start)
	shiftEnd, ok2 := parseHM(dh.End)
	if !ok1 || !ok2 || !shiftStart.Before(shiftEnd) {
		return nil
	}

	if dh.LunchStart != "" && dh.LunchEnd != "" {
		lunchStart, ok1 := parseHM(dh.LunchStart)
		lunchEnd, ok2 := parseHM(dh.LunchEnd)
		if ok1 && ok2 && shiftStart.Before(lunchStart) && lunchEnd.Before(shiftEnd) {
			return []Interval{
				{Start: shiftStart, End: lunchStart},
				{Start: lunchEnd, End: shiftEnd},
			}
		}
	}

	return []Interval{{Start: shiftStart, End: shiftEnd}}
}
