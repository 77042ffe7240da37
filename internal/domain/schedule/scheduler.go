package schedule

import (
	"context"
	"sort"
	"time"

	"github.com/otoservice/workshop-scheduler/internal/httperr"
)

// Request is one booking attempt: which service, for whom, and the
// window the customer can make. Duration defaults to the catalog
// estimate when zero.
type Request struct {
	ServiceID  uint
	VehicleID  uint
	CustomerID uint

	EarliestStart time.Time
	LatestStart   time.Time
	Duration      time.Duration

	PreferredMechanicID *uint
	Notes               string
}

func (r Request) Validate() error {
	if r.ServiceID == 0 || r.VehicleID == 0 || r.CustomerID == 0 {
		return httperr.ErrBusinessf(httperr.CodeInvalidRequest, "service, vehicle and customer are required")
	}
	if r.EarliestStart.IsZero() || r.LatestStart.IsZero() {
		return httperr.ErrBusinessf(httperr.CodeInvalidRequest, "time window is required")
	}
	if r.EarliestStart.After(r.LatestStart) {
		return httperr.ErrBusinessf(
			httperr.CodeInvalidRequest,
			"earliest start %s is after latest start %s",
			r.EarliestStart.Format(time.RFC3339),
			r.LatestStart.Format(time.RFC3339),
		)
	}
	if r.Duration < 0 {
		return httperr.ErrBusinessf(httperr.CodeInvalidRequest, "negative duration")
	}
	return nil
}

// Assignment is the scheduler's answer: one mechanic, one concrete slot.
type Assignment struct {
	MechanicID uint
	Slot       Interval
	Service    ServiceEntry
}

// Scheduler turns a Request into an Assignment. Selection is greedy:
// the first qualified candidate with a qualifying free slot wins, and
// the chosen interval is the earliest such slot. Runs read-only against
// calendar snapshots; the caller commits with Calendar.Reserve, which
// re-validates against live state.
type Scheduler struct {
	dir Directory
	cal *Calendar
}

func NewScheduler(dir Directory, cal *Calendar) *Scheduler {
	return &Scheduler{dir: dir, cal: cal}
}

// Plan finds a (mechanic, interval) pairing for req, skipping mechanics
// in exclude (the book-retry path after a lost reserve race). Re-running
// the same request after state changes may pick a different mechanic;
// callers must not assume idempotence.
func (s *Scheduler) Plan(ctx context.Context, req Request, exclude map[uint]bool) (*Assignment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	svc, err := s.dir.ServiceEntry(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}
	if svc == nil {
		return nil, httperr.ErrBusinessf(httperr.CodeNotFound, "service %d not in catalog", req.ServiceID)
	}

	duration := req.Duration
	if duration == 0 {
		duration = svc.Duration
	}
	if duration <= 0 {
		return nil, httperr.ErrBusinessf(httperr.CodeInvalidRequest, "service %d has no duration estimate", req.ServiceID)
	}

	window := Interval{Start: req.EarliestStart, End: req.LatestStart.Add(duration)}

	qualified, err := s.dir.MechanicsBySkill(ctx, svc.Category)
	if err != nil {
		return nil, err
	}
	if len(qualified) == 0 {
		return nil, httperr.ErrBusinessf(
			httperr.CodeNoQualifiedMechanic,
			"no mechanic is qualified for %q", svc.Category,
		)
	}

	candidates := s.order(req, qualified, window, exclude)
	if len(candidates) == 0 {
		// Qualified mechanics exist but every one was excluded by the
		// retry path; report it as a slot problem, not a skill problem.
		return nil, noAvailability(window)
	}

	for _, m := range candidates {
		if slot, ok := s.earliestSlot(m, window, req.LatestStart, duration); ok {
			return &Assignment{MechanicID: m.ID, Slot: slot, Service: *svc}, nil
		}
	}

	return nil, noAvailability(window)
}

// order arranges candidates: preferred mechanic first when qualified,
// then fewest bookings inside the window, ties by ascending id so the
// outcome is deterministic.
func (s *Scheduler) order(req Request, qualified []Mechanic, window Interval, exclude map[uint]bool) []Mechanic {
	var preferred *Mechanic
	rest := make([]Mechanic, 0, len(qualified))

	for _, m := range qualified {
		if exclude[m.ID] {
			continue
		}
		if req.PreferredMechanicID != nil && m.ID == *req.PreferredMechanicID {
			mm := m
			preferred = &mm
			continue
		}
		rest = append(rest, m)
	}

	load := make(map[uint]int, len(rest))
	for _, m := range rest {
		load[m.ID] = s.cal.BookingsWithin(m.ID, window)
	}
	sort.Slice(rest, func(i, j int) bool {
		if load[rest[i].ID] != load[rest[j].ID] {
			return load[rest[i].ID] < load[rest[j].ID]
		}
		return rest[i].ID < rest[j].ID
	})

	if preferred != nil {
		return append([]Mechanic{*preferred}, rest...)
	}
	return rest
}

// earliestSlot scans the mechanic's working-hour segments day by day
// across the window and returns the first free slot whose start is
// still inside [earliestStart, latestStart].
func (s *Scheduler) earliestSlot(m Mechanic, window Interval, latestStart time.Time, duration time.Duration) (Interval, bool) {
	loc := window.Start.Location()
	day := time.Date(
		window.Start.Year(), window.Start.Month(), window.Start.Day(),
		0, 0, 0, 0, loc,
	)

	for !day.After(window.End) {
		if day.After(latestStart) {
			break
		}
		for _, seg := range m.Hours.SegmentsOn(day) {
			clipped, ok := seg.Clip(window)
			if !ok {
				continue
			}
			for _, gap := range s.cal.FreeSlotsWithin(m.ID, clipped, duration) {
				if gap.Start.After(latestStart) {
					continue
				}
				return Interval{Start: gap.Start, End: gap.Start.Add(duration)}, true
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return Interval{}, false
}

func noAvailability(window Interval) error {
	return httperr.ErrBusinessf(
		httperr.CodeNoAvailability,
		"no free slot within %s", window,
	)
}
