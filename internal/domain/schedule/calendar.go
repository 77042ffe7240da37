package schedule

import (
	"sort"
	"sync"
	"time"

	"github.com/otoservice/workshop-scheduler/internal/httperr"
)

// Calendar is the authoritative record of every mechanic's committed
// time blocks. Each mechanic has an independent sorted interval list
// behind its own mutex, so bookings against different mechanics never
// contend; the check-then-insert of Reserve is atomic per mechanic.
type Calendar struct {
	mu    sync.RWMutex
	books map[uint]*mechanicBook
}

type mechanicBook struct {
	mu sync.Mutex
	// sorted by Start, pairwise non-overlapping
	slots []Interval
}

func NewCalendar() *Calendar {
	return &Calendar{books: make(map[uint]*mechanicBook)}
}

func (c *Calendar) book(mechanicID uint) *mechanicBook {
	c.mu.RLock()
	b, ok := c.books[mechanicID]
	c.mu.RUnlock()
	if ok {
		return b
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.books[mechanicID]; ok {
		return b
	}
	b = &mechanicBook{}
	c.books[mechanicID] = b
	return b
}

// IsFree reports whether no committed interval overlaps iv. Touching
// endpoints are not a conflict (half-open semantics). The answer is
// advisory: it can go stale the moment the lock is dropped, so callers
// that intend to book must go through Reserve.
func (c *Calendar) IsFree(mechanicID uint, iv Interval) bool {
	if iv.Validate() != nil {
		return false
	}

	b := c.book(mechanicID)
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.freeLocked(iv)
}

// Reserve atomically re-checks availability and inserts iv, keeping the
// list sorted. A lost race or genuine overlap fails with time_conflict;
// the calendar is never mutated on failure.
func (c *Calendar) Reserve(mechanicID uint, iv Interval) error {
	if err := iv.Validate(); err != nil {
		return err
	}

	b := c.book(mechanicID)
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.freeLocked(iv) {
		return httperr.ErrBusinessf(
			httperr.CodeConflict,
			"mechanic %d already booked within %s", mechanicID, iv,
		)
	}

	i := sort.Search(len(b.slots), func(i int) bool {
		return b.slots[i].Start.After(iv.Start)
	})
	b.slots = append(b.slots, Interval{})
	copy(b.slots[i+1:], b.slots[i:])
	b.slots[i] = iv
	return nil
}

// Release removes the exact interval. Releasing an interval that is not
// on the calendar returns not_found; the second release of the same
// interval therefore reports not_found and leaves the rest untouched.
func (c *Calendar) Release(mechanicID uint, iv Interval) error {
	if err := iv.Validate(); err != nil {
		return err
	}

	b := c.book(mechanicID)
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.slots {
		if s.Equal(iv) {
			b.slots = append(b.slots[:i], b.slots[i+1:]...)
			return nil
		}
	}
	return httperr.ErrBusinessf(
		httperr.CodeNotFound,
		"no reservation %s for mechanic %d", iv, mechanicID,
	)
}

// FreeSlotsWithin returns the gaps inside window that are at least
// minDuration long, ascending by start. It computes over a snapshot of
// the mechanic's list, so iterating the result never blocks bookings.
func (c *Calendar) FreeSlotsWithin(mechanicID uint, window Interval, minDuration time.Duration) []Interval {
	if window.Validate() != nil || minDuration <= 0 {
		return nil
	}

	booked := c.Snapshot(mechanicID)

	var gaps []Interval
	cursor := window.Start
	for _, s := range booked {
		if !s.Start.Before(window.End) {
			break
		}
		if !s.End.After(cursor) {
			continue
		}
		if s.Start.After(cursor) {
			gap := Interval{Start: cursor, End: s.Start}
			if clipped, ok := gap.Clip(window); ok && clipped.Duration() >= minDuration {
				gaps = append(gaps, clipped)
			}
		}
		cursor = s.End
	}
	if cursor.Before(window.End) {
		gap := Interval{Start: cursor, End: window.End}
		if clipped, ok := gap.Clip(window); ok && clipped.Duration() >= minDuration {
			gaps = append(gaps, clipped)
		}
	}
	return gaps
}

// Snapshot copies the mechanic's committed intervals, sorted by start.
func (c *Calendar) Snapshot(mechanicID uint) []Interval {
	b := c.book(mechanicID)
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Interval, len(b.slots))
	copy(out, b.slots)
	return out
}

// BookingsWithin counts committed intervals overlapping window. The
// scheduler uses it as its load-balancing signal.
func (c *Calendar) BookingsWithin(mechanicID uint, window Interval) int {
	b := c.book(mechanicID)
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for _, s := range b.slots {
		if s.Overlaps(window) {
			n++
		}
	}
	return n
}

func (b *mechanicBook) freeLocked(iv Interval) bool {
	for _, s := range b.slots {
		if s.Overlaps(iv) {
			return false
		}
	}
	return true
}
