package schedule

import (
	"fmt"
	"time"

	"github.com/otoservice/workshop-scheduler/internal/httperr"
)

// Interval is a half-open time range [Start, End). End is excluded, so
// back-to-back bookings sharing an instant do not conflict.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewInterval validates start < end before any interval enters the
// calendar. Zero-length and inverted ranges are rejected.
func NewInterval(start, end time.Time) (Interval, error) {
	iv := Interval{Start: start, End: end}
	if err := iv.Validate(); err != nil {
		return Interval{}, err
	}
	return iv, nil
}

func (iv Interval) Validate() error {
	if !iv.Start.Before(iv.End) {
		return httperr.ErrBusinessf(
			httperr.CodeInvalidInterval,
			"start %s must be before end %s",
			iv.Start.Format(time.RFC3339),
			iv.End.Format(time.RFC3339),
		)
	}
	return nil
}

func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

func (iv Interval) Equal(other Interval) bool {
	return iv.Start.Equal(other.Start) && iv.End.Equal(other.End)
}

// Clip intersects iv with window. ok is false when they do not overlap.
func (iv Interval) Clip(window Interval) (Interval, bool) {
	out := iv
	if out.Start.Before(window.Start) {
		out.Start = window.Start
	}
	if out.End.After(window.End) {
		out.End = window.End
	}
	if !out.Start.Before(out.End) {
		return Interval{}, false
	}
	return out, true
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%s, %s)", iv.Start.Format(time.RFC3339), iv.End.Format(time.RFC3339))
}
