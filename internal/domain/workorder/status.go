package workorder

import "github.com/otoservice/workshop-scheduler/internal/httperr"

type Status string

const (
	StatusPending     Status = "pending"
	StatusInProgress  Status = "in_progress"
	StatusPartsNeeded Status = "parts_needed"
	StatusCompleted   Status = "completed"
	StatusCancelled   Status = "cancelled"
)

// transitions is the full lifecycle: completed and cancelled are
// terminal; parts_needed may cycle back to in_progress.
var transitions = map[Status][]Status{
	StatusPending:     {StatusInProgress, StatusCancelled},
	StatusInProgress:  {StatusCompleted, StatusPartsNeeded, StatusCancelled},
	StatusPartsNeeded: {StatusInProgress, StatusCancelled},
	StatusCompleted:   {},
	StatusCancelled:   {},
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := transitions[st]; !ok {
		return "", httperr.ErrBusinessf(httperr.CodeInvalidRequest, "unknown status %q", s)
	}
	return st, nil
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition checks the table and returns illegal_transition when
// the move is not allowed, leaving the caller's state untouched.
func CanTransition(from, to Status) error {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return nil
		}
	}
	return httperr.ErrBusinessf(
		httperr.CodeIllegalTransition,
		"cannot move work order from %s to %s", from, to,
	)
}

func InitialStatus() Status {
	return StatusPending
}
