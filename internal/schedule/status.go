package schedule

import (
	"errors"
	"fmt"
	"strings"
)

// Status is the lifecycle state of a schedule.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusArrived  Status = "ARRIVED"
	StatusCanceled Status = "CANCELED"
)

var (
	ErrMissingProduct    = errors.New("schedule has no product")
	ErrInvalidStatus     = errors.New("invalid schedule status")
	ErrNegativeQuantity  = errors.New("negative quantity")
	ErrTooManySlots      = errors.New("too many repeat-group entries")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// transitions lists the allowed target states per source state.
var transitions = map[Status][]Status{
	StatusPending:  {StatusArrived, StatusCanceled},
	StatusArrived:  {StatusPending},
	StatusCanceled: {StatusPending},
}

// ParseStatus parses a status name case-insensitively.
// "CANCELLED" is accepted as an alias of CANCELED.
func ParseStatus(s string) (Status, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PENDING":
		return StatusPending, nil
	case "ARRIVED":
		return StatusArrived, nil
	case "CANCELED", "CANCELLED":
		return StatusCanceled, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether moving from s to next is allowed.
func (s Status) CanTransition(next Status) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Transition validates a move from s to next and returns next.
func (s Status) Transition(next Status) (Status, error) {
	if !s.CanTransition(next) {
		return s, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, next)
	}
	return next, nil
}

// TriggersInventorySync reports whether entering next from s is an arrival.
func (s Status) TriggersInventorySync(next Status) bool {
	return s != StatusArrived && next == StatusArrived
}
