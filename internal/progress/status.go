package progress

import (
	"errors"
	"fmt"
	"strings"
)

// Status is a project lifecycle state.
type Status string

const (
	StatusPlanning   Status = "Planning"
	StatusInProgress Status = "In Progress"
	StatusReview     Status = "Review"
	StatusDone       Status = "Done"
)

var (
	ErrUnknownStatus     = errors.New("unknown project status")
	ErrInvalidTransition = errors.New("invalid status transition")
)

var transitions = map[Status][]Status{
	StatusPlanning:   {StatusInProgress},
	StatusInProgress: {StatusReview, StatusPlanning},
	StatusReview:     {StatusDone, StatusInProgress},
	StatusDone:       {StatusInProgress},
}

// ParseStatus accepts any casing and surrounding whitespace.
func ParseStatus(value string) (Status, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for status := range transitions {
		if strings.ToLower(string(status)) == normalized {
			return status, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, value)
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Next lists the states reachable from s in one step.
func (s Status) Next() []Status {
	next := transitions[s]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

func CanTransition(from, to Status) bool {
	for _, candidate := range transitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// Transition validates a status change and names the violated rule when it
// is not allowed.
func Transition(from, to Status) error {
	if !from.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, from)
	}
	if !to.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, to)
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s cannot move to %s", ErrInvalidTransition, from, to)
	}
	return nil
}
