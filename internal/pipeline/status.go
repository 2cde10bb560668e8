package pipeline

import (
	"fmt"
	"time"
)

// Status is the state of one pipeline run.
type Status string

const (
	StatusPending     Status = "PENDING"
	StatusFiltered    Status = "FILTERED"
	StatusExtracted   Status = "EXTRACTED"
	StatusFailed      Status = "FAILED"
	StatusValidated   Status = "VALIDATED"
	StatusNeedsReview Status = "NEEDS_REVIEW"
	StatusDuplicate   Status = "DUPLICATE"
	StatusReady       Status = "READY"
)

// transitions lists the only allowed moves. Statuses without an entry are terminal.
var transitions = map[Status][]Status{
	StatusPending:     {StatusFiltered, StatusExtracted, StatusFailed},
	StatusExtracted:   {StatusValidated, StatusNeedsReview, StatusFailed},
	StatusValidated:   {StatusDuplicate, StatusReady},
	StatusNeedsReview: {StatusDuplicate, StatusReady},
}

// CanTransition reports whether the move from one status to another is allowed.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// Transition is one entry of a record's status history.
type Transition struct {
	From Status    `json:"from"`
	To   Status    `json:"to"`
	At   time.Time `json:"at"`
}

// advance moves the record to the next status. A disallowed move is a
// programming error and is reported, not applied.
func (r *Record) advance(to Status, at time.Time) error {
	if !CanTransition(r.Status, to) {
		return fmt.Errorf("invalid status transition %s -> %s", r.Status, to)
	}
	r.History = append(r.History, Transition{From: r.Status, To: to, At: at})
	r.Status = to
	return nil
}
