package jobkind

import (
	"fmt"
	"time"

	"github.com/pdfpipe/server/internal/apperr"
)

// Status is a JobRecord's lifecycle state. Status is monotonic along
// queued -> running -> {succeeded, failed, cancelled} (spec.md §3 invariant 8).
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether s is one of the three terminal states.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusCancelled
}

// allowedNext enumerates the legal next states for each status, per the
// monotonic state machine in spec.md §3/§8.
var allowedNext = map[Status][]Status{
	StatusQueued:  {StatusRunning, StatusCancelled},
	StatusRunning: {StatusSucceeded, StatusFailed, StatusCancelled},
}

// Record is a JobRecord: the unit of queue state exposed to both the
// worker that holds it and the HTTP status/download path that reads it.
type Record struct {
	ID      string
	Kind    Kind
	Status  Status
	Payload Payload

	CreatedAt  time.Time
	StartedAt  *time.Time
	FinishedAt *time.Time

	Progress int

	OutputPath string
	IsMultiple bool // true when OutputPath is a zip of several files

	Error     string
	ErrorCode apperr.Code
}

// New creates a freshly queued record. Callers supply the id (see
// internal/queue for id allocation) so the queue, not this package, owns
// entropy/uniqueness.
func New(id string, kind Kind, payload Payload, now time.Time) *Record {
	return &Record{
		ID:        id,
		Kind:      kind,
		Status:    StatusQueued,
		Payload:   payload,
		CreatedAt: now,
	}
}

// Transition validates and applies a status change, returning an error if
// the move would violate the monotonic state machine.
func (r *Record) Transition(next Status, now time.Time) error {
	if r.Status == next {
		return nil
	}
	for _, ok := range allowedNext[r.Status] {
		if ok == next {
			r.Status = next
			switch next {
			case StatusRunning:
				r.StartedAt = &now
			case StatusSucceeded, StatusFailed, StatusCancelled:
				r.FinishedAt = &now
			}
			return nil
		}
	}
	return fmt.Errorf("invalid job state transition %s -> %s", r.Status, next)
}

// Snapshot returns a value copy of the record's client-visible fields, safe
// to read without holding the queue's lock once copied.
func (r *Record) Snapshot() Record {
	cp := *r
	return cp
}
