package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the core error taxonomy. Repositories and services wrap
// these with fmt.Errorf("...: %w", Err...) so callers can classify with
// errors.Is while keeping context in the message.
var (
	ErrNotFound             = errors.New("not found")
	ErrUnauthenticated      = errors.New("unauthenticated")
	ErrForbidden            = errors.New("forbidden")
	ErrValidation           = errors.New("validation failed")
	ErrUniqueConflict       = errors.New("unique constraint conflict")
	ErrReferentialIntegrity = errors.New("referential integrity violation")
	ErrSelfDependency       = errors.New("item cannot depend on itself")
	ErrCycleDetected        = errors.New("dependency would create a cycle")
	ErrGraphCycle           = errors.New("dependency graph contains a cycle")
	ErrScheduleOverflow     = errors.New("working-time arithmetic exceeded the safety cap")
	ErrProgressNotEditable  = errors.New("progress is editable only while in progress")
)

// InvalidStatusTransitionError reports a transition outside the lifecycle
// table.
type InvalidStatusTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidStatusTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}

// ActivityVerifyBlockedError reports a verification attempt on an activity
// that still has unverified tasks.
type ActivityVerifyBlockedError struct {
	ActivityID      string
	UnverifiedTasks int
}

func (e *ActivityVerifyBlockedError) Error() string {
	return fmt.Sprintf("activity %s cannot be verified: %d unverified task(s)", e.ActivityID, e.UnverifiedTasks)
}

// ViolationKind classifies a single date-edit violation.
type ViolationKind string

const (
	ViolationDuration       ViolationKind = "INVALID_DURATION"
	ViolationHardConstraint ViolationKind = "HARD_CONSTRAINT"
	ViolationPredecessor    ViolationKind = "PREDECESSOR_CONFLICT"
	ViolationSuccessor      ViolationKind = "SUCCESSOR_CONFLICT"
	ViolationCalendar       ViolationKind = "NON_WORKING_TIME"
)

// Violation describes one reason a proposed date edit is invalid.
type Violation struct {
	Kind           ViolationKind `json:"kind"`
	Message        string        `json:"message"`
	AffectedItemID string        `json:"affectedItemId,omitempty"`
	SuggestedDate  *time.Time    `json:"suggestedDate,omitempty"`
}

// ConstraintViolationError carries the full violation list for a rejected
// date edit.
type ConstraintViolationError struct {
	Violations []Violation
}

func (e *ConstraintViolationError) Error() string {
	return fmt.Sprintf("date edit violates %d constraint(s)", len(e.Violations))
}
