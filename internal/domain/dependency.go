package domain

import (
	"fmt"
	"time"
)

// Dependency is a typed, lagged precedence edge between two activities or two
// tasks, never mixed. Exactly one of the activity pair or task pair is set.
type Dependency struct {
	ID string

	ActivityPredecessorID *string
	ActivitySuccessorID   *string
	TaskPredecessorID     *string
	TaskSuccessorID       *string

	Type DependencyType

	// LagDays is a signed calendar-day offset (24h wall-clock), applied to
	// the precedence constraint. Working-day lag would need a new LagKind.
	LagDays float64
	LagKind LagKind

	CreatedAt time.Time
}

// Kind returns the endpoint kind of the edge.
func (d *Dependency) Kind() ItemType {
	if d.TaskPredecessorID != nil {
		return ItemTask
	}
	return ItemActivity
}

// PredecessorID returns the set predecessor endpoint regardless of kind.
func (d *Dependency) PredecessorID() string {
	if d.TaskPredecessorID != nil {
		return *d.TaskPredecessorID
	}
	if d.ActivityPredecessorID != nil {
		return *d.ActivityPredecessorID
	}
	return ""
}

// SuccessorID returns the set successor endpoint regardless of kind.
func (d *Dependency) SuccessorID() string {
	if d.TaskSuccessorID != nil {
		return *d.TaskSuccessorID
	}
	if d.ActivitySuccessorID != nil {
		return *d.ActivitySuccessorID
	}
	return ""
}

// Lag converts the calendar-day lag to a wall-clock duration.
func (d *Dependency) Lag() time.Duration {
	return time.Duration(d.LagDays * 24 * float64(time.Hour))
}

// Validate enforces the exactly-one-endpoint-pair invariant and the type set.
func (d *Dependency) Validate() error {
	actPair := d.ActivityPredecessorID != nil && d.ActivitySuccessorID != nil
	taskPair := d.TaskPredecessorID != nil && d.TaskSuccessorID != nil
	actAny := d.ActivityPredecessorID != nil || d.ActivitySuccessorID != nil
	taskAny := d.TaskPredecessorID != nil || d.TaskSuccessorID != nil

	switch {
	case actPair && taskAny, taskPair && actAny:
		return fmt.Errorf("%w: dependency endpoints must be a single activity pair or task pair", ErrValidation)
	case !actPair && !taskPair:
		return fmt.Errorf("%w: dependency requires both endpoints of one kind", ErrValidation)
	}
	if !ValidDependencyTypes[string(d.Type)] {
		return fmt.Errorf("%w: unknown dependency type %q", ErrValidation, d.Type)
	}
	if d.PredecessorID() == d.SuccessorID() {
		return ErrSelfDependency
	}
	return nil
}
