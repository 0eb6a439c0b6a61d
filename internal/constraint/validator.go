// Package constraint validates manual date edits against hard constraints,
// predecessors, successors and the working calendar, computes valid date
// ranges, and propagates accepted edits to direct successors.
package constraint

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/evanmoran/ganttd/internal/calendar"
	"github.com/evanmoran/ganttd/internal/db"
	"github.com/evanmoran/ganttd/internal/domain"
	"github.com/evanmoran/ganttd/internal/repository"
)

// ValidationResult is the outcome of validating one proposed date edit.
type ValidationResult struct {
	Valid      bool               `json:"valid"`
	Violations []domain.Violation `json:"violations"`
}

// EditResult reports whether an edit was persisted, with the validation that
// accompanied it. A forced edit persists with Success=true while still
// carrying its violations for audit.
type EditResult struct {
	Success    bool             `json:"success"`
	Validation ValidationResult `json:"validation"`
}

// DateRange is the intersection of all constraints on an item with its
// predecessor and successor windows.
type DateRange struct {
	MinStart   time.Time          `json:"minStart"`
	MaxStart   time.Time          `json:"maxStart"`
	MinEnd     time.Time          `json:"minEnd"`
	MaxEnd     time.Time          `json:"maxEnd"`
	Feasible   bool               `json:"feasible"`
	Violations []domain.Violation `json:"violations,omitempty"`
}

// The representable range the valid-range computation starts from.
var (
	rangeFloor   = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)
	rangeCeiling = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)
)

// Service is the only writer of date constraints and of constraint-driven
// date edits.
type Service struct {
	uow         db.UnitOfWork
	activities  repository.ActivityRepo
	tasks       repository.TaskRepo
	projects    repository.ProjectRepo
	deps        repository.DependencyRepo
	constraints repository.ConstraintRepo
	calendars   *calendar.Service
}

func NewService(
	uow db.UnitOfWork,
	activities repository.ActivityRepo,
	tasks repository.TaskRepo,
	projects repository.ProjectRepo,
	deps repository.DependencyRepo,
	constraints repository.ConstraintRepo,
	calendars *calendar.Service,
) *Service {
	return &Service{
		uow:         uow,
		activities:  activities,
		tasks:       tasks,
		projects:    projects,
		deps:        deps,
		constraints: constraints,
		calendars:   calendars,
	}
}

// AddConstraint validates and stores a new date constraint.
func (s *Service) AddConstraint(ctx context.Context, itemID string, kind domain.ItemType, ctype domain.ConstraintType, date *time.Time) (*domain.DateConstraint, error) {
	c := &domain.DateConstraint{
		ID:             uuid.NewString(),
		ItemID:         itemID,
		ItemType:       kind,
		ConstraintType: ctype,
		ConstraintDate: date,
		CreatedAt:      time.Now().UTC(),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.loadItem(ctx, itemID, kind); err != nil {
		return nil, err
	}
	if err := s.constraints.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetConstraint returns one constraint by id.
func (s *Service) GetConstraint(ctx context.Context, id string) (*domain.DateConstraint, error) {
	return s.constraints.GetByID(ctx, id)
}

// RemoveConstraint deletes one constraint by id.
func (s *Service) RemoveConstraint(ctx context.Context, id string) error {
	return s.constraints.Delete(ctx, id)
}

// ListConstraints returns the constraints on an item.
func (s *Service) ListConstraints(ctx context.Context, itemID string, kind domain.ItemType) ([]domain.DateConstraint, error) {
	return s.constraints.ListByItem(ctx, itemID, kind)
}

// ValidateDateEdit checks a proposed (newStart, newEnd) against the item's
// duration invariant, hard constraints, predecessor and successor windows,
// and the working calendar, accumulating all violations.
func (s *Service) ValidateDateEdit(ctx context.Context, itemID string, kind domain.ItemType, newStart, newEnd time.Time) (*ValidationResult, error) {
	item, err := s.loadItem(ctx, itemID, kind)
	if err != nil {
		return nil, err
	}

	var violations []domain.Violation

	if newEnd.Before(newStart) {
		violations = append(violations, domain.Violation{
			Kind:    domain.ViolationDuration,
			Message: "end date precedes start date",
		})
	}

	constraints, err := s.constraints.ListByItem(ctx, itemID, kind)
	if err != nil {
		return nil, err
	}
	for _, c := range constraints {
		if v := checkConstraint(c, newStart, newEnd); v != nil {
			violations = append(violations, *v)
		}
	}

	// Predecessor and successor checks use FS semantics regardless of the
	// stored edge type: the far endpoint's finish (or start) plus lag bounds
	// the edit.
	preds, err := s.deps.ListPredecessorEdges(ctx, itemID, kind)
	if err != nil {
		return nil, err
	}
	for _, p := range preds {
		required := p.EndDate.Add(lagDuration(p.LagDays))
		if newStart.Before(required) {
			suggested := required
			violations = append(violations, domain.Violation{
				Kind:           domain.ViolationPredecessor,
				Message:        fmt.Sprintf("start must not precede predecessor finish plus %g day(s) lag", p.LagDays),
				AffectedItemID: p.ItemID,
				SuggestedDate:  &suggested,
			})
		}
	}

	succs, err := s.deps.ListSuccessorEdges(ctx, itemID, kind)
	if err != nil {
		return nil, err
	}
	for _, succ := range succs {
		limit := succ.StartDate.Add(-lagDuration(succ.LagDays))
		if newEnd.After(limit) {
			suggested := limit
			violations = append(violations, domain.Violation{
				Kind:           domain.ViolationSuccessor,
				Message:        fmt.Sprintf("end must not exceed successor start minus %g day(s) lag", succ.LagDays),
				AffectedItemID: succ.ItemID,
				SuggestedDate:  &suggested,
			})
		}
	}

	cfg, err := s.calendars.ConfigFor(ctx, item.orgID)
	if err != nil {
		return nil, err
	}
	if !cfg.IsWorkingTime(newStart) {
		suggested := cfg.SnapToWorkingTime(newStart, calendar.Forward)
		violations = append(violations, domain.Violation{
			Kind:          domain.ViolationCalendar,
			Message:       "start falls outside working time",
			SuggestedDate: &suggested,
		})
	}

	return &ValidationResult{Valid: len(violations) == 0, Violations: violations}, nil
}

// ApplyDateEdit validates and, when valid or forced, persists the new dates
// atomically. Invalid unforced edits leave the item unchanged.
func (s *Service) ApplyDateEdit(ctx context.Context, itemID string, kind domain.ItemType, newStart, newEnd time.Time, forceOverride bool) (*EditResult, error) {
	validation, err := s.ValidateDateEdit(ctx, itemID, kind, newStart, newEnd)
	if err != nil {
		return nil, err
	}
	if !validation.Valid && !forceOverride {
		return &EditResult{Success: false, Validation: *validation}, nil
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repos := repository.NewRepos(tx)
		if kind == domain.ItemTask {
			return repos.Tasks.UpdateDates(ctx, itemID, newStart, newEnd)
		}
		return repos.Activities.UpdateDates(ctx, itemID, newStart, newEnd)
	})
	if err != nil {
		return nil, err
	}
	return &EditResult{Success: true, Validation: *validation}, nil
}

// GetValidDateRange intersects the full representable range with every
// constraint on the item, then with the predecessor and successor windows.
func (s *Service) GetValidDateRange(ctx context.Context, itemID string, kind domain.ItemType) (*DateRange, error) {
	if _, err := s.loadItem(ctx, itemID, kind); err != nil {
		return nil, err
	}

	r := &DateRange{
		MinStart: rangeFloor,
		MaxStart: rangeCeiling,
		MinEnd:   rangeFloor,
		MaxEnd:   rangeCeiling,
		Feasible: true,
	}

	constraints, err := s.constraints.ListByItem(ctx, itemID, kind)
	if err != nil {
		return nil, err
	}
	for _, c := range constraints {
		if c.ConstraintDate == nil {
			continue
		}
		d := *c.ConstraintDate
		switch c.ConstraintType {
		case domain.ConstraintMustStartOn:
			r.MinStart = laterOf(r.MinStart, d)
			r.MaxStart = earlierOf(r.MaxStart, d)
		case domain.ConstraintMustFinishOn:
			r.MinEnd = laterOf(r.MinEnd, d)
			r.MaxEnd = earlierOf(r.MaxEnd, d)
		case domain.ConstraintStartNoEarlier:
			r.MinStart = laterOf(r.MinStart, d)
		case domain.ConstraintStartNoLater:
			r.MaxStart = earlierOf(r.MaxStart, d)
		case domain.ConstraintFinishNoEarlier:
			r.MinEnd = laterOf(r.MinEnd, d)
		case domain.ConstraintFinishNoLater:
			r.MaxEnd = earlierOf(r.MaxEnd, d)
		}
	}

	preds, err := s.deps.ListPredecessorEdges(ctx, itemID, kind)
	if err != nil {
		return nil, err
	}
	for _, p := range preds {
		r.MinStart = laterOf(r.MinStart, p.EndDate.Add(lagDuration(p.LagDays)))
	}
	succs, err := s.deps.ListSuccessorEdges(ctx, itemID, kind)
	if err != nil {
		return nil, err
	}
	for _, succ := range succs {
		r.MaxEnd = earlierOf(r.MaxEnd, succ.StartDate.Add(-lagDuration(succ.LagDays)))
	}

	if r.MinStart.After(r.MaxStart) || r.MinEnd.After(r.MaxEnd) {
		r.Feasible = false
		r.Violations = append(r.Violations, domain.Violation{
			Kind:    domain.ViolationHardConstraint,
			Message: "constraints and dependencies leave no feasible date range",
		})
	}
	return r, nil
}

// PropagateDateChanges recomputes the dates of each direct successor from
// this item's finish, writes them atomically, and returns the changes.
// Transitive propagation is the caller's responsibility.
func (s *Service) PropagateDateChanges(ctx context.Context, itemID string, kind domain.ItemType) ([]domain.DateChange, error) {
	item, err := s.loadItem(ctx, itemID, kind)
	if err != nil {
		return nil, err
	}
	cfg, err := s.calendars.ConfigFor(ctx, item.orgID)
	if err != nil {
		return nil, err
	}
	succs, err := s.deps.ListSuccessorEdges(ctx, itemID, kind)
	if err != nil {
		return nil, err
	}

	var changes []domain.DateChange
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repos := repository.NewRepos(tx)
		for _, succ := range succs {
			newStart := item.end.Add(lagDuration(succ.LagDays))
			hours := succ.DurationHours
			if hours == 0 {
				hours = succ.EndDate.Sub(succ.StartDate).Hours()
			}
			newEnd, err := cfg.AddWorkingTime(ctx, newStart, hours)
			if err != nil {
				return err
			}
			if kind == domain.ItemTask {
				if err := repos.Tasks.UpdateDates(ctx, succ.ItemID, newStart, newEnd); err != nil {
					return err
				}
			} else {
				if err := repos.Activities.UpdateDates(ctx, succ.ItemID, newStart, newEnd); err != nil {
					return err
				}
			}
			changes = append(changes, domain.DateChange{
				ItemID:   succ.ItemID,
				ItemType: kind,
				OldStart: succ.StartDate,
				OldEnd:   succ.EndDate,
				NewStart: newStart,
				NewEnd:   newEnd,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return changes, nil
}

// itemSnapshot is the minimal view the validator needs of either item kind.
type itemSnapshot struct {
	orgID string
	start time.Time
	end   time.Time
}

func (s *Service) loadItem(ctx context.Context, itemID string, kind domain.ItemType) (*itemSnapshot, error) {
	var projectID string
	var snap itemSnapshot

	if kind == domain.ItemTask {
		task, err := s.tasks.GetByID(ctx, itemID)
		if err != nil {
			return nil, err
		}
		activity, err := s.activities.GetByID(ctx, task.ActivityID)
		if err != nil {
			return nil, err
		}
		projectID = activity.ProjectID
		snap.start, snap.end = task.StartDate, task.EndDate
	} else {
		activity, err := s.activities.GetByID(ctx, itemID)
		if err != nil {
			return nil, err
		}
		projectID = activity.ProjectID
		snap.start, snap.end = activity.StartDate, activity.EndDate
	}

	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	snap.orgID = project.OrganizationID
	return &snap, nil
}

// checkConstraint evaluates one hard constraint against the proposed dates.
// ASAP/ALAP are soft and never produce a violation here.
func checkConstraint(c domain.DateConstraint, newStart, newEnd time.Time) *domain.Violation {
	if c.ConstraintDate == nil {
		return nil
	}
	d := *c.ConstraintDate

	violated := false
	var msg string
	switch c.ConstraintType {
	case domain.ConstraintMustStartOn:
		violated = !newStart.Equal(d)
		msg = "start must equal the constraint date"
	case domain.ConstraintMustFinishOn:
		violated = !newEnd.Equal(d)
		msg = "end must equal the constraint date"
	case domain.ConstraintStartNoEarlier:
		violated = newStart.Before(d)
		msg = "start must not precede the constraint date"
	case domain.ConstraintStartNoLater:
		violated = newStart.After(d)
		msg = "start must not exceed the constraint date"
	case domain.ConstraintFinishNoEarlier:
		violated = newEnd.Before(d)
		msg = "end must not precede the constraint date"
	case domain.ConstraintFinishNoLater:
		violated = newEnd.After(d)
		msg = "end must not exceed the constraint date"
	default:
		return nil
	}
	if !violated {
		return nil
	}
	suggested := d
	return &domain.Violation{
		Kind:          domain.ViolationHardConstraint,
		Message:       fmt.Sprintf("%s (%s)", msg, c.ConstraintType),
		SuggestedDate: &suggested,
	}
}

func lagDuration(days float64) time.Duration {
	return time.Duration(days * 24 * float64(time.Hour))
}

func laterOf(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}

func earlierOf(a, b time.Time) time.Time {
	if b.Before(a) {
		return b
	}
	return a
}
