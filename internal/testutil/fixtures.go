package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/evanmoran/ganttd/internal/domain"
)

// Organization options
type OrgOption func(*domain.Organization)

func WithTimezone(tz string) OrgOption {
	return func(o *domain.Organization) {
		o.Timezone = tz
	}
}

func WithWorkingDaysMask(mask string) OrgOption {
	return func(o *domain.Organization) {
		o.WorkingDaysMask = mask
	}
}

func WithWorkingHours(blocks ...domain.WorkingBlock) OrgOption {
	return func(o *domain.Organization) {
		o.WorkingHours = blocks
	}
}

// NewTestOrg builds an organisation with a Monday-to-Friday, 09:00-13:00 plus
// 14:00-18:00 calendar in UTC.
func NewTestOrg(name string, opts ...OrgOption) *domain.Organization {
	now := time.Now().UTC()
	o := &domain.Organization{
		ID:              uuid.NewString(),
		Name:            name,
		Timezone:        "UTC",
		WorkingDaysMask: "0111110",
		WorkingHours: []domain.WorkingBlock{
			{Start: "09:00", End: "13:00"},
			{Start: "14:00", End: "18:00"},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// User options
type UserOption func(*domain.User)

func WithRole(r domain.Role) UserOption {
	return func(u *domain.User) {
		u.Role = r
	}
}

func NewTestUser(orgID, email string, opts ...UserOption) *domain.User {
	now := time.Now().UTC()
	u := &domain.User{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		Email:          email,
		Name:           "Test User",
		PasswordHash:   "$2a$10$0000000000000000000000000000000000000000000000000000.",
		Role:           domain.RolePM,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Project options
type ProjectOption func(*domain.Project)

func WithProjectStart(d time.Time) ProjectOption {
	return func(p *domain.Project) {
		p.StartDate = d
	}
}

func WithProjectStatus(s domain.Status) ProjectOption {
	return func(p *domain.Project) {
		p.Status = s
	}
}

func WithOwner(userID string) ProjectOption {
	return func(p *domain.Project) {
		p.OwnerID = userID
	}
}

func NewTestProject(orgID, name string, opts ...ProjectOption) *domain.Project {
	now := time.Now().UTC()
	p := &domain.Project{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		Name:           name,
		StartDate:      time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC),
		Status:         domain.StatusNotStarted,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Activity options
type ActivityOption func(*domain.Activity)

func WithActivityDates(start, end time.Time) ActivityOption {
	return func(a *domain.Activity) {
		a.StartDate = start
		a.EndDate = end
	}
}

func WithActivityStatus(s domain.Status) ActivityOption {
	return func(a *domain.Activity) {
		a.Status = s
	}
}

func WithActivityProgress(p float64) ActivityOption {
	return func(a *domain.Activity) {
		a.ProgressPercentage = p
	}
}

func WithChecklist(items ...string) ActivityOption {
	return func(a *domain.Activity) {
		a.VerificationChecklist = items
	}
}

func NewTestActivity(projectID, name string, opts ...ActivityOption) *domain.Activity {
	now := time.Now().UTC()
	a := &domain.Activity{
		ID:             uuid.NewString(),
		ProjectID:      projectID,
		Name:           name,
		StartDate:      time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2026, time.January, 9, 18, 0, 0, 0, time.UTC),
		Status:         domain.StatusNotStarted,
		TrackingStatus: domain.TrackingOnTrack,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Task options
type TaskOption func(*domain.Task)

func WithTaskDates(start, end time.Time) TaskOption {
	return func(t *domain.Task) {
		t.StartDate = start
		t.EndDate = end
	}
}

func WithDuration(hours float64) TaskOption {
	return func(t *domain.Task) {
		t.DurationHours = hours
	}
}

func WithAssignee(userID string) TaskOption {
	return func(t *domain.Task) {
		t.AssigneeID = &userID
	}
}

func WithTaskStatus(s domain.Status) TaskOption {
	return func(t *domain.Task) {
		t.Status = s
	}
}

func WithTaskProgress(p float64) TaskOption {
	return func(t *domain.Task) {
		t.ProgressPercentage = p
	}
}

func NewTestTask(activityID, name string, opts ...TaskOption) *domain.Task {
	now := time.Now().UTC()
	t := &domain.Task{
		ID:             uuid.NewString(),
		ActivityID:     activityID,
		Name:           name,
		StartDate:      time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2026, time.January, 6, 18, 0, 0, 0, time.UTC),
		DurationHours:  8,
		Status:         domain.StatusNotStarted,
		TrackingStatus: domain.TrackingOnTrack,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewTestTaskDependency builds an FS edge between two tasks with no lag.
func NewTestTaskDependency(predID, succID string, opts ...DependencyOption) *domain.Dependency {
	d := &domain.Dependency{
		ID:                uuid.NewString(),
		TaskPredecessorID: &predID,
		TaskSuccessorID:   &succID,
		Type:              domain.DepFinishToStart,
		LagKind:           domain.LagCalendarDays,
		CreatedAt:         time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewTestActivityDependency builds an FS edge between two activities.
func NewTestActivityDependency(predID, succID string, opts ...DependencyOption) *domain.Dependency {
	d := &domain.Dependency{
		ID:                    uuid.NewString(),
		ActivityPredecessorID: &predID,
		ActivitySuccessorID:   &succID,
		Type:                  domain.DepFinishToStart,
		LagKind:               domain.LagCalendarDays,
		CreatedAt:             time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type DependencyOption func(*domain.Dependency)

func WithDependencyType(t domain.DependencyType) DependencyOption {
	return func(d *domain.Dependency) {
		d.Type = t
	}
}

func WithLag(days float64) DependencyOption {
	return func(d *domain.Dependency) {
		d.LagDays = days
	}
}
