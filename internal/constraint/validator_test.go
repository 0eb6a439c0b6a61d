package constraint

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evanmoran/ganttd/internal/calendar"
	"github.com/evanmoran/ganttd/internal/domain"
	"github.com/evanmoran/ganttd/internal/repository"
	"github.com/evanmoran/ganttd/internal/testutil"
)

type validatorFixture struct {
	svc      *Service
	repos    *repository.Repos
	activity *domain.Activity
}

func newValidatorFixture(t *testing.T) *validatorFixture {
	t.Helper()
	database := testutil.NewTestDB(t)
	repos := repository.NewRepos(database)
	ctx := context.Background()

	org := testutil.NewTestOrg("Acme")
	require.NoError(t, repos.Organizations.Create(ctx, org))
	owner := testutil.NewTestUser(org.ID, "pm@acme.test")
	require.NoError(t, repos.Users.Create(ctx, owner))
	project := testutil.NewTestProject(org.ID, "Rollout", testutil.WithOwner(owner.ID))
	require.NoError(t, repos.Projects.Create(ctx, project))
	activity := testutil.NewTestActivity(project.ID, "Build")
	require.NoError(t, repos.Activities.Create(ctx, activity))

	calendars := calendar.NewService(repos.Organizations, repos.Holidays)
	return &validatorFixture{
		svc: NewService(testutil.NewTestUoW(database),
			repos.Activities, repos.Tasks, repos.Projects,
			repos.Dependencies, repos.Constraints, calendars),
		repos:    repos,
		activity: activity,
	}
}

func (f *validatorFixture) addTask(t *testing.T, name string, start, end time.Time, hours float64) *domain.Task {
	t.Helper()
	task := testutil.NewTestTask(f.activity.ID, name,
		testutil.WithTaskDates(start, end), testutil.WithDuration(hours))
	require.NoError(t, f.repos.Tasks.Create(context.Background(), task))
	return task
}

func findViolation(vs []domain.Violation, kind domain.ViolationKind) *domain.Violation {
	for i := range vs {
		if vs[i].Kind == kind {
			return &vs[i]
		}
	}
	return nil
}

func utc(day, hour int) time.Time {
	return time.Date(2026, time.January, day, hour, 0, 0, 0, time.UTC)
}

func TestAddConstraintRequiresDate(t *testing.T) {
	f := newValidatorFixture(t)
	ctx := context.Background()
	task := f.addTask(t, "T", utc(5, 9), utc(5, 18), 8)

	_, err := f.svc.AddConstraint(ctx, task.ID, domain.ItemTask, domain.ConstraintMustStartOn, nil)
	require.ErrorIs(t, err, domain.ErrValidation)

	// ASAP carries no date.
	c, err := f.svc.AddConstraint(ctx, task.ID, domain.ItemTask, domain.ConstraintASAP, nil)
	require.NoError(t, err)
	assert.Nil(t, c.ConstraintDate)
}

func TestValidateRejectsInvertedDuration(t *testing.T) {
	f := newValidatorFixture(t)
	task := f.addTask(t, "T", utc(5, 9), utc(5, 18), 8)

	result, err := f.svc.ValidateDateEdit(context.Background(), task.ID, domain.ItemTask, utc(6, 9), utc(5, 18))
	require.NoError(t, err)
	assert.False(t, result.Valid)
	require.NotNil(t, findViolation(result.Violations, domain.ViolationDuration))
}

func TestValidateMustStartOnSuggestsDate(t *testing.T) {
	f := newValidatorFixture(t)
	ctx := context.Background()
	task := f.addTask(t, "T", utc(5, 9), utc(5, 18), 8)

	pinned := utc(7, 9)
	_, err := f.svc.AddConstraint(ctx, task.ID, domain.ItemTask, domain.ConstraintMustStartOn, &pinned)
	require.NoError(t, err)

	result, err := f.svc.ValidateDateEdit(ctx, task.ID, domain.ItemTask, utc(6, 9), utc(6, 18))
	require.NoError(t, err)
	assert.False(t, result.Valid)

	v := findViolation(result.Violations, domain.ViolationHardConstraint)
	require.NotNil(t, v)
	require.NotNil(t, v.SuggestedDate)
	assert.Equal(t, pinned, v.SuggestedDate.UTC())

	// The pinned date itself passes.
	result, err = f.svc.ValidateDateEdit(ctx, task.ID, domain.ItemTask, pinned, utc(7, 18))
	require.NoError(t, err)
	assert.True(t, result.Valid)
}

func TestValidatePredecessorConflict(t *testing.T) {
	f := newValidatorFixture(t)
	ctx := context.Background()
	pred := f.addTask(t, "pred", utc(5, 9), utc(5, 18), 8)
	succ := f.addTask(t, "succ", utc(7, 9), utc(7, 18), 8)

	dep := testutil.NewTestTaskDependency(pred.ID, succ.ID, testutil.WithLag(1))
	require.NoError(t, f.repos.Dependencies.Create(ctx, dep))

	// Predecessor ends Mon 18:00, lag one day: start before Tue 18:00 fails.
	result, err := f.svc.ValidateDateEdit(ctx, succ.ID, domain.ItemTask, utc(6, 9), utc(6, 18))
	require.NoError(t, err)
	assert.False(t, result.Valid)

	v := findViolation(result.Violations, domain.ViolationPredecessor)
	require.NotNil(t, v)
	assert.Equal(t, pred.ID, v.AffectedItemID)
	require.NotNil(t, v.SuggestedDate)
	assert.Equal(t, utc(6, 18), v.SuggestedDate.UTC())
}

func TestValidateSuccessorConflict(t *testing.T) {
	f := newValidatorFixture(t)
	ctx := context.Background()
	pred := f.addTask(t, "pred", utc(5, 9), utc(5, 18), 8)
	succ := f.addTask(t, "succ", utc(7, 9), utc(7, 18), 8)

	dep := testutil.NewTestTaskDependency(pred.ID, succ.ID)
	require.NoError(t, f.repos.Dependencies.Create(ctx, dep))

	// Stretching the predecessor past the successor's start fails.
	result, err := f.svc.ValidateDateEdit(ctx, pred.ID, domain.ItemTask, utc(5, 9), utc(7, 12))
	require.NoError(t, err)
	assert.False(t, result.Valid)

	v := findViolation(result.Violations, domain.ViolationSuccessor)
	require.NotNil(t, v)
	assert.Equal(t, succ.ID, v.AffectedItemID)
}

func TestValidateNonWorkingStartSnapsForward(t *testing.T) {
	f := newValidatorFixture(t)
	task := f.addTask(t, "T", utc(5, 9), utc(5, 18), 8)

	// Saturday Jan 10 start: suggested date is Monday 09:00.
	result, err := f.svc.ValidateDateEdit(context.Background(), task.ID, domain.ItemTask, utc(10, 10), utc(12, 18))
	require.NoError(t, err)
	assert.False(t, result.Valid)

	v := findViolation(result.Violations, domain.ViolationCalendar)
	require.NotNil(t, v)
	require.NotNil(t, v.SuggestedDate)
	assert.Equal(t, utc(12, 9), v.SuggestedDate.UTC())
}

func TestApplyDateEditPersistsOnlyWhenValid(t *testing.T) {
	f := newValidatorFixture(t)
	ctx := context.Background()
	task := f.addTask(t, "T", utc(5, 9), utc(5, 18), 8)

	pinned := utc(7, 9)
	_, err := f.svc.AddConstraint(ctx, task.ID, domain.ItemTask, domain.ConstraintMustStartOn, &pinned)
	require.NoError(t, err)

	// Invalid and unforced: nothing changes.
	result, err := f.svc.ApplyDateEdit(ctx, task.ID, domain.ItemTask, utc(6, 9), utc(6, 18), false)
	require.NoError(t, err)
	assert.False(t, result.Success)

	stored, err := f.repos.Tasks.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, utc(5, 9), stored.StartDate.UTC())

	// Forced: persists, violations kept for audit.
	result, err = f.svc.ApplyDateEdit(ctx, task.ID, domain.ItemTask, utc(6, 9), utc(6, 18), true)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.False(t, result.Validation.Valid)
	assert.NotEmpty(t, result.Validation.Violations)

	stored, err = f.repos.Tasks.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, utc(6, 9), stored.StartDate.UTC())
}

func TestGetValidDateRangeIntersection(t *testing.T) {
	f := newValidatorFixture(t)
	ctx := context.Background()
	task := f.addTask(t, "T", utc(7, 9), utc(7, 18), 8)

	noEarlier := utc(6, 9)
	noLater := utc(8, 18)
	_, err := f.svc.AddConstraint(ctx, task.ID, domain.ItemTask, domain.ConstraintStartNoEarlier, &noEarlier)
	require.NoError(t, err)
	_, err = f.svc.AddConstraint(ctx, task.ID, domain.ItemTask, domain.ConstraintFinishNoLater, &noLater)
	require.NoError(t, err)

	r, err := f.svc.GetValidDateRange(ctx, task.ID, domain.ItemTask)
	require.NoError(t, err)
	assert.True(t, r.Feasible)
	assert.Equal(t, noEarlier, r.MinStart.UTC())
	assert.Equal(t, noLater, r.MaxEnd.UTC())
}

func TestGetValidDateRangeInfeasible(t *testing.T) {
	f := newValidatorFixture(t)
	ctx := context.Background()
	task := f.addTask(t, "T", utc(7, 9), utc(7, 18), 8)

	late := utc(8, 9)
	early := utc(6, 9)
	_, err := f.svc.AddConstraint(ctx, task.ID, domain.ItemTask, domain.ConstraintStartNoEarlier, &late)
	require.NoError(t, err)
	_, err = f.svc.AddConstraint(ctx, task.ID, domain.ItemTask, domain.ConstraintStartNoLater, &early)
	require.NoError(t, err)

	r, err := f.svc.GetValidDateRange(ctx, task.ID, domain.ItemTask)
	require.NoError(t, err)
	assert.False(t, r.Feasible)
	require.NotNil(t, findViolation(r.Violations, domain.ViolationHardConstraint))
}

func TestPropagateDateChanges(t *testing.T) {
	f := newValidatorFixture(t)
	ctx := context.Background()
	pred := f.addTask(t, "pred", utc(5, 9), utc(6, 18), 8)
	succ := f.addTask(t, "succ", utc(6, 9), utc(6, 18), 8)

	dep := testutil.NewTestTaskDependency(pred.ID, succ.ID)
	require.NoError(t, f.repos.Dependencies.Create(ctx, dep))

	changes, err := f.svc.PropagateDateChanges(ctx, pred.ID, domain.ItemTask)
	require.NoError(t, err)
	require.Len(t, changes, 1)

	// Successor is pushed to the predecessor's end and re-spanned by its
	// working-hours duration: Tue 18:00 + 8h working = Wed 18:00.
	change := changes[0]
	assert.Equal(t, succ.ID, change.ItemID)
	assert.Equal(t, utc(6, 18), change.NewStart.UTC())
	assert.Equal(t, utc(7, 18), change.NewEnd.UTC())

	stored, err := f.repos.Tasks.GetByID(ctx, succ.ID)
	require.NoError(t, err)
	assert.Equal(t, change.NewStart.UTC(), stored.StartDate.UTC())
	assert.Equal(t, change.NewEnd.UTC(), stored.EndDate.UTC())
}

func TestPropagateWithoutSuccessors(t *testing.T) {
	f := newValidatorFixture(t)
	task := f.addTask(t, "T", utc(5, 9), utc(5, 18), 8)

	changes, err := f.svc.PropagateDateChanges(context.Background(), task.ID, domain.ItemTask)
	require.NoError(t, err)
	assert.Empty(t, changes)
}
