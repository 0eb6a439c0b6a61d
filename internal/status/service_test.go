package status

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evanmoran/ganttd/internal/calendar"
	"github.com/evanmoran/ganttd/internal/domain"
	"github.com/evanmoran/ganttd/internal/repository"
	"github.com/evanmoran/ganttd/internal/testutil"
)

type statusFixture struct {
	svc      *Service
	repos    *repository.Repos
	activity *domain.Activity
}

func newStatusFixture(t *testing.T) *statusFixture {
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
	svc := NewService(repos.Activities, repos.Tasks, repos.Projects, calendars, zerolog.Nop()).
		WithClock(func() time.Time {
			return time.Date(2026, time.January, 5, 10, 0, 0, 0, time.UTC)
		})
	return &statusFixture{svc: svc, repos: repos, activity: activity}
}

func (f *statusFixture) addTask(t *testing.T, opts ...testutil.TaskOption) *domain.Task {
	t.Helper()
	task := testutil.NewTestTask(f.activity.ID, "Task", opts...)
	require.NoError(t, f.repos.Tasks.Create(context.Background(), task))
	return task
}

func TestTransitionTaskHappyPath(t *testing.T) {
	f := newStatusFixture(t)
	task := f.addTask(t)

	got, err := f.svc.TransitionTask(context.Background(), task.ID, domain.StatusInProgress, domain.RoleTeamMember)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, got.Status)
}

func TestTransitionTaskCompletedForcesProgress(t *testing.T) {
	f := newStatusFixture(t)
	task := f.addTask(t, testutil.WithTaskStatus(domain.StatusInProgress), testutil.WithTaskProgress(40))

	got, err := f.svc.TransitionTask(context.Background(), task.ID, domain.StatusCompleted, domain.RoleTeamMember)
	require.NoError(t, err)
	assert.Equal(t, 100.0, got.ProgressPercentage)

	stored, err := f.repos.Tasks.GetByID(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, stored.ProgressPercentage)
}

func TestTransitionTaskVerifyRequiresManager(t *testing.T) {
	f := newStatusFixture(t)
	task := f.addTask(t, testutil.WithTaskStatus(domain.StatusCompleted), testutil.WithTaskProgress(100))
	ctx := context.Background()

	_, err := f.svc.TransitionTask(ctx, task.ID, domain.StatusVerified, domain.RoleTeamMember)
	require.ErrorIs(t, err, domain.ErrForbidden)

	got, err := f.svc.TransitionTask(ctx, task.ID, domain.StatusVerified, domain.RolePM)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusVerified, got.Status)
}

func TestTransitionTaskInvalidEdge(t *testing.T) {
	f := newStatusFixture(t)
	task := f.addTask(t)

	_, err := f.svc.TransitionTask(context.Background(), task.ID, domain.StatusOnHold, domain.RolePM)
	var transitionErr *domain.InvalidStatusTransitionError
	require.ErrorAs(t, err, &transitionErr)
}

func TestTransitionTaskRollsUpActivityProgress(t *testing.T) {
	f := newStatusFixture(t)
	f.addTask(t, testutil.WithTaskStatus(domain.StatusInProgress), testutil.WithTaskProgress(50))
	task := f.addTask(t, testutil.WithTaskStatus(domain.StatusInProgress), testutil.WithTaskProgress(50))
	ctx := context.Background()

	// Completing the second task forces it to 100: mean of 50 and 100 is 75.
	_, err := f.svc.TransitionTask(ctx, task.ID, domain.StatusCompleted, domain.RoleTeamMember)
	require.NoError(t, err)

	activity, err := f.repos.Activities.GetByID(ctx, f.activity.ID)
	require.NoError(t, err)
	assert.Equal(t, 75.0, activity.ProgressPercentage)
}

func TestTransitionActivityVerifyBlockedByTasks(t *testing.T) {
	f := newStatusFixture(t)
	f.addTask(t, testutil.WithTaskStatus(domain.StatusVerified), testutil.WithTaskProgress(100))
	f.addTask(t, testutil.WithTaskStatus(domain.StatusCompleted), testutil.WithTaskProgress(100))
	ctx := context.Background()

	require.NoError(t, f.repos.Activities.UpdateStatusProgress(ctx, f.activity.ID, domain.StatusCompleted, domain.TrackingOnTrack, 100))

	_, err := f.svc.TransitionActivity(ctx, f.activity.ID, domain.StatusVerified, domain.RolePM)
	var blocked *domain.ActivityVerifyBlockedError
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, 1, blocked.UnverifiedTasks)
}

func TestTransitionActivityVerifySucceedsWhenAllTasksVerified(t *testing.T) {
	f := newStatusFixture(t)
	f.addTask(t, testutil.WithTaskStatus(domain.StatusVerified), testutil.WithTaskProgress(100))
	ctx := context.Background()

	require.NoError(t, f.repos.Activities.UpdateStatusProgress(ctx, f.activity.ID, domain.StatusCompleted, domain.TrackingOnTrack, 100))

	got, err := f.svc.TransitionActivity(ctx, f.activity.ID, domain.StatusVerified, domain.RolePMO)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusVerified, got.Status)
	assert.Equal(t, 100.0, got.ProgressPercentage)
}

func TestUpdateTaskProgressOnlyWhileInProgress(t *testing.T) {
	f := newStatusFixture(t)
	ctx := context.Background()

	blocked := f.addTask(t)
	_, err := f.svc.UpdateTaskProgress(ctx, blocked.ID, 50)
	require.ErrorIs(t, err, domain.ErrProgressNotEditable)

	editable := f.addTask(t, testutil.WithTaskStatus(domain.StatusInProgress))
	got, err := f.svc.UpdateTaskProgress(ctx, editable.ID, 130)
	require.NoError(t, err)
	assert.Equal(t, 100.0, got.ProgressPercentage, "clamped to the upper bound")
}

func TestRecalculateActivityProgressIsIdempotent(t *testing.T) {
	f := newStatusFixture(t)
	f.addTask(t, testutil.WithTaskProgress(30))
	f.addTask(t, testutil.WithTaskProgress(50))
	ctx := context.Background()

	first, err := f.svc.RecalculateActivityProgress(ctx, f.activity.ID)
	require.NoError(t, err)
	assert.Equal(t, 40.0, first)

	second, err := f.svc.RecalculateActivityProgress(ctx, f.activity.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRecalculateActivityProgressNoTasks(t *testing.T) {
	f := newStatusFixture(t)
	got, err := f.svc.RecalculateActivityProgress(context.Background(), f.activity.ID)
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestRefreshTrackingSweepsProject(t *testing.T) {
	f := newStatusFixture(t)
	ctx := context.Background()

	// In progress, due last week, still at 10%: off track after the sweep.
	overdue := f.addTask(t,
		testutil.WithTaskStatus(domain.StatusInProgress),
		testutil.WithTaskProgress(10),
		testutil.WithTaskDates(
			time.Date(2025, time.December, 22, 9, 0, 0, 0, time.UTC),
			time.Date(2025, time.December, 24, 18, 0, 0, 0, time.UTC)))

	activity, err := f.repos.Activities.GetByID(ctx, f.activity.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.RefreshTracking(ctx, activity.ProjectID))

	stored, err := f.repos.Tasks.GetByID(ctx, overdue.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TrackingOffTrack, stored.TrackingStatus)
}
