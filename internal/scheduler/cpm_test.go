package scheduler

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

type cpmFixture struct {
	svc      *Service
	repos    *repository.Repos
	project  *domain.Project
	activity *domain.Activity
}

// newCPMFixture seeds a project starting Monday 2026-01-05 09:00 UTC with one
// zero-span activity, so task chains drive the schedule.
func newCPMFixture(t *testing.T) *cpmFixture {
	t.Helper()
	database := testutil.NewTestDB(t)
	repos := repository.NewRepos(database)
	ctx := context.Background()

	org := testutil.NewTestOrg("Acme")
	require.NoError(t, repos.Organizations.Create(ctx, org))
	owner := testutil.NewTestUser(org.ID, "pm@acme.test")
	require.NoError(t, repos.Users.Create(ctx, owner))

	start := time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC)
	project := testutil.NewTestProject(org.ID, "Rollout",
		testutil.WithOwner(owner.ID), testutil.WithProjectStart(start))
	require.NoError(t, repos.Projects.Create(ctx, project))

	activity := testutil.NewTestActivity(project.ID, "Build",
		testutil.WithActivityDates(start, start))
	require.NoError(t, repos.Activities.Create(ctx, activity))

	calendars := calendar.NewService(repos.Organizations, repos.Holidays)
	return &cpmFixture{
		svc:      NewService(repos.Projects, repos.Activities, repos.Tasks, repos.Dependencies, calendars),
		repos:    repos,
		project:  project,
		activity: activity,
	}
}

func (f *cpmFixture) addTask(t *testing.T, name string, hours float64) *domain.Task {
	t.Helper()
	task := testutil.NewTestTask(f.activity.ID, name, testutil.WithDuration(hours))
	require.NoError(t, f.repos.Tasks.Create(context.Background(), task))
	return task
}

func (f *cpmFixture) link(t *testing.T, pred, succ *domain.Task, typ domain.DependencyType, lagDays float64) {
	t.Helper()
	dep := testutil.NewTestTaskDependency(pred.ID, succ.ID,
		testutil.WithDependencyType(typ), testutil.WithLag(lagDays))
	require.NoError(t, f.repos.Dependencies.Create(context.Background(), dep))
}

func itemByID(t *testing.T, s *domain.ProjectSchedule, id string) domain.ScheduledItem {
	t.Helper()
	for _, item := range s.Items {
		if item.ItemID == id {
			return item
		}
	}
	t.Fatalf("item %s not in schedule", id)
	return domain.ScheduledItem{}
}

func TestLinearChainIsFullyCritical(t *testing.T) {
	f := newCPMFixture(t)
	a := f.addTask(t, "A", 8)
	b := f.addTask(t, "B", 8)
	c := f.addTask(t, "C", 8)
	f.link(t, a, b, domain.DepFinishToStart, 0)
	f.link(t, b, c, domain.DepFinishToStart, 0)

	schedule, err := f.svc.CalculateProjectSchedule(context.Background(), f.project.ID)
	require.NoError(t, err)
	require.True(t, schedule.IsFeasible)

	// Three 8h tasks back to back: Monday, Tuesday, Wednesday.
	itemA := itemByID(t, schedule, a.ID)
	assert.Equal(t, time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC), itemA.EarlyStart.UTC())
	assert.Equal(t, time.Date(2026, time.January, 5, 18, 0, 0, 0, time.UTC), itemA.EarlyEnd.UTC())

	itemC := itemByID(t, schedule, c.ID)
	assert.Equal(t, time.Date(2026, time.January, 7, 18, 0, 0, 0, time.UTC), itemC.EarlyEnd.UTC())
	assert.Equal(t, schedule.EndDate.UTC(), itemC.EarlyEnd.UTC())

	for _, task := range []*domain.Task{a, b, c} {
		item := itemByID(t, schedule, task.ID)
		assert.True(t, item.IsCritical, "task %s", task.Name)
		assert.Less(t, item.SlackDays, 1.0)
		assert.Contains(t, schedule.CriticalPath, task.ID)
	}

	// The empty activity envelope has slack and stays off the critical path.
	env := itemByID(t, schedule, f.activity.ID)
	assert.False(t, env.IsCritical)
	assert.NotContains(t, schedule.CriticalPath, f.activity.ID)
}

func TestStartToStartWithLag(t *testing.T) {
	f := newCPMFixture(t)
	a := f.addTask(t, "A", 8)
	b := f.addTask(t, "B", 4)
	f.link(t, a, b, domain.DepStartToStart, 1)

	schedule, err := f.svc.CalculateProjectSchedule(context.Background(), f.project.ID)
	require.NoError(t, err)

	// B starts one calendar day after A's start.
	itemB := itemByID(t, schedule, b.ID)
	assert.Equal(t, time.Date(2026, time.January, 6, 9, 0, 0, 0, time.UTC), itemB.EarlyStart.UTC())
	assert.Equal(t, time.Date(2026, time.January, 6, 13, 0, 0, 0, time.UTC), itemB.EarlyEnd.UTC())
}

func TestFinishToFinishBindsEnd(t *testing.T) {
	f := newCPMFixture(t)
	a := f.addTask(t, "A", 8)
	b := f.addTask(t, "B", 4)
	f.link(t, a, b, domain.DepFinishToFinish, 0)

	schedule, err := f.svc.CalculateProjectSchedule(context.Background(), f.project.ID)
	require.NoError(t, err)

	// B alone would finish at 13:00; the FF edge drags its end to A's 18:00
	// and its start back by the wall-clock duration.
	itemB := itemByID(t, schedule, b.ID)
	assert.Equal(t, time.Date(2026, time.January, 5, 18, 0, 0, 0, time.UTC), itemB.EarlyEnd.UTC())
	assert.Equal(t, time.Date(2026, time.January, 5, 14, 0, 0, 0, time.UTC), itemB.EarlyStart.UTC())
}

func TestParallelBranchSlack(t *testing.T) {
	f := newCPMFixture(t)
	long := f.addTask(t, "long", 16)
	short := f.addTask(t, "short", 4)
	join := f.addTask(t, "join", 4)
	f.link(t, long, join, domain.DepFinishToStart, 0)
	f.link(t, short, join, domain.DepFinishToStart, 0)

	schedule, err := f.svc.CalculateProjectSchedule(context.Background(), f.project.ID)
	require.NoError(t, err)

	assert.True(t, itemByID(t, schedule, long.ID).IsCritical)
	assert.True(t, itemByID(t, schedule, join.ID).IsCritical)

	// The short branch can slip until the long branch finishes.
	itemShort := itemByID(t, schedule, short.ID)
	assert.False(t, itemShort.IsCritical)
	assert.Greater(t, itemShort.SlackDays, 1.0)
}

func TestScheduleIsIdempotent(t *testing.T) {
	f := newCPMFixture(t)
	a := f.addTask(t, "A", 8)
	b := f.addTask(t, "B", 8)
	f.link(t, a, b, domain.DepFinishToStart, 0.5)

	first, err := f.svc.CalculateProjectSchedule(context.Background(), f.project.ID)
	require.NoError(t, err)
	second, err := f.svc.CalculateProjectSchedule(context.Background(), f.project.ID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestStoredCycleSurfacesAsGraphCycle(t *testing.T) {
	f := newCPMFixture(t)
	a := f.addTask(t, "A", 8)
	b := f.addTask(t, "B", 8)

	// Insert the cycle directly, bypassing the creation-time check.
	f.link(t, a, b, domain.DepFinishToStart, 0)
	f.link(t, b, a, domain.DepFinishToStart, 0)

	_, err := f.svc.CalculateProjectSchedule(context.Background(), f.project.ID)
	require.ErrorIs(t, err, domain.ErrGraphCycle)
}

func TestUnknownProject(t *testing.T) {
	f := newCPMFixture(t)
	_, err := f.svc.CalculateProjectSchedule(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
