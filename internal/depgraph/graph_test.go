package depgraph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evanmoran/ganttd/internal/domain"
	"github.com/evanmoran/ganttd/internal/repository"
	"github.com/evanmoran/ganttd/internal/testutil"
)

type graphFixture struct {
	svc   *Service
	repos *repository.Repos
	tasks []*domain.Task
}

// newGraphFixture seeds one org/project/activity and n tasks under it.
func newGraphFixture(t *testing.T, n int) *graphFixture {
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

	f := &graphFixture{
		svc:   NewService(testutil.NewTestUoW(database), repos.Dependencies),
		repos: repos,
	}
	for i := 0; i < n; i++ {
		task := testutil.NewTestTask(activity.ID, "Task")
		require.NoError(t, repos.Tasks.Create(ctx, task))
		f.tasks = append(f.tasks, task)
	}
	return f
}

func TestCreateTaskDependencyRoundTrip(t *testing.T) {
	f := newGraphFixture(t, 2)
	ctx := context.Background()

	dep, err := f.svc.CreateTaskDependency(ctx, f.tasks[0].ID, f.tasks[1].ID, domain.DepFinishToStart, 1.5)
	require.NoError(t, err)

	stored, err := f.repos.Dependencies.GetByID(ctx, dep.ID)
	require.NoError(t, err)
	assert.Equal(t, f.tasks[0].ID, stored.PredecessorID())
	assert.Equal(t, f.tasks[1].ID, stored.SuccessorID())
	assert.Equal(t, domain.DepFinishToStart, stored.Type)
	assert.Equal(t, 1.5, stored.LagDays)
	assert.Equal(t, domain.ItemTask, stored.Kind())
}

func TestCreateDependencyRejectsSelfEdge(t *testing.T) {
	f := newGraphFixture(t, 1)

	_, err := f.svc.CreateTaskDependency(context.Background(), f.tasks[0].ID, f.tasks[0].ID, domain.DepFinishToStart, 0)
	require.ErrorIs(t, err, domain.ErrSelfDependency)
}

func TestCreateDependencyRejectsUnknownEndpoint(t *testing.T) {
	f := newGraphFixture(t, 1)

	_, err := f.svc.CreateTaskDependency(context.Background(), f.tasks[0].ID, "missing", domain.DepFinishToStart, 0)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateDependencyRejectsDirectCycle(t *testing.T) {
	f := newGraphFixture(t, 2)
	ctx := context.Background()

	_, err := f.svc.CreateTaskDependency(ctx, f.tasks[0].ID, f.tasks[1].ID, domain.DepFinishToStart, 0)
	require.NoError(t, err)

	_, err = f.svc.CreateTaskDependency(ctx, f.tasks[1].ID, f.tasks[0].ID, domain.DepFinishToStart, 0)
	require.ErrorIs(t, err, domain.ErrCycleDetected)
}

func TestCreateDependencyRejectsTransitiveCycle(t *testing.T) {
	f := newGraphFixture(t, 4)
	ctx := context.Background()

	// 0 -> 1 -> 2 -> 3, then closing 3 -> 0 must fail.
	for i := 0; i < 3; i++ {
		_, err := f.svc.CreateTaskDependency(ctx, f.tasks[i].ID, f.tasks[i+1].ID, domain.DepFinishToStart, 0)
		require.NoError(t, err)
	}

	_, err := f.svc.CreateTaskDependency(ctx, f.tasks[3].ID, f.tasks[0].ID, domain.DepStartToStart, 0)
	require.ErrorIs(t, err, domain.ErrCycleDetected)

	// No partial edge may survive the rejected create.
	incoming, err := f.repos.Dependencies.ListPredecessors(ctx, f.tasks[0].ID, domain.ItemTask)
	require.NoError(t, err)
	assert.Empty(t, incoming)
}

func TestDeleteReopensPath(t *testing.T) {
	f := newGraphFixture(t, 2)
	ctx := context.Background()

	dep, err := f.svc.CreateTaskDependency(ctx, f.tasks[0].ID, f.tasks[1].ID, domain.DepFinishToStart, 0)
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(ctx, dep.ID))

	// The reverse edge is legal once the original is gone.
	_, err = f.svc.CreateTaskDependency(ctx, f.tasks[1].ID, f.tasks[0].ID, domain.DepFinishToStart, 0)
	require.NoError(t, err)
}

func TestGetDependenciesSplitsDirections(t *testing.T) {
	f := newGraphFixture(t, 3)
	ctx := context.Background()

	_, err := f.svc.CreateTaskDependency(ctx, f.tasks[0].ID, f.tasks[1].ID, domain.DepFinishToStart, 0)
	require.NoError(t, err)
	_, err = f.svc.CreateTaskDependency(ctx, f.tasks[1].ID, f.tasks[2].ID, domain.DepFinishToFinish, 2)
	require.NoError(t, err)

	deps, err := f.svc.GetDependencies(ctx, f.tasks[1].ID, domain.ItemTask)
	require.NoError(t, err)
	require.Len(t, deps.Incoming, 1)
	require.Len(t, deps.Outgoing, 1)
	assert.Equal(t, f.tasks[0].ID, deps.Incoming[0].PredecessorID())
	assert.Equal(t, f.tasks[2].ID, deps.Outgoing[0].SuccessorID())
}

func TestActivityAndTaskGraphsAreDisjoint(t *testing.T) {
	f := newGraphFixture(t, 2)
	ctx := context.Background()

	activityA := testutil.NewTestActivity(mustProjectID(t, f), "A")
	activityB := testutil.NewTestActivity(mustProjectID(t, f), "B")
	require.NoError(t, f.repos.Activities.Create(ctx, activityA))
	require.NoError(t, f.repos.Activities.Create(ctx, activityB))

	_, err := f.svc.CreateActivityDependency(ctx, activityA.ID, activityB.ID, domain.DepFinishToStart, 0)
	require.NoError(t, err)

	// Querying the task kind with an activity id yields nothing.
	succ, err := f.svc.GetSuccessors(ctx, activityA.ID, domain.ItemTask)
	require.NoError(t, err)
	assert.Empty(t, succ)
}

func mustProjectID(t *testing.T, f *graphFixture) string {
	t.Helper()
	activity, err := f.repos.Activities.GetByID(context.Background(), f.tasks[0].ActivityID)
	require.NoError(t, err)
	return activity.ProjectID
}
