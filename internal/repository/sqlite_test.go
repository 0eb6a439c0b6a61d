package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evanmoran/ganttd/internal/db"
	"github.com/evanmoran/ganttd/internal/domain"
	"github.com/evanmoran/ganttd/internal/repository"
	"github.com/evanmoran/ganttd/internal/testutil"
)

type repoFixture struct {
	repos *repository.Repos
	org   *domain.Organization
	owner *domain.User
}

func newRepoFixture(t *testing.T) *repoFixture {
	t.Helper()
	database := testutil.NewTestDB(t)
	repos := repository.NewRepos(database)
	ctx := context.Background()

	org := testutil.NewTestOrg("Acme")
	require.NoError(t, repos.Organizations.Create(ctx, org))
	owner := testutil.NewTestUser(org.ID, "owner@acme.test")
	require.NoError(t, repos.Users.Create(ctx, owner))
	return &repoFixture{repos: repos, org: org, owner: owner}
}

func TestUserEmailUniqueConflict(t *testing.T) {
	f := newRepoFixture(t)
	ctx := context.Background()

	dup := testutil.NewTestUser(f.org.ID, "owner@acme.test")
	err := f.repos.Users.Create(ctx, dup)
	require.ErrorIs(t, err, domain.ErrUniqueConflict)
}

func TestUserCreateUnknownOrganization(t *testing.T) {
	f := newRepoFixture(t)
	user := testutil.NewTestUser("missing-org", "new@acme.test")
	err := f.repos.Users.Create(context.Background(), user)
	require.ErrorIs(t, err, domain.ErrReferentialIntegrity)
}

func TestOrganizationRoundTrip(t *testing.T) {
	f := newRepoFixture(t)
	ctx := context.Background()

	got, err := f.repos.Organizations.GetByID(ctx, f.org.ID)
	require.NoError(t, err)
	assert.Equal(t, f.org.Name, got.Name)
	assert.Equal(t, f.org.WorkingDaysMask, got.WorkingDaysMask)
	require.Len(t, got.WorkingHours, 2)
	assert.Equal(t, "09:00", got.WorkingHours[0].Start)

	got.Name = "Acme GmbH"
	require.NoError(t, f.repos.Organizations.Update(ctx, got))
	reread, err := f.repos.Organizations.GetByID(ctx, f.org.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme GmbH", reread.Name)
}

func TestProjectDeleteCascades(t *testing.T) {
	f := newRepoFixture(t)
	ctx := context.Background()

	project := testutil.NewTestProject(f.org.ID, "Rollout", testutil.WithOwner(f.owner.ID))
	require.NoError(t, f.repos.Projects.Create(ctx, project))
	activity := testutil.NewTestActivity(project.ID, "Build")
	require.NoError(t, f.repos.Activities.Create(ctx, activity))
	taskA := testutil.NewTestTask(activity.ID, "A")
	taskB := testutil.NewTestTask(activity.ID, "B")
	require.NoError(t, f.repos.Tasks.Create(ctx, taskA))
	require.NoError(t, f.repos.Tasks.Create(ctx, taskB))
	dep := testutil.NewTestTaskDependency(taskA.ID, taskB.ID)
	require.NoError(t, f.repos.Dependencies.Create(ctx, dep))
	constraintDate := time.Date(2026, time.February, 2, 9, 0, 0, 0, time.UTC)
	require.NoError(t, f.repos.Constraints.Create(ctx, &domain.DateConstraint{
		ID:             "con-1",
		ItemID:         taskA.ID,
		ItemType:       domain.ItemTask,
		ConstraintType: domain.ConstraintMustStartOn,
		ConstraintDate: &constraintDate,
		CreatedAt:      time.Now().UTC(),
	}))

	require.NoError(t, f.repos.Projects.Delete(ctx, project.ID))

	_, err := f.repos.Activities.GetByID(ctx, activity.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.repos.Tasks.GetByID(ctx, taskA.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.repos.Dependencies.GetByID(ctx, dep.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.repos.Constraints.GetByID(ctx, "con-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProjectListPaginationAndFilter(t *testing.T) {
	f := newRepoFixture(t)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		p := testutil.NewTestProject(f.org.ID, fmt.Sprintf("P%02d", i), testutil.WithOwner(f.owner.ID))
		if i%5 == 0 {
			p.Status = domain.StatusInProgress
		}
		require.NoError(t, f.repos.Projects.Create(ctx, p))
	}

	page, err := f.repos.Projects.List(ctx, f.org.ID, nil, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 25, page.Total)
	assert.Len(t, page.Projects, 10)

	last, err := f.repos.Projects.List(ctx, f.org.ID, nil, 3, 10)
	require.NoError(t, err)
	assert.Len(t, last.Projects, 5)

	inProgress := domain.StatusInProgress
	filtered, err := f.repos.Projects.List(ctx, f.org.ID, &inProgress, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 5, filtered.Total)
	for _, p := range filtered.Projects {
		assert.Equal(t, domain.StatusInProgress, p.Status)
	}

	// Other tenants see nothing.
	other, err := f.repos.Projects.List(ctx, "other-org", nil, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, other.Total)
}

func TestProjectMembership(t *testing.T) {
	f := newRepoFixture(t)
	ctx := context.Background()

	project := testutil.NewTestProject(f.org.ID, "Rollout", testutil.WithOwner(f.owner.ID))
	require.NoError(t, f.repos.Projects.Create(ctx, project))
	member := testutil.NewTestUser(f.org.ID, "member@acme.test", testutil.WithRole(domain.RoleTeamMember))
	require.NoError(t, f.repos.Users.Create(ctx, member))

	require.NoError(t, f.repos.Projects.AddMember(ctx, project.ID, member.ID))
	// Adding twice is idempotent.
	require.NoError(t, f.repos.Projects.AddMember(ctx, project.ID, member.ID))

	ok, err := f.repos.Projects.IsMember(ctx, project.ID, member.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ids, err := f.repos.Projects.ListMemberIDs(ctx, project.ID)
	require.NoError(t, err)
	assert.Len(t, ids, 1)

	require.NoError(t, f.repos.Projects.RemoveMember(ctx, project.ID, member.ID))
	ok, err = f.repos.Projects.IsMember(ctx, project.ID, member.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTaskRoundTripPreservesFields(t *testing.T) {
	f := newRepoFixture(t)
	ctx := context.Background()

	project := testutil.NewTestProject(f.org.ID, "Rollout", testutil.WithOwner(f.owner.ID))
	require.NoError(t, f.repos.Projects.Create(ctx, project))
	activity := testutil.NewTestActivity(project.ID, "Build", testutil.WithChecklist("design reviewed", "tests pass"))
	require.NoError(t, f.repos.Activities.Create(ctx, activity))
	task := testutil.NewTestTask(activity.ID, "T",
		testutil.WithDuration(12.5), testutil.WithAssignee(f.owner.ID))
	require.NoError(t, f.repos.Tasks.Create(ctx, task))

	gotActivity, err := f.repos.Activities.GetByID(ctx, activity.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"design reviewed", "tests pass"}, gotActivity.VerificationChecklist)

	gotTask, err := f.repos.Tasks.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, 12.5, gotTask.DurationHours)
	require.NotNil(t, gotTask.AssigneeID)
	assert.Equal(t, f.owner.ID, *gotTask.AssigneeID)
	assert.Equal(t, task.StartDate.UTC(), gotTask.StartDate.UTC())

	// ListByProject joins through the activity.
	tasks, err := f.repos.Tasks.ListByProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestHolidayUniquePerDay(t *testing.T) {
	f := newRepoFixture(t)
	ctx := context.Background()

	day := time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC)
	first := &domain.Holiday{ID: "h1", OrganizationID: f.org.ID, Date: day, Description: "May Day", CreatedAt: time.Now().UTC()}
	require.NoError(t, f.repos.Holidays.Create(ctx, first))

	dup := &domain.Holiday{ID: "h2", OrganizationID: f.org.ID, Date: day, Description: "again", CreatedAt: time.Now().UTC()}
	err := f.repos.Holidays.Create(ctx, dup)
	require.ErrorIs(t, err, domain.ErrUniqueConflict)
}

func TestRefreshTokenLifecycle(t *testing.T) {
	f := newRepoFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	live := &domain.RefreshToken{Token: "live", UserID: f.owner.ID, ExpiresAt: now.Add(time.Hour), CreatedAt: now}
	stale := &domain.RefreshToken{Token: "stale", UserID: f.owner.ID, ExpiresAt: now.Add(-time.Hour), CreatedAt: now}
	require.NoError(t, f.repos.RefreshTokens.Create(ctx, live))
	require.NoError(t, f.repos.RefreshTokens.Create(ctx, stale))

	got, err := f.repos.RefreshTokens.Get(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, f.owner.ID, got.UserID)

	require.NoError(t, f.repos.RefreshTokens.DeleteExpired(ctx, now))
	_, err = f.repos.RefreshTokens.Get(ctx, "stale")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.repos.RefreshTokens.Get(ctx, "live")
	assert.NoError(t, err)

	require.NoError(t, f.repos.RefreshTokens.DeleteByUser(ctx, f.owner.ID))
	_, err = f.repos.RefreshTokens.Get(ctx, "live")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateMissingRowIsNotFound(t *testing.T) {
	f := newRepoFixture(t)
	ctx := context.Background()

	err := f.repos.Tasks.UpdateDates(ctx, "missing", time.Now(), time.Now())
	assert.ErrorIs(t, err, domain.ErrNotFound)
	err = f.repos.Projects.Delete(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFailingUnitOfWorkRollsBack(t *testing.T) {
	database := testutil.NewTestDB(t)
	repos := repository.NewRepos(database)
	ctx := context.Background()

	org := testutil.NewTestOrg("Acme")
	require.NoError(t, repos.Organizations.Create(ctx, org))
	owner := testutil.NewTestUser(org.ID, "owner@acme.test")
	require.NoError(t, repos.Users.Create(ctx, owner))
	project := testutil.NewTestProject(org.ID, "Rollout", testutil.WithOwner(owner.ID))
	require.NoError(t, repos.Projects.Create(ctx, project))
	activity := testutil.NewTestActivity(project.ID, "Build")
	require.NoError(t, repos.Activities.Create(ctx, activity))
	taskA := testutil.NewTestTask(activity.ID, "A")
	taskB := testutil.NewTestTask(activity.ID, "B")
	require.NoError(t, repos.Tasks.Create(ctx, taskA))
	require.NoError(t, repos.Tasks.Create(ctx, taskB))

	boom := fmt.Errorf("boom")
	uow := &testutil.FailOnNthExecUoW{DB: database, FailOn: 2, Err: boom}

	newStart := time.Date(2026, time.June, 1, 9, 0, 0, 0, time.UTC)
	newEnd := time.Date(2026, time.June, 2, 18, 0, 0, 0, time.UTC)
	err := uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txRepos := repository.NewRepos(tx)
		if err := txRepos.Tasks.UpdateDates(ctx, taskA.ID, newStart, newEnd); err != nil {
			return err
		}
		return txRepos.Tasks.UpdateDates(ctx, taskB.ID, newStart, newEnd)
	})
	require.ErrorIs(t, err, boom)

	// The first write rolled back with the second.
	stored, err := repos.Tasks.GetByID(ctx, taskA.ID)
	require.NoError(t, err)
	assert.Equal(t, taskA.StartDate.UTC(), stored.StartDate.UTC())
}
