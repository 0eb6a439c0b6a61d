package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/evanmoran/ganttd/internal/domain"
	"github.com/evanmoran/ganttd/internal/repository"
	"github.com/evanmoran/ganttd/internal/testutil"
)

const testSecret = "test-secret"

type authFixture struct {
	svc   AuthService
	repos *repository.Repos
	org   *domain.Organization
	user  *domain.User
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	database := testutil.NewTestDB(t)
	repos := repository.NewRepos(database)
	ctx := context.Background()

	org := testutil.NewTestOrg("Acme")
	require.NoError(t, repos.Organizations.Create(ctx, org))

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	user := testutil.NewTestUser(org.ID, "pm@acme.test")
	user.PasswordHash = string(hash)
	require.NoError(t, repos.Users.Create(ctx, user))

	observer := NewUseCaseObserver(zerolog.Nop())
	return &authFixture{
		svc:   NewAuthService(repos.Users, repos.RefreshTokens, testSecret, observer),
		repos: repos,
		org:   org,
		user:  user,
	}
}

func (f *authFixture) actor() Actor {
	return Actor{UserID: f.user.ID, OrganizationID: f.org.ID, Role: f.user.Role}
}

func TestLoginIssuesVerifiableTokens(t *testing.T) {
	f := newAuthFixture(t)

	pair, err := f.svc.Login(context.Background(), "pm@acme.test", "correct horse")
	require.NoError(t, err)
	require.NotNil(t, pair.User)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), pair.ExpiresAt, time.Minute)

	claims, err := f.svc.VerifyAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, f.user.ID, claims.UserID)
	assert.Equal(t, f.org.ID, claims.OrganizationID)
	assert.Equal(t, domain.RolePM, claims.Role)
}

func TestLoginNormalisesEmail(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Login(context.Background(), "  PM@Acme.Test ", "correct horse")
	require.NoError(t, err)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Login(ctx, "pm@acme.test", "wrong")
	require.ErrorIs(t, err, domain.ErrUnauthenticated)

	// Unknown email reads the same as a wrong password.
	_, err = f.svc.Login(ctx, "nobody@acme.test", "correct horse")
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestRefreshRotatesToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	pair, err := f.svc.Login(ctx, "pm@acme.test", "correct horse")
	require.NoError(t, err)

	rotated, err := f.svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// The consumed token cannot be replayed.
	_, err = f.svc.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestRefreshExpiredTokenIsConsumed(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	expired := &domain.RefreshToken{
		Token:     "expired-token",
		UserID:    f.user.ID,
		ExpiresAt: time.Now().UTC().Add(-time.Hour),
		CreatedAt: time.Now().UTC().Add(-8 * 24 * time.Hour),
	}
	require.NoError(t, f.repos.RefreshTokens.Create(ctx, expired))

	_, err := f.svc.Refresh(ctx, "expired-token")
	require.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = f.repos.RefreshTokens.Get(ctx, "expired-token")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLogoutIsIdempotent(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	pair, err := f.svc.Login(ctx, "pm@acme.test", "correct horse")
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, pair.RefreshToken))
	require.NoError(t, f.svc.Logout(ctx, pair.RefreshToken))

	_, err = f.svc.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestChangePasswordRevokesAllSessions(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	first, err := f.svc.Login(ctx, "pm@acme.test", "correct horse")
	require.NoError(t, err)
	second, err := f.svc.Login(ctx, "pm@acme.test", "correct horse")
	require.NoError(t, err)

	err = f.svc.ChangePassword(ctx, f.actor(), "wrong", "longer-password")
	require.ErrorIs(t, err, domain.ErrUnauthenticated)

	err = f.svc.ChangePassword(ctx, f.actor(), "correct horse", "short")
	require.ErrorIs(t, err, domain.ErrValidation)

	require.NoError(t, f.svc.ChangePassword(ctx, f.actor(), "correct horse", "longer-password"))

	_, err = f.svc.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	_, err = f.svc.Refresh(ctx, second.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = f.svc.Login(ctx, "pm@acme.test", "longer-password")
	require.NoError(t, err)
}

func TestVerifyAccessTokenRejectsForgery(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.VerifyAccessToken("not-a-jwt")
	require.ErrorIs(t, err, domain.ErrUnauthenticated)

	other := NewAuthService(f.repos.Users, f.repos.RefreshTokens, "different-secret", NewUseCaseObserver(zerolog.Nop()))
	pair, err := other.Login(context.Background(), "pm@acme.test", "correct horse")
	require.NoError(t, err)

	_, err = f.svc.VerifyAccessToken(pair.AccessToken)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestCreateUserRequiresPMO(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	in := CreateUserInput{Email: "New@Acme.Test", Name: "New User", Password: "longer-password", Role: domain.RoleTeamMember}

	_, err := f.svc.CreateUser(ctx, f.actor(), in)
	require.ErrorIs(t, err, domain.ErrForbidden)

	pmo := f.actor()
	pmo.Role = domain.RolePMO
	created, err := f.svc.CreateUser(ctx, pmo, in)
	require.NoError(t, err)
	assert.Equal(t, "new@acme.test", created.Email)
	assert.Equal(t, f.org.ID, created.OrganizationID)

	_, err = f.svc.Login(ctx, "new@acme.test", "longer-password")
	require.NoError(t, err)

	_, err = f.svc.CreateUser(ctx, pmo, in)
	require.ErrorIs(t, err, domain.ErrUniqueConflict)
}

func TestGetUserIsTenantScoped(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	other := testutil.NewTestOrg("Rival")
	require.NoError(t, f.repos.Organizations.Create(ctx, other))
	outsider := testutil.NewTestUser(other.ID, "pm@rival.test")
	require.NoError(t, f.repos.Users.Create(ctx, outsider))

	_, err := f.svc.GetUser(ctx, f.actor(), outsider.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	got, err := f.svc.GetUser(ctx, f.actor(), f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, f.user.Email, got.Email)
}
