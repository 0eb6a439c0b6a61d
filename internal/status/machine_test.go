package status

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evanmoran/ganttd/internal/domain"
)

func TestValidateTransitionTable(t *testing.T) {
	cases := []struct {
		from, to domain.Status
		role     domain.Role
		ok       bool
	}{
		{domain.StatusNotStarted, domain.StatusInProgress, domain.RoleTeamMember, true},
		{domain.StatusNotStarted, domain.StatusCompleted, domain.RoleTeamMember, true},
		{domain.StatusInProgress, domain.StatusOnHold, domain.RoleTeamMember, true},
		{domain.StatusInProgress, domain.StatusCompleted, domain.RoleTeamMember, true},
		{domain.StatusOnHold, domain.StatusInProgress, domain.RoleTeamMember, true},
		{domain.StatusCompleted, domain.StatusVerified, domain.RolePM, true},
		{domain.StatusCompleted, domain.StatusVerified, domain.RolePMO, true},
		{domain.StatusVerified, domain.StatusInProgress, domain.RolePM, true},

		{domain.StatusNotStarted, domain.StatusVerified, domain.RolePMO, false},
		{domain.StatusNotStarted, domain.StatusOnHold, domain.RolePMO, false},
		{domain.StatusOnHold, domain.StatusCompleted, domain.RolePMO, false},
		{domain.StatusCompleted, domain.StatusInProgress, domain.RolePMO, false},
		{domain.StatusVerified, domain.StatusCompleted, domain.RolePMO, false},
	}

	for _, tc := range cases {
		err := ValidateTransition(tc.from, tc.to, tc.role)
		if tc.ok {
			assert.NoError(t, err, "%s -> %s as %s", tc.from, tc.to, tc.role)
			continue
		}
		var transitionErr *domain.InvalidStatusTransitionError
		require.ErrorAs(t, err, &transitionErr, "%s -> %s", tc.from, tc.to)
		assert.Equal(t, tc.from, transitionErr.From)
		assert.Equal(t, tc.to, transitionErr.To)
	}
}

func TestVerificationTransitionsAreRoleGated(t *testing.T) {
	for _, role := range []domain.Role{domain.RoleTeamMember, domain.RoleClient} {
		err := ValidateTransition(domain.StatusCompleted, domain.StatusVerified, role)
		assert.True(t, errors.Is(err, domain.ErrForbidden), "verify as %s", role)

		err = ValidateTransition(domain.StatusVerified, domain.StatusInProgress, role)
		assert.True(t, errors.Is(err, domain.ErrForbidden), "rework as %s", role)
	}
}

func TestProgressAfter(t *testing.T) {
	assert.Equal(t, 100.0, progressAfter(domain.StatusCompleted, 40))
	assert.Equal(t, 100.0, progressAfter(domain.StatusVerified, 40))
	assert.Equal(t, 40.0, progressAfter(domain.StatusInProgress, 40))
	assert.Equal(t, 40.0, progressAfter(domain.StatusOnHold, 40))
}

func TestClampProgress(t *testing.T) {
	assert.Equal(t, 0.0, clampProgress(-5))
	assert.Equal(t, 100.0, clampProgress(120))
	assert.Equal(t, 55.5, clampProgress(55.5))
}
