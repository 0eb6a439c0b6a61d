// Package status owns the item lifecycle: the transition table, verification
// gating, progress editing rules, activity rollup and tracking derivation.
package status

import (
	"github.com/evanmoran/ganttd/internal/domain"
)

// allowedTransitions is the full lifecycle table, shortcuts included.
var allowedTransitions = map[domain.Status]map[domain.Status]bool{
	domain.StatusNotStarted: {
		domain.StatusInProgress: true,
		domain.StatusCompleted:  true,
	},
	domain.StatusInProgress: {
		domain.StatusOnHold:    true,
		domain.StatusCompleted: true,
	},
	domain.StatusOnHold: {
		domain.StatusInProgress: true,
	},
	domain.StatusCompleted: {
		domain.StatusVerified: true,
	},
	domain.StatusVerified: {
		domain.StatusInProgress: true, // rework
	},
}

// verifierGated lists the transitions restricted to PM/PMO roles.
func verifierGated(from, to domain.Status) bool {
	if from == domain.StatusCompleted && to == domain.StatusVerified {
		return true
	}
	if from == domain.StatusVerified && to == domain.StatusInProgress {
		return true
	}
	return false
}

// ValidateTransition checks the lifecycle table and the role gate.
func ValidateTransition(from, to domain.Status, role domain.Role) error {
	if !allowedTransitions[from][to] {
		return &domain.InvalidStatusTransitionError{From: from, To: to}
	}
	if verifierGated(from, to) && !role.CanVerify() {
		return domain.ErrForbidden
	}
	return nil
}

// progressAfter applies the transition side effect: entering COMPLETED or
// VERIFIED forces progress to 100.
func progressAfter(to domain.Status, current float64) float64 {
	if to == domain.StatusCompleted || to == domain.StatusVerified {
		return 100
	}
	return current
}

// clampProgress bounds a manual progress value to [0, 100].
func clampProgress(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
