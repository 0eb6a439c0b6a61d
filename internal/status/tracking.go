package status

import (
	"fmt"
	"time"

	"github.com/evanmoran/ganttd/internal/calendar"
	"github.com/evanmoran/ganttd/internal/domain"
)

// atRiskGracePoints is how far actual progress may trail expected progress
// before an in-progress item is flagged.
const atRiskGracePoints = 5

// minimalProgressFloor flags items that have consumed working time but barely
// moved.
const minimalProgressFloor = 10

// DeriveTracking classifies an item against its schedule. For items not in
// progress the mapping is fixed: ON_HOLD reads as at risk, everything else as
// on track.
func DeriveTracking(cfg *calendar.Config, st domain.Status, start, end time.Time, actual float64, now time.Time) (domain.TrackingStatus, string) {
	switch st {
	case domain.StatusInProgress:
		// handled below
	case domain.StatusOnHold:
		return domain.TrackingAtRisk, "item is on hold"
	default:
		return domain.TrackingOnTrack, ""
	}

	if now.After(end) {
		return domain.TrackingOffTrack, "past due"
	}

	total := cfg.WorkingDuration(start, end)
	elapsed := cfg.WorkingDuration(start, now)
	var expected float64
	if total > 0 {
		expected = 100 * elapsed / total
	}

	if expected > actual+atRiskGracePoints {
		return domain.TrackingAtRisk,
			fmt.Sprintf("expected %.0f%% progress by now, actual %.0f%%", expected, actual)
	}
	if actual < minimalProgressFloor && elapsed > 0 {
		return domain.TrackingAtRisk, "minimal progress since start"
	}
	return domain.TrackingOnTrack, ""
}
