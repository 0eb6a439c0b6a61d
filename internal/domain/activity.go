package domain

import (
	"fmt"
	"strings"
	"time"
)

// Activity is the mid-level work package: an envelope over its tasks. Its
// scheduling duration is derived from the stored dates; when those span
// nothing, the scheduler falls back to the longest child task.
type Activity struct {
	ID                 string
	ProjectID          string
	Name               string
	Description        string
	StartDate          time.Time
	EndDate            time.Time
	Status             Status
	TrackingStatus     TrackingStatus
	ProgressPercentage float64

	// VerificationChecklist is free-form, one entry per line item.
	VerificationChecklist []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (a *Activity) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("%w: activity name is required", ErrValidation)
	}
	if a.EndDate.Before(a.StartDate) {
		return fmt.Errorf("%w: activity end date precedes start date", ErrValidation)
	}
	return nil
}

// WallClockHours is the activity's envelope span in hours.
func (a *Activity) WallClockHours() float64 {
	return a.EndDate.Sub(a.StartDate).Hours()
}
