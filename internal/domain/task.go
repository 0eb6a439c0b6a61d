package domain

import (
	"fmt"
	"strings"
	"time"
)

type Task struct {
	ID                 string
	ActivityID         string
	Name               string
	Description        string
	StartDate          time.Time
	EndDate            time.Time
	DurationHours      float64 // working hours, strictly positive
	AssigneeID         *string
	Status             Status
	TrackingStatus     TrackingStatus
	ProgressPercentage float64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (t *Task) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: task name is required", ErrValidation)
	}
	if t.DurationHours <= 0 {
		return fmt.Errorf("%w: task duration must be positive", ErrValidation)
	}
	if t.EndDate.Before(t.StartDate) {
		return fmt.Errorf("%w: task end date precedes start date", ErrValidation)
	}
	return nil
}
