package domain

import (
	"fmt"
	"strings"
	"time"
)

type Project struct {
	ID                 string
	OrganizationID     string
	OwnerID            string
	Name               string
	Description        string
	StartDate          time.Time
	Timezone           string
	Status             Status
	ProgressPercentage float64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Validate checks required fields on create/update.
func (p *Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: project name is required", ErrValidation)
	}
	if p.StartDate.IsZero() {
		return fmt.Errorf("%w: project start date is required", ErrValidation)
	}
	if p.Timezone != "" {
		if _, err := time.LoadLocation(p.Timezone); err != nil {
			return fmt.Errorf("%w: unknown timezone %q", ErrValidation, p.Timezone)
		}
	}
	return nil
}
