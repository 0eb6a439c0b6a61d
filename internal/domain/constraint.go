package domain

import (
	"fmt"
	"time"
)

// DateConstraint pins an activity or task to a manual scheduling rule.
// ASAP/ALAP are soft hints with no date; the other six kinds carry one.
type DateConstraint struct {
	ID             string
	ItemID         string
	ItemType       ItemType
	ConstraintType ConstraintType
	ConstraintDate *time.Time
	CreatedAt      time.Time
}

func (c *DateConstraint) Validate() error {
	if c.ItemID == "" {
		return fmt.Errorf("%w: constraint item id is required", ErrValidation)
	}
	if c.ItemType != ItemActivity && c.ItemType != ItemTask {
		return fmt.Errorf("%w: unknown constraint item type %q", ErrValidation, c.ItemType)
	}
	if !ValidConstraintTypes[string(c.ConstraintType)] {
		return fmt.Errorf("%w: unknown constraint type %q", ErrValidation, c.ConstraintType)
	}
	if c.ConstraintType.RequiresDate() && c.ConstraintDate == nil {
		return fmt.Errorf("%w: constraint %s requires a date", ErrValidation, c.ConstraintType)
	}
	return nil
}

// Holiday marks one full non-working calendar day for an organisation.
type Holiday struct {
	ID             string
	OrganizationID string
	Date           time.Time // calendar day in the org timezone
	Description    string
	CreatedAt      time.Time
}
