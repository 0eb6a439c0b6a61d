package domain

import (
	"fmt"
	"strings"
	"time"
)

// WorkingBlock is one intra-day working interval in wall-clock "HH:MM".
// Blocks are ordered and non-overlapping, e.g. 09:00-13:00 and 14:00-18:00.
type WorkingBlock struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Organization is the tenant. It owns users, projects and holidays and
// carries the working-time configuration the calendar derives from.
type Organization struct {
	ID       string
	Name     string
	Timezone string // IANA name, e.g. "Europe/Berlin"

	// WorkingDaysMask is a seven-character inclusion mask, Sun..Sat.
	// "0111110" means Monday through Friday.
	WorkingDaysMask string
	WorkingHours    []WorkingBlock

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the working-time configuration shape.
func (o *Organization) Validate() error {
	if strings.TrimSpace(o.Name) == "" {
		return fmt.Errorf("%w: organization name is required", ErrValidation)
	}
	if _, err := time.LoadLocation(o.Timezone); err != nil {
		return fmt.Errorf("%w: unknown timezone %q", ErrValidation, o.Timezone)
	}
	if len(o.WorkingDaysMask) != 7 || strings.Trim(o.WorkingDaysMask, "01") != "" {
		return fmt.Errorf("%w: working days mask must be seven characters of 0/1", ErrValidation)
	}
	if len(o.WorkingHours) == 0 {
		return fmt.Errorf("%w: at least one working block is required", ErrValidation)
	}
	prevEnd := -1
	for _, b := range o.WorkingHours {
		start, err := parseWallClock(b.Start)
		if err != nil {
			return fmt.Errorf("%w: working block start %q: %v", ErrValidation, b.Start, err)
		}
		end, err := parseWallClock(b.End)
		if err != nil {
			return fmt.Errorf("%w: working block end %q: %v", ErrValidation, b.End, err)
		}
		if end <= start {
			return fmt.Errorf("%w: working block %s-%s is empty", ErrValidation, b.Start, b.End)
		}
		if start < prevEnd {
			return fmt.Errorf("%w: working blocks must be ordered and non-overlapping", ErrValidation)
		}
		prevEnd = end
	}
	return nil
}

// WorksOn reports whether the mask includes the given weekday.
func (o *Organization) WorksOn(day time.Weekday) bool {
	if len(o.WorkingDaysMask) != 7 {
		return false
	}
	return o.WorkingDaysMask[int(day)] == '1'
}

// parseWallClock parses "HH:MM" into minutes since midnight.
func parseWallClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("expected HH:MM: %v", err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("out of range")
	}
	return h*60 + m, nil
}

// WallClockMinutes exposes parseWallClock for the calendar package.
func WallClockMinutes(s string) (int, error) { return parseWallClock(s) }
