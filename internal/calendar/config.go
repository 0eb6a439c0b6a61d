// Package calendar implements working-time arithmetic over an organisation's
// timezone, weekday mask, intra-day working blocks and holiday set.
package calendar

import (
	"fmt"
	"time"

	"github.com/evanmoran/ganttd/internal/domain"
)

const dateKeyLayout = "2006-01-02"

// block is one working interval as offsets from local midnight.
type block struct {
	start time.Duration
	end   time.Duration
}

// Config is an immutable, resolved working-time configuration for one
// organisation. All predicates and arithmetic on it are pure, so a scheduler
// can resolve it once and share it across a whole pass.
type Config struct {
	OrgID    string
	Location *time.Location

	workDays [7]bool
	blocks   []block
	holidays map[string]struct{}
}

// NewConfig resolves an organisation plus its holidays into a Config.
func NewConfig(org *domain.Organization, holidays []domain.Holiday) (*Config, error) {
	loc, err := time.LoadLocation(org.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", org.Timezone, err)
	}

	cfg := &Config{
		OrgID:    org.ID,
		Location: loc,
		holidays: make(map[string]struct{}, len(holidays)),
	}
	for day := time.Sunday; day <= time.Saturday; day++ {
		cfg.workDays[day] = org.WorksOn(day)
	}
	for _, b := range org.WorkingHours {
		start, err := domain.WallClockMinutes(b.Start)
		if err != nil {
			return nil, fmt.Errorf("working block start %q: %w", b.Start, err)
		}
		end, err := domain.WallClockMinutes(b.End)
		if err != nil {
			return nil, fmt.Errorf("working block end %q: %w", b.End, err)
		}
		cfg.blocks = append(cfg.blocks, block{
			start: time.Duration(start) * time.Minute,
			end:   time.Duration(end) * time.Minute,
		})
	}
	if len(cfg.blocks) == 0 {
		return nil, fmt.Errorf("%w: organization has no working blocks", domain.ErrValidation)
	}
	for _, h := range holidays {
		cfg.holidays[h.Date.Format(dateKeyLayout)] = struct{}{}
	}
	return cfg, nil
}

// IsHoliday reports whether the instant falls on a holiday, compared by
// calendar day in the organisation timezone.
func (c *Config) IsHoliday(t time.Time) bool {
	_, ok := c.holidays[t.In(c.Location).Format(dateKeyLayout)]
	return ok
}

// IsWorkingDay reports whether the day mask includes the instant's weekday
// and the day is not a holiday.
func (c *Config) IsWorkingDay(t time.Time) bool {
	local := t.In(c.Location)
	return c.workDays[local.Weekday()] && !c.IsHoliday(local)
}

// IsWorkingTime reports whether the local wall clock falls inside some
// working block [start, end) on a working day.
func (c *Config) IsWorkingTime(t time.Time) bool {
	if !c.IsWorkingDay(t) {
		return false
	}
	offset := c.sinceMidnight(t)
	for _, b := range c.blocks {
		if offset >= b.start && offset < b.end {
			return true
		}
	}
	return false
}

// TotalWorkingHoursPerDay is the sum of block lengths in hours.
func (c *Config) TotalWorkingHoursPerDay() float64 {
	var total time.Duration
	for _, b := range c.blocks {
		total += b.end - b.start
	}
	return total.Hours()
}

// sinceMidnight returns the wall-clock offset of t within its local day.
func (c *Config) sinceMidnight(t time.Time) time.Duration {
	local := t.In(c.Location)
	return time.Duration(local.Hour())*time.Hour +
		time.Duration(local.Minute())*time.Minute +
		time.Duration(local.Second())*time.Second +
		time.Duration(local.Nanosecond())
}

// dayAt returns the instant on t's local day at the given offset from
// midnight.
func (c *Config) dayAt(t time.Time, offset time.Duration) time.Time {
	local := t.In(c.Location)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.Location)
	return midnight.Add(offset)
}

// nextDayStart returns local midnight of the day after t.
func (c *Config) nextDayStart(t time.Time) time.Time {
	local := t.In(c.Location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.Location).AddDate(0, 0, 1)
}

// prevDayEnd returns the last block end on the day before t's local day.
func (c *Config) prevDayEnd(t time.Time) time.Time {
	local := t.In(c.Location)
	prev := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.Location).AddDate(0, 0, -1)
	return prev.Add(c.blocks[len(c.blocks)-1].end)
}
