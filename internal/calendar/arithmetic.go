package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/evanmoran/ganttd/internal/domain"
)

// maxIterations bounds the block-consumption loop in AddWorkingTime. At one
// block per day this covers several hundred years of working time; hitting it
// means the configuration cannot absorb the requested hours.
const maxIterations = 200_000

// Direction selects which way SnapToWorkingTime moves.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// AddWorkingTime advances start by the given number of cumulative working
// hours, skipping non-working instants. If start is inside a working block
// the remainder of that block is consumed first; otherwise the cursor first
// moves to the next working instant. The context is polled every iteration so
// a cancelled request aborts promptly.
func (c *Config) AddWorkingTime(ctx context.Context, start time.Time, hours float64) (time.Time, error) {
	remaining := time.Duration(hours * float64(time.Hour))
	if remaining <= 0 {
		return start, nil
	}

	cur := start.In(c.Location)
	for i := 0; ; i++ {
		if i >= maxIterations {
			return time.Time{}, fmt.Errorf("adding %v working hours from %v: %w", hours, start, domain.ErrScheduleOverflow)
		}
		if err := ctx.Err(); err != nil {
			return time.Time{}, err
		}

		if !c.IsWorkingDay(cur) {
			cur = c.nextDayStart(cur)
			continue
		}

		offset := c.sinceMidnight(cur)
		consumed := false
		for _, b := range c.blocks {
			if offset >= b.end {
				continue
			}
			if offset < b.start {
				cur = c.dayAt(cur, b.start)
				offset = b.start
			}
			available := b.end - offset
			if remaining <= available {
				return cur.Add(remaining), nil
			}
			remaining -= available
			cur = c.dayAt(cur, b.end)
			offset = b.end
			consumed = true
		}
		if !consumed || c.sinceMidnight(cur) >= c.blocks[len(c.blocks)-1].end {
			cur = c.nextDayStart(cur)
		}
	}
}

// SubtractWorkingTime is the mirror of AddWorkingTime: it moves end backwards
// by the given number of cumulative working hours, skipping non-working
// instants.
func (c *Config) SubtractWorkingTime(ctx context.Context, end time.Time, hours float64) (time.Time, error) {
	remaining := time.Duration(hours * float64(time.Hour))
	if remaining <= 0 {
		return end, nil
	}

	cur := end.In(c.Location)
	for i := 0; ; i++ {
		if i >= maxIterations {
			return time.Time{}, fmt.Errorf("subtracting %v working hours from %v: %w", hours, end, domain.ErrScheduleOverflow)
		}
		if err := ctx.Err(); err != nil {
			return time.Time{}, err
		}

		if !c.IsWorkingDay(cur) {
			cur = c.prevDayEnd(cur)
			continue
		}

		offset := c.sinceMidnight(cur)
		consumed := false
		for j := len(c.blocks) - 1; j >= 0; j-- {
			b := c.blocks[j]
			if offset <= b.start {
				continue
			}
			if offset > b.end {
				cur = c.dayAt(cur, b.end)
				offset = b.end
			}
			available := offset - b.start
			if remaining <= available {
				return cur.Add(-remaining), nil
			}
			remaining -= available
			cur = c.dayAt(cur, b.start)
			offset = b.start
			consumed = true
		}
		if !consumed || c.sinceMidnight(cur) <= c.blocks[0].start {
			cur = c.prevDayEnd(cur)
		}
	}
}

// WorkingDuration returns the hours of overlap between [a, b] and the union
// of working-time intervals. Returns 0 when a >= b.
func (c *Config) WorkingDuration(a, b time.Time) float64 {
	if !b.After(a) {
		return 0
	}

	var total time.Duration
	cur := a.In(c.Location)
	end := b.In(c.Location)
	for !cur.After(end) {
		if c.IsWorkingDay(cur) {
			for _, blk := range c.blocks {
				blockStart := c.dayAt(cur, blk.start)
				blockEnd := c.dayAt(cur, blk.end)
				overlapStart := maxTime(blockStart, a)
				overlapEnd := minTime(blockEnd, b)
				if overlapEnd.After(overlapStart) {
					total += overlapEnd.Sub(overlapStart)
				}
			}
		}
		cur = c.nextDayStart(cur)
	}
	return total.Hours()
}

// WorkingDaysInRange returns the working calendar days between a and b,
// inclusive, as local midnights.
func (c *Config) WorkingDaysInRange(a, b time.Time) []time.Time {
	var days []time.Time
	cur := c.dayAt(a, 0)
	end := c.dayAt(b, 0)
	for !cur.After(end) {
		if c.IsWorkingDay(cur) {
			days = append(days, cur)
		}
		cur = c.nextDayStart(cur)
	}
	return days
}

// SnapToWorkingTime moves the instant to the nearest working instant in the
// given direction. An instant already inside a working block is returned
// unchanged.
func (c *Config) SnapToWorkingTime(t time.Time, dir Direction) time.Time {
	if c.IsWorkingTime(t) {
		return t
	}

	cur := t.In(c.Location)
	// Bounded like AddWorkingTime; a mask with no working days would
	// otherwise loop forever.
	for i := 0; i < maxIterations; i++ {
		if dir == Forward {
			if c.IsWorkingDay(cur) {
				offset := c.sinceMidnight(cur)
				for _, b := range c.blocks {
					if offset < b.start {
						return c.dayAt(cur, b.start)
					}
					if offset < b.end {
						return cur
					}
				}
			}
			cur = c.nextDayStart(cur)
			continue
		}

		if c.IsWorkingDay(cur) {
			offset := c.sinceMidnight(cur)
			for j := len(c.blocks) - 1; j >= 0; j-- {
				b := c.blocks[j]
				if offset >= b.end {
					return c.dayAt(cur, b.end)
				}
				if offset > b.start {
					return cur
				}
			}
		}
		cur = c.prevDayEnd(cur)
	}
	return t
}

// ConvertToTimezone returns the instant in the named timezone.
func ConvertToTimezone(t time.Time, tz string) (time.Time, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Time{}, fmt.Errorf("loading timezone %q: %w", tz, err)
	}
	return t.In(loc), nil
}

// FormatInTimezone formats the instant with the given layout in the named
// timezone.
func FormatInTimezone(t time.Time, tz, layout string) (string, error) {
	local, err := ConvertToTimezone(t, tz)
	if err != nil {
		return "", err
	}
	return local.Format(layout), nil
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
