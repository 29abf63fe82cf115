package schedule

import "time"

// IsExecutionDay reports whether date is an eligible execution day.
//
// date must already be shifted into the schedule's timezone (only its
// calendar date matters). lastExecution is the persisted UTC instant of the
// previous run, or nil if the schedule never ran; it only affects interval
// mode, where the spacing is counted in whole calendar days.
//
// Custom mode always answers true: the external scheduler's cron string is
// the sole authority there and no local gating applies.
func IsExecutionDay(date time.Time, cfg Config, lastExecution *time.Time) bool {
	if !cfg.Enabled {
		return false
	}

	switch cfg.Mode {
	case ModeDaily:
		return true

	case ModeInterval:
		if lastExecution == nil {
			return true
		}
		interval := cfg.IntervalDays
		if interval < MinIntervalDays {
			interval = MinIntervalDays
		}
		// Compare calendar dates in the schedule's zone, not 24h windows.
		last := lastExecution.UTC().Add(time.Duration(OffsetHours(cfg.Location())) * time.Hour)
		return daysBetween(last, date) >= interval

	case ModeWeekly:
		day := isoWeekday(date)
		for _, d := range cfg.WeekDays {
			if d == day {
				return true
			}
		}
		return false

	case ModeCustom:
		return true

	default:
		return false
	}
}

// daysBetween counts whole calendar days from a to b, ignoring the
// time-of-day of either. Negative when b precedes a.
func daysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bd.Sub(ad).Hours() / 24)
}

// isoWeekday maps Go's Sunday-indexed weekday to ISO numbering (1=Monday,
// 7=Sunday).
func isoWeekday(t time.Time) int {
	wd := t.Weekday()
	if wd == time.Sunday {
		return 7
	}
	return int(wd)
}
