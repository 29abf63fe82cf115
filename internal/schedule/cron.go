package schedule

import (
	"fmt"
	"sort"
	"strings"
)

// CronExpressions maps a config to the five-field UTC cron lines written
// into the workflow's trigger block. Disabled or invalid configs yield nil.
//
// Interval mode deliberately emits a plain daily cron: the external
// scheduler cannot express "every N days", so the workflow fires daily and
// the run-time gate (IsExecutionDay) skips the off days.
func CronExpressions(cfg Config) []string {
	if !cfg.Enabled || !Validate(cfg).Valid {
		return nil
	}

	if cfg.Mode == ModeCustom {
		return []string{cfg.Cron}
	}

	offset := OffsetHours(cfg.Location())

	var exprs []string
	for _, t := range cfg.ExecutionTimes {
		hour, minute, ok := parseHHMM(t)
		if !ok {
			continue
		}

		utcHour, dayAdjust := toUTCHour(hour, offset)

		switch cfg.Mode {
		case ModeDaily, ModeInterval:
			exprs = append(exprs, fmt.Sprintf("%d %d * * *", minute, utcHour))

		case ModeWeekly:
			exprs = append(exprs, fmt.Sprintf("%d %d * * %s", minute, utcHour, cronWeekDays(cfg.WeekDays, dayAdjust)))
		}
	}

	return exprs
}

// toUTCHour converts a local hour to UTC, reporting a -1/0/+1 day adjustment
// when the conversion crosses a local midnight boundary.
func toUTCHour(localHour, offsetHours int) (utcHour, dayAdjust int) {
	utcHour = localHour - offsetHours
	switch {
	case utcHour < 0:
		return utcHour + 24, -1
	case utcHour >= 24:
		return utcHour - 24, 1
	default:
		return utcHour, 0
	}
}

// cronWeekDays remaps ISO week days (1=Monday..7=Sunday) to cron's
// Sunday-indexed convention, shifts them by the day adjustment so the UTC
// cron still fires on the intended local day, and renders them sorted.
func cronWeekDays(weekDays []int, dayAdjust int) string {
	days := make([]int, 0, len(weekDays))
	for _, d := range weekDays {
		cronDay := d
		if cronDay == 7 {
			cronDay = 0
		}
		if dayAdjust != 0 {
			cronDay = (cronDay + dayAdjust + 7) % 7
		}
		days = append(days, cronDay)
	}
	sort.Ints(days)

	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = fmt.Sprintf("%d", d)
	}
	return strings.Join(parts, ",")
}
