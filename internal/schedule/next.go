package schedule

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// searchHorizonDays bounds the forward search. Validation should make an
// eligible day reachable long before this, but the bound guarantees
// termination for pathological configs.
const searchHorizonDays = 365

// NextExecution is the preview projection of the next run: the same instant
// expressed as wall-clock time in the schedule's zone and as UTC.
type NextExecution struct {
	Local time.Time
	UTC   time.Time
}

// Next forward-searches from now for the earliest (day, time-of-day) pair
// that is an eligible execution day and strictly in the future.
//
// It returns false for invalid configs, for custom mode (an arbitrary cron
// expression has no local projection here) and when no candidate exists
// within the search horizon; callers treat that as "cannot determine", not
// as an error.
func Next(cfg Config, now time.Time, lastExecution *time.Time) (NextExecution, bool) {
	if !Validate(cfg).Valid || !cfg.Enabled || cfg.Mode == ModeCustom {
		return NextExecution{}, false
	}
	if len(cfg.ExecutionTimes) == 0 {
		return NextExecution{}, false
	}

	offset := time.Duration(OffsetHours(cfg.Location())) * time.Hour
	local := now.UTC().Add(offset)

	times := make([]string, len(cfg.ExecutionTimes))
	copy(times, cfg.ExecutionTimes)
	sort.Strings(times)

	for dayOffset := 0; dayOffset < searchHorizonDays; dayOffset++ {
		day := local.AddDate(0, 0, dayOffset)
		if !IsExecutionDay(day, cfg, lastExecution) {
			continue
		}
		for _, t := range times {
			hour, minute, ok := parseHHMM(t)
			if !ok {
				continue
			}
			candidate := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.UTC)
			candidateUTC := candidate.Add(-offset)
			if candidateUTC.After(now.UTC()) {
				return NextExecution{Local: candidate, UTC: candidateUTC}, true
			}
		}
	}

	return NextExecution{}, false
}

// parseHHMM splits a 24-hour "HH:MM" string. Inputs are expected to have
// passed validation already.
func parseHHMM(s string) (hour, minute int, ok bool) {
	h, m, found := strings.Cut(s, ":")
	if !found {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, false
	}
	minute, err = strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}
