package schedule

import (
	"fmt"
	"regexp"
)

var timeRe = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

// ValidationResult reports whether a config is acceptable and, if not, every
// rule it violates. Errors keep a stable order so callers (and tests) can
// assert exact message sets.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Validate checks the structural invariants of a schedule config.
//
// A disabled schedule is vacuously valid. Violations are collected, not
// short-circuited, except that custom mode skips the time-of-day rules
// entirely: its cron expression is the external scheduler's problem and is
// only required to be present.
func Validate(cfg Config) ValidationResult {
	if !cfg.Enabled {
		return ValidationResult{Valid: true, Errors: []string{}}
	}

	var errs []string

	switch cfg.Mode {
	case ModeDaily, ModeInterval, ModeWeekly, ModeCustom:
	default:
		errs = append(errs, "invalid schedule mode")
	}

	if cfg.Mode == ModeCustom {
		if cfg.Cron == "" {
			errs = append(errs, "custom mode requires a cron expression")
		}
		return ValidationResult{Valid: len(errs) == 0, Errors: nonNil(errs)}
	}

	switch n := len(cfg.ExecutionTimes); {
	case n == 0:
		errs = append(errs, "at least one execution time is required")
	case n > MaxExecutionTimes:
		errs = append(errs, fmt.Sprintf("at most %d execution times are allowed", MaxExecutionTimes))
	default:
		for _, t := range cfg.ExecutionTimes {
			if !timeRe.MatchString(t) {
				errs = append(errs, fmt.Sprintf("invalid time format: %s", t))
			}
		}
		seen := make(map[string]struct{}, n)
		dup := false
		for _, t := range cfg.ExecutionTimes {
			if _, ok := seen[t]; ok {
				dup = true
			}
			seen[t] = struct{}{}
		}
		if dup {
			errs = append(errs, "duplicate execution times")
		}
	}

	if cfg.Mode == ModeInterval {
		if cfg.IntervalDays == 0 {
			errs = append(errs, "interval days is required")
		} else if cfg.IntervalDays < MinIntervalDays || cfg.IntervalDays > MaxIntervalDays {
			errs = append(errs, fmt.Sprintf("interval days must be between %d and %d", MinIntervalDays, MaxIntervalDays))
		}
	}

	if cfg.Mode == ModeWeekly {
		if len(cfg.WeekDays) == 0 {
			errs = append(errs, "at least one week day is required")
		} else {
			for _, d := range cfg.WeekDays {
				if d < 1 || d > 7 {
					errs = append(errs, fmt.Sprintf("invalid week day: %d", d))
				}
			}
		}
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: nonNil(errs)}
}

// nonNil keeps the JSON shape of Errors an array, never null.
func nonNil(errs []string) []string {
	if errs == nil {
		return []string{}
	}
	return errs
}
