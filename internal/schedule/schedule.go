// Package schedule implements the publishing schedule model: validation,
// execution-day gating, next-execution preview and cron generation for the
// GitHub Actions trigger.
//
// All computations are pure functions over a Config value. Wall-clock times
// in the schedule's timezone are carried as time.Time values in the UTC
// location, shifted by the zone's fixed offset; see timezone.go for the
// offset model and its limitations.
package schedule

// Mode selects how execution days are determined.
type Mode string

const (
	ModeDaily    Mode = "daily"
	ModeInterval Mode = "interval"
	ModeWeekly   Mode = "weekly"
	ModeCustom   Mode = "custom"
)

const (
	// DefaultTimezone is assumed when a config carries no timezone.
	DefaultTimezone = "Asia/Shanghai"

	// MaxExecutionTimes caps the number of daily time-of-day triggers.
	MaxExecutionTimes = 3

	// MinIntervalDays and MaxIntervalDays bound interval mode spacing.
	MinIntervalDays = 1
	MaxIntervalDays = 30
)

// Config is the user-facing schedule configuration edited via the dashboard.
//
// ExecutionTimes drives the daily, interval and weekly modes; Cron is only
// meaningful in custom mode and is passed through to the workflow verbatim.
// WeekDays uses ISO numbering, 1=Monday through 7=Sunday.
type Config struct {
	Enabled        bool     `json:"enabled"`
	Timezone       string   `json:"timezone,omitempty"`
	Mode           Mode     `json:"mode"`
	ExecutionTimes []string `json:"executionTimes,omitempty"`
	IntervalDays   int      `json:"intervalDays,omitempty"`
	WeekDays       []int    `json:"weekDays,omitempty"`
	Cron           string   `json:"cron,omitempty"`
}

// Location returns the configured timezone name, falling back to the default.
func (c Config) Location() string {
	if c.Timezone == "" {
		return DefaultTimezone
	}
	return c.Timezone
}
