package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronExpressions_Daily(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want []string
	}{
		{
			name: "shanghai morning",
			cfg:  Config{Enabled: true, Mode: ModeDaily, Timezone: "Asia/Shanghai", ExecutionTimes: []string{"08:00"}},
			want: []string{"0 0 * * *"},
		},
		{
			name: "local midnight with positive offset rolls back a day",
			cfg:  Config{Enabled: true, Mode: ModeDaily, Timezone: "Asia/Shanghai", ExecutionTimes: []string{"00:00"}},
			want: []string{"0 16 * * *"}, // 24 - 8
		},
		{
			name: "late evening with negative offset rolls forward",
			cfg:  Config{Enabled: true, Mode: ModeDaily, Timezone: "America/Los_Angeles", ExecutionTimes: []string{"23:30"}},
			want: []string{"30 7 * * *"},
		},
		{
			name: "multiple times yield one line each",
			cfg:  Config{Enabled: true, Mode: ModeDaily, Timezone: "UTC", ExecutionTimes: []string{"08:00", "12:30", "18:05"}},
			want: []string{"0 8 * * *", "30 12 * * *", "5 18 * * *"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CronExpressions(tt.cfg))
		})
	}
}

func TestCronExpressions_IntervalEmitsDailyCron(t *testing.T) {
	// The external scheduler cannot express "every N days"; the workflow
	// fires daily and the run-time gate skips the off days.
	cfg := Config{
		Enabled:        true,
		Mode:           ModeInterval,
		Timezone:       "Asia/Shanghai",
		ExecutionTimes: []string{"08:00"},
		IntervalDays:   7,
	}
	assert.Equal(t, []string{"0 0 * * *"}, CronExpressions(cfg))
}

func TestCronExpressions_Weekly(t *testing.T) {
	t.Run("no day adjustment", func(t *testing.T) {
		cfg := Config{
			Enabled:        true,
			Mode:           ModeWeekly,
			Timezone:       "Asia/Shanghai",
			ExecutionTimes: []string{"08:00"},
			WeekDays:       []int{1, 3, 5},
		}
		assert.Equal(t, []string{"0 0 * * 1,3,5"}, CronExpressions(cfg))
	})

	t.Run("sunday remaps to zero", func(t *testing.T) {
		cfg := Config{
			Enabled:        true,
			Mode:           ModeWeekly,
			Timezone:       "UTC",
			ExecutionTimes: []string{"09:00"},
			WeekDays:       []int{7, 1},
		}
		assert.Equal(t, []string{"0 9 * * 0,1"}, CronExpressions(cfg))
	})

	t.Run("positive offset midnight shifts days back", func(t *testing.T) {
		// Monday 00:00 Shanghai is Sunday 16:00 UTC.
		cfg := Config{
			Enabled:        true,
			Mode:           ModeWeekly,
			Timezone:       "Asia/Shanghai",
			ExecutionTimes: []string{"00:00"},
			WeekDays:       []int{1},
		}
		assert.Equal(t, []string{"0 16 * * 0"}, CronExpressions(cfg))
	})

	t.Run("negative offset evening shifts days forward", func(t *testing.T) {
		// Saturday 23:30 LA is Sunday 07:30 UTC.
		cfg := Config{
			Enabled:        true,
			Mode:           ModeWeekly,
			Timezone:       "America/Los_Angeles",
			ExecutionTimes: []string{"23:30"},
			WeekDays:       []int{6},
		}
		assert.Equal(t, []string{"30 7 * * 0"}, CronExpressions(cfg))
	})
}

func TestCronExpressions_CustomPassthrough(t *testing.T) {
	cfg := Config{Enabled: true, Mode: ModeCustom, Cron: "*/30 8-18 * * 1-5"}
	assert.Equal(t, []string{"*/30 8-18 * * 1-5"}, CronExpressions(cfg))
}

func TestCronExpressions_Empty(t *testing.T) {
	assert.Nil(t, CronExpressions(Config{Enabled: false, Mode: ModeDaily, ExecutionTimes: []string{"08:00"}}))
	assert.Nil(t, CronExpressions(Config{Enabled: true, Mode: ModeDaily}))
}

func TestOffsetHours(t *testing.T) {
	assert.Equal(t, 8, OffsetHours("Asia/Shanghai"))
	assert.Equal(t, -8, OffsetHours("America/Los_Angeles"))
	assert.Equal(t, 0, OffsetHours("UTC"))
	// Unknown zones degrade to UTC rather than failing.
	assert.Equal(t, 0, OffsetHours("Mars/Olympus_Mons"))

	require.Contains(t, SupportedTimezones(), "Asia/Shanghai")
}
