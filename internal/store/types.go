package store

import (
	"time"

	"github.com/draftpress/draftpress/internal/schedule"
)

// ContentSettings controls article generation.
type ContentSettings struct {
	Language  string `json:"language"`
	MinLength int    `json:"minLength"`
	MaxLength int    `json:"maxLength"`
}

// Settings is the dashboard configuration stored at config/settings.json.
type Settings struct {
	Schedule schedule.Config `json:"schedule"`
	Content  ContentSettings `json:"content"`
}

// DefaultSettings returns the settings used when the config file does
// not exist yet.
func DefaultSettings() Settings {
	return Settings{
		Schedule: schedule.Config{
			Enabled:        false,
			Timezone:       schedule.DefaultTimezone,
			Mode:           schedule.ModeDaily,
			ExecutionTimes: []string{"08:00"},
		},
		Content: ContentSettings{
			Language:  "zh-CN",
			MinLength: 1500,
			MaxLength: 2500,
		},
	}
}

// Topic is a subject the generator writes about. Keywords is a single
// free-form string, as the stored JSON has always shaped it.
type Topic struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Keywords  string    `json:"keywords,omitempty"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TopicsConfig is stored at config/topics.json.
type TopicsConfig struct {
	Topics []Topic `json:"topics"`
}

// Article statuses.
const (
	StatusGenerated = "generated"
	StatusPushed    = "pushed"
	StatusFailed    = "failed"
)

// Article is a generated article and its publishing outcome.
type Article struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	HTMLContent string     `json:"htmlContent,omitempty"`
	Digest      string     `json:"digest,omitempty"`
	Citations   []string   `json:"citations,omitempty"`
	Status      string     `json:"status"`
	MediaID     string     `json:"mediaId,omitempty"`
	TokensUsed  int        `json:"tokensUsed"`
	CreatedAt   time.Time  `json:"createdAt"`
	PushedAt    *time.Time `json:"pushedAt,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// Usage accumulates token consumption and estimated cost.
type Usage struct {
	TotalTokens int     `json:"totalTokens"`
	TotalCost   float64 `json:"totalCost"`
	LastReset   string  `json:"lastReset,omitempty"`
}

// History is stored at data/history.json. Articles are newest first.
type History struct {
	Articles          []Article `json:"articles"`
	Usage             Usage     `json:"usage"`
	LastExecutionTime string    `json:"lastExecutionTime,omitempty"`
}

// DefaultHistory returns an empty history.
func DefaultHistory() History {
	return History{Articles: []Article{}}
}

// LastExecution parses LastExecutionTime as a UTC instant. It returns
// nil when the field is empty or unparseable, so callers can pass it
// straight to the schedule gate.
func (h History) LastExecution() *time.Time {
	if h.LastExecutionTime == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, h.LastExecutionTime)
	if err != nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}
