package httpserve

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/draftpress/draftpress/internal/schedule"
	"github.com/draftpress/draftpress/internal/store"
)

func (s *Server) handleGetSettings(c echo.Context) error {
	settings, _, err := s.storage.Settings(c.Request().Context())
	if err != nil {
		log.Error().Err(err).Msg("load settings failed")
		return respondError(c, http.StatusInternalServerError, "could not load settings")
	}
	return respondOK(c, settingsView(settings))
}

// Update requests use pointers throughout so absent fields leave the
// stored values untouched; the merge is per-field, not per-section.
type scheduleUpdate struct {
	Enabled        *bool          `json:"enabled"`
	Timezone       *string        `json:"timezone"`
	Mode           *schedule.Mode `json:"mode"`
	ExecutionTimes *[]string      `json:"executionTimes"`
	IntervalDays   *int           `json:"intervalDays"`
	WeekDays       *[]int         `json:"weekDays"`
	Cron           *string        `json:"cron"`
}

type contentUpdate struct {
	Language  *string `json:"language"`
	MinLength *int    `json:"minLength"`
	MaxLength *int    `json:"maxLength"`
}

type updateSettingsRequest struct {
	Schedule *scheduleUpdate `json:"schedule"`
	Content  *contentUpdate  `json:"content"`
}

func mergeSchedule(dst *schedule.Config, upd scheduleUpdate) {
	if upd.Enabled != nil {
		dst.Enabled = *upd.Enabled
	}
	if upd.Timezone != nil {
		dst.Timezone = *upd.Timezone
	}
	if upd.Mode != nil {
		dst.Mode = *upd.Mode
	}
	if upd.ExecutionTimes != nil {
		dst.ExecutionTimes = *upd.ExecutionTimes
	}
	if upd.IntervalDays != nil {
		dst.IntervalDays = *upd.IntervalDays
	}
	if upd.WeekDays != nil {
		dst.WeekDays = *upd.WeekDays
	}
	if upd.Cron != nil {
		dst.Cron = *upd.Cron
	}
}

func mergeContent(dst *store.ContentSettings, upd contentUpdate) {
	if upd.Language != nil {
		dst.Language = *upd.Language
	}
	if upd.MinLength != nil {
		dst.MinLength = *upd.MinLength
	}
	if upd.MaxLength != nil {
		dst.MaxLength = *upd.MaxLength
	}
}

func (s *Server) handleUpdateSettings(c echo.Context) error {
	var req updateSettingsRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}

	ctx := c.Request().Context()
	settings, sha, err := s.storage.Settings(ctx)
	if err != nil {
		log.Error().Err(err).Msg("load settings failed")
		return respondError(c, http.StatusInternalServerError, "could not load settings")
	}

	if req.Schedule != nil {
		merged := settings.Schedule
		mergeSchedule(&merged, *req.Schedule)
		if result := schedule.Validate(merged); !result.Valid {
			return respondValidation(c, "invalid schedule", result.Errors)
		}
		settings.Schedule = merged
	}
	if req.Content != nil {
		merged := settings.Content
		mergeContent(&merged, *req.Content)
		if merged.MinLength <= 0 || merged.MaxLength < merged.MinLength {
			return respondError(c, http.StatusBadRequest, "invalid content length range")
		}
		settings.Content = merged
	}

	if _, err := s.storage.SaveSettings(ctx, settings, sha); err != nil {
		log.Error().Err(err).Msg("save settings failed")
		return respondError(c, http.StatusInternalServerError, "could not save settings")
	}

	// The workflow rewrite is best effort; the saved settings are the
	// source of truth and the next save retries it.
	exprs := schedule.CronExpressions(settings.Schedule)
	if err := s.flow.SyncSchedule(ctx, exprs); err != nil {
		log.Warn().Err(err).Msg("workflow schedule sync failed")
	}

	return respondOK(c, settingsView(settings))
}

type previewResponse struct {
	IsValid           bool     `json:"isValid"`
	Errors            []string `json:"errors,omitempty"`
	Cron              []string `json:"cron,omitempty"`
	NextTime          string   `json:"nextTime,omitempty"`
	NextTimeLocal     string   `json:"nextTimeLocal,omitempty"`
	NextTimeUTC       string   `json:"nextTimeUtc,omitempty"`
	LastExecutionTime string   `json:"lastExecutionTime,omitempty"`
}

// handlePreviewSchedule validates a candidate schedule and reports
// its cron lines and next execution without saving anything. The
// config may arrive wrapped in a {"schedule": ...} object or bare.
func (s *Server) handlePreviewSchedule(c echo.Context) error {
	cfg, err := bindPreviewConfig(c)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}

	result := schedule.Validate(cfg)
	if !result.Valid {
		return respondOK(c, previewResponse{IsValid: false, Errors: result.Errors})
	}

	resp := previewResponse{Cron: schedule.CronExpressions(cfg)}

	var lastExecution *time.Time
	if history, _, err := s.storage.History(c.Request().Context()); err == nil {
		resp.LastExecutionTime = history.LastExecutionTime
		lastExecution = history.LastExecution()
	} else {
		log.Warn().Err(err).Msg("history unavailable for preview")
	}

	next, ok := schedule.Next(cfg, time.Now(), lastExecution)
	if !ok {
		// Custom cron has no projection here, and a horizon miss means
		// the schedule never fires.
		resp.Errors = []string{"cannot compute next execution time"}
		return respondOK(c, resp)
	}

	resp.IsValid = true
	resp.NextTime = fmt.Sprintf("%s (%s)",
		next.Local.Format("2006-01-02 15:04"), cfg.Location())
	resp.NextTimeLocal = next.Local.Format(time.RFC3339)
	resp.NextTimeUTC = next.UTC.Format(time.RFC3339)
	return respondOK(c, resp)
}

func bindPreviewConfig(c echo.Context) (schedule.Config, error) {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return schedule.Config{}, err
	}

	var wrapped struct {
		Schedule *schedule.Config `json:"schedule"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Schedule != nil {
		return *wrapped.Schedule, nil
	}

	var cfg schedule.Config
	if err := json.Unmarshal(body, &cfg); err != nil {
		return schedule.Config{}, err
	}
	return cfg, nil
}

type settingsPayload struct {
	Schedule schedule.Config       `json:"schedule"`
	Content  store.ContentSettings `json:"content"`
	Cron     []string              `json:"cron,omitempty"`
}

func settingsView(settings store.Settings) settingsPayload {
	return settingsPayload{
		Schedule: settings.Schedule,
		Content:  settings.Content,
		Cron:     schedule.CronExpressions(settings.Schedule),
	}
}
