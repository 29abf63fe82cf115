package httpserve

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

func (s *Server) handleHistory(c echo.Context) error {
	history, _, err := s.storage.History(c.Request().Context())
	if err != nil {
		log.Error().Err(err).Msg("load history failed")
		return respondError(c, http.StatusInternalServerError, "could not load history")
	}

	articles := history.Articles
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return respondError(c, http.StatusBadRequest, "invalid limit")
		}
		if limit < len(articles) {
			articles = articles[:limit]
		}
	}

	return respondOK(c, map[string]any{
		"articles":          articles,
		"lastExecutionTime": history.LastExecutionTime,
	})
}

func (s *Server) handleUsage(c echo.Context) error {
	history, _, err := s.storage.History(c.Request().Context())
	if err != nil {
		log.Error().Err(err).Msg("load history failed")
		return respondError(c, http.StatusInternalServerError, "could not load usage")
	}
	return respondOK(c, history.Usage)
}

func (s *Server) handleTrigger(c echo.Context) error {
	if err := s.flow.Trigger(c.Request().Context()); err != nil {
		log.Error().Err(err).Msg("workflow dispatch failed")
		return respondError(c, http.StatusBadGateway, "could not trigger workflow")
	}
	return respondOK(c, map[string]string{"status": "triggered"})
}
