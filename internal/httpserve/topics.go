package httpserve

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/draftpress/draftpress/internal/store"
)

func (s *Server) handleListTopics(c echo.Context) error {
	topics, _, err := s.storage.Topics(c.Request().Context())
	if err != nil {
		log.Error().Err(err).Msg("load topics failed")
		return respondError(c, http.StatusInternalServerError, "could not load topics")
	}
	return respondOK(c, topics.Topics)
}

type topicRequest struct {
	Name     string  `json:"name"`
	Keywords *string `json:"keywords"`
	Enabled  *bool   `json:"enabled"`
}

func (s *Server) handleCreateTopic(c echo.Context) error {
	var req topicRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return respondError(c, http.StatusBadRequest, "topic name is required")
	}

	ctx := c.Request().Context()
	topics, sha, err := s.storage.Topics(ctx)
	if err != nil {
		return respondError(c, http.StatusInternalServerError, "could not load topics")
	}

	now := time.Now().UTC()
	topic := store.Topic{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Enabled:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Keywords != nil {
		topic.Keywords = *req.Keywords
	}
	if req.Enabled != nil {
		topic.Enabled = *req.Enabled
	}
	topics.Topics = append(topics.Topics, topic)

	if _, err := s.storage.SaveTopics(ctx, topics, sha); err != nil {
		log.Error().Err(err).Msg("save topics failed")
		return respondError(c, http.StatusInternalServerError, "could not save topics")
	}
	return c.JSON(http.StatusCreated, successEnvelope{Success: true, Data: topic})
}

func (s *Server) handleUpdateTopic(c echo.Context) error {
	var req topicRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}

	ctx := c.Request().Context()
	topics, sha, err := s.storage.Topics(ctx)
	if err != nil {
		return respondError(c, http.StatusInternalServerError, "could not load topics")
	}

	id := c.Param("id")
	idx := -1
	for i := range topics.Topics {
		if topics.Topics[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return respondError(c, http.StatusNotFound, "topic not found")
	}

	topic := &topics.Topics[idx]
	if name := strings.TrimSpace(req.Name); name != "" {
		topic.Name = name
	}
	if req.Keywords != nil {
		topic.Keywords = *req.Keywords
	}
	if req.Enabled != nil {
		topic.Enabled = *req.Enabled
	}
	topic.UpdatedAt = time.Now().UTC()

	if _, err := s.storage.SaveTopics(ctx, topics, sha); err != nil {
		log.Error().Err(err).Msg("save topics failed")
		return respondError(c, http.StatusInternalServerError, "could not save topics")
	}
	return respondOK(c, *topic)
}

func (s *Server) handleDeleteTopic(c echo.Context) error {
	ctx := c.Request().Context()
	topics, sha, err := s.storage.Topics(ctx)
	if err != nil {
		return respondError(c, http.StatusInternalServerError, "could not load topics")
	}

	id := c.Param("id")
	kept := topics.Topics[:0]
	found := false
	for _, t := range topics.Topics {
		if t.ID == id {
			found = true
			continue
		}
		kept = append(kept, t)
	}
	if !found {
		return respondError(c, http.StatusNotFound, "topic not found")
	}
	topics.Topics = kept

	if _, err := s.storage.SaveTopics(ctx, topics, sha); err != nil {
		log.Error().Err(err).Msg("save topics failed")
		return respondError(c, http.StatusInternalServerError, "could not save topics")
	}
	return respondOK(c, nil)
}
