// Package httpserve exposes the dashboard HTTP API: login, schedule
// settings, topics, history and manual triggering.
package httpserve

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/draftpress/draftpress/internal/auth"
	"github.com/draftpress/draftpress/internal/store"
)

// Storage is the slice of the store the handlers use.
type Storage interface {
	Settings(ctx context.Context) (store.Settings, string, error)
	SaveSettings(ctx context.Context, settings store.Settings, sha string) (string, error)
	Topics(ctx context.Context) (store.TopicsConfig, string, error)
	SaveTopics(ctx context.Context, topics store.TopicsConfig, sha string) (string, error)
	History(ctx context.Context) (store.History, string, error)
}

// Workflow keeps the repository workflow in sync and fires manual
// runs.
type Workflow interface {
	SyncSchedule(ctx context.Context, exprs []string) error
	Trigger(ctx context.Context) error
}

// Options configures a Server.
type Options struct {
	Auth          *auth.Service
	Storage       Storage
	Workflow      Workflow
	SessionSecret string
}

// Server is the dashboard HTTP server.
type Server struct {
	echo    *echo.Echo
	auth    *auth.Service
	storage Storage
	flow    Workflow
}

// New builds the server and its route table.
func New(opts Options) *Server {
	s := &Server{
		auth:    opts.Auth,
		storage: opts.Storage,
		flow:    opts.Workflow,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(requestLogger())
	e.Use(session.Middleware(sessions.NewCookieStore([]byte(opts.SessionSecret))))

	api := e.Group("/api")
	api.GET("/health", s.handleHealth)
	api.POST("/auth/login", s.handleLogin)
	api.POST("/auth/logout", s.handleLogout)

	protected := api.Group("", s.requireAuth)
	protected.GET("/settings", s.handleGetSettings)
	protected.PUT("/settings", s.handleUpdateSettings)
	protected.POST("/settings/preview", s.handlePreviewSchedule)
	protected.GET("/topics", s.handleListTopics)
	protected.POST("/topics", s.handleCreateTopic)
	protected.PUT("/topics/:id", s.handleUpdateTopic)
	protected.DELETE("/topics/:id", s.handleDeleteTopic)
	protected.GET("/history", s.handleHistory)
	protected.GET("/usage", s.handleUsage)
	protected.POST("/trigger", s.handleTrigger)

	s.echo = e
	return s
}

// Start listens on the given port until the context is cancelled.
func (s *Server) Start(ctx context.Context, port int) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echo.Start(fmt.Sprintf(":%d", port))
	}()
	log.Info().Int("port", port).Msg("dashboard listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.echo.Shutdown(shutdownCtx)
	}
}

// Handler exposes the router, for tests.
func (s *Server) Handler() *echo.Echo {
	return s.echo
}

func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			log.Debug().
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Int("status", c.Response().Status).
				Dur("took", time.Since(start)).
				Msg("request")
			return err
		}
	}
}
