package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/draftpress/draftpress/internal/auth"
	"github.com/draftpress/draftpress/internal/config"
	"github.com/draftpress/draftpress/internal/httpserve"
	"github.com/draftpress/draftpress/internal/store"
	"github.com/draftpress/draftpress/internal/workflow"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.ValidateServe(); err != nil {
		return err
	}

	client, err := store.NewClient(store.ClientOptions{
		Token:  cfg.GitHub.Token,
		Owner:  cfg.GitHub.Owner,
		Repo:   cfg.GitHub.Repo,
		APIURL: cfg.GitHub.APIURL,
	})
	if err != nil {
		return err
	}

	authSvc, err := auth.NewService(cfg.Auth.Password, cfg.Auth.JWTSecret, 24*time.Hour)
	if err != nil {
		return err
	}

	sessionSecret := cfg.Server.SessionSecret
	if sessionSecret == "" {
		// Sessions won't survive restarts without a configured secret.
		sessionSecret, err = auth.GenerateSecret()
		if err != nil {
			return err
		}
		log.Warn().Msg("no session secret configured, generated an ephemeral one")
	}

	srv := httpserve.New(httpserve.Options{
		Auth:          authSvc,
		Storage:       store.New(client),
		Workflow:      workflow.NewUpdater(client, cfg.GitHub.WorkflowFile, cfg.GitHub.Ref),
		SessionSecret: sessionSecret,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return srv.Start(ctx, cfg.Server.Port)
}
