package cmd

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/draftpress/draftpress/internal/config"
	"github.com/draftpress/draftpress/internal/perplexity"
	"github.com/draftpress/draftpress/internal/publisher"
	"github.com/draftpress/draftpress/internal/store"
	"github.com/draftpress/draftpress/internal/wechat"
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Run one publishing pass",
	Long: `Run a single pass of the publishing pipeline. Intended to be
invoked from the scheduled workflow; skipped days exit successfully so
the workflow stays green.`,
	RunE: runPublish,
}

func init() {
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.ValidatePublish(); err != nil {
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

	generator, err := perplexity.New(perplexity.Config{
		APIKey: cfg.Perplexity.APIKey,
		Model:  cfg.Perplexity.Model,
	})
	if err != nil {
		return err
	}

	drafts, err := wechat.New(wechat.Options{
		AppID:     cfg.WeChat.AppID,
		AppSecret: cfg.WeChat.AppSecret,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	pipeline := publisher.New(store.New(client), generator, drafts)
	if err := pipeline.Run(ctx); err != nil {
		log.Error().Err(err).Msg("publish run failed")
		return err
	}
	return nil
}
