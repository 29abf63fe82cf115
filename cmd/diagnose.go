package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/draftpress/draftpress/internal/config"
	"github.com/draftpress/draftpress/internal/schedule"
	"github.com/draftpress/draftpress/internal/store"
	"github.com/draftpress/draftpress/internal/workflow"
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Compare the stored schedule with the live workflow",
	Long: `Load the saved schedule settings and the workflow file from the
repository, show the cron lines each implies and the next few UTC fire
times, and flag any drift between them.`,
	RunE: runDiagnose,
}

func init() {
	rootCmd.AddCommand(diagnoseCmd)
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.ValidateStorage(); err != nil {
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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st := store.New(client)
	settings, _, err := st.Settings(ctx)
	if err != nil {
		return err
	}
	expected := schedule.CronExpressions(settings.Schedule)

	fmt.Println("Stored schedule:")
	fmt.Printf("  enabled:  %v\n", settings.Schedule.Enabled)
	fmt.Printf("  mode:     %s\n", settings.Schedule.Mode)
	fmt.Printf("  timezone: %s (UTC%+d)\n", settings.Schedule.Location(), schedule.OffsetHours(settings.Schedule.Location()))
	printCronLines("  cron", expected)

	workflowPath := ".github/workflows/" + cfg.GitHub.WorkflowFile
	file, err := client.GetFile(ctx, workflowPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", workflowPath, err)
	}
	actual, err := workflow.ScheduleExpressions(file.Content)
	if err != nil {
		return err
	}

	fmt.Println("\nLive workflow:")
	printCronLines("  cron", actual)

	var lastExecution *time.Time
	if history, _, err := st.History(ctx); err == nil {
		lastExecution = history.LastExecution()
		if history.LastExecutionTime != "" {
			fmt.Printf("\nLast execution: %s\n", history.LastExecutionTime)
		}
	}

	if next, ok := schedule.Next(settings.Schedule, time.Now(), lastExecution); ok {
		fmt.Printf("\nNext execution: %s local / %s UTC\n",
			next.Local.Format("2006-01-02 15:04"),
			next.UTC.Format(time.RFC3339))
	}

	if cronLinesEqual(expected, actual) {
		fmt.Println("\nWorkflow is in sync with the stored schedule.")
	} else {
		fmt.Println("\nDRIFT: the workflow schedule does not match the stored settings.")
		fmt.Println("Saving the settings again from the dashboard will rewrite it.")
	}
	return nil
}

// printCronLines also shows the next three fire times for each line,
// which makes off-by-one timezone mistakes obvious.
func printCronLines(label string, exprs []string) {
	if len(exprs) == 0 {
		fmt.Printf("%s: (none)\n", label)
		return
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	for _, expr := range exprs {
		fmt.Printf("%s: %s\n", label, expr)
		sched, err := parser.Parse(expr)
		if err != nil {
			fmt.Printf("    parse error: %v\n", err)
			continue
		}
		at := time.Now().UTC()
		for i := 0; i < 3; i++ {
			at = sched.Next(at)
			fmt.Printf("    fires %s\n", at.Format("2006-01-02 15:04 UTC"))
		}
	}
}

func cronLinesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
