package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/ternarybob/briefdoc/internal/app"
	"github.com/ternarybob/briefdoc/internal/common"
)

var scheduleNow bool

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run briefs on the configured cron schedule until interrupted",
	Long: `Keeps running and appends a brief every time schedule.cron fires (six fields, seconds
first; default "0 0 7 * * 1-5"). A tick that fires while a brief is still running is skipped.`,
	Args: cobra.NoArgs,
	RunE: runSchedule,
}

func init() {
	scheduleCmd.Flags().BoolVar(&scheduleNow, "now", false, "Run one brief immediately before waiting for the schedule")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	common.PrintBanner(common.GetVersion())

	ctx := cmd.Context()
	application, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer application.Close()

	sched, err := application.NewScheduler()
	if err != nil {
		logger.Error().Err(err).Str("cron", config.Schedule.Cron).Msg("Failed to create scheduler")
		return err
	}

	if scheduleNow {
		if err := sched.RunJob(ctx, app.BriefJobName); err != nil {
			logger.Warn().Err(err).Msg("Initial brief failed, continuing with schedule")
		}
	}

	if err := sched.Start(); err != nil {
		return logFailure(err, "Failed to start scheduler")
	}

	if status, err := sched.GetJobStatus(app.BriefJobName); err == nil && status.NextRun != nil {
		logger.Info().
			Str("cron", config.Schedule.Cron).
			Str("next_run", status.NextRun.Format("2006-01-02 15:04:05")).
			Msg("Scheduler ready - Press Ctrl+C to stop")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info().Msg("Interrupt signal received")
	case <-ctx.Done():
	}

	return logFailure(sched.Stop(), "Scheduler shutdown failed")
}
