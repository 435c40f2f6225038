package app

import (
	"context"

	"github.com/ternarybob/briefdoc/internal/services/scheduler"
)

// BriefJobName is the scheduler job that runs RunBrief
const BriefJobName = "market-brief"

// NewScheduler registers RunBrief on the configured cron spec.
// Runs never overlap; a tick that fires mid-run is skipped.
func (a *App) NewScheduler() (*scheduler.Service, error) {
	timeout := parseDuration(a.Config.Schedule.Timeout, 0)
	s := scheduler.NewService(a.Logger, timeout)

	err := s.RegisterJob(BriefJobName, a.Config.Schedule.Cron, func(ctx context.Context) error {
		_, err := a.RunBrief(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	return s, nil
}
