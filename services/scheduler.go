package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartArchiveScheduler retries archiving of completed tournaments every
// interval. The caller shuts the returned scheduler down.
func StartArchiveScheduler(archiver ArchiveService, interval time.Duration, logger *slog.Logger) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()

			n, err := archiver.ArchivePending(ctx)
			if err != nil {
				logger.Error("[Scheduler] archive run failed", slog.Any("error", err))
				return
			}
			if n > 0 {
				logger.Info("[Scheduler] archived tournaments", slog.Int("count", n))
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName("archive-completed-tournaments"),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("failed to schedule archive job: %w", err)
	}

	sched.Start()
	return sched, nil
}
