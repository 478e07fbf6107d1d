// services/scheduler.go
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartScheduler registers the nightly streak refresh and the periodic leaderboard
// rebuild. The scheduler shuts down when ctx is done.
func StartScheduler(ctx context.Context, streaks *StreakService, leaderboard *LeaderboardService) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, err
	}

	// Shortly after midnight: streaks that missed yesterday drop to zero
	if _, err := sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 5, 0))),
		gocron.NewTask(func() {
			if _, err := streaks.RefreshAll(time.Now().UTC()); err != nil {
				slog.Error("[Scheduler] streak refresh failed", "error", err)
			}
		}),
		gocron.WithName("refresh-streaks"),
	); err != nil {
		return nil, err
	}

	// Hourly: resync the cache in case an update was lost
	if _, err := sched.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(func() {
			if err := leaderboard.Rebuild(ctx); err != nil {
				slog.Error("[Scheduler] leaderboard rebuild failed", "error", err)
			}
		}),
		gocron.WithName("rebuild-leaderboard"),
	); err != nil {
		return nil, err
	}

	sched.Start()
	go func() {
		<-ctx.Done()
		if err := sched.Shutdown(); err != nil {
			slog.Warn("[Scheduler] shutdown", "error", err)
		}
	}()
	return sched, nil
}
