package worker

import (
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

type ScheduleOptions struct {
	RedisURI         string
	ReminderSchedule string
	CleanupSchedule  string
}

// StartScheduler registers the periodic tasks and returns a stop function.
func StartScheduler(opts ScheduleOptions, log *zap.SugaredLogger) (stop func(), err error) {
	redisOpt, err := asynq.ParseRedisURI(opts.RedisURI)
	if err != nil {
		return nil, fmt.Errorf("parse redis uri: %w", err)
	}
	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Location: time.UTC,
		LogLevel: asynq.InfoLevel,
		Logger:   &asynqLogger{log: log},
	})

	reminders := opts.ReminderSchedule
	if reminders == "" {
		reminders = "@every 15m"
	}
	cleanup := opts.CleanupSchedule
	if cleanup == "" {
		cleanup = "@daily"
	}
	entries := []struct {
		cronspec string
		task     *asynq.Task
	}{
		{reminders, asynq.NewTask(TaskSendReminders, nil, asynq.MaxRetry(1), asynq.Timeout(5*time.Minute), asynq.Unique(10*time.Minute))},
		{cleanup, asynq.NewTask(TaskAuditCleanup, nil, asynq.MaxRetry(3), asynq.Timeout(10*time.Minute), asynq.Unique(time.Hour))},
	}
	for _, e := range entries {
		id, err := scheduler.Register(e.cronspec, e.task)
		if err != nil {
			return nil, fmt.Errorf("register %s: %w", e.task.Type(), err)
		}
		log.Infow("periodic task registered", "task", e.task.Type(), "schedule", e.cronspec, "entry_id", id)
	}
	if err := scheduler.Start(); err != nil {
		return nil, fmt.Errorf("start scheduler: %w", err)
	}
	return scheduler.Shutdown, nil
}
