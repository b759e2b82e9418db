package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SessionReaper is the part of the session manager the reaper drives.
type SessionReaper interface {
	ReapExpired(ctx context.Context, grace time.Duration) int
}

type ReaperConfig struct {
	Schedule    string        // cron expression, e.g. "@every 1m"
	GracePeriod time.Duration // time allowed past the scheduled interview length
}

// SessionReaperJob ends voice sessions whose client never ended the call.
type SessionReaperJob struct {
	sessions SessionReaper
	config   *ReaperConfig
	logger   *zap.Logger
	cron     *cron.Cron
}

func NewSessionReaperJob(sessions SessionReaper, config *ReaperConfig, logger *zap.Logger) *SessionReaperJob {
	return &SessionReaperJob{
		sessions: sessions,
		config:   config,
		logger:   logger,
		cron:     cron.New(),
	}
}

// Start schedules the reaper. An empty schedule disables it.
func (j *SessionReaperJob) Start() error {
	if j.config.Schedule == "" {
		j.logger.Info("Session reaper disabled, no schedule configured")
		return nil
	}

	_, err := j.cron.AddFunc(j.config.Schedule, func() {
		j.RunOnce(context.Background())
	})
	if err != nil {
		return fmt.Errorf("failed to schedule session reaper: %w", err)
	}

	j.cron.Start()
	j.logger.Info("Session reaper started",
		zap.String("schedule", j.config.Schedule),
		zap.Duration("grace_period", j.config.GracePeriod))
	return nil
}

// Stop waits for a running reap to finish.
func (j *SessionReaperJob) Stop() {
	if j.cron != nil {
		<-j.cron.Stop().Done()
		j.logger.Info("Session reaper stopped")
	}
}

func (j *SessionReaperJob) RunOnce(ctx context.Context) int {
	reaped := j.sessions.ReapExpired(ctx, j.config.GracePeriod)
	if reaped > 0 {
		j.logger.Info("Reaped expired voice sessions", zap.Int("count", reaped))
	}
	return reaped
}
