package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jordanlanch/realtycrm/pkg/logger"
)

// Job names used in logs and metrics
const (
	JobTaskDue      = "task_due"
	JobMatchRefresh = "match_refresh"
)

// MatchRefresher regenerates property suggestions for every active lead
type MatchRefresher interface {
	RefreshAll(ctx context.Context) (int, error)
}

// RunRecorder observes job outcomes
type RunRecorder interface {
	RecordJobRun(job string, err error)
}

// Options configures the scheduled jobs. Nil jobs are not scheduled.
type Options struct {
	TaskDue  *TaskDueNotifier
	Matches  MatchRefresher
	Recorder RunRecorder
	Logger   logger.Logger
}

// CronManager manages scheduled jobs
type CronManager struct {
	cron     *cron.Cron
	taskDue  *TaskDueNotifier
	matches  MatchRefresher
	recorder RunRecorder
	log      logger.Logger
}

// NewCronManager creates a new cron manager
func NewCronManager(opts Options) *CronManager {
	return &CronManager{
		cron:     cron.New(),
		taskDue:  opts.TaskDue,
		matches:  opts.Matches,
		recorder: opts.Recorder,
		log:      logger.OrDefault(opts.Logger),
	}
}

// SetupJobs configures all scheduled jobs
func (cm *CronManager) SetupJobs() error {
	if cm.taskDue != nil {
		// Hourly: remind assignees of tasks coming due
		if _, err := cm.cron.AddFunc("0 * * * *", func() { cm.RunTaskDue(context.Background()) }); err != nil {
			return err
		}
	}

	if cm.matches != nil {
		// Daily at 3 AM: rescore every active lead against current listings
		if _, err := cm.cron.AddFunc("0 3 * * *", func() { cm.RunMatchRefresh(context.Background()) }); err != nil {
			return err
		}
	}

	cm.log.Info("cron jobs configured", "entries", len(cm.cron.Entries()))
	return nil
}

// RunTaskDue runs the task reminder job once
func (cm *CronManager) RunTaskDue(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	sent, err := cm.taskDue.Run(ctx)
	cm.finish(JobTaskDue, err, "sent", sent)
}

// RunMatchRefresh runs the match refresh job once
func (cm *CronManager) RunMatchRefresh(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Minute)
	defer cancel()

	processed, err := cm.matches.RefreshAll(ctx)
	cm.finish(JobMatchRefresh, err, "leads", processed)
}

func (cm *CronManager) finish(job string, err error, countKey string, count int) {
	if cm.recorder != nil {
		cm.recorder.RecordJobRun(job, err)
	}
	if err != nil {
		cm.log.Error("job failed", "job", job, countKey, count, "error", err)
		return
	}
	cm.log.Info("job completed", "job", job, countKey, count)
}

// Start starts the cron scheduler
func (cm *CronManager) Start() {
	cm.log.Info("starting cron scheduler")
	cm.cron.Start()
}

// Stop stops the scheduler and waits for running jobs until ctx is done
func (cm *CronManager) Stop(ctx context.Context) {
	cm.log.Info("stopping cron scheduler")
	select {
	case <-cm.cron.Stop().Done():
	case <-ctx.Done():
	}
}
