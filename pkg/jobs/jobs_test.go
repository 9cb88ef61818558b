package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jordanlanch/realtycrm/pkg/database/databasetest"
	"github.com/jordanlanch/realtycrm/pkg/logger"
	"github.com/jordanlanch/realtycrm/pkg/models"
	"github.com/jordanlanch/realtycrm/pkg/notifications"
	"github.com/jordanlanch/realtycrm/pkg/tasks"
)

var jobNow = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

func timePtr(t time.Time) *time.Time { return &t }

func TestTaskDueNotifier_SendsOncePerTask(t *testing.T) {
	db := databasetest.Open(t)
	ctx := context.Background()
	taskSvc := tasks.NewService(db, nil, logger.Nop())
	notifySvc := notifications.NewService(db, nil, logger.Nop())

	create := func(title, assignee string, due time.Time, status string) {
		_, err := taskSvc.Create(ctx, models.CreateTaskRequest{
			Title: title, AssignedTo: assignee, DueDate: timePtr(due), Status: status,
		}, "agent-1")
		require.NoError(t, err)
	}
	create("Call buyer", "agent-1", jobNow.Add(2*time.Hour), "")
	create("Send contract", "agent-2", jobNow.Add(20*time.Hour), models.TaskStatusInProgress)
	create("Next week", "agent-1", jobNow.Add(72*time.Hour), "")
	create("Already done", "agent-1", jobNow.Add(time.Hour), models.TaskStatusCompleted)
	create("Unassigned", "", jobNow.Add(time.Hour), "")

	job := NewTaskDueNotifier(taskSvc, notifySvc, 24*time.Hour, logger.Nop()).
		WithClock(func() time.Time { return jobNow })

	sent, err := job.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)

	list, err := notifySvc.List(ctx, "agent-1", models.NotificationFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.NotificationTaskDue, list[0].Type)
	assert.Contains(t, list[0].Message, "Call buyer")

	// A second run finds nothing new.
	sent, err = job.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent)
}

type failingNotifier struct{}

func (failingNotifier) Create(context.Context, *models.Notification) (*models.Notification, error) {
	return nil, errors.New("db down")
}

func TestTaskDueNotifier_NotificationFailureRetriesNextRun(t *testing.T) {
	db := databasetest.Open(t)
	ctx := context.Background()
	taskSvc := tasks.NewService(db, nil, logger.Nop())
	_, err := taskSvc.Create(ctx, models.CreateTaskRequest{
		Title: "Showing", AssignedTo: "agent-1", DueDate: timePtr(jobNow.Add(time.Hour)),
	}, "agent-1")
	require.NoError(t, err)

	clock := func() time.Time { return jobNow }
	sent, err := NewTaskDueNotifier(taskSvc, failingNotifier{}, 0, logger.Nop()).WithClock(clock).Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent)

	notifySvc := notifications.NewService(db, nil, logger.Nop())
	sent, err = NewTaskDueNotifier(taskSvc, notifySvc, 0, logger.Nop()).WithClock(clock).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
}

type fakeRefresher struct {
	calls int
	err   error
}

func (f *fakeRefresher) RefreshAll(context.Context) (int, error) {
	f.calls++
	return 3, f.err
}

type recordedRun struct {
	job string
	err error
}

type fakeRecorder struct{ runs []recordedRun }

func (f *fakeRecorder) RecordJobRun(job string, err error) {
	f.runs = append(f.runs, recordedRun{job, err})
}

func TestCronManager_SetupAndRun(t *testing.T) {
	refresher := &fakeRefresher{}
	rec := &fakeRecorder{}
	cm := NewCronManager(Options{Matches: refresher, Recorder: rec, Logger: logger.Nop()})

	require.NoError(t, cm.SetupJobs())
	assert.Len(t, cm.cron.Entries(), 1)

	cm.RunMatchRefresh(context.Background())
	refresher.err = errors.New("boom")
	cm.RunMatchRefresh(context.Background())

	assert.Equal(t, 2, refresher.calls)
	require.Len(t, rec.runs, 2)
	assert.Equal(t, JobMatchRefresh, rec.runs[0].job)
	assert.NoError(t, rec.runs[0].err)
	assert.EqualError(t, rec.runs[1].err, "boom")

	cm.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	cm.Stop(ctx)
}
