package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/jordanlanch/realtycrm/pkg/logger"
	"github.com/jordanlanch/realtycrm/pkg/models"
)

// DueTaskSource lists tasks coming due and records sent reminders
type DueTaskSource interface {
	DueBetween(ctx context.Context, from, to time.Time) ([]models.Task, error)
	MarkDueNotified(ctx context.Context, id string, at time.Time) error
}

// Notifier creates notifications
type Notifier interface {
	Create(ctx context.Context, n *models.Notification) (*models.Notification, error)
}

// TaskDueNotifier sends one task_due reminder per task due within the window
type TaskDueNotifier struct {
	tasks    DueTaskSource
	notifier Notifier
	window   time.Duration
	now      func() time.Time
	log      logger.Logger
}

// NewTaskDueNotifier creates the reminder job. window defaults to 24h.
func NewTaskDueNotifier(tasks DueTaskSource, notifier Notifier, window time.Duration, log logger.Logger) *TaskDueNotifier {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &TaskDueNotifier{
		tasks:    tasks,
		notifier: notifier,
		window:   window,
		now:      time.Now,
		log:      logger.OrDefault(log),
	}
}

// WithClock replaces the time source
func (j *TaskDueNotifier) WithClock(now func() time.Time) *TaskDueNotifier {
	j.now = now
	return j
}

// Run notifies the assignees of open tasks due in [now, now+window) and
// returns the number of reminders sent. Unassigned tasks are marked without
// a notification so they are not scanned again.
func (j *TaskDueNotifier) Run(ctx context.Context) (int, error) {
	now := j.now().UTC()
	due, err := j.tasks.DueBetween(ctx, now, now.Add(j.window))
	if err != nil {
		return 0, fmt.Errorf("failed to list due tasks: %w", err)
	}

	sent := 0
	for _, t := range due {
		if t.AssignedTo != "" {
			n := &models.Notification{
				UserID:    t.AssignedTo,
				Type:      models.NotificationTaskDue,
				Title:     "Task due soon",
				Message:   fmt.Sprintf("%s is due %s", t.Title, t.DueDate.UTC().Format("Jan 2 15:04 MST")),
				ActionURL: "/tasks/" + t.ID,
				Metadata:  map[string]any{"task_id": t.ID},
			}
			if _, err := j.notifier.Create(ctx, n); err != nil {
				j.log.Warn("failed to create task due notification", "task_id", t.ID, "error", err)
				continue
			}
			sent++
		}
		if err := j.tasks.MarkDueNotified(ctx, t.ID, now); err != nil {
			return sent, err
		}
	}

	return sent, nil
}
