package scheduler

import (
	"context"

	"github.com/kbukum/backendkit/core"
	apperrors "github.com/kbukum/backendkit/errors"
)

var _ core.SchedulerService = (*PluginScheduler)(nil)

// PluginScheduler is the view of the scheduler given to one plugin. Task
// IDs are unique per plugin.
type PluginScheduler struct {
	root     *Scheduler
	pluginID string
}

// ScheduleTask registers a task that runs every Frequency after
// InitialDelay.
func (p *PluginScheduler) ScheduleTask(_ context.Context, schedule core.TaskSchedule) error {
	switch {
	case schedule.ID == "":
		return apperrors.MissingField("id")
	case schedule.Fn == nil:
		return apperrors.MissingField("fn")
	case schedule.Frequency <= 0:
		return apperrors.InvalidInput("frequency", "frequency must be positive")
	}
	return p.root.add(&task{
		pluginID: p.pluginID,
		schedule: schedule,
		trigger:  make(chan struct{}, 1),
	})
}

// TriggerTask runs the task now instead of waiting for its next tick. A
// trigger that arrives while the task runs is kept for after the run.
func (p *PluginScheduler) TriggerTask(_ context.Context, id string) error {
	t, ok := p.root.find(p.pluginID, id)
	if !ok {
		return apperrors.NotFound("task", id)
	}
	select {
	case t.trigger <- struct{}{}:
	default:
	}
	return nil
}

// ScheduledTasks lists the plugin's tasks sorted by ID.
func (p *PluginScheduler) ScheduledTasks(context.Context) ([]core.TaskDescriptor, error) {
	return p.root.list(p.pluginID), nil
}
