package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/backendkit/core"
	apperrors "github.com/kbukum/backendkit/errors"
	"github.com/kbukum/backendkit/logger"
	"github.com/kbukum/backendkit/observability"
	"github.com/kbukum/backendkit/resilience"
)

// Task run outcomes as recorded in metrics.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

type task struct {
	pluginID string
	schedule core.TaskSchedule
	trigger  chan struct{}

	mu      sync.Mutex
	runs    int
	lastErr string
}

func (t *task) descriptor() core.TaskDescriptor {
	t.mu.Lock()
	defer t.mu.Unlock()
	return core.TaskDescriptor{
		ID:        t.schedule.ID,
		Frequency: t.schedule.Frequency,
		Runs:      t.runs,
		LastError: t.lastErr,
	}
}

// Scheduler runs the tasks of every plugin. Tasks scheduled before Start
// wait for it; Stop cancels running tasks and waits for them to return.
type Scheduler struct {
	cfg      Config
	log      *logger.Logger
	metrics  *observability.Metrics
	bulkhead *resilience.Bulkhead
	wg       conc.WaitGroup

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	tasks   map[string]map[string]*task
	pending []*task
	started bool
	stopped bool
}

// New creates a scheduler. metrics may be nil.
func New(cfg Config, log *logger.Logger, metrics *observability.Metrics) (*Scheduler, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scheduler config: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cfg:      cfg,
		log:      log.WithComponent("scheduler"),
		metrics:  metrics,
		bulkhead: resilience.NewBulkhead(cfg.MaxConcurrency, 0),
		ctx:      ctx,
		cancel:   cancel,
		tasks:    make(map[string]map[string]*task),
	}, nil
}

// ForPlugin returns the core.SchedulerService of pluginID.
func (s *Scheduler) ForPlugin(pluginID string) *PluginScheduler {
	return &PluginScheduler{root: s, pluginID: pluginID}
}

// Start launches every task scheduled so far.
func (s *Scheduler) Start(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return fmt.Errorf("scheduler already stopped")
	}
	if s.started {
		return nil
	}
	s.started = true
	for _, t := range s.pending {
		s.launch(t)
	}
	s.log.Info("Scheduler started", map[string]interface{}{"tasks": len(s.pending)})
	s.pending = nil
	return nil
}

// Stop cancels all tasks and waits for running ones until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.mu.Unlock()

	s.cancel()
	done := make(chan *panics.Recovered, 1)
	go func() { done <- s.wg.WaitAndRecover() }()

	select {
	case r := <-done:
		if r != nil {
			return r.AsError()
		}
		s.log.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

func (s *Scheduler) add(t *task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return apperrors.ServiceUnavailable("scheduler")
	}
	byID, ok := s.tasks[t.pluginID]
	if !ok {
		byID = make(map[string]*task)
		s.tasks[t.pluginID] = byID
	}
	if _, exists := byID[t.schedule.ID]; exists {
		return apperrors.Conflict(fmt.Sprintf("task %s is already scheduled", t.schedule.ID))
	}
	byID[t.schedule.ID] = t

	if s.started {
		s.launch(t)
	} else {
		s.pending = append(s.pending, t)
	}
	return nil
}

func (s *Scheduler) find(pluginID, id string) (*task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[pluginID][id]
	return t, ok
}

func (s *Scheduler) list(pluginID string) []core.TaskDescriptor {
	s.mu.Lock()
	tasks := make([]*task, 0, len(s.tasks[pluginID]))
	for _, t := range s.tasks[pluginID] {
		tasks = append(tasks, t)
	}
	s.mu.Unlock()

	out := make([]core.TaskDescriptor, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.descriptor())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// launch must be called with mu held.
func (s *Scheduler) launch(t *task) {
	ctx := s.ctx
	s.wg.Go(func() { s.loop(ctx, t) })
}

func (s *Scheduler) loop(ctx context.Context, t *task) {
	if d := t.schedule.InitialDelay; d > 0 {
		timer := time.NewTimer(d)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		case <-t.trigger:
			timer.Stop()
		}
	}

	for {
		s.run(ctx, t)

		timer := time.NewTimer(t.schedule.Frequency)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		case <-t.trigger:
			timer.Stop()
		}
	}
}

// run executes one invocation. Panics are recovered and reported as
// failures.
func (s *Scheduler) run(ctx context.Context, t *task) {
	timeout := t.schedule.Timeout
	if timeout <= 0 {
		timeout = s.cfg.DefaultTimeout
	}
	log := s.log.WithPlugin(t.pluginID).Child(map[string]interface{}{"task": t.schedule.ID})

	ctx, span := observability.StartSpan(ctx, "task "+t.schedule.ID, trace.WithAttributes(
		attribute.String(observability.AttrPluginID, t.pluginID),
		attribute.String(observability.AttrTaskID, t.schedule.ID),
	))
	defer span.End()

	start := time.Now()
	err := s.bulkhead.Execute(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		var taskErr error
		var pc panics.Catcher
		pc.Try(func() { taskErr = t.schedule.Fn(ctx) })
		if r := pc.Recovered(); r != nil {
			return r.AsError()
		}
		return taskErr
	})
	elapsed := time.Since(start)

	if ctx.Err() != nil && err != nil {
		// Shutdown interrupted the run.
		return
	}

	status := StatusSucceeded
	t.mu.Lock()
	t.runs++
	t.lastErr = ""
	if err != nil {
		status = StatusFailed
		t.lastErr = err.Error()
	}
	t.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordTask(ctx, t.pluginID, t.schedule.ID, status, elapsed)
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		observability.SetSpanError(ctx, err)
		log.Error("Task failed", map[string]interface{}{
			logger.FieldError:    err.Error(),
			logger.FieldDuration: elapsed.Milliseconds(),
		})
		return
	}
	log.Debug("Task completed", map[string]interface{}{logger.FieldDuration: elapsed.Milliseconds()})
}
