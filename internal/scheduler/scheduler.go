// Package scheduler drives the engine's periodic work: threshold
// evaluation, reading production, report production and report aging.
// Each task runs on its own independent interval.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"citysense/internal/metrics"
)

// Task is one recurring job. Run is invoked once per tick; a returned
// error is logged and the tick is otherwise forgotten, the next one
// starts from current state.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler owns one goroutine per task. Ticks of a single task never
// overlap: the loop only reads the ticker again after Run returns, so a
// long tick delays (never re-enters) the next one.
type Scheduler struct {
	tasks  []Task
	logger *zap.Logger

	wg sync.WaitGroup
}

func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{logger: logger}
}

// Register adds a task. Tasks with a non-positive interval are ignored.
func (s *Scheduler) Register(task Task) {
	if task.Interval <= 0 {
		s.logger.Warn("skipping task with non-positive interval", zap.String("task", task.Name))
		return
	}
	s.tasks = append(s.tasks, task)
}

// Start launches every registered task loop. It returns immediately;
// the loops stop when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	for _, task := range s.tasks {
		s.wg.Add(1)
		go s.runLoop(ctx, task)
	}
	s.logger.Info("scheduler started", zap.Int("tasks", len(s.tasks)))
}

// Wait blocks until every task loop has exited.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) runLoop(ctx context.Context, task Task) {
	defer s.wg.Done()

	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()

	s.logger.Info("task loop running",
		zap.String("task", task.Name),
		zap.Duration("interval", task.Interval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("task loop stopped", zap.String("task", task.Name))
			return
		case <-ticker.C:
			s.runOnce(ctx, task)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, task Task) {
	start := time.Now()
	if err := task.Run(ctx); err != nil {
		// per-tick failures are swallowed so one bad tick cannot
		// take the loop down
		if ctx.Err() != nil {
			return
		}
		metrics.SchedulerTicksTotal.WithLabelValues(task.Name, "failed").Inc()
		s.logger.Error("task tick failed",
			zap.String("task", task.Name),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return
	}
	metrics.SchedulerTicksTotal.WithLabelValues(task.Name, "ok").Inc()
	s.logger.Debug("task tick complete",
		zap.String("task", task.Name),
		zap.Duration("elapsed", time.Since(start)))
}
