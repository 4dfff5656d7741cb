package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/reportassist/internal/config"
	"github.com/reportassist/internal/logging"
	"github.com/reportassist/internal/models"
	"github.com/reportassist/internal/notify"
	"github.com/reportassist/internal/report"
	"github.com/reportassist/internal/store"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

// ReportGenerator produces the report artifact of one firing.
type ReportGenerator interface {
	Generate(tpl *models.Template, ctx report.Context) (*models.Report, error)
}

// EmailDispatcher delivers a report per its email configuration.
type EmailDispatcher interface {
	Dispatch(rep *models.Report, cfg *models.EmailConfiguration) (*models.EmailSendRecord, error)
}

// Scheduler drives firings: each tick it asks the task store for due
// tasks, claims each one through the execution log and runs the
// generate-then-dispatch pipeline asynchronously, bounded by a weighted
// semaphore so one slow task never blocks the loop or the others.
type Scheduler struct {
	tasks      *store.TaskStore
	logs       *store.ExecutionLog
	generator  ReportGenerator
	dispatcher EmailDispatcher
	notifier   notify.Notifier

	interval    time.Duration
	staleAfter  time.Duration
	stalePolicy string

	sem      *semaphore.Weighted
	stopChan chan struct{}
	wg       sync.WaitGroup

	mu      sync.Mutex
	cancels map[string]*atomic.Bool

	logger *logrus.Entry
}

type Options struct {
	TickInterval          time.Duration
	MaxConcurrent         int64
	StaleAfter            time.Duration
	OnRestartStaleRunning string
}

func New(tasks *store.TaskStore, logs *store.ExecutionLog, generator ReportGenerator, dispatcher EmailDispatcher, notifier notify.Notifier, opts Options) *Scheduler {
	if opts.TickInterval <= 0 {
		opts.TickInterval = 30 * time.Second
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 10
	}
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = 30 * time.Minute
	}
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}

	return &Scheduler{
		tasks:       tasks,
		logs:        logs,
		generator:   generator,
		dispatcher:  dispatcher,
		notifier:    notifier,
		interval:    opts.TickInterval,
		staleAfter:  opts.StaleAfter,
		stalePolicy: opts.OnRestartStaleRunning,
		sem:         semaphore.NewWeighted(opts.MaxConcurrent),
		stopChan:    make(chan struct{}),
		cancels:     make(map[string]*atomic.Bool),
		logger:      logging.Component("scheduler"),
	}
}

// JobID derives the idempotency key of a scheduled firing. The same
// (task, instant) pair always maps to the same id, so re-evaluating a
// tick after a restart cannot fire twice.
func JobID(taskID uint, scheduledAt time.Time) string {
	return fmt.Sprintf("%d@%s", taskID, scheduledAt.UTC().Format(time.RFC3339))
}

// Start recovers stale firings and launches the tick loop.
func (s *Scheduler) Start() error {
	if err := s.recoverStale(); err != nil {
		return err
	}

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.tick(time.Now())
			case <-s.stopChan:
				return
			}
		}
	}()

	s.logger.Infof("Scheduler started, tick interval %s", s.interval)
	return nil
}

// Shutdown stops the tick loop and waits for in-flight pipelines.
func (s *Scheduler) Shutdown() {
	close(s.stopChan)
	s.wg.Wait()
}

// tick claims and launches every due task. Storage errors are logged and
// retried on the next tick rather than treated as fatal.
func (s *Scheduler) tick(asOf time.Time) {
	due, err := s.tasks.DueTasks(asOf)
	if err != nil {
		s.logger.Errorf("Tick failed, will retry: %v", err)
		return
	}

	for _, d := range due {
		jobID := JobID(d.Task.ID, d.DueAt)
		params := fmt.Sprintf(`{"trigger":"cron","scheduled_at":%q}`, d.DueAt.UTC().Format(time.RFC3339))

		tlog, err := s.logs.Begin(jobID, &d.Task, params)
		if errors.Is(err, store.ErrDuplicateExecution) {
			s.logger.Debugf("Skipping %s: already executed", jobID)
			continue
		}
		if err != nil {
			s.logger.Errorf("Failed to begin %s: %v", jobID, err)
			continue
		}

		s.launch(d.Task, tlog, d.DueAt)
	}
}

// Rerun fires a task outside its schedule under a fresh job id. Works for
// paused tasks; pausing only gates scheduled selection.
func (s *Scheduler) Rerun(taskID uint) (*models.TaskLog, error) {
	task, err := s.tasks.Get(taskID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	params := fmt.Sprintf(`{"trigger":"manual","scheduled_at":%q}`, now.UTC().Format(time.RFC3339))
	tlog, err := s.logs.Begin(uuid.NewString(), task, params)
	if err != nil {
		return nil, err
	}

	s.launch(*task, tlog, now)
	return tlog, nil
}

// StopJob signals cooperative cancellation to a running firing. The
// pipeline observes the flag at its next checkpoint; when no pipeline is
// live for the job (e.g. after a crash), the log is failed immediately.
// The authoritative log state is returned either way.
func (s *Scheduler) StopJob(jobID string) (*models.TaskLog, error) {
	s.mu.Lock()
	flag, live := s.cancels[jobID]
	s.mu.Unlock()

	if live {
		flag.Store(true)
		return s.logs.Get(jobID)
	}

	tlog, err := s.logs.Get(jobID)
	if err != nil {
		return nil, err
	}
	if tlog.Result == models.TaskResultRunning {
		return s.logs.Complete(jobID, models.TaskResultFailed, "stopped by operator")
	}
	return tlog, nil
}

func (s *Scheduler) launch(task models.ScheduledTask, tlog *models.TaskLog, scheduledAt time.Time) {
	flag := &atomic.Bool{}
	s.mu.Lock()
	s.cancels[tlog.JobID] = flag
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run(task, tlog.JobID, scheduledAt, flag)
}

// run is one firing pipeline: generate, then dispatch, then complete.
// Cancellation is checked before generation and again between generation
// and dispatch.
func (s *Scheduler) run(task models.ScheduledTask, jobID string, scheduledAt time.Time, cancel *atomic.Bool) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.cancels, jobID)
		s.mu.Unlock()
	}()

	if err := s.sem.Acquire(context.Background(), 1); err != nil {
		s.fail(jobID, fmt.Sprintf("failed to acquire worker slot: %v", err))
		return
	}
	defer s.sem.Release(1)

	if cancel.Load() {
		s.fail(jobID, "stopped by operator")
		return
	}

	// Reports cover the day before the firing instant.
	rep, err := s.generator.Generate(&task.Template, report.Context{
		Task:       &task,
		ReportDate: scheduledAt.AddDate(0, 0, -1),
	})
	if err != nil {
		s.fail(jobID, err.Error())
		return
	}

	if cancel.Load() {
		s.fail(jobID, "stopped by operator")
		return
	}

	cfg, err := s.tasks.EmailConfigForType(task.Template.TemplateType)
	if err != nil {
		s.fail(jobID, err.Error())
		return
	}

	if _, err := s.dispatcher.Dispatch(rep, cfg); err != nil {
		s.fail(jobID, err.Error())
		return
	}

	if _, err := s.logs.Complete(jobID, models.TaskResultSucceeded, ""); err != nil {
		s.logger.Errorf("Failed to complete %s: %v", jobID, err)
	}
}

func (s *Scheduler) fail(jobID, errorInfo string) {
	tlog, err := s.logs.Complete(jobID, models.TaskResultFailed, errorInfo)
	if err != nil {
		s.logger.Errorf("Failed to mark %s failed: %v", jobID, err)
		return
	}
	s.logger.Warnf("Firing %s failed: %s", jobID, errorInfo)
	s.notifier.NotifyFailure(tlog)
}

// recoverStale resolves RUNNING logs abandoned by a previous process.
// Policy "fail" marks them failed; "retry" additionally re-fires the task
// under a fresh job id so the stale instant's id stays burned.
func (s *Scheduler) recoverStale() error {
	stale, err := s.logs.StaleRunning(time.Now().Add(-s.staleAfter))
	if err != nil {
		return err
	}

	for _, tlog := range stale {
		if _, err := s.logs.Complete(tlog.JobID, models.TaskResultFailed, "abandoned: still running at restart"); err != nil {
			s.logger.Errorf("Failed to resolve stale firing %s: %v", tlog.JobID, err)
			continue
		}
		s.logger.Warnf("Resolved stale firing %s as failed", tlog.JobID)

		if s.stalePolicy == config.StaleRunningRetry {
			if _, err := s.Rerun(tlog.TaskID); err != nil {
				s.logger.Errorf("Failed to retry stale firing %s: %v", tlog.JobID, err)
			}
		}
	}
	return nil
}
