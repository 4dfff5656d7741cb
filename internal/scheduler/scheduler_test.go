package scheduler

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/reportassist/internal/config"
	"github.com/reportassist/internal/database"
	"github.com/reportassist/internal/models"
	"github.com/reportassist/internal/report"
	"github.com/reportassist/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubGenerator struct {
	mu      sync.Mutex
	calls   int
	err     error
	started chan struct{}
	block   chan struct{}
}

func (g *stubGenerator) Generate(tpl *models.Template, ctx report.Context) (*models.Report, error) {
	if g.started != nil {
		select {
		case g.started <- struct{}{}:
		default:
		}
	}
	if g.block != nil {
		<-g.block
	}
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	return &models.Report{Title: tpl.Name, ReportDate: ctx.ReportDate}, nil
}

func (g *stubGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type stubDispatcher struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (d *stubDispatcher) Dispatch(rep *models.Report, cfg *models.EmailConfiguration) (*models.EmailSendRecord, error) {
	d.mu.Lock()
	d.calls++
	d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	return &models.EmailSendRecord{Status: models.SendStatusSent}, nil
}

func (d *stubDispatcher) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

type stubNotifier struct {
	mu     sync.Mutex
	failed []string
}

func (n *stubNotifier) NotifyFailure(tlog *models.TaskLog) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failed = append(n.failed, tlog.JobID)
}

type fixture struct {
	db         *gorm.DB
	tasks      *store.TaskStore
	logs       *store.ExecutionLog
	generator  *stubGenerator
	dispatcher *stubDispatcher
	notifier   *stubNotifier
	sched      *Scheduler
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	f := &fixture{
		db:         db,
		tasks:      store.NewTaskStore(db),
		logs:       store.NewExecutionLog(db),
		generator:  &stubGenerator{},
		dispatcher: &stubDispatcher{},
		notifier:   &stubNotifier{},
	}
	f.sched = New(f.tasks, f.logs, f.generator, f.dispatcher, f.notifier, opts)
	return f
}

func (f *fixture) createTask(t *testing.T, name string, status models.TaskStatus, age time.Duration) *models.ScheduledTask {
	t.Helper()
	freq := models.Frequency{CronExpression: "*/5 * * * *", IsActive: true}
	require.NoError(t, f.db.Create(&freq).Error)
	tpl := models.Template{TemplateType: models.TemplateTypeDaily, Name: name + " template", Content: "x"}
	require.NoError(t, f.db.Create(&tpl).Error)
	task := models.ScheduledTask{Name: name, FrequencyID: freq.ID, TemplateID: tpl.ID, Status: status}
	require.NoError(t, f.db.Create(&task).Error)
	require.NoError(t, f.db.Model(&models.ScheduledTask{}).
		Where("id = ?", task.ID).
		Update("created_at", time.Now().Add(-age)).Error)
	require.NoError(t, f.db.Preload("Frequency").Preload("Template").First(&task, task.ID).Error)
	return &task
}

func (f *fixture) taskLogs(t *testing.T) []models.TaskLog {
	t.Helper()
	var logs []models.TaskLog
	require.NoError(t, f.db.Order("id").Find(&logs).Error)
	return logs
}

func TestTickFiresDueTask(t *testing.T) {
	f := newFixture(t, Options{})
	task := f.createTask(t, "daily", models.TaskStatusActive, time.Hour)

	f.sched.tick(time.Now())
	f.sched.wg.Wait()

	logs := f.taskLogs(t)
	require.Len(t, logs, 1)
	assert.Equal(t, task.ID, logs[0].TaskID)
	assert.Equal(t, models.TaskResultSucceeded, logs[0].Result)
	require.NotNil(t, logs[0].EndTime)
	assert.Equal(t, 1, f.generator.callCount())
	assert.Equal(t, 1, f.dispatcher.callCount())
	assert.Contains(t, logs[0].Parameters, `"trigger":"cron"`)
}

func TestTickSkipsDuplicateInstant(t *testing.T) {
	f := newFixture(t, Options{})
	task := f.createTask(t, "daily", models.TaskStatusActive, time.Hour)

	due, err := f.tasks.DueTasks(time.Now())
	require.NoError(t, err)
	require.Len(t, due, 1)
	jobID := JobID(task.ID, due[0].DueAt)

	// A previous process already executed this instant.
	_, err = f.logs.Begin(jobID, task, "")
	require.NoError(t, err)
	_, err = f.logs.Complete(jobID, models.TaskResultSucceeded, "")
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.TaskLog{}).
		Where("job_id = ?", jobID).
		Update("start_time", due[0].DueAt.Add(-time.Minute)).Error)

	f.sched.tick(time.Now())
	f.sched.wg.Wait()

	assert.Len(t, f.taskLogs(t), 1, "the burned job id must not fire again")
	assert.Equal(t, 0, f.generator.callCount())
}

func TestTickIgnoresPausedTask(t *testing.T) {
	f := newFixture(t, Options{})
	f.createTask(t, "paused", models.TaskStatusPaused, time.Hour)

	f.sched.tick(time.Now())
	f.sched.wg.Wait()

	assert.Empty(t, f.taskLogs(t))
}

func TestFiringFailureIsRecordedAndNotified(t *testing.T) {
	f := newFixture(t, Options{})
	f.createTask(t, "daily", models.TaskStatusActive, time.Hour)
	f.generator.err = errors.New("rendering exploded")

	f.sched.tick(time.Now())
	f.sched.wg.Wait()

	logs := f.taskLogs(t)
	require.Len(t, logs, 1)
	assert.Equal(t, models.TaskResultFailed, logs[0].Result)
	assert.Contains(t, logs[0].ErrorInfo, "rendering exploded")
	assert.Equal(t, 0, f.dispatcher.callCount())
	assert.Equal(t, []string{logs[0].JobID}, f.notifier.failed)
}

func TestDispatchFailureFailsFiring(t *testing.T) {
	f := newFixture(t, Options{})
	f.createTask(t, "daily", models.TaskStatusActive, time.Hour)
	f.dispatcher.err = errors.New("smtp refused")

	f.sched.tick(time.Now())
	f.sched.wg.Wait()

	logs := f.taskLogs(t)
	require.Len(t, logs, 1)
	assert.Equal(t, models.TaskResultFailed, logs[0].Result)
	assert.Contains(t, logs[0].ErrorInfo, "smtp refused")
}

func TestRerunPausedTask(t *testing.T) {
	f := newFixture(t, Options{})
	task := f.createTask(t, "paused", models.TaskStatusPaused, time.Hour)

	tlog, err := f.sched.Rerun(task.ID)
	require.NoError(t, err)
	assert.Contains(t, tlog.JobID, "-", "manual reruns get generated ids")
	f.sched.wg.Wait()

	done, err := f.logs.Get(tlog.JobID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskResultSucceeded, done.Result)
	assert.Contains(t, done.Parameters, `"trigger":"manual"`)
}

func TestStopJobLivePipeline(t *testing.T) {
	f := newFixture(t, Options{})
	task := f.createTask(t, "daily", models.TaskStatusActive, time.Hour)
	f.generator.started = make(chan struct{}, 1)
	f.generator.block = make(chan struct{})

	tlog, err := f.sched.Rerun(task.ID)
	require.NoError(t, err)
	<-f.generator.started

	// The pipeline is parked inside generation; stop returns the
	// still-running state and flags cancellation.
	current, err := f.sched.StopJob(tlog.JobID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskResultRunning, current.Result)

	close(f.generator.block)
	f.sched.wg.Wait()

	done, err := f.logs.Get(tlog.JobID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskResultFailed, done.Result)
	assert.Equal(t, "stopped by operator", done.ErrorInfo)
	assert.Equal(t, 0, f.dispatcher.callCount())
}

func TestStopJobWithoutPipeline(t *testing.T) {
	f := newFixture(t, Options{})
	task := f.createTask(t, "daily", models.TaskStatusActive, time.Hour)

	// Simulates a log orphaned by a crash: running in storage, no live
	// pipeline.
	_, err := f.logs.Begin("orphan", task, "")
	require.NoError(t, err)

	stopped, err := f.sched.StopJob("orphan")
	require.NoError(t, err)
	assert.Equal(t, models.TaskResultFailed, stopped.Result)
	assert.Equal(t, "stopped by operator", stopped.ErrorInfo)

	// Stopping a terminal log is a no-op returning current state.
	again, err := f.sched.StopJob("orphan")
	require.NoError(t, err)
	assert.Equal(t, models.TaskResultFailed, again.Result)
}

func TestRecoverStaleFailPolicy(t *testing.T) {
	f := newFixture(t, Options{OnRestartStaleRunning: config.StaleRunningFail, StaleAfter: time.Minute})
	task := f.createTask(t, "daily", models.TaskStatusActive, time.Hour)

	_, err := f.logs.Begin("stale-job", task, "")
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.TaskLog{}).
		Where("job_id = ?", "stale-job").
		Update("start_time", time.Now().Add(-time.Hour)).Error)

	require.NoError(t, f.sched.recoverStale())
	f.sched.wg.Wait()

	logs := f.taskLogs(t)
	require.Len(t, logs, 1)
	assert.Equal(t, models.TaskResultFailed, logs[0].Result)
	assert.Contains(t, logs[0].ErrorInfo, "abandoned")
}

func TestRecoverStaleRetryPolicy(t *testing.T) {
	f := newFixture(t, Options{OnRestartStaleRunning: config.StaleRunningRetry, StaleAfter: time.Minute})
	task := f.createTask(t, "daily", models.TaskStatusActive, time.Hour)

	_, err := f.logs.Begin("stale-job", task, "")
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.TaskLog{}).
		Where("job_id = ?", "stale-job").
		Update("start_time", time.Now().Add(-time.Hour)).Error)

	require.NoError(t, f.sched.recoverStale())
	f.sched.wg.Wait()

	logs := f.taskLogs(t)
	require.Len(t, logs, 2)
	assert.Equal(t, models.TaskResultFailed, logs[0].Result)
	assert.Equal(t, models.TaskResultSucceeded, logs[1].Result)
	assert.NotEqual(t, logs[0].JobID, logs[1].JobID)
}

func TestJobIDDeterminism(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 15, 0, 0, time.UTC)
	assert.Equal(t, JobID(7, at), JobID(7, at))
	assert.Equal(t, "7@2024-03-01T12:15:00Z", JobID(7, at))
	assert.NotEqual(t, JobID(7, at), JobID(8, at))
	assert.NotEqual(t, JobID(7, at), JobID(7, at.Add(5*time.Minute)))
}
