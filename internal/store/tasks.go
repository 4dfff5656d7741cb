package store

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/reportassist/internal/cronexpr"
	"github.com/reportassist/internal/logging"
	"github.com/reportassist/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// TaskStore reads and mutates scheduled tasks. All status mutations go
// through the compare-and-swap in SetStatus so concurrent control calls
// cannot silently overwrite each other.
type TaskStore struct {
	db     *gorm.DB
	logger *logrus.Entry
}

func NewTaskStore(db *gorm.DB) *TaskStore {
	return &TaskStore{
		db:     db,
		logger: logging.Component("taskstore"),
	}
}

// DueTask pairs a task with the scheduled instant that made it due.
type DueTask struct {
	Task  models.ScheduledTask
	DueAt time.Time
}

// DueTasks returns every active task whose next fire time after its last
// firing is at or before asOf, ordered by due time then task id. Tasks
// with an open RUNNING log are excluded: a later instant never begins
// before the previous firing is resolved.
func (s *TaskStore) DueTasks(asOf time.Time) ([]DueTask, error) {
	var tasks []models.ScheduledTask
	err := s.db.Preload("Frequency").Preload("Template").
		Where("status = ?", models.TaskStatusActive).
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query active tasks: %w", err)
	}

	var due []DueTask
	for _, task := range tasks {
		if !task.Frequency.IsActive {
			continue
		}

		last, running, err := s.lastFiring(task.ID)
		if err != nil {
			return nil, err
		}
		if running {
			continue
		}
		if last.IsZero() {
			last = task.CreatedAt
		}

		next, err := cronexpr.NextAfter(task.Frequency.CronExpression, last)
		if err != nil {
			// A stored expression should never be invalid; skip rather
			// than fail the whole tick.
			s.logger.Warnf("Task %d has unparseable frequency %q: %v",
				task.ID, task.Frequency.CronExpression, err)
			continue
		}
		if !next.After(asOf) {
			due = append(due, DueTask{Task: task, DueAt: next})
		}
	}

	sort.Slice(due, func(i, j int) bool {
		if !due[i].DueAt.Equal(due[j].DueAt) {
			return due[i].DueAt.Before(due[j].DueAt)
		}
		return due[i].Task.ID < due[j].Task.ID
	})

	return due, nil
}

// lastFiring returns the start time of the task's most recent firing and
// whether that firing is still running.
func (s *TaskStore) lastFiring(taskID uint) (time.Time, bool, error) {
	var last models.TaskLog
	err := s.db.Where("task_id = ?", taskID).
		Order("start_time desc").
		First(&last).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to query last firing of task %d: %w", taskID, err)
	}
	return last.StartTime, last.Result == models.TaskResultRunning, nil
}

// SetStatus transitions a task's status keyed on the updated_at the caller
// read. Returns ErrStaleUpdate when the row changed in between, and the
// fresh task row on success.
func (s *TaskStore) SetStatus(taskID uint, status models.TaskStatus, expectedUpdatedAt time.Time) (*models.ScheduledTask, error) {
	res := s.db.Model(&models.ScheduledTask{}).
		Where("id = ? AND updated_at = ?", taskID, expectedUpdatedAt).
		Update("status", status)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update task %d status: %w", taskID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrStaleUpdate
	}
	return s.Get(taskID)
}

// Get loads a task with its frequency and template.
func (s *TaskStore) Get(taskID uint) (*models.ScheduledTask, error) {
	var task models.ScheduledTask
	err := s.db.Preload("Frequency").Preload("Template").First(&task, taskID).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load task %d: %w", taskID, err)
	}
	return &task, nil
}

// EmailConfigForType returns the newest email configuration for a report
// type, or nil when none is configured.
func (s *TaskStore) EmailConfigForType(reportType models.TemplateType) (*models.EmailConfiguration, error) {
	var cfg models.EmailConfiguration
	err := s.db.Where("report_type = ?", reportType).
		Order("id desc").
		First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load email configuration for %s: %w", reportType, err)
	}
	return &cfg, nil
}
