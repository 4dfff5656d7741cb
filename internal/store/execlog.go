package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/reportassist/internal/logging"
	"github.com/reportassist/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ExecutionLog is the durable record of firing attempts and email sends.
// Task log rows move Running -> Succeeded|Failed and never back; email
// send records are append-only.
type ExecutionLog struct {
	db     *gorm.DB
	logger *logrus.Entry
}

func NewExecutionLog(db *gorm.DB) *ExecutionLog {
	return &ExecutionLog{
		db:     db,
		logger: logging.Component("execlog"),
	}
}

// Begin atomically inserts a RUNNING task log for the given job id. The
// unique index on job_id makes the insert the arbiter of ownership: a
// second Begin for the same id gets ErrDuplicateExecution regardless of
// which process issued the first.
func (l *ExecutionLog) Begin(jobID string, task *models.ScheduledTask, parameters string) (*models.TaskLog, error) {
	tlog := models.TaskLog{
		JobID:      jobID,
		TaskID:     task.ID,
		TaskName:   task.Name,
		StartTime:  time.Now(),
		Result:     models.TaskResultRunning,
		Parameters: parameters,
	}

	if err := l.db.Create(&tlog).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateExecution
		}
		return nil, fmt.Errorf("failed to begin execution %s: %w", jobID, err)
	}
	return &tlog, nil
}

// Complete transitions a RUNNING task log to a terminal result and sets
// its end time. Any other starting state is ErrInvalidTransition and
// leaves the row untouched.
func (l *ExecutionLog) Complete(jobID string, result models.TaskResult, errorInfo string) (*models.TaskLog, error) {
	if result != models.TaskResultSucceeded && result != models.TaskResultFailed {
		return nil, fmt.Errorf("%w: %s is not a terminal result", ErrInvalidTransition, result)
	}

	now := time.Now()
	res := l.db.Model(&models.TaskLog{}).
		Where("job_id = ? AND result = ?", jobID, models.TaskResultRunning).
		Updates(map[string]interface{}{
			"result":     result,
			"end_time":   now,
			"error_info": errorInfo,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to complete execution %s: %w", jobID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrInvalidTransition
	}

	return l.Get(jobID)
}

// Get loads a task log by job id.
func (l *ExecutionLog) Get(jobID string) (*models.TaskLog, error) {
	var tlog models.TaskLog
	err := l.db.Where("job_id = ?", jobID).First(&tlog).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load task log %s: %w", jobID, err)
	}
	return &tlog, nil
}

// StaleRunning returns RUNNING logs that started before the cutoff.
func (l *ExecutionLog) StaleRunning(cutoff time.Time) ([]models.TaskLog, error) {
	var logs []models.TaskLog
	err := l.db.Where("result = ? AND start_time < ?", models.TaskResultRunning, cutoff).
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query stale running logs: %w", err)
	}
	return logs, nil
}

// RecordEmail appends one dispatch attempt. Records are never updated.
func (l *ExecutionLog) RecordEmail(record *models.EmailSendRecord) error {
	if err := l.db.Create(record).Error; err != nil {
		return fmt.Errorf("failed to record email send: %w", err)
	}
	return nil
}

// EmailHistory lists a report's send records, newest first.
func (l *ExecutionLog) EmailHistory(reportID uint) ([]models.EmailSendRecord, error) {
	var records []models.EmailSendRecord
	err := l.db.Where("report_id = ?", reportID).
		Order("sent_at desc").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load email history for report %d: %w", reportID, err)
	}
	return records, nil
}
