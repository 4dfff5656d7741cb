package models

import (
	"time"

	"gorm.io/gorm"
)

type TaskResult string

const (
	TaskResultRunning   TaskResult = "RUNNING"
	TaskResultSucceeded TaskResult = "SUCCEEDED"
	TaskResultFailed    TaskResult = "FAILED"
)

// TaskLog records one firing attempt of a scheduled task. JobID is the
// idempotency key: derived from (task id, scheduled instant) for cron
// firings, freshly generated for manual reruns. The unique index is what
// prevents two overlapping firings of the same instant.
type TaskLog struct {
	gorm.Model
	JobID      string     `json:"job_id" gorm:"uniqueIndex;not null"`
	TaskID     uint       `json:"task_id" gorm:"index"`
	TaskName   string     `json:"task_name"`
	StartTime  time.Time  `json:"start_time"`
	EndTime    *time.Time `json:"end_time,omitempty"`
	Result     TaskResult `json:"result" gorm:"default:RUNNING"`
	Parameters string     `json:"parameters" gorm:"type:text"`
	ErrorInfo  string     `json:"error_info"`
}

// Terminal reports whether the log has reached a final result.
func (l *TaskLog) Terminal() bool {
	return l.Result == TaskResultSucceeded || l.Result == TaskResultFailed
}
