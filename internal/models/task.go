package models

import (
	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStatusActive TaskStatus = "ACTIVE"
	TaskStatusPaused TaskStatus = "PAUSED"
)

// ScheduledTask binds a template to a firing frequency. A paused task is
// never selected by the scheduler loop; pausing does not cancel a firing
// that is already in flight.
type ScheduledTask struct {
	gorm.Model
	Name        string     `json:"name" gorm:"uniqueIndex;not null"`
	FrequencyID uint       `json:"frequency_id" gorm:"not null"`
	Frequency   Frequency  `json:"frequency"`
	TemplateID  uint       `json:"template_id" gorm:"not null"`
	Template    Template   `json:"template"`
	Status      TaskStatus `json:"status" gorm:"default:ACTIVE"`
	Creator     string     `json:"creator"`
}
