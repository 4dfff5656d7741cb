package models

import (
	"gorm.io/gorm"
)

// Frequency is a reusable cron schedule that scheduled tasks reference.
// The expression is validated before it is ever stored; rows never hold
// a malformed expression.
type Frequency struct {
	gorm.Model
	CronExpression string `json:"cron_expression" gorm:"not null"`
	Description    string `json:"description"`
	IsActive       bool   `json:"is_active" gorm:"default:true"`
}
