package models

import (
	"time"

	"gorm.io/gorm"
)

// EmailConfiguration maps a report type to its recipient list. Recipients
// are semicolon-delimited; a disabled configuration makes the dispatcher
// skip delivery while still recording the attempt.
type EmailConfiguration struct {
	gorm.Model
	ReportType TemplateType `json:"report_type" gorm:"not null"`
	Recipients string       `json:"recipients" gorm:"type:text"`
	Status     bool         `json:"status" gorm:"default:true"`
	Creator    string       `json:"creator"`
}

type SendStatus string

const (
	SendStatusSent    SendStatus = "SENT"
	SendStatusFailed  SendStatus = "FAILED"
	SendStatusSkipped SendStatus = "SKIPPED"
)

// EmailSendRecord is one dispatch attempt for a report. Records are
// immutable once written; a report accumulates one row per attempt.
type EmailSendRecord struct {
	gorm.Model
	ReportID    uint       `json:"report_id" gorm:"index"`
	SentAt      time.Time  `json:"sent_at"`
	Recipients  string     `json:"recipients" gorm:"type:text"`
	Status      SendStatus `json:"status"`
	Description string     `json:"description"`
}
