package models

import (
	"time"

	"gorm.io/gorm"
)

// Report is the rendered artifact of a successful task firing, or of a
// manual creation through the API. Content is a snapshot; later template
// edits do not touch it.
type Report struct {
	gorm.Model
	Title       string    `json:"title" gorm:"not null"`
	TemplateID  uint      `json:"template_id" gorm:"index"`
	Content     string    `json:"content" gorm:"type:text"`
	ReportGroup string    `json:"report_group"`
	Creator     string    `json:"creator"`
	ReportDate  time.Time `json:"report_date" gorm:"index"`
}

// IntermediateData holds the per-day metrics a report is rendered from.
// Rows are written by upstream collection jobs or backfilled by operators;
// a missing row for the report period fails the firing as data-unavailable.
type IntermediateData struct {
	gorm.Model
	Date            time.Time              `json:"date" gorm:"index;not null"`
	TaskID          uint                   `json:"task_id" gorm:"index"`
	InternalAttacks int                    `json:"internal_attacks" gorm:"default:0"`
	ExternalAttacks int                    `json:"external_attacks" gorm:"default:0"`
	OtherMetrics    map[string]interface{} `json:"other_metrics" gorm:"serializer:json"`
}
