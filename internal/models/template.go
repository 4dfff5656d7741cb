package models

import (
	"gorm.io/gorm"
)

type TemplateType string

const (
	TemplateTypeDaily     TemplateType = "daily"
	TemplateTypeWeekly    TemplateType = "weekly"
	TemplateTypeMonthly   TemplateType = "monthly"
	TemplateTypeQuarterly TemplateType = "quarterly"
	TemplateTypeYearly    TemplateType = "yearly"
)

// Template is the live render source for generated reports. Edits apply to
// the next firing; reports keep their own copy of the rendered content.
type Template struct {
	gorm.Model
	TemplateType  TemplateType `json:"template_type" gorm:"not null"`
	TemplateGroup string       `json:"template_group"`
	Name          string       `json:"name" gorm:"uniqueIndex;not null"`
	Content       string       `json:"content" gorm:"type:text"`
	Creator       string       `json:"creator"`
}
