package report

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/reportassist/internal/database"
	"github.com/reportassist/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	return db
}

func seedData(t *testing.T, db *gorm.DB, taskID uint, date time.Time) {
	t.Helper()
	row := models.IntermediateData{
		Date:            date.Truncate(24 * time.Hour),
		TaskID:          taskID,
		InternalAttacks: 12,
		ExternalAttacks: 30,
		OtherMetrics:    map[string]interface{}{"blocked": 7},
	}
	require.NoError(t, db.Create(&row).Error)
}

func TestGenerate(t *testing.T) {
	db := newTestDB(t)
	gen := NewGenerator(db)
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	tpl := models.Template{
		TemplateType: models.TemplateTypeDaily,
		Name:         "daily security brief",
		Content:      "<h1>{{.report_date}}</h1><p>internal {{.internal_attacks}}, external {{.external_attacks}}, total {{.total_attacks}}</p>",
	}
	require.NoError(t, db.Create(&tpl).Error)
	seedData(t, db, 0, date)

	rep, err := gen.Generate(&tpl, Context{ReportDate: date})
	require.NoError(t, err)
	assert.Equal(t, "daily security brief 2024-03-01", rep.Title)
	assert.Contains(t, rep.Content, "internal 12, external 30, total 42")

	// Persisted.
	var stored models.Report
	require.NoError(t, db.First(&stored, rep.ID).Error)
	assert.Equal(t, rep.Content, stored.Content)

	// Template untouched.
	var after models.Template
	require.NoError(t, db.First(&after, tpl.ID).Error)
	assert.Equal(t, tpl.Content, after.Content)
}

func TestGenerateDeterministic(t *testing.T) {
	db := newTestDB(t)
	gen := NewGenerator(db)
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	tpl := models.Template{
		TemplateType: models.TemplateTypeDaily,
		Name:         "brief",
		Content:      "{{.report_date}}: {{.total_attacks}} attacks, {{.blocked}} blocked",
	}
	require.NoError(t, db.Create(&tpl).Error)
	seedData(t, db, 0, date)

	first, err := gen.Generate(&tpl, Context{ReportDate: date})
	require.NoError(t, err)
	second, err := gen.Generate(&tpl, Context{ReportDate: date})
	require.NoError(t, err)
	assert.Equal(t, first.Content, second.Content)
}

func TestGenerateUnresolvedPlaceholder(t *testing.T) {
	db := newTestDB(t)
	gen := NewGenerator(db)
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	tpl := models.Template{
		TemplateType: models.TemplateTypeDaily,
		Name:         "broken",
		Content:      "{{.no_such_metric}}",
	}
	require.NoError(t, db.Create(&tpl).Error)
	seedData(t, db, 0, date)

	_, err := gen.Generate(&tpl, Context{ReportDate: date})
	assert.ErrorIs(t, err, ErrTemplateRender)
}

func TestGenerateMalformedTemplate(t *testing.T) {
	_, err := Render("{{.unclosed", nil)
	assert.ErrorIs(t, err, ErrTemplateRender)
}

func TestGenerateDataUnavailable(t *testing.T) {
	db := newTestDB(t)
	gen := NewGenerator(db)

	tpl := models.Template{
		TemplateType: models.TemplateTypeDaily,
		Name:         "no data",
		Content:      "{{.total_attacks}}",
	}
	require.NoError(t, db.Create(&tpl).Error)

	_, err := gen.Generate(&tpl, Context{ReportDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)})
	assert.ErrorIs(t, err, ErrDataUnavailable)
}
