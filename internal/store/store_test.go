package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/reportassist/internal/database"
	"github.com/reportassist/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	return db
}

func createTask(t *testing.T, db *gorm.DB, name, expr string, status models.TaskStatus) *models.ScheduledTask {
	t.Helper()
	freq := models.Frequency{CronExpression: expr, Description: expr, IsActive: true}
	require.NoError(t, db.Create(&freq).Error)

	tpl := models.Template{
		TemplateType: models.TemplateTypeDaily,
		Name:         name + " template",
		Content:      "<p>{{.report_date}}</p>",
	}
	require.NoError(t, db.Create(&tpl).Error)

	task := models.ScheduledTask{
		Name:        name,
		FrequencyID: freq.ID,
		TemplateID:  tpl.ID,
		Status:      status,
	}
	require.NoError(t, db.Create(&task).Error)
	require.NoError(t, db.Preload("Frequency").Preload("Template").First(&task, task.ID).Error)
	return &task
}

// backdate moves a task's created_at so a due instant exists before now.
func backdate(t *testing.T, db *gorm.DB, task *models.ScheduledTask, d time.Duration) {
	t.Helper()
	created := time.Now().Add(-d)
	require.NoError(t, db.Model(&models.ScheduledTask{}).
		Where("id = ?", task.ID).
		Update("created_at", created).Error)
	task.CreatedAt = created
}
