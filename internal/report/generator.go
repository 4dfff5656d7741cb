package report

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/reportassist/internal/logging"
	"github.com/reportassist/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	// ErrTemplateRender covers malformed template content and unresolved
	// placeholders.
	ErrTemplateRender = errors.New("template render failed")

	// ErrDataUnavailable means no intermediate data exists for the report
	// period yet.
	ErrDataUnavailable = errors.New("report data unavailable")
)

// Generator renders templates against the period's intermediate data and
// persists the resulting report. It never mutates the template.
type Generator struct {
	db     *gorm.DB
	logger *logrus.Entry
}

func NewGenerator(db *gorm.DB) *Generator {
	return &Generator{
		db:     db,
		logger: logging.Component("generator"),
	}
}

// Context carries the firing-specific inputs of one generation.
type Context struct {
	Task       *models.ScheduledTask
	ReportDate time.Time
}

// Generate renders tpl for the given context and persists the report.
func (g *Generator) Generate(tpl *models.Template, ctx Context) (*models.Report, error) {
	data, err := g.reportData(tpl, ctx)
	if err != nil {
		return nil, err
	}

	content, err := Render(tpl.Content, data)
	if err != nil {
		return nil, err
	}

	rep := &models.Report{
		Title:       fmt.Sprintf("%s %s", tpl.Name, ctx.ReportDate.Format("2006-01-02")),
		TemplateID:  tpl.ID,
		Content:     content,
		ReportGroup: tpl.TemplateGroup,
		ReportDate:  ctx.ReportDate,
	}
	if ctx.Task != nil {
		rep.Creator = ctx.Task.Creator
	}

	if err := g.db.Create(rep).Error; err != nil {
		return nil, fmt.Errorf("failed to save report: %w", err)
	}

	g.logger.Infof("Generated report %d (%s) from template %d", rep.ID, rep.Title, tpl.ID)
	return rep, nil
}

// Render executes template content against data. Unresolved placeholders
// are an error, not silently empty output, so a report never goes out
// with holes in it.
func Render(content string, data map[string]interface{}) (string, error) {
	t, err := template.New("report").Option("missingkey=error").Parse(content)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateRender, err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateRender, err)
	}
	return buf.String(), nil
}

// reportData assembles the render context from the task, the report date
// and that day's intermediate data row.
func (g *Generator) reportData(tpl *models.Template, ctx Context) (map[string]interface{}, error) {
	day := ctx.ReportDate.Truncate(24 * time.Hour)

	query := g.db.Where("date >= ? AND date < ?", day, day.Add(24*time.Hour))
	if ctx.Task != nil {
		query = query.Where("task_id = ?", ctx.Task.ID)
	}

	var row models.IntermediateData
	if err := query.Order("id desc").First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no intermediate data for %s", ErrDataUnavailable, day.Format("2006-01-02"))
		}
		return nil, fmt.Errorf("failed to load intermediate data: %w", err)
	}

	data := map[string]interface{}{
		"report_date":      ctx.ReportDate.Format("2006-01-02"),
		"template_name":    tpl.Name,
		"internal_attacks": row.InternalAttacks,
		"external_attacks": row.ExternalAttacks,
		"total_attacks":    row.InternalAttacks + row.ExternalAttacks,
	}
	if ctx.Task != nil {
		data["task_name"] = ctx.Task.Name
	}
	for k, v := range row.OtherMetrics {
		data[k] = v
	}

	return data, nil
}
