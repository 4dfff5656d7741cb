package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/reportassist/internal/mailer"
	"github.com/reportassist/internal/models"
)

type reportRequest struct {
	Title       string    `json:"title" binding:"required"`
	TemplateID  uint      `json:"template_id"`
	Content     string    `json:"content"`
	ReportGroup string    `json:"report_group"`
	Creator     string    `json:"creator"`
	ReportDate  time.Time `json:"report_date"`
}

func (s *Server) listReports(c *gin.Context) {
	offset, limit := paginate(c)
	query := s.db.Model(&models.Report{})
	if group := c.Query("report_group"); group != "" {
		query = query.Where("report_group = ?", group)
	}
	if title := c.Query("title"); title != "" {
		query = query.Where("title LIKE ?", "%"+title+"%")
	}
	if start := c.Query("start"); start != "" {
		if t, err := time.Parse(time.RFC3339, start); err == nil {
			query = query.Where("report_date >= ?", t)
		}
	}
	if end := c.Query("end"); end != "" {
		if t, err := time.Parse(time.RFC3339, end); err == nil {
			query = query.Where("report_date <= ?", t)
		}
	}

	var reports []models.Report
	if err := query.Offset(offset).Limit(limit).Order("report_date desc").Find(&reports).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch reports"})
		return
	}
	c.JSON(http.StatusOK, reports)
}

func (s *Server) getReport(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report ID"})
		return
	}

	var rep models.Report
	if err := s.db.First(&rep, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (s *Server) createReport(c *gin.Context) {
	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rep := models.Report{
		Title:       req.Title,
		TemplateID:  req.TemplateID,
		Content:     req.Content,
		ReportGroup: req.ReportGroup,
		Creator:     req.Creator,
		ReportDate:  req.ReportDate,
	}
	if rep.ReportDate.IsZero() {
		rep.ReportDate = time.Now()
	}

	if err := s.db.Create(&rep).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, rep)
}

func (s *Server) updateReport(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report ID"})
		return
	}

	var rep models.Report
	if err := s.db.First(&rep, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}

	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rep.Title = req.Title
	rep.Content = req.Content
	rep.ReportGroup = req.ReportGroup
	if !req.ReportDate.IsZero() {
		rep.ReportDate = req.ReportDate
	}

	if err := s.db.Save(&rep).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (s *Server) deleteReport(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report ID"})
		return
	}

	if err := s.db.Delete(&models.Report{}, id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "report deleted"})
}

// sendReport dispatches an existing report to an explicit recipient
// list, bypassing the scheduler. Every attempt leaves a send record.
func (s *Server) sendReport(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report ID"})
		return
	}

	var rep models.Report
	if err := s.db.First(&rep, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}

	var req struct {
		Recipients []string `json:"recipients" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := s.dispatcher.SendTo(&rep, req.Recipients)
	if errors.Is(err, mailer.ErrNoRecipients) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "record": record})
		return
	}
	c.JSON(http.StatusOK, record)
}

// reportHistory lists every send record of a report, newest first.
func (s *Server) reportHistory(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "report ID is required"})
		return
	}

	var rep models.Report
	if err := s.db.First(&rep, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}

	history, err := s.logs.EmailHistory(rep.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, history)
}
