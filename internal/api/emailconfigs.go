package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reportassist/internal/mailer"
	"github.com/reportassist/internal/models"
)

type emailConfigRequest struct {
	ReportType models.TemplateType `json:"report_type" binding:"required"`
	Recipients string              `json:"recipients" binding:"required"`
	Status     *bool               `json:"status"`
	Creator    string              `json:"creator"`
}

func (s *Server) listEmailConfigs(c *gin.Context) {
	offset, limit := paginate(c)
	query := s.db.Model(&models.EmailConfiguration{})
	if rt := c.Query("report_type"); rt != "" {
		query = query.Where("report_type = ?", rt)
	}

	var configs []models.EmailConfiguration
	if err := query.Offset(offset).Limit(limit).Order("id desc").Find(&configs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch email configurations"})
		return
	}
	c.JSON(http.StatusOK, configs)
}

func (s *Server) getEmailConfig(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid configuration ID"})
		return
	}

	var cfg models.EmailConfiguration
	if err := s.db.First(&cfg, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "configuration not found"})
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (s *Server) createEmailConfig(c *gin.Context) {
	var req emailConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validTemplateType(req.ReportType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report type"})
		return
	}
	if len(mailer.SplitRecipients(req.Recipients)) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "recipient list is empty"})
		return
	}

	cfg := models.EmailConfiguration{
		ReportType: req.ReportType,
		Recipients: req.Recipients,
		Status:     true,
		Creator:    req.Creator,
	}
	if req.Status != nil {
		cfg.Status = *req.Status
	}

	if err := s.db.Create(&cfg).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, cfg)
}

func (s *Server) updateEmailConfig(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid configuration ID"})
		return
	}

	var cfg models.EmailConfiguration
	if err := s.db.First(&cfg, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "configuration not found"})
		return
	}

	var req emailConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validTemplateType(req.ReportType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report type"})
		return
	}
	if len(mailer.SplitRecipients(req.Recipients)) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "recipient list is empty"})
		return
	}

	cfg.ReportType = req.ReportType
	cfg.Recipients = req.Recipients
	if req.Status != nil {
		cfg.Status = *req.Status
	}

	if err := s.db.Save(&cfg).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (s *Server) deleteEmailConfig(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid configuration ID"})
		return
	}

	if err := s.db.Delete(&models.EmailConfiguration{}, id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "configuration deleted"})
}

// setEmailConfigStatus toggles delivery without touching the recipient
// list; skipped dispatches are still recorded while disabled.
func (s *Server) setEmailConfigStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid configuration ID"})
		return
	}

	var cfg models.EmailConfiguration
	if err := s.db.First(&cfg, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "configuration not found"})
		return
	}

	var req struct {
		Status *bool `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.db.Model(&cfg).Update("status", *req.Status).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": *req.Status})
}
