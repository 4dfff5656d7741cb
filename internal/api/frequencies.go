package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reportassist/internal/cronexpr"
	"github.com/reportassist/internal/models"
)

type frequencyRequest struct {
	CronExpression string `json:"cron_expression" binding:"required"`
	Description    string `json:"description"`
	IsActive       *bool  `json:"is_active"`
}

func (s *Server) listFrequencies(c *gin.Context) {
	offset, limit := paginate(c)
	query := s.db.Model(&models.Frequency{})
	if active := c.Query("is_active"); active != "" {
		query = query.Where("is_active = ?", active == "true")
	}

	var frequencies []models.Frequency
	if err := query.Offset(offset).Limit(limit).Order("id").Find(&frequencies).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch frequencies"})
		return
	}
	c.JSON(http.StatusOK, frequencies)
}

func (s *Server) getFrequency(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid frequency ID"})
		return
	}

	var freq models.Frequency
	if err := s.db.First(&freq, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "frequency not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"frequency":   freq,
		"description": cronexpr.Describe(freq.CronExpression),
	})
}

func (s *Server) createFrequency(c *gin.Context) {
	var req frequencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := cronexpr.Validate(req.CronExpression); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	freq := models.Frequency{
		CronExpression: req.CronExpression,
		Description:    req.Description,
		IsActive:       true,
	}
	if req.IsActive != nil {
		freq.IsActive = *req.IsActive
	}
	if freq.Description == "" {
		freq.Description = cronexpr.Describe(freq.CronExpression)
	}

	if err := s.db.Create(&freq).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, freq)
}

func (s *Server) updateFrequency(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid frequency ID"})
		return
	}

	var freq models.Frequency
	if err := s.db.First(&freq, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "frequency not found"})
		return
	}

	var req frequencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := cronexpr.Validate(req.CronExpression); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	freq.CronExpression = req.CronExpression
	freq.Description = req.Description
	if req.IsActive != nil {
		freq.IsActive = *req.IsActive
	}

	if err := s.db.Save(&freq).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, freq)
}

func (s *Server) deleteFrequency(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid frequency ID"})
		return
	}

	var count int64
	if err := s.db.Model(&models.ScheduledTask{}).Where("frequency_id = ?", id).Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "frequency is referenced by scheduled tasks"})
		return
	}

	if err := s.db.Delete(&models.Frequency{}, id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "frequency deleted"})
}
