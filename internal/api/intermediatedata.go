package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/reportassist/internal/models"
)

type intermediateDataRequest struct {
	Date            time.Time              `json:"date" binding:"required"`
	TaskID          uint                   `json:"task_id"`
	InternalAttacks int                    `json:"internal_attacks"`
	ExternalAttacks int                    `json:"external_attacks"`
	OtherMetrics    map[string]interface{} `json:"other_metrics"`
}

func (s *Server) listIntermediateData(c *gin.Context) {
	offset, limit := paginate(c)
	query := s.db.Model(&models.IntermediateData{})
	if taskID := c.Query("task_id"); taskID != "" {
		query = query.Where("task_id = ?", taskID)
	}

	var rows []models.IntermediateData
	if err := query.Offset(offset).Limit(limit).Order("date desc").Find(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch intermediate data"})
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) getIntermediateData(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid data ID"})
		return
	}

	var row models.IntermediateData
	if err := s.db.First(&row, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "data not found"})
		return
	}
	c.JSON(http.StatusOK, row)
}

func (s *Server) createIntermediateData(c *gin.Context) {
	var req intermediateDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	row := models.IntermediateData{
		Date:            req.Date.Truncate(24 * time.Hour),
		TaskID:          req.TaskID,
		InternalAttacks: req.InternalAttacks,
		ExternalAttacks: req.ExternalAttacks,
		OtherMetrics:    req.OtherMetrics,
	}
	if err := s.db.Create(&row).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, row)
}

func (s *Server) updateIntermediateData(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid data ID"})
		return
	}

	var row models.IntermediateData
	if err := s.db.First(&row, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "data not found"})
		return
	}

	var req intermediateDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	row.Date = req.Date.Truncate(24 * time.Hour)
	row.TaskID = req.TaskID
	row.InternalAttacks = req.InternalAttacks
	row.ExternalAttacks = req.ExternalAttacks
	row.OtherMetrics = req.OtherMetrics

	if err := s.db.Save(&row).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, row)
}

func (s *Server) deleteIntermediateData(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid data ID"})
		return
	}

	if err := s.db.Delete(&models.IntermediateData{}, id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "data deleted"})
}
