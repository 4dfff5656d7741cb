package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reportassist/internal/models"
)

type templateRequest struct {
	TemplateType  models.TemplateType `json:"template_type" binding:"required"`
	TemplateGroup string              `json:"template_group"`
	Name          string              `json:"name" binding:"required"`
	Content       string              `json:"content"`
	Creator       string              `json:"creator"`
}

func validTemplateType(t models.TemplateType) bool {
	switch t {
	case models.TemplateTypeDaily, models.TemplateTypeWeekly, models.TemplateTypeMonthly,
		models.TemplateTypeQuarterly, models.TemplateTypeYearly:
		return true
	}
	return false
}

func (s *Server) listTemplates(c *gin.Context) {
	offset, limit := paginate(c)
	query := s.db.Model(&models.Template{})
	if tt := c.Query("template_type"); tt != "" {
		query = query.Where("template_type = ?", tt)
	}
	if group := c.Query("template_group"); group != "" {
		query = query.Where("template_group = ?", group)
	}

	var templates []models.Template
	if err := query.Offset(offset).Limit(limit).Order("id").Find(&templates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch templates"})
		return
	}
	c.JSON(http.StatusOK, templates)
}

func (s *Server) getTemplate(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid template ID"})
		return
	}

	var tpl models.Template
	if err := s.db.First(&tpl, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "template not found"})
		return
	}
	c.JSON(http.StatusOK, tpl)
}

func (s *Server) createTemplate(c *gin.Context) {
	var req templateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validTemplateType(req.TemplateType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid template type"})
		return
	}

	tpl := models.Template{
		TemplateType:  req.TemplateType,
		TemplateGroup: req.TemplateGroup,
		Name:          req.Name,
		Content:       req.Content,
		Creator:       req.Creator,
	}
	if err := s.db.Create(&tpl).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, tpl)
}

func (s *Server) updateTemplate(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid template ID"})
		return
	}

	var tpl models.Template
	if err := s.db.First(&tpl, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "template not found"})
		return
	}

	var req templateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validTemplateType(req.TemplateType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid template type"})
		return
	}

	tpl.TemplateType = req.TemplateType
	tpl.TemplateGroup = req.TemplateGroup
	tpl.Name = req.Name
	tpl.Content = req.Content

	if err := s.db.Save(&tpl).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, tpl)
}

func (s *Server) deleteTemplate(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid template ID"})
		return
	}

	var count int64
	if err := s.db.Model(&models.ScheduledTask{}).Where("template_id = ?", id).Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "template is referenced by scheduled tasks"})
		return
	}

	if err := s.db.Delete(&models.Template{}, id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "template deleted"})
}
