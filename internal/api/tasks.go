package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reportassist/internal/models"
	"github.com/reportassist/internal/store"
)

type taskRequest struct {
	Name        string `json:"name" binding:"required"`
	FrequencyID uint   `json:"frequency_id" binding:"required"`
	TemplateID  uint   `json:"template_id" binding:"required"`
	Creator     string `json:"creator"`
}

func (s *Server) listTasks(c *gin.Context) {
	offset, limit := paginate(c)
	query := s.db.Model(&models.ScheduledTask{}).Preload("Frequency").Preload("Template")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if name := c.Query("name"); name != "" {
		query = query.Where("name LIKE ?", "%"+name+"%")
	}

	var tasks []models.ScheduledTask
	if err := query.Offset(offset).Limit(limit).Order("id").Find(&tasks).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tasks"})
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (s *Server) getTask(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task ID"})
		return
	}

	task, err := s.tasks.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	c.JSON(http.StatusOK, task)
}

// validateTaskRefs checks that the referenced frequency and template
// exist. A task must never point at a dangling or invalid frequency.
func (s *Server) validateTaskRefs(c *gin.Context, req *taskRequest) bool {
	var freq models.Frequency
	if err := s.db.First(&freq, req.FrequencyID).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "frequency does not exist"})
		return false
	}
	var tpl models.Template
	if err := s.db.First(&tpl, req.TemplateID).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "template does not exist"})
		return false
	}
	return true
}

func (s *Server) createTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !s.validateTaskRefs(c, &req) {
		return
	}

	task := models.ScheduledTask{
		Name:        req.Name,
		FrequencyID: req.FrequencyID,
		TemplateID:  req.TemplateID,
		Status:      models.TaskStatusActive,
		Creator:     req.Creator,
	}
	if err := s.db.Create(&task).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	created, err := s.tasks.Get(task.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) updateTask(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task ID"})
		return
	}

	var task models.ScheduledTask
	if err := s.db.First(&task, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !s.validateTaskRefs(c, &req) {
		return
	}

	task.Name = req.Name
	task.FrequencyID = req.FrequencyID
	task.TemplateID = req.TemplateID

	if err := s.db.Save(&task).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	updated, err := s.tasks.Get(task.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) deleteTask(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task ID"})
		return
	}

	if err := s.db.Delete(&models.ScheduledTask{}, id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "task deleted"})
}

// setTaskStatus implements pause/resume. A request that finds the task
// already in the target state is an idempotent no-op: the task is
// returned unchanged, updated_at included. The current state comes back
// on every call so clients never have to infer it from error-free
// success.
func (s *Server) setTaskStatus(c *gin.Context, target models.TaskStatus) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task ID"})
		return
	}

	task, err := s.tasks.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	if task.Status == target {
		c.JSON(http.StatusOK, task)
		return
	}

	updated, err := s.tasks.SetStatus(id, target, task.UpdatedAt)
	if errors.Is(err, store.ErrStaleUpdate) {
		current, getErr := s.tasks.Get(id)
		if getErr != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": getErr.Error()})
			return
		}
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "task": current})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) pauseTask(c *gin.Context) {
	s.setTaskStatus(c, models.TaskStatusPaused)
}

func (s *Server) resumeTask(c *gin.Context) {
	s.setTaskStatus(c, models.TaskStatusActive)
}
