package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reportassist/internal/models"
)

func (s *Server) listTaskLogs(c *gin.Context) {
	offset, limit := paginate(c)
	query := s.db.Model(&models.TaskLog{})
	if taskID := c.Query("task_id"); taskID != "" {
		query = query.Where("task_id = ?", taskID)
	}
	if result := c.Query("result"); result != "" {
		query = query.Where("result = ?", result)
	}

	var logs []models.TaskLog
	if err := query.Offset(offset).Limit(limit).Order("start_time desc").Find(&logs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch task logs"})
		return
	}
	c.JSON(http.StatusOK, logs)
}

func (s *Server) getTaskLog(c *gin.Context) {
	tlog, err := s.logs.Get(c.Param("jobID"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "task log not found"})
		return
	}
	c.JSON(http.StatusOK, tlog)
}

// rerunTaskLog fires the log's task again under a fresh job id,
// regardless of the task's pause state.
func (s *Server) rerunTaskLog(c *gin.Context) {
	tlog, err := s.logs.Get(c.Param("jobID"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "task log not found"})
		return
	}

	fresh, err := s.sched.Rerun(tlog.TaskID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, fresh)
}

func (s *Server) stopTaskLog(c *gin.Context) {
	tlog, err := s.sched.StopJob(c.Param("jobID"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "task log not found"})
		return
	}
	c.JSON(http.StatusOK, tlog)
}
