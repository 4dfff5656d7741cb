package api

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/reportassist/internal/mailer"
	"github.com/reportassist/internal/scheduler"
	"github.com/reportassist/internal/store"
	"gorm.io/gorm"
)

type Server struct {
	db         *gorm.DB
	tasks      *store.TaskStore
	logs       *store.ExecutionLog
	sched      *scheduler.Scheduler
	dispatcher *mailer.Dispatcher
	router     *gin.Engine
}

func NewServer(db *gorm.DB, tasks *store.TaskStore, logs *store.ExecutionLog, sched *scheduler.Scheduler, dispatcher *mailer.Dispatcher) *Server {
	server := &Server{
		db:         db,
		tasks:      tasks,
		logs:       logs,
		sched:      sched,
		dispatcher: dispatcher,
		router:     gin.Default(),
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api/v1")

	frequencies := api.Group("/frequencies")
	{
		frequencies.GET("", s.listFrequencies)
		frequencies.GET("/:id", s.getFrequency)
		frequencies.POST("", s.createFrequency)
		frequencies.PUT("/:id", s.updateFrequency)
		frequencies.DELETE("/:id", s.deleteFrequency)
	}

	templates := api.Group("/templates")
	{
		templates.GET("", s.listTemplates)
		templates.GET("/:id", s.getTemplate)
		templates.POST("", s.createTemplate)
		templates.PUT("/:id", s.updateTemplate)
		templates.DELETE("/:id", s.deleteTemplate)
	}

	tasks := api.Group("/scheduled-tasks")
	{
		tasks.GET("", s.listTasks)
		tasks.GET("/:id", s.getTask)
		tasks.POST("", s.createTask)
		tasks.PUT("/:id", s.updateTask)
		tasks.DELETE("/:id", s.deleteTask)
		tasks.PATCH("/:id/pause", s.pauseTask)
		tasks.PATCH("/:id/resume", s.resumeTask)
	}

	taskLogs := api.Group("/task-logs")
	{
		taskLogs.GET("", s.listTaskLogs)
		taskLogs.GET("/:jobID", s.getTaskLog)
		taskLogs.POST("/:jobID/rerun", s.rerunTaskLog)
		taskLogs.POST("/:jobID/stop", s.stopTaskLog)
	}

	configs := api.Group("/email-configurations")
	{
		configs.GET("", s.listEmailConfigs)
		configs.GET("/:id", s.getEmailConfig)
		configs.POST("", s.createEmailConfig)
		configs.PUT("/:id", s.updateEmailConfig)
		configs.DELETE("/:id", s.deleteEmailConfig)
		configs.PATCH("/:id/status", s.setEmailConfigStatus)
	}

	reports := api.Group("/reports")
	{
		reports.GET("", s.listReports)
		reports.GET("/:id", s.getReport)
		reports.POST("", s.createReport)
		reports.PUT("/:id", s.updateReport)
		reports.DELETE("/:id", s.deleteReport)
		reports.POST("/:id/send_report", s.sendReport)
	}

	api.GET("/email-send-records/report_history", s.reportHistory)

	data := api.Group("/intermediate-data")
	{
		data.GET("", s.listIntermediateData)
		data.GET("/:id", s.getIntermediateData)
		data.POST("", s.createIntermediateData)
		data.PUT("/:id", s.updateIntermediateData)
		data.DELETE("/:id", s.deleteIntermediateData)
	}
}

func (s *Server) Start(port int) error {
	return s.router.Run(fmt.Sprintf(":%d", port))
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// paginate reads page/limit query parameters with sane bounds.
func paginate(c *gin.Context) (offset, limit int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 200 {
		limit = 20
	}
	return (page - 1) * limit, limit
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}
