package main

import (
	"log"

	"github.com/reportassist/internal/api"
	"github.com/reportassist/internal/config"
	"github.com/reportassist/internal/database"
	"github.com/reportassist/internal/logging"
	"github.com/reportassist/internal/mailer"
	"github.com/reportassist/internal/notify"
	"github.com/reportassist/internal/report"
	"github.com/reportassist/internal/scheduler"
	"github.com/reportassist/internal/store"
)

func main() {
	cfg := config.LoadConfig()

	logging.Setup(cfg.Log.Level, cfg.Log.File)

	if err := database.Initialize(cfg.Database.Path); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	db := database.GetDB()

	tasks := store.NewTaskStore(db)
	logs := store.NewExecutionLog(db)

	dispatcher := mailer.NewSMTPDispatcher(
		cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From, cfg.SMTP.Password, logs)
	generator := report.NewGenerator(db)

	var notifier notify.Notifier
	if cfg.Slack.Token != "" {
		notifier = notify.NewSlackNotifier(cfg.Slack.Token, cfg.Slack.Channel)
	}

	sched := scheduler.New(tasks, logs, generator, dispatcher, notifier, scheduler.Options{
		TickInterval:          cfg.Scheduler.TickInterval,
		MaxConcurrent:         cfg.Scheduler.MaxConcurrent,
		StaleAfter:            cfg.Scheduler.StaleAfter,
		OnRestartStaleRunning: cfg.Scheduler.OnRestartStaleRunning,
	})
	if err := sched.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer sched.Shutdown()

	server := api.NewServer(db, tasks, logs, sched, dispatcher)
	if err := server.Start(cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
