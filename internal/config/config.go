package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Stale-running recovery policies applied at startup to task logs left
// RUNNING past the staleness threshold.
const (
	StaleRunningFail  = "fail"
	StaleRunningRetry = "retry"
)

type Config struct {
	Server struct {
		Port int
	}
	Database struct {
		Path string
	}
	Log struct {
		Level string
		File  string
	}
	SMTP struct {
		Host     string
		Port     int
		From     string
		Password string
	}
	Slack struct {
		Token   string
		Channel string
	}
	Scheduler struct {
		TickInterval          time.Duration `mapstructure:"tick_interval"`
		MaxConcurrent         int64         `mapstructure:"max_concurrent"`
		StaleAfter            time.Duration `mapstructure:"stale_after"`
		OnRestartStaleRunning string        `mapstructure:"on_restart_stale_running"`
	}
}

// LoadConfig loads config.yaml from the working directory, falling back to
// defaults when the file is absent.
func LoadConfig() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("database.path", "data/reportassist.db")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.file", "")
	viper.SetDefault("smtp.port", 587)
	viper.SetDefault("scheduler.tick_interval", 30*time.Second)
	viper.SetDefault("scheduler.max_concurrent", 10)
	viper.SetDefault("scheduler.stale_after", 30*time.Minute)
	viper.SetDefault("scheduler.on_restart_stale_running", StaleRunningFail)

	var config Config

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Printf("Error reading config file: %v\n", err)
		}
	}

	if err := viper.Unmarshal(&config); err != nil {
		fmt.Printf("Error unmarshaling config: %v\n", err)
	}

	if config.Scheduler.OnRestartStaleRunning != StaleRunningFail &&
		config.Scheduler.OnRestartStaleRunning != StaleRunningRetry {
		fmt.Printf("Unknown stale-running policy %q, using %q\n",
			config.Scheduler.OnRestartStaleRunning, StaleRunningFail)
		config.Scheduler.OnRestartStaleRunning = StaleRunningFail
	}

	return &config
}
