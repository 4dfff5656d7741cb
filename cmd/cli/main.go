package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reportassist/cmd/cli/client"
)

var apiClient *client.APIClient

var rootCmd = &cobra.Command{
	Use:   "reportctl",
	Short: "reportctl - operator CLI for the report scheduler",
	Long: `reportctl talks to a running report scheduler over its HTTP API.
It can list and pause scheduled tasks, inspect and stop executions, and
send generated reports by email.`,
}

func init() {
	addr := os.Getenv("REPORTASSIST_ADDR")
	if addr == "" {
		addr = "http://localhost:8080"
	}
	apiClient = client.NewAPIClient(addr)

	rootCmd.AddCommand(newTaskCommand())
	rootCmd.AddCommand(newLogCommand())
	rootCmd.AddCommand(newReportCommand())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
