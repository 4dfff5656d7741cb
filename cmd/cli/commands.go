package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/reportassist/internal/models"
)

func newTaskCommand() *cobra.Command {
	taskCmd := &cobra.Command{
		Use:   "task",
		Short: "Manage scheduled tasks",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List scheduled tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := apiClient.ListTasks()
			if err != nil {
				return err
			}
			printTasks(tasks)
			return nil
		},
	}

	pauseCmd := &cobra.Command{
		Use:   "pause [id]",
		Short: "Pause a scheduled task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			task, err := apiClient.PauseTask(id)
			if err != nil {
				return err
			}
			fmt.Printf("Task %d (%s) is now %s\n", task.ID, task.Name, task.Status)
			return nil
		},
	}

	resumeCmd := &cobra.Command{
		Use:   "resume [id]",
		Short: "Resume a paused task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			task, err := apiClient.ResumeTask(id)
			if err != nil {
				return err
			}
			fmt.Printf("Task %d (%s) is now %s\n", task.ID, task.Name, task.Status)
			return nil
		},
	}

	rerunCmd := &cobra.Command{
		Use:   "rerun [id]",
		Short: "Fire a task again from its latest execution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			tlog, err := apiClient.RerunTask(id)
			if err != nil {
				return err
			}
			fmt.Printf("Rerun accepted, job %s\n", tlog.JobID)
			return nil
		},
	}

	taskCmd.AddCommand(listCmd, pauseCmd, resumeCmd, rerunCmd)
	return taskCmd
}

func newLogCommand() *cobra.Command {
	logCmd := &cobra.Command{
		Use:   "log",
		Short: "Inspect and control task executions",
	}

	var taskID uint
	var result string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List task executions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			logs, err := apiClient.ListTaskLogs(taskID, result)
			if err != nil {
				return err
			}
			printTaskLogs(logs)
			return nil
		},
	}
	listCmd.Flags().UintVar(&taskID, "task", 0, "Filter by task ID")
	listCmd.Flags().StringVar(&result, "result", "", "Filter by result (RUNNING, SUCCEEDED, FAILED)")

	stopCmd := &cobra.Command{
		Use:   "stop [job-id]",
		Short: "Stop a running execution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tlog, err := apiClient.StopJob(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Job %s: %s\n", tlog.JobID, tlog.Result)
			return nil
		},
	}

	logCmd.AddCommand(listCmd, stopCmd)
	return logCmd
}

func newReportCommand() *cobra.Command {
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Manage generated reports",
	}

	var recipients string
	sendCmd := &cobra.Command{
		Use:   "send [id]",
		Short: "Email a generated report to explicit recipients",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			record, err := apiClient.SendReport(id, strings.Split(recipients, ";"))
			if err != nil {
				return err
			}
			fmt.Printf("Report %d sent to %s (%s)\n", record.ReportID, record.Recipients, record.Status)
			return nil
		},
	}
	sendCmd.Flags().StringVar(&recipients, "to", "", "Semicolon-separated recipient list")
	sendCmd.MarkFlagRequired("to")

	reportCmd.AddCommand(sendCmd)
	return reportCmd
}

func parseID(arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid ID %q: %v", arg, err)
	}
	return uint(id), nil
}

func printTasks(tasks []models.ScheduledTask) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.TabIndent)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tFREQUENCY\tTEMPLATE\t")
	for _, t := range tasks {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t\n",
			t.ID, t.Name, t.Status, t.Frequency.CronExpression, t.Template.Name)
	}
	w.Flush()
}

func printTaskLogs(logs []models.TaskLog) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.TabIndent)
	fmt.Fprintln(w, "JOB ID\tTASK\tSTARTED\tENDED\tRESULT\t")
	for _, l := range logs {
		ended := "-"
		if l.EndTime != nil {
			ended = l.EndTime.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n",
			l.JobID, l.TaskName, l.StartTime.Format(time.RFC3339), ended, l.Result)
	}
	w.Flush()
}
