package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/reportassist/internal/models"
)

type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *APIClient) doRequest(method, path string, body interface{}) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("API error: %s", string(respBody))
	}

	return respBody, nil
}

func (c *APIClient) ListTasks() ([]models.ScheduledTask, error) {
	resp, err := c.doRequest("GET", "/api/v1/scheduled-tasks", nil)
	if err != nil {
		return nil, err
	}

	var tasks []models.ScheduledTask
	if err := json.Unmarshal(resp, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *APIClient) PauseTask(id uint) (*models.ScheduledTask, error) {
	return c.patchTask(id, "pause")
}

func (c *APIClient) ResumeTask(id uint) (*models.ScheduledTask, error) {
	return c.patchTask(id, "resume")
}

func (c *APIClient) patchTask(id uint, action string) (*models.ScheduledTask, error) {
	resp, err := c.doRequest("PATCH", fmt.Sprintf("/api/v1/scheduled-tasks/%d/%s", id, action), nil)
	if err != nil {
		return nil, err
	}

	var task models.ScheduledTask
	if err := json.Unmarshal(resp, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *APIClient) ListTaskLogs(taskID uint, result string) ([]models.TaskLog, error) {
	path := "/api/v1/task-logs?"
	if taskID != 0 {
		path += fmt.Sprintf("task_id=%d&", taskID)
	}
	if result != "" {
		path += "result=" + result
	}

	resp, err := c.doRequest("GET", path, nil)
	if err != nil {
		return nil, err
	}

	var logs []models.TaskLog
	if err := json.Unmarshal(resp, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// RerunTask fires a task again from its most recent execution.
func (c *APIClient) RerunTask(taskID uint) (*models.TaskLog, error) {
	logs, err := c.ListTaskLogs(taskID, "")
	if err != nil {
		return nil, err
	}
	if len(logs) == 0 {
		return nil, fmt.Errorf("task %d has no executions to rerun", taskID)
	}
	return c.rerunJob(logs[0].JobID)
}

func (c *APIClient) rerunJob(jobID string) (*models.TaskLog, error) {
	resp, err := c.doRequest("POST", fmt.Sprintf("/api/v1/task-logs/%s/rerun", jobID), nil)
	if err != nil {
		return nil, err
	}

	var tlog models.TaskLog
	if err := json.Unmarshal(resp, &tlog); err != nil {
		return nil, err
	}
	return &tlog, nil
}

func (c *APIClient) StopJob(jobID string) (*models.TaskLog, error) {
	resp, err := c.doRequest("POST", fmt.Sprintf("/api/v1/task-logs/%s/stop", jobID), nil)
	if err != nil {
		return nil, err
	}

	var tlog models.TaskLog
	if err := json.Unmarshal(resp, &tlog); err != nil {
		return nil, err
	}
	return &tlog, nil
}

func (c *APIClient) SendReport(reportID uint, recipients []string) (*models.EmailSendRecord, error) {
	body := map[string]interface{}{
		"recipients": recipients,
	}

	resp, err := c.doRequest("POST", fmt.Sprintf("/api/v1/reports/%d/send_report", reportID), body)
	if err != nil {
		return nil, err
	}

	var record models.EmailSendRecord
	if err := json.Unmarshal(resp, &record); err != nil {
		return nil, err
	}
	return &record, nil
}
