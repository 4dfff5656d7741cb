package notify

import (
	"fmt"
	"time"

	"github.com/reportassist/internal/logging"
	"github.com/reportassist/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/slack-go/slack"
)

// Notifier receives failed firings. Implementations are best-effort: a
// notification failure never changes the outcome of a firing.
type Notifier interface {
	NotifyFailure(tlog *models.TaskLog)
}

// SlackNotifier posts failed firings to a Slack channel.
type SlackNotifier struct {
	client  *slack.Client
	channel string
	logger  *logrus.Entry
}

func NewSlackNotifier(token, channel string) *SlackNotifier {
	return &SlackNotifier{
		client:  slack.New(token),
		channel: channel,
		logger:  logging.Component("notify"),
	}
}

func (s *SlackNotifier) NotifyFailure(tlog *models.TaskLog) {
	attachment := slack.Attachment{
		Color: "#ff0000",
		Title: fmt.Sprintf("Report task failed: %s", tlog.TaskName),
		Text:  tlog.ErrorInfo,
		Fields: []slack.AttachmentField{
			{Title: "Job ID", Value: tlog.JobID, Short: true},
			{Title: "Started", Value: tlog.StartTime.Format(time.RFC3339), Short: true},
		},
		Footer: "reportassist scheduler",
	}

	_, _, err := s.client.PostMessage(s.channel, slack.MsgOptionAttachments(attachment))
	if err != nil {
		s.logger.Warnf("Failed to post slack notification for %s: %v", tlog.JobID, err)
	}
}

// NopNotifier is used when no slack token is configured.
type NopNotifier struct{}

func (NopNotifier) NotifyFailure(*models.TaskLog) {}
