package mailer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/reportassist/internal/logging"
	"github.com/reportassist/internal/models"
	"github.com/reportassist/internal/store"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// ErrNoRecipients is returned when splitting the configured recipient
// list leaves nothing to send to.
var ErrNoRecipients = errors.New("recipient list is empty")

// Sender is the SMTP seam; *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Dispatcher sends generated reports by email and records every attempt,
// including skips, in the execution log.
type Dispatcher struct {
	sender Sender
	from   string
	logs   *store.ExecutionLog
	logger *logrus.Entry
}

func NewDispatcher(sender Sender, from string, logs *store.ExecutionLog) *Dispatcher {
	return &Dispatcher{
		sender: sender,
		from:   from,
		logs:   logs,
		logger: logging.Component("mailer"),
	}
}

// NewSMTPDispatcher builds a Dispatcher over a real SMTP dialer.
func NewSMTPDispatcher(host string, port int, from, password string, logs *store.ExecutionLog) *Dispatcher {
	return NewDispatcher(gomail.NewDialer(host, port, from, password), from, logs)
}

// SplitRecipients splits a semicolon-delimited address list, trimming
// whitespace and dropping empty entries.
func SplitRecipients(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ";") {
		addr := strings.TrimSpace(part)
		if addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

// Dispatch sends a report to the recipients of cfg. A nil or disabled
// configuration records a SKIPPED attempt without touching the transport.
// The returned record is written in every case; the error reports the
// firing-level outcome.
func (d *Dispatcher) Dispatch(rep *models.Report, cfg *models.EmailConfiguration) (*models.EmailSendRecord, error) {
	if cfg == nil {
		return d.record(rep, "", models.SendStatusSkipped, "no email configuration for report type")
	}
	if !cfg.Status {
		return d.record(rep, cfg.Recipients, models.SendStatusSkipped, "email configuration disabled")
	}

	recipients := SplitRecipients(cfg.Recipients)
	if len(recipients) == 0 {
		record, recErr := d.record(rep, cfg.Recipients, models.SendStatusFailed, ErrNoRecipients.Error())
		if recErr != nil {
			return nil, recErr
		}
		return record, ErrNoRecipients
	}

	return d.send(rep, recipients)
}

// SendTo dispatches a report to an explicit recipient list, outside any
// configuration. Used by the ad-hoc send endpoint.
func (d *Dispatcher) SendTo(rep *models.Report, recipients []string) (*models.EmailSendRecord, error) {
	cleaned := SplitRecipients(strings.Join(recipients, ";"))
	if len(cleaned) == 0 {
		record, recErr := d.record(rep, strings.Join(recipients, ";"), models.SendStatusFailed, ErrNoRecipients.Error())
		if recErr != nil {
			return nil, recErr
		}
		return record, ErrNoRecipients
	}
	return d.send(rep, cleaned)
}

func (d *Dispatcher) send(rep *models.Report, recipients []string) (*models.EmailSendRecord, error) {
	m := gomail.NewMessage()
	m.SetHeader("From", d.from)
	m.SetHeader("To", recipients...)
	m.SetHeader("Subject", rep.Title)
	m.SetBody("text/html", rep.Content)

	joined := strings.Join(recipients, ";")
	if err := d.sender.DialAndSend(m); err != nil {
		d.logger.Warnf("Send failed for report %d: %v", rep.ID, err)
		record, recErr := d.record(rep, joined, models.SendStatusFailed, err.Error())
		if recErr != nil {
			return nil, recErr
		}
		return record, fmt.Errorf("email transport failed: %w", err)
	}

	d.logger.Infof("Sent report %d to %s", rep.ID, joined)
	return d.record(rep, joined, models.SendStatusSent, "")
}

func (d *Dispatcher) record(rep *models.Report, recipients string, status models.SendStatus, description string) (*models.EmailSendRecord, error) {
	record := &models.EmailSendRecord{
		ReportID:    rep.ID,
		SentAt:      time.Now(),
		Recipients:  recipients,
		Status:      status,
		Description: description,
	}
	if err := d.logs.RecordEmail(record); err != nil {
		return nil, err
	}
	return record, nil
}
