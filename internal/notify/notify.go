package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/pintyy/kaggle-sync/internal/domain"
)

// NotificationType represents the type of notification
type NotificationType int

const (
	NotifyInfo NotificationType = iota
	NotifySuccess
	NotifyWarning
	NotifyError
)

// Notification represents a notification to be sent
type Notification struct {
	Title   string
	Message string
	Type    NotificationType
	RunID   string // Optional run reference
}

// Notifier is the interface for sending notifications
type Notifier interface {
	Send(n Notification) error
}

// FromReport builds the end-of-run summary notification.
func FromReport(report *domain.SyncReport) Notification {
	n := Notification{RunID: report.RunID}

	switch {
	case report.AllSucceeded():
		n.Type = NotifySuccess
		n.Title = "Kaggle sync complete"
		n.Message = fmt.Sprintf("Synced %d/%d notebooks in %s",
			report.Succeeded, report.Total,
			report.FinishedAt.Sub(report.StartedAt).Round(time.Second))
	case report.Failed() > 0:
		n.Type = NotifyError
		n.Title = "Kaggle sync finished with failures"
		lines := []string{fmt.Sprintf("Synced %d/%d notebooks", report.Succeeded, report.Total)}
		for _, res := range report.Results {
			if res.Status == domain.StatusFailed {
				lines = append(lines, fmt.Sprintf("%s: %s", res.Ref.Ref(), res.Error))
			}
		}
		if report.Skipped() > 0 {
			lines = append(lines, fmt.Sprintf("%d notebooks not attempted", report.Skipped()))
		}
		n.Message = strings.Join(lines, "\n")
	default:
		n.Type = NotifyWarning
		n.Title = "Kaggle sync interrupted"
		n.Message = fmt.Sprintf("Synced %d/%d notebooks, %d not attempted",
			report.Succeeded, report.Total, report.Skipped())
	}
	return n
}

// MultiNotifier sends to multiple notifiers
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier creates a notifier that sends to all provided notifiers
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

// Send sends the notification to all notifiers
func (m *MultiNotifier) Send(n Notification) error {
	var lastErr error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(n); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// NoopNotifier does nothing (for testing or disabled notifications)
type NoopNotifier struct{}

func (NoopNotifier) Send(n Notification) error { return nil }
