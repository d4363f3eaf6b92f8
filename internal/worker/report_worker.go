// Package worker delivers queued regret reports over SMTP.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"losslens/internal/amqp"
)

// Sender is the mail delivery dependency.
type Sender interface {
	SendReport(recipient, subject, body string, csvAttachment []byte) error
}

// ReportWorker handles report messages pulled off the queue.
type ReportWorker struct {
	mailer Sender
}

func NewReportWorker(mailer Sender) *ReportWorker {
	return &ReportWorker{mailer: mailer}
}

// HandleReportMessage validates and delivers one report. A permanent
// validation failure returns nil so the broker does not requeue junk.
func (w *ReportWorker) HandleReportMessage(ctx context.Context, msg *amqp.ReportMessage) error {
	if err := validate(msg); err != nil {
		slog.WarnContext(ctx, "Dropping invalid report message", "error", err)
		return nil
	}

	slog.InfoContext(ctx, "Delivering report",
		"recipient", msg.Recipient,
		"csv_bytes", len(msg.CSV),
		"queued_at", msg.Timestamp)

	if err := w.mailer.SendReport(msg.Recipient, msg.Subject, msg.Body, msg.CSV); err != nil {
		return fmt.Errorf("deliver report to %s: %w", msg.Recipient, err)
	}

	slog.InfoContext(ctx, "Report delivered", "recipient", msg.Recipient)
	return nil
}

func validate(msg *amqp.ReportMessage) error {
	if msg == nil {
		return errors.New("nil message")
	}
	if strings.TrimSpace(msg.Recipient) == "" {
		return errors.New("empty recipient")
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return errors.New("empty subject")
	}
	return nil
}
