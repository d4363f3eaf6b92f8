package worker

import (
	"context"
	"errors"
	"testing"

	"losslens/internal/amqp"
)

type fakeSender struct {
	sent []string
	err  error
}

func (f *fakeSender) SendReport(recipient, subject, body string, csv []byte) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, recipient)
	return nil
}

func TestHandleReportMessageDelivers(t *testing.T) {
	sender := &fakeSender{}
	w := NewReportWorker(sender)

	msg := amqp.NewReportMessage("me@example.com", "Your regret report", "body", []byte("csv"))
	if err := w.HandleReportMessage(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0] != "me@example.com" {
		t.Fatalf("sent = %v", sender.sent)
	}
}

func TestHandleReportMessageDropsInvalid(t *testing.T) {
	sender := &fakeSender{}
	w := NewReportWorker(sender)

	tests := []*amqp.ReportMessage{
		nil,
		amqp.NewReportMessage("", "subject", "body", nil),
		amqp.NewReportMessage("me@example.com", "  ", "body", nil),
	}
	for _, msg := range tests {
		if err := w.HandleReportMessage(context.Background(), msg); err != nil {
			t.Errorf("invalid message should be dropped without error, got %v", err)
		}
	}
	if len(sender.sent) != 0 {
		t.Fatalf("nothing should have been sent, got %v", sender.sent)
	}
}

func TestHandleReportMessageReturnsDeliveryError(t *testing.T) {
	sender := &fakeSender{err: errors.New("smtp down")}
	w := NewReportWorker(sender)

	msg := amqp.NewReportMessage("me@example.com", "subject", "body", nil)
	if err := w.HandleReportMessage(context.Background(), msg); err == nil {
		t.Fatal("delivery failure should propagate for requeue")
	}
}
