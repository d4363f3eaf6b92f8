package mail

import (
	"encoding/base64"
	"net/smtp"
	"strings"
	"testing"
)

func capturingMailer(t *testing.T) (*Mailer, *[]byte) {
	t.Helper()
	var captured []byte
	m := New(Config{Host: "smtp.example.com", Port: 587, From: "reports@example.com"})
	m.send = func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
		if addr != "smtp.example.com:587" {
			t.Errorf("addr = %s", addr)
		}
		if from != "reports@example.com" {
			t.Errorf("from = %s", from)
		}
		if len(to) != 1 || to[0] != "me@example.com" {
			t.Errorf("to = %v", to)
		}
		captured = msg
		return nil
	}
	return m, &captured
}

func TestSendReportWithAttachment(t *testing.T) {
	m, captured := capturingMailer(t)
	csv := []byte("Date,Merchant,Amount\n2024-01-15,Uber,20.00\n")

	if err := m.SendReport("me@example.com", "Your regret report", "See attached.", csv); err != nil {
		t.Fatalf("send: %v", err)
	}

	msg := string(*captured)
	for _, want := range []string{
		"Subject: Your regret report",
		"multipart/mixed",
		"Content-Type: text/csv",
		"filename=\"losslens-report.csv\"",
		"See attached.",
		base64.StdEncoding.EncodeToString(csv),
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestSendReportPlainWhenNoAttachment(t *testing.T) {
	m, captured := capturingMailer(t)

	if err := m.SendReport("me@example.com", "Your regret report", "No data yet.", nil); err != nil {
		t.Fatalf("send: %v", err)
	}

	msg := string(*captured)
	if strings.Contains(msg, "multipart/mixed") {
		t.Error("plain message should not be multipart")
	}
	if !strings.Contains(msg, "No data yet.") {
		t.Error("body missing")
	}
}

func TestSendReportRejectsEmptyRecipient(t *testing.T) {
	m, _ := capturingMailer(t)
	if err := m.SendReport("  ", "s", "b", nil); err == nil {
		t.Fatal("expected error for empty recipient")
	}
}

func TestSubjectHeaderInjectionStripped(t *testing.T) {
	m, captured := capturingMailer(t)

	if err := m.SendReport("me@example.com", "hi\r\nBcc: evil@example.com", "body", nil); err != nil {
		t.Fatalf("send: %v", err)
	}
	if strings.Contains(string(*captured), "Bcc:") {
		t.Error("header injection not stripped")
	}
}
