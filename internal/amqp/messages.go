package amqp

import (
	"encoding/json"
	"time"
)

// ReportMessage carries a rendered regret report to the mail worker.
// The CSV attachment travels in the message body so the worker needs
// no access to session state, which may be gone by delivery time.
type ReportMessage struct {
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	CSV       []byte    `json:"csv"`
	Timestamp time.Time `json:"timestamp"`
}

func NewReportMessage(recipient, subject, body string, csv []byte) *ReportMessage {
	return &ReportMessage{
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		CSV:       csv,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ReportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON creates a message from JSON bytes
func ReportMessageFromJSON(data []byte) (*ReportMessage, error) {
	var msg ReportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
