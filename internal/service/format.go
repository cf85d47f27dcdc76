package service

import (
	"strings"

	"github.com/LeventeLantos/sms-forwarder/internal/model"
)

const separator = "────────────────"

// FormatNotification renders a matched message. Sender, receive time and
// the full body always appear.
func FormatNotification(device string, m model.Message) string {
	received := m.RawReceivedAt
	if received == "" {
		received = m.ReceivedAt.Format("2006-01-02 15:04:05 -07:00")
	}
	if device == "" {
		device = "unknown device"
	}

	var b strings.Builder
	b.WriteString("📩 SMS matched filter on " + device + "\n")
	b.WriteString(separator + "\n")
	b.WriteString("From: " + m.Sender + "\n")
	b.WriteString("Time: " + received + "\n")
	b.WriteString(separator + "\n")
	b.WriteString(m.Body)
	return b.String()
}
