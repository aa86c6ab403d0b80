package mail

import (
	"encoding/json"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/procupilot/procupilot/internal/store"
)

// SMTPConfig carries the outbound mail settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender dispatches RFP emails to vendors.
type SMTPSender struct {
	config SMTPConfig
	logger *zap.Logger
}

func NewSMTPSender(config SMTPConfig, log *zap.Logger) *SMTPSender {
	if config.Port == 0 {
		config.Port = 587
	}
	return &SMTPSender{config: config, logger: log}
}

// Send delivers one plain-text email.
func (s *SMTPSender) Send(to, subject, body string) error {
	addr := net.JoinHostPort(s.config.Host, fmt.Sprintf("%d", s.config.Port))

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.config.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	var auth smtp.Auth
	if s.config.Username != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	if err := smtp.SendMail(addr, auth, s.config.From, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}

	s.logger.Info("email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

// RFPSubject builds the subject line for an outbound RFP. The inbound matcher
// looks for this exact "RFP:" prefix in vendor replies, so the format is part
// of the matching contract.
func RFPSubject(rfp *store.RFP) string {
	return "RFP: " + rfp.Title
}

// RFPBody renders the RFP into the plain-text email body sent to vendors.
func RFPBody(rfp *store.RFP) string {
	structured, err := json.MarshalIndent(rfp.Structured, "", "  ")
	if err != nil {
		structured = []byte("{}")
	}

	return fmt.Sprintf(`RFP: %s

Description:
%s

Structured:
%s

Please reply to this email with your proposal including price, delivery time, warranty, and any line-item pricing.
`, rfp.Title, rfp.Description, structured)
}
