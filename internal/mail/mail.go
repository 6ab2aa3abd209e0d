// Package mail delivers the operator copy of a report over SMTP.
// Delivery is best effort: callers log failures and move on, so nothing
// here may panic or block past the dial timeout.
package mail

import (
	"fmt"

	gomail "gopkg.in/gomail.v2"
)

// Sender delivers one HTML message.
type Sender interface {
	Send(subject, htmlBody string) error
}

// Config holds SMTP settings. Host left empty disables delivery.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	To       string // operator address; defaults to Username
}

// SMTP is the gomail-backed Sender. STARTTLS is negotiated automatically
// on the standard submission port.
type SMTP struct {
	cfg Config
}

func NewSMTP(cfg Config) *SMTP {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.To == "" {
		cfg.To = cfg.Username
	}
	return &SMTP{cfg: cfg}
}

func (s *SMTP) Send(subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.Username)
	m.SetHeader("To", s.cfg.To)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
