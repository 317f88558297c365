// Package email provides email sending capabilities via SMTP.
package email

import (
	"bytes"
	"fmt"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/campusfound/apiserver/config"
	"github.com/campusfound/apiserver/types"
)

// Service provides email sending.
type Service struct {
	config config.EmailConfig
	server string
	auth   smtp.Auth
}

// NewService creates a new email service.
func NewService(cfg config.EmailConfig) *Service {
	auth := smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)

	return &Service{
		config: cfg,
		server: cfg.Host + ":" + strconv.Itoa(cfg.Port),
		auth:   auth,
	}
}

// IsConfigured returns true if email is configured.
func (s *Service) IsConfigured() bool {
	return s.config.Host != "" && s.config.Port != 0 && s.config.From != ""
}

// BatchSize returns the configured bulk batch size, defaulting to 5.
func (s *Service) BatchSize() int {
	if s.config.BatchSize > 0 {
		return s.config.BatchSize
	}
	return 5
}

// BatchDelay returns the configured delay between bulk batches.
func (s *Service) BatchDelay() time.Duration {
	if s.config.BatchDelay > 0 {
		return s.config.BatchDelay
	}
	return 2 * time.Second
}

func (s *Service) fromHeader() string {
	if s.config.FromName != "" {
		return fmt.Sprintf("%s <%s>", s.config.FromName, s.config.From)
	}
	return s.config.From
}

// SendEmail sends a plain text email.
func (s *Service) SendEmail(to []string, subject, body string) error {
	if !s.IsConfigured() {
		return fmt.Errorf("email not configured")
	}

	msg := []byte(fmt.Sprintf(
		"To: %s\r\n"+
			"From: %s\r\n"+
			"Subject: %s\r\n"+
			"Content-Type: text/plain; charset=UTF-8\r\n"+
			"\r\n"+
			"%s",
		strings.Join(to, ", "),
		s.fromHeader(),
		subject,
		body,
	))

	return smtp.SendMail(s.server, s.auth, s.config.From, to, msg)
}

// SendHTMLEmail sends a multipart email with plain text and HTML parts.
func (s *Service) SendHTMLEmail(to []string, subject, textBody, htmlBody string) error {
	if !s.IsConfigured() {
		return fmt.Errorf("email not configured")
	}

	boundary := "boundary-campusfound"

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&msg, "From: %s\r\n", s.fromHeader())
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	fmt.Fprintf(&msg, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=\"%s\"\r\n", boundary)
	fmt.Fprintf(&msg, "\r\n")

	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	fmt.Fprintf(&msg, "Content-Type: text/plain; charset=UTF-8\r\n")
	fmt.Fprintf(&msg, "\r\n")
	fmt.Fprintf(&msg, "%s\r\n", textBody)
	fmt.Fprintf(&msg, "\r\n")

	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	fmt.Fprintf(&msg, "Content-Type: text/html; charset=UTF-8\r\n")
	fmt.Fprintf(&msg, "\r\n")
	fmt.Fprintf(&msg, "%s\r\n", htmlBody)
	fmt.Fprintf(&msg, "\r\n")
	fmt.Fprintf(&msg, "--%s--\r\n", boundary)

	return smtp.SendMail(s.server, s.auth, s.config.From, to, msg.Bytes())
}

// SendItemAlert sends the found-item alert to one subscriber.
func (s *Service) SendItemAlert(to string, userName string, item types.Item, dashboardURL string) error {
	data := ItemAlertData{
		AppName:      "Campus Lost & Found",
		UserName:     userName,
		Item:         item,
		DashboardURL: dashboardURL,
	}

	subject := fmt.Sprintf("New Found Item Alert: %s", item.Title)
	html, err := renderTemplate(itemAlertHTMLTemplate, data)
	if err != nil {
		return fmt.Errorf("render item alert template: %w", err)
	}
	text, err := renderTemplate(itemAlertTextTemplate, data)
	if err != nil {
		return fmt.Errorf("render item alert template: %w", err)
	}

	return s.SendHTMLEmail([]string{to}, subject, text, html)
}
