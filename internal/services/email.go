package services

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"html"
	"net/smtp"
	"strings"
	"time"

	"github.com/foxxcyber/trail-guide/internal/config"
	"github.com/foxxcyber/trail-guide/internal/models"
)

// ErrSMTPNotConfigured is returned when alert email is disabled
var ErrSMTPNotConfigured = errors.New("SMTP is not configured")

// SMTPConfig holds outgoing mail settings
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	FromAddr string
	FromName string
	Enabled  bool
}

// AlertNotifier tells a user's emergency contacts about an SOS alert
type AlertNotifier interface {
	NotifyContacts(ctx context.Context, user *models.User, alert *models.Alert) (int, error)
}

// EmailService sends SOS alert emails via SMTP
type EmailService struct {
	smtp SMTPConfig
}

// NewEmailService creates a mailer from the server configuration
func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{smtp: SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		FromAddr: cfg.SMTPFromAddr,
		FromName: cfg.SMTPFromName,
		Enabled:  cfg.SMTPEnabled,
	}}
}

// IsConfigured returns true if SMTP is properly configured
func (s *EmailService) IsConfigured() bool {
	return s.smtp.Enabled && s.smtp.Host != "" && s.smtp.FromAddr != ""
}

// NotifyContacts emails every emergency contact that has an address and
// returns how many were addressed. Contacts with only a phone number are
// reached by the device's SMS path instead.
func (s *EmailService) NotifyContacts(_ context.Context, user *models.User, alert *models.Alert) (int, error) {
	if !s.IsConfigured() {
		return 0, ErrSMTPNotConfigured
	}

	to := contactEmails(user.EmergencyContacts)
	if len(to) == 0 {
		return 0, nil
	}

	subject, htmlBody, textBody := alertEmail(user, alert)
	if err := s.sendMail(to, subject, htmlBody, textBody); err != nil {
		return 0, err
	}
	return len(to), nil
}

func contactEmails(contacts []models.EmergencyContact) []string {
	seen := map[string]bool{}
	var to []string
	for _, c := range contacts {
		addr := strings.TrimSpace(c.Email)
		if addr == "" || seen[strings.ToLower(addr)] {
			continue
		}
		seen[strings.ToLower(addr)] = true
		to = append(to, addr)
	}
	return to
}

func displayName(user *models.User) string {
	switch {
	case user.FullName != nil && *user.FullName != "":
		return *user.FullName
	case user.Username != nil && *user.Username != "":
		return *user.Username
	}
	return user.Email
}

// alertEmail renders the subject and both bodies of an SOS email
func alertEmail(user *models.User, alert *models.Alert) (subject, htmlBody, textBody string) {
	name := displayName(user)
	subject = fmt.Sprintf("SOS from %s", name)

	where := "Location unavailable"
	mapLink := ""
	if alert.Latitude != nil && alert.Longitude != nil {
		where = fmt.Sprintf("%.5f, %.5f", *alert.Latitude, *alert.Longitude)
		mapLink = fmt.Sprintf("https://maps.google.com/?q=%.5f,%.5f", *alert.Latitude, *alert.Longitude)
	}
	trail := "Unknown trail"
	if alert.TrailName != nil && *alert.TrailName != "" {
		trail = *alert.TrailName
	}
	when := alert.CreatedAt.UTC().Format(time.RFC1123)

	var text strings.Builder
	fmt.Fprintf(&text, "%s sent an emergency SOS from TrailGuide.\n\n", name)
	fmt.Fprintf(&text, "Message: %s\n", alert.Message)
	fmt.Fprintf(&text, "Trail: %s\n", trail)
	fmt.Fprintf(&text, "Location: %s\n", where)
	if mapLink != "" {
		fmt.Fprintf(&text, "Map: %s\n", mapLink)
	}
	fmt.Fprintf(&text, "Sent: %s\n\n", when)
	text.WriteString("If you cannot reach them, call 911 or Rocky Mountain National Park dispatch at 970-586-1203.")

	var b strings.Builder
	b.WriteString(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #b91c1c; color: white; padding: 24px; text-align: center; border-radius: 8px 8px 0 0; }
        .content { background: #f9fafb; padding: 24px; border: 1px solid #e5e7eb; border-top: none; border-radius: 0 0 8px 8px; }
        .footer { text-align: center; color: #6b7280; font-size: 12px; margin-top: 20px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1 style="margin: 0;">SOS from `)
	b.WriteString(html.EscapeString(name))
	b.WriteString(`</h1>
        </div>
        <div class="content">
            <p><strong>Message:</strong> `)
	b.WriteString(html.EscapeString(alert.Message))
	b.WriteString(`</p>
            <p><strong>Trail:</strong> `)
	b.WriteString(html.EscapeString(trail))
	b.WriteString(`</p>
            <p><strong>Location:</strong> `)
	if mapLink != "" {
		b.WriteString(`<a href="` + mapLink + `">` + where + `</a>`)
	} else {
		b.WriteString(where)
	}
	b.WriteString(`</p>
            <p><strong>Sent:</strong> ` + when + `</p>
            <p>If you cannot reach them, call 911 or Rocky Mountain National Park dispatch at 970-586-1203.</p>
        </div>
        <div class="footer">
            <p>You are listed as an emergency contact in TrailGuide.</p>
        </div>
    </div>
</body>
</html>`)

	return subject, b.String(), text.String()
}

// buildMessage assembles a multipart/alternative message
func (s *EmailService) buildMessage(to []string, subject, htmlBody, textBody string) string {
	boundary := "boundary-trailguide-sos-alert"

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s <%s>\r\n", s.smtp.FromName, s.smtp.FromAddr))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(to, ", ")))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("X-Priority: 1\r\n")
	msg.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=\"%s\"\r\n", boundary))
	msg.WriteString("\r\n")

	// Plain text part
	msg.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	msg.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	msg.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(textBody)
	msg.WriteString("\r\n")

	// HTML part
	msg.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)
	msg.WriteString("\r\n")

	msg.WriteString(fmt.Sprintf("--%s--\r\n", boundary))
	return msg.String()
}

// sendMail handles SMTP communication
func (s *EmailService) sendMail(to []string, subject, htmlBody, textBody string) error {
	msg := s.buildMessage(to, subject, htmlBody, textBody)
	addr := fmt.Sprintf("%s:%d", s.smtp.Host, s.smtp.Port)

	var auth smtp.Auth
	if s.smtp.User != "" && s.smtp.Password != "" {
		auth = smtp.PlainAuth("", s.smtp.User, s.smtp.Password, s.smtp.Host)
	}

	// Port 465 uses implicit TLS, everything else STARTTLS when offered
	if s.smtp.Port == 465 {
		conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.smtp.Host})
		if err != nil {
			return fmt.Errorf("failed to connect to SMTP server: %w", err)
		}
		client, err := smtp.NewClient(conn, s.smtp.Host)
		if err != nil {
			conn.Close()
			return fmt.Errorf("failed to create SMTP client: %w", err)
		}
		return s.deliver(client, auth, to, msg)
	}

	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	if ok, _ := client.Extension("STARTTLS"); ok {
		if err = client.StartTLS(&tls.Config{ServerName: s.smtp.Host}); err != nil {
			client.Close()
			return fmt.Errorf("STARTTLS failed: %w", err)
		}
	}
	return s.deliver(client, auth, to, msg)
}

func (s *EmailService) deliver(client *smtp.Client, auth smtp.Auth, to []string, msg string) error {
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(s.smtp.FromAddr); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}

	for _, recipient := range to {
		if err := client.Rcpt(recipient); err != nil {
			return fmt.Errorf("failed to set recipient %s: %w", recipient, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data writer: %w", err)
	}

	if _, err = w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("failed to write email body: %w", err)
	}

	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	return client.Quit()
}
