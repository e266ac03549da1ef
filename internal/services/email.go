package services

import (
	"fmt"
	"net/smtp"
	"os"
)

// EmailService sends plain-text mail over SMTP. Configuration comes from
// the environment; an unconfigured service fails fast so callers can treat
// delivery as best effort.
type EmailService struct {
	host     string
	port     string
	user     string
	password string
	from     string
}

func NewEmailService() *EmailService {
	return &EmailService{
		host:     os.Getenv("SMTP_HOST"),
		port:     os.Getenv("SMTP_PORT"),
		user:     os.Getenv("SMTP_USER"),
		password: os.Getenv("SMTP_PASS"),
		from:     os.Getenv("EMAIL_FROM"),
	}
}

// Configured reports whether every SMTP setting is present
func (s *EmailService) Configured() bool {
	return s.host != "" && s.port != "" && s.user != "" && s.password != "" && s.from != ""
}

func (s *EmailService) SendEmail(to []string, subject, body string) error {
	if !s.Configured() {
		return fmt.Errorf("SMTP credentials not fully configured")
	}

	auth := smtp.PlainAuth("", s.user, s.password, s.host)

	message := []byte(fmt.Sprintf("To: %s\r\n"+
		"Subject: %s\r\n"+
		"\r\n"+
		"%s\r\n", to[0], subject, body))

	addr := fmt.Sprintf("%s:%s", s.host, s.port)

	if err := smtp.SendMail(addr, auth, s.from, to, message); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
