package services

import (
	"fmt"
	"log"

	"gopkg.in/gomail.v2"

	"github.com/example/restoman/internal/config"
)

// Mailer dispatches one-time passcodes to customers. Delivery failures
// are independent of persistence: callers persist first, then report a
// failed dispatch distinctly.
type Mailer interface {
	SendOTP(to, subject, otp string) error
}

// SMTPMailer sends OTP emails over SMTP.
type SMTPMailer struct {
	host string
	port int
	user string
	pass string
	from string
}

// NewSMTPMailer creates an SMTPMailer from application config.
func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	return &SMTPMailer{
		host: cfg.SMTPHost,
		port: cfg.SMTPPort,
		user: cfg.SMTPUser,
		pass: cfg.SMTPPass,
		from: cfg.MailFrom,
	}
}

// SendOTP delivers a plaintext OTP message to the given address.
func (m *SMTPMailer) SendOTP(to, subject, otp string) error {
	if m.user == "" || m.pass == "" {
		return fmt.Errorf("mail transport is not configured, check SMTP_USER/SMTP_PASS")
	}

	from := m.from
	if from == "" {
		from = fmt.Sprintf("%q <%s>", "RestoM App", m.user)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", fmt.Sprintf("Your OTP is %s. It will expire in 10 minutes.", otp))

	dialer := gomail.NewDialer(m.host, m.port, m.user, m.pass)
	if err := dialer.DialAndSend(msg); err != nil {
		log.Printf("[Mail] failed to send OTP to %s: %v", to, err)
		return err
	}

	return nil
}
