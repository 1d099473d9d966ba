package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/mattraynor/fundraiser-api/internal/config"
)

// Sender delivers a single email. The SMTP implementation below is the
// production transport; tests substitute their own.
type Sender interface {
	Send(to, subject, htmlBody, textBody string) error
}

type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(conf *config.SMTPConfig) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(conf.Host, conf.Port, conf.Username, conf.Password),
		from:   conf.FromEmail,
	}
}

func (s *SMTPSender) Send(to, subject, htmlBody, textBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", textBody)
	m.AddAlternative("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("dialer.DialAndSend -> %w", err)
	}

	return nil
}
