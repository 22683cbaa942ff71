package mail

import (
	"fmt"
	"net/smtp"

	"github.com/electroegy/electroegy-backend/config"
	"github.com/electroegy/electroegy-backend/pkg/logger"
)

// Sender delivers transactional email. Implementations must be safe for
// concurrent use; checkout and cancellation call Send from goroutines.
type Sender interface {
	Send(to, subject, body string) error
}

type smtpSender struct {
	cfg config.SMTPConfig
}

// NewSender returns an SMTP-backed sender. When no SMTP credentials are
// configured it falls back to logging the message, so development setups
// work without a mail account.
func NewSender(cfg config.SMTPConfig) Sender {
	return &smtpSender{cfg: cfg}
}

func (s *smtpSender) Send(to, subject, body string) error {
	if s.cfg.Email == "" || s.cfg.Password == "" {
		logger.Info("[DEV MODE] Email not sent, logging instead", map[string]interface{}{
			"to":      to,
			"subject": subject,
			"body":    body,
		})
		return nil
	}

	message := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/plain; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		s.cfg.From, to, subject, body,
	))

	auth := smtp.PlainAuth("", s.cfg.Email, s.cfg.Password, s.cfg.Host)
	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)

	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, message); err != nil {
		logger.Error("Failed to send email", err, map[string]interface{}{
			"to":      to,
			"subject": subject,
		})
		return err
	}

	logger.Debug("Email sent", map[string]interface{}{
		"to":      to,
		"subject": subject,
	})
	return nil
}

// SendAsync fires the send on a goroutine and swallows the error. Order
// notification flows must never fail or delay the triggering request
// because of mail trouble.
func SendAsync(s Sender, to, subject, body string) {
	go func() {
		if err := s.Send(to, subject, body); err != nil {
			logger.Warn("Async email delivery failed", map[string]interface{}{
				"to":      to,
				"subject": subject,
				"error":   err.Error(),
			})
		}
	}()
}
