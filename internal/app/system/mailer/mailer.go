// internal/app/system/mailer/mailer.go
package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Email is one outbound message.
type Email struct {
	To       string
	FromName string
	Subject  string
	HTMLBody string
	TextBody string
}

// Sender delivers an Email.
type Sender interface {
	Send(ctx context.Context, e Email) error
}

// SMTPConfig holds the SMTP relay settings.
type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string // envelope From address
}

// Configured reports whether enough is set to attempt delivery.
func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.From != ""
}

// SMTPSender sends mail through an SMTP relay with gomail.
type SMTPSender struct {
	cfg SMTPConfig
	log *zap.Logger
}

// NewSMTPSender builds an SMTP sender.
func NewSMTPSender(cfg SMTPConfig, logger *zap.Logger) *SMTPSender {
	return &SMTPSender{cfg: cfg, log: logger}
}

// Send delivers e. gomail has no context support, so ctx is only checked
// before dialing.
func (s *SMTPSender) Send(ctx context.Context, e Email) error {
	if strings.TrimSpace(e.To) == "" {
		return errors.New("mailer: empty recipient")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.cfg.From, e.FromName)
	m.SetHeader("To", e.To)
	m.SetHeader("Subject", e.Subject)
	if e.TextBody != "" {
		m.SetBody("text/plain", e.TextBody)
		m.AddAlternative("text/html", e.HTMLBody)
	} else {
		m.SetBody("text/html", e.HTMLBody)
	}

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.User, s.cfg.Pass)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	s.log.Info("email sent", zap.String("to", e.To), zap.String("subject", e.Subject))
	return nil
}

// LogSender logs messages instead of sending them. It is used in dev
// when no SMTP relay is configured.
type LogSender struct {
	log *zap.Logger
}

// NewLogSender returns a LogSender.
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{log: logger}
}

// Send logs e and reports success.
func (s *LogSender) Send(_ context.Context, e Email) error {
	s.log.Info("email not sent (no SMTP configured)",
		zap.String("to", e.To),
		zap.String("subject", e.Subject),
		zap.String("text", e.TextBody))
	return nil
}

// New picks the SMTP sender when cfg is usable and the log sender otherwise.
func New(cfg SMTPConfig, logger *zap.Logger) Sender {
	if cfg.Configured() {
		return NewSMTPSender(cfg, logger)
	}
	logger.Warn("SMTP not configured; verification emails will only be logged")
	return NewLogSender(logger)
}
