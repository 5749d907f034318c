// Package mailer sends transactional emails over SMTP.
package mailer

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	gomail "gopkg.in/gomail.v2"

	"focustask/internal/config"
)

// Sender delivers notification emails. Implementations must be safe for
// concurrent use.
type Sender interface {
	SendNotificationsEnabled(to, username string) error
	SendNotificationsDisabled(to, username string) error
}

// SMTPSender sends emails through a configured SMTP relay.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSender builds a sender from the SMTP config. When no host is
// configured a no-op sender is returned and emails are silently skipped.
func NewSender(cfg config.SMTPConfig) Sender {
	if cfg.Host == "" {
		return noopSender{}
	}
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   from,
	}
}

// SendNotificationsEnabled emails the activation confirmation.
func (s *SMTPSender) SendNotificationsEnabled(to, username string) error {
	subject := "FocusTask - Notifications activées"
	body := fmt.Sprintf(
		"Bonjour %s,\n\nLes notifications par email sont désormais activées sur votre compte FocusTask. Vous recevrez un rappel quotidien pour vos tâches.\n\nÀ bientôt,\nL'équipe FocusTask",
		username,
	)
	return s.send(to, subject, body)
}

// SendNotificationsDisabled emails the deactivation confirmation.
func (s *SMTPSender) SendNotificationsDisabled(to, username string) error {
	subject := "FocusTask - Notifications désactivées"
	body := fmt.Sprintf(
		"Bonjour %s,\n\nLes notifications par email ont été désactivées sur votre compte FocusTask. Vous ne recevrez plus de rappel quotidien.\n\nÀ bientôt,\nL'équipe FocusTask",
		username,
	)
	return s.send(to, subject, body)
}

func (s *SMTPSender) send(to, subject, body string) error {
	message := gomail.NewMessage()
	message.SetHeader("From", s.from)
	message.SetHeader("To", to)
	message.SetHeader("Subject", subject)
	message.SetBody("text/plain", body)
	if errSend := s.dialer.DialAndSend(message); errSend != nil {
		return fmt.Errorf("mailer: send to %s: %w", to, errSend)
	}
	return nil
}

// noopSender drops emails when SMTP is not configured.
type noopSender struct{}

func (noopSender) SendNotificationsEnabled(to, _ string) error {
	log.WithField("to", to).Debug("smtp not configured, skipping activation email")
	return nil
}

func (noopSender) SendNotificationsDisabled(to, _ string) error {
	log.WithField("to", to).Debug("smtp not configured, skipping deactivation email")
	return nil
}
