package service

import (
	"fmt"
	"net/smtp"
	"strings"

	"petmarket/config"
	"petmarket/internal/models"
	"petmarket/internal/util"

	"go.uber.org/zap"
)

// Mailer delivers notification emails over SMTP. With no credentials
// configured it logs the mail instead of sending, so development runs do not
// need a mail server.
type Mailer struct {
	cfg    config.SMTP
	logger *zap.Logger
}

// NewMailer creates a new mailer
func NewMailer(cfg config.SMTP) *Mailer {
	m := &Mailer{cfg: cfg, logger: util.GetLogger()}
	if cfg.User == "" {
		m.logger.Warn("SMTP not configured, emails will be logged instead of sent")
	}
	return m
}

// SendTicketReceipt mails the purchase receipt for an issued ticket
func (m *Mailer) SendTicketReceipt(event *models.TicketIssuedEvent) error {
	status := "completed"
	if !event.Completed {
		status = "partially completed"
	}
	body := fmt.Sprintf(
		"Your purchase is %s.\r\nTicket code: %s\r\nTotal: %d\r\nLine items: %d\r\n",
		status, event.Code, event.Amount, len(event.Items))
	return m.send(event.Purchaser, "Your Pet Market purchase receipt", body)
}

// SendPasswordReset mails the reset link
func (m *Mailer) SendPasswordReset(event *models.PasswordResetRequestedEvent) error {
	body := fmt.Sprintf(
		"A password reset was requested for this account.\r\n"+
			"Follow this link within one hour: %s\r\n"+
			"If you did not request it, ignore this email.\r\n",
		event.ResetURL)
	return m.send(event.Email, "Password reset", body)
}

// SendWelcome mails the registration greeting
func (m *Mailer) SendWelcome(event *models.UserRegisteredEvent) error {
	body := fmt.Sprintf("Hi %s,\r\n\r\nWelcome to Pet Market! Your account is ready.\r\n", event.FirstName)
	return m.send(event.Email, "Welcome to Pet Market", body)
}

func (m *Mailer) send(to, subject, body string) error {
	if m.cfg.User == "" {
		m.logger.Info("Email suppressed (SMTP not configured)",
			zap.String("to", to),
			zap.String("subject", subject))
		return nil
	}

	msg := strings.Join([]string{
		fmt.Sprintf("From: %s", m.cfg.From),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%s", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	if err := smtp.SendMail(addr, auth, m.cfg.User, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}
