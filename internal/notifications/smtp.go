package notifications

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/vinothini1803/rsa-crm-master-service-sub003/internal/config"
)

// SMTPSender delivers messages over SMTP. A disabled email config makes
// every Send a silent no-op so development environments need no mail server.
type SMTPSender struct {
	cfg *config.EmailConfig
}

// NewSMTPSender creates an SMTP-backed sender.
func NewSMTPSender(cfg *config.EmailConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

// Send assembles and delivers the message.
func (s *SMTPSender) Send(_ context.Context, msg Message) error {
	if s.cfg == nil || !s.cfg.Enabled {
		return nil
	}
	if len(msg.Recipients) == 0 {
		return fmt.Errorf("no recipients specified")
	}

	fromHeader := s.cfg.From
	if fromHeader == "" {
		fromHeader = s.cfg.SMTP.User
	}

	var headers []string
	headers = append(headers, fmt.Sprintf("From: %s", fromHeader))
	headers = append(headers, fmt.Sprintf("To: %s", strings.Join(msg.Recipients, ", ")))
	headers = append(headers, fmt.Sprintf("Subject: %s", msg.Subject))
	headers = append(headers, fmt.Sprintf("X-Case-ID: %d", msg.CaseID))
	headers = append(headers, fmt.Sprintf("X-Template: %s", msg.TemplateKey))
	headers = append(headers, "Content-Type: text/plain; charset=UTF-8")

	message := strings.Join(headers, "\r\n") + "\r\n\r\n" + msg.Body

	client, err := s.dial()
	if err != nil {
		return err
	}
	defer client.Close()

	if err := s.authenticate(client); err != nil {
		return err
	}

	sender := fromHeader
	if sender == "" {
		sender = "noreply@localhost"
	}
	if err := client.Mail(sender); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	for _, to := range msg.Recipients {
		if err := client.Rcpt(to); err != nil {
			return fmt.Errorf("failed to set recipient %s: %w", to, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to initiate data transfer: %w", err)
	}
	if _, err := w.Write([]byte(message)); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data transfer: %w", err)
	}

	if err := client.Quit(); err != nil {
		return fmt.Errorf("failed to quit SMTP session: %w", err)
	}
	return nil
}

func (s *SMTPSender) dial() (*smtp.Client, error) {
	addr := s.cfg.SMTP.Host + ":" + strconv.Itoa(s.cfg.SMTP.Port)

	if s.cfg.SMTP.TLS {
		conn, err := tls.Dial("tcp", addr, &tls.Config{
			ServerName:         s.cfg.SMTP.Host,
			InsecureSkipVerify: s.cfg.SMTP.SkipVerify,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect via SMTPS: %w", err)
		}
		client, err := smtp.NewClient(conn, s.cfg.SMTP.Host)
		if err != nil {
			return nil, fmt.Errorf("failed to create SMTP client: %w", err)
		}
		return client, nil
	}

	client, err := smtp.Dial(addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	return client, nil
}

func (s *SMTPSender) authenticate(client *smtp.Client) error {
	if s.cfg.SMTP.User == "" || s.cfg.SMTP.Password == "" {
		return nil
	}
	auth := smtp.PlainAuth("", s.cfg.SMTP.User, s.cfg.SMTP.Password, s.cfg.SMTP.Host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}
	return nil
}
