package email

import (
	"bytes"
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Config содержит настройки SMTP отправки
type Config struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// SMTPSender отправляет продукт покупателю по SMTP с PDF вложением
type SMTPSender struct {
	logger *zap.Logger
	cfg    Config
}

// NewSMTPSender создаёт новый SMTP sender
func NewSMTPSender(logger *zap.Logger, cfg Config) *SMTPSender {
	return &SMTPSender{
		logger: logger,
		cfg:    cfg,
	}
}

// Send отправляет письмо с HTML телом и вложением.
// Порт 465 - implicit TLS, остальные порты - обязательный STARTTLS.
func (s *SMTPSender) Send(ctx context.Context, to, subject, htmlBody, filename string, attachment []byte) error {
	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)
	if err := msg.AttachReader(filename, bytes.NewReader(attachment)); err != nil {
		return fmt.Errorf("failed to attach product: %w", err)
	}

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.User),
		mail.WithPassword(s.cfg.Pass),
	}
	if s.cfg.Port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Debug("product email sent",
		zap.String("to", to),
		zap.String("filename", filename),
	)
	return nil
}

// NoOpSender - no-op реализация ProductSender (для тестов или когда email отключён)
type NoOpSender struct {
	logger *zap.Logger
}

// NewNoOpSender создаёт no-op sender
func NewNoOpSender(logger *zap.Logger) *NoOpSender {
	return &NoOpSender{
		logger: logger,
	}
}

// Send ничего не отправляет, только логирует
func (s *NoOpSender) Send(ctx context.Context, to, subject, htmlBody, filename string, attachment []byte) error {
	s.logger.Info("no-op sender: email not sent",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("filename", filename),
		zap.Int("attachment_size", len(attachment)),
	)
	return nil
}
