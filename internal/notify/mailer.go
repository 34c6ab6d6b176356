package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/resend/resend-go/v3"
)

// Mailer renders and sends messages synchronously.
type Mailer struct {
	renderer *Renderer
	sender   Sender
}

var _ Dispatcher = (*Mailer)(nil)

// NewMailer creates a mailer.
func NewMailer(renderer *Renderer, sender Sender) *Mailer {
	return &Mailer{renderer: renderer, sender: sender}
}

// Dispatch renders msg and hands it to the sender.
func (m *Mailer) Dispatch(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	email, err := m.renderer.Render(msg)
	if err != nil {
		return err
	}
	if err := m.sender.Send(ctx, email); err != nil {
		return errors.Join(ErrSendFailed, err)
	}
	return nil
}

// ResendConfig holds Resend credentials and the sender address.
type ResendConfig struct {
	APIKey      string `env:"RESEND_API_KEY"`
	SenderEmail string `env:"RESEND_FROM_EMAIL" envDefault:"shop@example.com"`
	SenderName  string `env:"RESEND_FROM_NAME" envDefault:"E-Shop"`
}

// Enabled reports whether an API key is configured.
func (c ResendConfig) Enabled() bool {
	return c.APIKey != ""
}

// ResendSender delivers e-mails through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
}

// NewResendSender creates a sender for cfg.
func NewResendSender(cfg ResendConfig) *ResendSender {
	from := cfg.SenderEmail
	if cfg.SenderName != "" {
		from = fmt.Sprintf("%s <%s>", cfg.SenderName, cfg.SenderEmail)
	}
	return &ResendSender{client: resend.NewClient(cfg.APIKey), from: from}
}

func (s *ResendSender) Send(ctx context.Context, email *Email) error {
	_, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{email.To},
		Subject: email.Subject,
		Html:    email.HTML,
		Text:    email.Text,
	})
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	return nil
}

// LogSender writes e-mails to a logger instead of delivering them.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender. A nil logger discards everything.
func NewLogSender(l *slog.Logger) *LogSender {
	if l == nil {
		l = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &LogSender{logger: l}
}

func (s *LogSender) Send(ctx context.Context, email *Email) error {
	s.logger.InfoContext(ctx, "email",
		slog.String("to", email.To),
		slog.String("subject", email.Subject),
		slog.String("text", email.Text),
	)
	return nil
}
