package services

import (
	"context"
	"errors"
	"fmt"

	"lawyer_site_go/config"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

// Email represents an email message
type Email struct {
	To       []string
	ReplyTo  string
	Subject  string
	HTMLBody string
	TextBody string
}

var (
	ErrNoRecipients = errors.New("email has no recipients")
	ErrEmptyBody    = errors.New("email must have either HTMLBody or TextBody")
)

func (e *Email) check() error {
	if len(e.To) == 0 {
		return ErrNoRecipients
	}
	if e.HTMLBody == "" && e.TextBody == "" {
		return ErrEmptyBody
	}
	return nil
}

// Mailer delivers an email and returns the provider's message id, which may
// be empty when the provider does not report one.
type Mailer interface {
	Send(ctx context.Context, email *Email) (string, error)
	Provider() string
}

// NewMailer picks the implementation named by cfg.EmailProvider. In test
// mode every provider is replaced by a LogMailer.
func NewMailer(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (Mailer, error) {
	if cfg.EmailTestMode {
		return NewLogMailer(log), nil
	}

	switch cfg.EmailProvider {
	case "", "resend":
		return NewResendMailer(cfg.ResendAPIKey, cfg.EmailFromName, cfg.EmailFrom, log)
	case "sendgrid":
		return NewSendGridMailer(cfg.SendGridAPIKey, cfg.EmailFromName, cfg.EmailFrom, log)
	case "ses":
		return NewSESMailer(ctx, SESOptions{
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.SESAccessKeyID,
			SecretAccessKey: cfg.SESSecretKey,
			FromName:        cfg.EmailFromName,
			FromEmail:       cfg.EmailFrom,
		}, log)
	}
	return nil, fmt.Errorf("unknown email provider %q", cfg.EmailProvider)
}

func fromAddress(name, email string) string {
	if name == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", name, email)
}

// ResendMailer sends through the Resend API.
type ResendMailer struct {
	client *resend.Client
	from   string
	log    *zap.SugaredLogger
}

func NewResendMailer(apiKey, fromName, fromEmail string, log *zap.SugaredLogger) (*ResendMailer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("RESEND_API_KEY not configured")
	}
	return &ResendMailer{
		client: resend.NewClient(apiKey),
		from:   fromAddress(fromName, fromEmail),
		log:    log,
	}, nil
}

func (m *ResendMailer) Provider() string { return "resend" }

func (m *ResendMailer) Send(ctx context.Context, email *Email) (string, error) {
	if err := email.check(); err != nil {
		return "", err
	}

	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      email.To,
		Subject: email.Subject,
		Html:    email.HTMLBody,
		Text:    email.TextBody,
		ReplyTo: email.ReplyTo,
	}

	sent, err := m.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to send email via Resend: %w", err)
	}

	m.log.Infow("email sent", "provider", "resend", "id", sent.Id, "subject", email.Subject)
	return sent.Id, nil
}

// LogMailer logs a summary of the email instead of sending it. It is used
// while EMAIL_TEST_MODE is on.
type LogMailer struct {
	log *zap.SugaredLogger
}

func NewLogMailer(log *zap.SugaredLogger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Provider() string { return "log" }

func (m *LogMailer) Send(_ context.Context, email *Email) (string, error) {
	if err := email.check(); err != nil {
		return "", err
	}

	replyTo := ""
	if email.ReplyTo != "" {
		replyTo = MaskEmail(email.ReplyTo)
	}
	// bodies carry the visitor's contact details and are never logged
	m.log.Infow("email not sent (test mode)",
		"to", email.To,
		"reply_to", replyTo,
		"subject", email.Subject,
		"text_bytes", len(email.TextBody),
		"html_bytes", len(email.HTMLBody),
	)
	return "", nil
}

var (
	_ Mailer = (*ResendMailer)(nil)
	_ Mailer = (*LogMailer)(nil)
)
