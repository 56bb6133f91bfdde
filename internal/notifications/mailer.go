package notifications

import (
	"context"
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"github.com/resinriver/storefront/pkg/config"
	"github.com/resinriver/storefront/pkg/logger"
)

// Message is a rendered email ready for delivery.
type Message struct {
	To        string
	Subject   string
	PlainBody string
	HTMLBody  string
}

// Mailer delivers rendered messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer sends multipart (plain + html) email through an SMTP relay.
type SMTPMailer struct {
	from   string
	dialer dialer
}

// NewSMTPMailer configures a gomail dialer from the email settings.
func NewSMTPMailer(cfg config.EmailConfig) (*SMTPMailer, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("smtp host required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("from address required")
	}
	d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	d.SSL = cfg.SMTPSSL
	return &SMTPMailer{from: cfg.From, dialer: d}, nil
}

func (m *SMTPMailer) Send(_ context.Context, msg Message) error {
	out := gomail.NewMessage()
	out.SetHeader("From", m.from)
	out.SetHeader("To", msg.To)
	out.SetHeader("Subject", msg.Subject)
	out.SetBody("text/plain", msg.PlainBody)
	if msg.HTMLBody != "" {
		out.AddAlternative("text/html", msg.HTMLBody)
	}
	if err := m.dialer.DialAndSend(out); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// LogMailer writes messages to the log instead of sending them. Used when no
// SMTP relay is configured.
type LogMailer struct {
	logg *logger.Logger
}

func NewLogMailer(logg *logger.Logger) *LogMailer {
	if logg == nil {
		logg = logger.Nop()
	}
	return &LogMailer{logg: logg}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	ctx = m.logg.WithFields(ctx, map[string]any{
		"to":      msg.To,
		"subject": msg.Subject,
	})
	m.logg.Info(ctx, "email.logged")
	return nil
}

// NewMailer picks the SMTP mailer when a relay is configured and the log
// mailer otherwise.
func NewMailer(cfg config.EmailConfig, logg *logger.Logger) (Mailer, error) {
	if !cfg.Enabled() {
		return NewLogMailer(logg), nil
	}
	return NewSMTPMailer(cfg)
}
