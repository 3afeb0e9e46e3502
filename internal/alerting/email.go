package alerting

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

// EmailOptions configure the SMTP channel.
type EmailOptions struct {
	From     string
	To       string
	SMTPHost string
	SMTPPort int
	Username string
	Password string
}

// EmailNotifier sends plaintext mail over SMTP. gomail upgrades the
// connection with STARTTLS when the server offers it, which matches the
// usual port-587 setup.
type EmailNotifier struct {
	opts   EmailOptions
	dialer *gomail.Dialer
	logger zerolog.Logger
}

// NewEmailNotifier constructs the email channel.
func NewEmailNotifier(opts EmailOptions, logger zerolog.Logger) *EmailNotifier {
	if opts.SMTPHost == "" {
		opts.SMTPHost = "smtp.gmail.com"
	}
	if opts.SMTPPort == 0 {
		opts.SMTPPort = 587
	}
	username := opts.Username
	if username == "" {
		username = opts.From
	}

	return &EmailNotifier{
		opts:   opts,
		dialer: gomail.NewDialer(opts.SMTPHost, opts.SMTPPort, username, opts.Password),
		logger: logger.With().Str("component", "alert_email").Logger(),
	}
}

// Name implements Notifier.
func (n *EmailNotifier) Name() string { return "email" }

// Notify sends one message. gomail has no context support; the SMTP dial
// carries its own timeouts.
func (n *EmailNotifier) Notify(_ context.Context, note Notification) error {
	m := gomail.NewMessage()
	m.SetHeader("From", n.opts.From)
	m.SetHeader("To", n.opts.To)
	m.SetHeader("Subject", note.Title)

	body := note.Message
	if note.URL != "" {
		body += "\n\n" + note.URL
	}
	m.SetBody("text/plain", body)

	if err := n.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

var _ Notifier = (*EmailNotifier)(nil)
