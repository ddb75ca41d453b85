package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"time"
)

// SMTPConfig holds the outgoing mail server settings
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// SMTPChannel sends plain text mail directly. With an empty Host it logs and
// skips the send.
type SMTPChannel struct {
	cfg        SMTPConfig
	maxRetries int
	backoff    time.Duration
	logger     *slog.Logger
	sendMail   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

type SMTPOption func(*SMTPChannel)

// WithRetries sets how many attempts are made, waiting backoff, 2*backoff, ...
// between them.
func WithRetries(attempts int, backoff time.Duration) SMTPOption {
	return func(c *SMTPChannel) {
		if attempts > 0 {
			c.maxRetries = attempts
		}
		c.backoff = backoff
	}
}

func WithSMTPLogger(l *slog.Logger) SMTPOption {
	return func(c *SMTPChannel) {
		if l != nil {
			c.logger = l
		}
	}
}

func NewSMTPChannel(cfg SMTPConfig, opts ...SMTPOption) *SMTPChannel {
	c := &SMTPChannel{
		cfg:        cfg,
		maxRetries: 1,
		backoff:    time.Second,
		logger:     slog.Default(),
		sendMail:   smtp.SendMail,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether a server host is set
func (c *SMTPChannel) Configured() bool {
	return c.cfg.Host != ""
}

func (c *SMTPChannel) Send(ctx context.Context, msg Message) error {
	// Skip sending if SMTP is not configured
	if !c.Configured() {
		c.logger.Warn("SMTP not configured, skipping email send", "to", msg.To, "subject", msg.Subject)
		return nil
	}

	from := c.cfg.From
	headers := fmt.Sprintf("From: %s <%s>\r\n", c.cfg.FromName, from)
	headers += fmt.Sprintf("To: %s\r\n", msg.To)
	headers += fmt.Sprintf("Subject: %s\r\n", msg.Subject)
	headers += "MIME-Version: 1.0\r\n"
	headers += "Content-Type: text/plain; charset=\"UTF-8\"\r\n"
	headers += "\r\n"
	body := []byte(headers + msg.Body)

	var auth smtp.Auth
	if c.cfg.Username != "" {
		auth = smtp.PlainAuth("", c.cfg.Username, c.cfg.Password, c.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%d", c.cfg.Host, c.cfg.Port)

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		err := c.sendMail(addr, auth, from, []string{msg.To}, body)
		if err == nil {
			c.logger.Info("email sent", "to", msg.To, "subject", msg.Subject, "attempt", attempt)
			return nil
		}

		lastErr = err
		c.logger.Error("failed to send email",
			"to", msg.To,
			"attempt", attempt,
			"max_retries", c.maxRetries,
			"err", err,
		)

		if attempt < c.maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff << (attempt - 1)):
			}
		}
	}

	return fmt.Errorf("failed to send email after %d attempts: %w", c.maxRetries, lastErr)
}
