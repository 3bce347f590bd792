// Package mail delivers notifications over SMTP.
package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Config is an SMTP relay account.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string

	// Timeout bounds one delivery when the context has no earlier deadline.
	Timeout time.Duration
}

// SMTPSender sends plain-text mail through one relay. It satisfies both the
// assignment notifier and the dispatcher sink.
type SMTPSender struct {
	cfg Config
	now func() time.Time
}

// NewSMTPSender validates cfg and returns a sender.
func NewSMTPSender(cfg Config) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, errors.New("mail: host is required")
	}
	if cfg.From == "" {
		return nil, errors.New("mail: from address is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &SMTPSender{cfg: cfg, now: time.Now}, nil
}

// Send delivers one message. STARTTLS is used when the relay offers it, and
// credentials are only sent when a username is configured.
func (s *SMTPSender) Send(ctx context.Context, recipient, subject, body string) error {
	if strings.ContainsAny(recipient, "\r\n") {
		return fmt.Errorf("mail: invalid recipient %q", recipient)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("mail: dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("mail: handshake: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
			return fmt.Errorf("mail: starttls: %w", err)
		}
	}
	if s.cfg.Username != "" {
		auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("mail: auth: %w", err)
		}
	}

	if err := c.Mail(s.cfg.From); err != nil {
		return fmt.Errorf("mail: sender rejected: %w", err)
	}
	if err := c.Rcpt(recipient); err != nil {
		return fmt.Errorf("mail: recipient rejected: %w", err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("mail: data: %w", err)
	}
	if _, err := w.Write(compose(s.cfg.From, recipient, subject, body, s.now())); err != nil {
		w.Close()
		return fmt.Errorf("mail: write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("mail: message rejected: %w", err)
	}
	return c.Quit()
}

// compose renders an RFC 5322 message with CRLF line endings.
func compose(from, to, subject, body string, at time.Time) []byte {
	var b strings.Builder
	header := func(k, v string) {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteString("\r\n")
	}
	header("From", from)
	header("To", to)
	header("Subject", mime.QEncoding.Encode("utf-8", subject))
	header("Date", at.Format(time.RFC1123Z))
	header("Message-ID", "<"+uuid.NewString()+"@awe>")
	header("MIME-Version", "1.0")
	header("Content-Type", `text/plain; charset="utf-8"`)
	header("Content-Transfer-Encoding", "8bit")
	b.WriteString("\r\n")

	body = strings.ReplaceAll(body, "\r\n", "\n")
	for line := range strings.SplitSeq(body, "\n") {
		// Dot-stuffing is done by the smtp data writer.
		b.WriteString(line)
		b.WriteString("\r\n")
	}
	return []byte(b.String())
}

// LogSender writes messages to the log instead of sending them. Used when no
// relay is configured.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender returns a sender that logs through logger, or slog.Default when nil.
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, recipient, subject, body string) error {
	s.logger.InfoContext(ctx, "mail not sent, no relay configured",
		"recipient", recipient,
		"subject", subject,
		"body_bytes", len(body))
	return nil
}
