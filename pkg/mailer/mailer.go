package mailer

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/SadmanHussainChowdhury/community-complaint-api/pkg/config"
)

var (
	// ErrNoRecipient is returned when a message has no destination address.
	ErrNoRecipient = errors.New("mailer: recipient address required")
	// ErrInvalidRecipient is returned for addresses that would break the header block.
	ErrInvalidRecipient = errors.New("mailer: recipient address contains line breaks")
)

// Message is a rendered outbound notice.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers rendered messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender delivers messages through an SMTP relay, throttled by a token bucket.
type SMTPSender struct {
	addr    string
	from    string
	auth    smtp.Auth
	limiter *rate.Limiter
	send    sendFunc
}

// NewSMTPSender builds a sender for the configured relay.
func NewSMTPSender(cfg config.NotificationConfig) *SMTPSender {
	var auth smtp.Auth
	if cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost)
	}
	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &SMTPSender{
		addr:    fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		from:    cfg.From,
		auth:    auth,
		limiter: rate.NewLimiter(limit, burst),
		send:    smtp.SendMail,
	}
}

// Send waits for a rate token then hands the message to the relay.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return ErrNoRecipient
	}
	if strings.ContainsAny(msg.To, "\r\n") {
		return ErrInvalidRecipient
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("mailer: rate limit wait: %w", err)
	}
	if err := s.send(s.addr, s.auth, s.from, []string{msg.To}, s.encode(msg)); err != nil {
		return fmt.Errorf("mailer: send to %s: %w", msg.To, err)
	}
	return nil
}

func (s *SMTPSender) encode(msg Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + s.from + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + encodeSubject(msg.Subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(msg.Body)
	return []byte(b.String())
}

// encodeSubject folds the subject onto one line and RFC 2047 encodes it when it is
// not plain ASCII. Complaint titles are user input and end up here.
func encodeSubject(subject string) string {
	return mime.QEncoding.Encode("utf-8", strings.Join(strings.FieldsFunc(subject, isLineBreak), " "))
}

func isLineBreak(r rune) bool {
	return r == '\r' || r == '\n'
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender returns a sender suitable for development environments.
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

// Send logs the message.
func (s *LogSender) Send(_ context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return ErrNoRecipient
	}
	s.logger.Info("notification", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}
