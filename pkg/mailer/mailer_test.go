package mailer

import (
	"context"
	"errors"
	"mime"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/SadmanHussainChowdhury/community-complaint-api/pkg/config"
)

func newTestSender(send sendFunc) *SMTPSender {
	s := NewSMTPSender(config.NotificationConfig{SMTPHost: "relay", SMTPPort: 2525, From: "desk@community.local"})
	s.send = send
	return s
}

func TestSMTPSenderSend(t *testing.T) {
	var gotAddr string
	var gotTo []string
	var gotMsg string
	s := newTestSender(func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		return nil
	})

	err := s.Send(context.Background(), Message{To: "r@example.com", Subject: "Hello", Body: "body"})
	require.NoError(t, err)
	assert.Equal(t, "relay:2525", gotAddr)
	assert.Equal(t, []string{"r@example.com"}, gotTo)
	assert.True(t, strings.HasPrefix(gotMsg, "From: desk@community.local\r\n"))
	assert.Contains(t, gotMsg, "Subject: Hello\r\n")
	assert.True(t, strings.HasSuffix(gotMsg, "\r\n\r\nbody"))
}

func TestSMTPSenderKeepsTitleOutOfHeaders(t *testing.T) {
	var gotMsg string
	s := newTestSender(func(_ string, _ smtp.Auth, _ string, _ []string, msg []byte) error {
		gotMsg = string(msg)
		return nil
	})
	tpl := NewTemplates().MustRegister("status", `Complaint "{{.title}}" is now {{.status}}`, "Status changed.")
	msg, err := tpl.Render("status", "r@example.com", map[string]any{
		"title":  "Leak\r\nBcc: attacker@evil.test\r\n\r\nforged body",
		"status": "resolved",
	})
	require.NoError(t, err)

	require.NoError(t, s.Send(context.Background(), msg))
	headers, body, found := strings.Cut(gotMsg, "\r\n\r\n")
	require.True(t, found)
	assert.Equal(t, "Status changed.", body)
	assert.NotContains(t, headers, "\r\nBcc:")
	assert.Contains(t, headers, "Subject: Complaint \"Leak Bcc: attacker@evil.test forged body\" is now resolved\r\n")
}

func TestSMTPSenderEncodesNonASCIISubject(t *testing.T) {
	var gotMsg string
	s := newTestSender(func(_ string, _ smtp.Auth, _ string, _ []string, msg []byte) error {
		gotMsg = string(msg)
		return nil
	})

	require.NoError(t, s.Send(context.Background(), Message{To: "r@example.com", Subject: "Fuite d'eau à l'étage", Body: "body"}))
	var subject string
	for _, line := range strings.Split(gotMsg, "\r\n") {
		if v, ok := strings.CutPrefix(line, "Subject: "); ok {
			subject = v
		}
	}
	assert.True(t, strings.HasPrefix(subject, "=?utf-8?q?"))
	decoded, err := new(mime.WordDecoder).DecodeHeader(subject)
	require.NoError(t, err)
	assert.Equal(t, "Fuite d'eau à l'étage", decoded)
}

func TestSMTPSenderRejectsMultilineRecipient(t *testing.T) {
	s := newTestSender(func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("send must not be called")
		return nil
	})
	err := s.Send(context.Background(), Message{To: "r@example.com\r\nBcc: attacker@evil.test"})
	require.ErrorIs(t, err, ErrInvalidRecipient)
}

func TestSMTPSenderRequiresRecipient(t *testing.T) {
	s := newTestSender(func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("send must not be called")
		return nil
	})
	require.ErrorIs(t, s.Send(context.Background(), Message{}), ErrNoRecipient)
}

func TestSMTPSenderWrapsRelayError(t *testing.T) {
	relayErr := errors.New("421 service not available")
	s := newTestSender(func(string, smtp.Auth, string, []string, []byte) error { return relayErr })
	require.ErrorIs(t, s.Send(context.Background(), Message{To: "r@example.com"}), relayErr)
}

func TestSMTPSenderHonoursContextWhileThrottled(t *testing.T) {
	s := newTestSender(func(string, smtp.Auth, string, []string, []byte) error { return nil })
	s.limiter = rate.NewLimiter(rate.Limit(0.001), 1)
	require.NoError(t, s.Send(context.Background(), Message{To: "a@example.com"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, s.Send(ctx, Message{To: "b@example.com"}))
}

func TestTemplatesRender(t *testing.T) {
	tpl := NewTemplates().MustRegister("greet", "Hi {{.name}}", "Complaint {{.id}} is {{.status}}")

	msg, err := tpl.Render("greet", "x@example.com", map[string]any{"name": "Ana", "id": "c-1", "status": "resolved"})
	require.NoError(t, err)
	assert.Equal(t, "x@example.com", msg.To)
	assert.Equal(t, "Hi Ana", msg.Subject)
	assert.Equal(t, "Complaint c-1 is resolved", msg.Body)

	_, err = tpl.Render("missing", "x@example.com", nil)
	require.Error(t, err)
}

func TestLogSender(t *testing.T) {
	s := NewLogSender(nil)
	require.NoError(t, s.Send(context.Background(), Message{To: "x@example.com"}))
	require.ErrorIs(t, s.Send(context.Background(), Message{}), ErrNoRecipient)
}
