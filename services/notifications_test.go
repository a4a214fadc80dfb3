package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	calls int
	to    string
	name  string
	text  string
	err   error
}

func (r *recordingSender) Send(toEmail, recipientName, replyText string) error {
	r.calls++
	r.to = toEmail
	r.name = recipientName
	r.text = replyText
	return r.err
}

func TestSendReplyNotification(t *testing.T) {
	sender := &recordingSender{}
	svc := &NotificationService{Sender: sender}

	svc.SendReplyNotification("u1@x.com", "U1", "thanks!")
	require.Equal(t, 1, sender.calls)
	require.Equal(t, "u1@x.com", sender.to)
	require.Equal(t, "U1", sender.name)
	require.Equal(t, "thanks!", sender.text)
}

func TestSendReplyNotificationSkipsEmptyAddress(t *testing.T) {
	sender := &recordingSender{}
	svc := &NotificationService{Sender: sender}

	svc.SendReplyNotification("", "U1", "thanks!")
	require.Equal(t, 0, sender.calls)
}

func TestSendReplyNotificationSwallowsErrors(t *testing.T) {
	// Delivery failures are logged and dropped; the call must not panic or
	// propagate anything to the reply handler.
	sender := &recordingSender{err: errors.New("smtp down")}
	svc := &NotificationService{Sender: sender}

	svc.SendReplyNotification("u1@x.com", "U1", "thanks!")
	require.Equal(t, 1, sender.calls)
}

func TestSMTPSenderDefaults(t *testing.T) {
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_PORT", "")
	t.Setenv("EMAIL_USER", "pete@example.com")
	t.Setenv("EMAIL_PASS", "hunter2")

	s := newSMTPSender()
	require.Equal(t, "smtp.example.com:587", s.addr)
	require.Equal(t, "pete@example.com", s.from)
	require.NotNil(t, s.auth)
}
