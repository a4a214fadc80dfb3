package services

import (
	"crypto/tls"
	"fmt"
	"log"
	"net"
	"net/smtp"
	"os"
	"time"
)

// ReplySender delivers a reply-notification email. Implementations must be
// safe for concurrent use.
type ReplySender interface {
	Send(toEmail, recipientName, replyText string) error
}

// NotificationService handles reply email dispatch
type NotificationService struct {
	Sender ReplySender
}

// NewNotificationService creates a notification service backed by SMTP
func NewNotificationService() *NotificationService {
	return &NotificationService{Sender: newSMTPSender()}
}

// SendReplyNotification runs on its own goroutine: by the time it executes the
// reply write has already been acknowledged, so failures are logged and
// dropped, never retried.
func (ns *NotificationService) SendReplyNotification(toEmail, recipientName, replyText string) {
	if toEmail == "" {
		return
	}
	if err := ns.Sender.Send(toEmail, recipientName, replyText); err != nil {
		log.Printf("❌ EMAIL ERROR: reply notification to %s failed: %v", toEmail, err)
		return
	}
	log.Printf("📧 Reply notification email sent to: %s", toEmail)
}

type smtpSender struct {
	host    string
	addr    string
	from    string
	auth    smtp.Auth
	timeout time.Duration
}

func newSMTPSender() *smtpSender {
	host := os.Getenv("SMTP_HOST")
	port := os.Getenv("SMTP_PORT")
	if port == "" {
		port = "587"
	}
	user := os.Getenv("EMAIL_USER")
	pass := os.Getenv("EMAIL_PASS")

	var auth smtp.Auth
	if user != "" {
		auth = smtp.PlainAuth("", user, pass, host)
	}

	return &smtpSender{
		host:    host,
		addr:    net.JoinHostPort(host, port),
		from:    user,
		auth:    auth,
		timeout: 10 * time.Second,
	}
}

func (s *smtpSender) Send(toEmail, recipientName, replyText string) error {
	msg := fmt.Sprintf("From: \"Pizza Pete's 🍕\" <%s>\r\n", s.from) +
		fmt.Sprintf("To: %s\r\n", toEmail) +
		"Subject: You received a reply to your comment!\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"\r\n" +
		fmt.Sprintf("Hello %s,\r\n\r\n", recipientName) +
		"Someone just replied to your comment:\r\n\r\n" +
		fmt.Sprintf("%q\r\n\r\n", replyText) +
		"Visit the website to view the conversation.\r\n\r\n" +
		"Cheers!\r\nPizza Pete's 🍕 Team\r\n"

	conn, err := net.DialTimeout("tcp", s.addr, s.timeout)
	if err != nil {
		return err
	}
	// One deadline covers the whole SMTP conversation
	if err := conn.SetDeadline(time.Now().Add(s.timeout)); err != nil {
		conn.Close()
		return err
	}

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: s.host}); err != nil {
			return err
		}
	}
	if s.auth != nil {
		if err := client.Auth(s.auth); err != nil {
			return err
		}
	}
	if err := client.Mail(s.from); err != nil {
		return err
	}
	if err := client.Rcpt(toEmail); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}
