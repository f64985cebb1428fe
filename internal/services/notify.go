package services

import (
	"context"
	"fmt"
	"html"

	"devfolio-backend-go/internal/models"

	"gopkg.in/gomail.v2"
)

// Notifier tells the site owner about a new contact message.
type Notifier interface {
	NotifyContact(ctx context.Context, msg models.ContactMessage) error
}

type NopNotifier struct{}

func (NopNotifier) NotifyContact(context.Context, models.ContactMessage) error { return nil }

type MailNotifier struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	To       string
}

func (m MailNotifier) NotifyContact(_ context.Context, msg models.ContactMessage) error {
	message := gomail.NewMessage()
	message.SetHeader("From", m.From)
	message.SetHeader("To", m.To)
	message.SetHeader("Reply-To", msg.Email)
	message.SetHeader("Subject", "New contact message from "+msg.Name)
	message.SetBody("text/html", ContactMailBody(msg))

	dialer := gomail.NewDialer(m.Host, m.Port, m.User, m.Password)
	if err := dialer.DialAndSend(message); err != nil {
		return WrapError(err, "send contact notification")
	}
	return nil
}

func ContactMailBody(msg models.ContactMessage) string {
	return fmt.Sprintf("<p><strong>%s</strong> &lt;%s&gt; wrote:</p><p>%s</p>",
		html.EscapeString(msg.Name), html.EscapeString(msg.Email), html.EscapeString(msg.Message))
}
