package reminders

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/gomail.v2"
)

// Notifier delivers a reminder to a contact target. Implementations
// own their own timeout and backoff behavior; the executor treats the
// call as opaque and possibly slow.
type Notifier interface {
	Notify(ctx context.Context, target string, scheduledAt time.Time) error
}

// EmailNotifier sends reminder emails over SMTP.
type EmailNotifier struct {
	from string
	dial *gomail.Dialer
}

func NewEmailNotifier() *EmailNotifier {
	port, _ := strconv.Atoi(os.Getenv("SMTP_PORT"))
	return &EmailNotifier{
		from: os.Getenv("EMAIL_USER"),
		dial: gomail.NewDialer(
			os.Getenv("SMTP_HOST"),
			port,
			os.Getenv("EMAIL_USER"),
			os.Getenv("EMAIL_PASS"),
		),
	}
}

func (n *EmailNotifier) Notify(ctx context.Context, target string, scheduledAt time.Time) error {
	body := fmt.Sprintf(`
		<p>Hello,</p>
		<p>This is a reminder for your upcoming appointment.</p>
		<p><strong>Scheduled for:</strong> %s</p>
		<p>Please arrive on time. If you need to reschedule or cancel, contact us as soon as possible.</p>
		<p>Best regards,</p>
		<p>The Bookly Team</p>
	`, scheduledAt.Format("2006-01-02 15:04:05"))

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", target)
	m.SetHeader("Subject", "Reminder: Upcoming Appointment")
	m.SetBody("text/html", body)

	return n.dial.DialAndSend(m)
}
