package mail

import (
	"context"
	"fmt"

	"github.com/storekit/catalog/internal/core/port"
	"gopkg.in/gomail.v2"
)

var _ port.VerificationMailer = (*Mailer)(nil)

// A Mailer sends account verification mail over SMTP.
type Mailer struct {
	dialer    *gomail.Dialer
	from      string
	verifyURL string
}

func New(host string, port int, user, password, from, verifyURL string) Mailer {
	return Mailer{
		dialer:    gomail.NewDialer(host, port, user, password),
		from:      from,
		verifyURL: verifyURL,
	}
}

func (m Mailer) SendVerificationMail(
	ctx context.Context, email, token string,
) error {
	const op = "Mailer.SendVerificationMail"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	body := fmt.Sprintf(
		"<p>Confirm your email address by following the link:</p>"+
			"<p><a href=%q>%s?token=%s</a></p>"+
			"<p>The link is valid for 24 hours.</p>",
		fmt.Sprintf("%s?token=%s", m.verifyURL, token),
		m.verifyURL, token,
	)

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", "Verify your email")
	msg.SetBody("text/html", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
