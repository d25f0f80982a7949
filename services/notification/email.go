package notification

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"time"

	"github.com/resend/resend-go/v2"
)

// emailHTTPTimeout caps a single Resend call even when ctx has no deadline.
const emailHTTPTimeout = 15 * time.Second

// EmailSender delivers email through Resend.
type EmailSender struct {
	client *resend.Client
	from   string
}

func NewEmailSender(apiKey, from string) *EmailSender {
	client := resend.NewCustomClient(&http.Client{Timeout: emailHTTPTimeout}, apiKey)
	return &EmailSender{client: client, from: from}
}

func (s *EmailSender) Channel() Channel { return ChannelEmail }

func (s *EmailSender) Send(ctx context.Context, to Recipient, msg Message) (SendResult, error) {
	if to.Email == "" {
		return SendResult{}, errNoAddress
	}
	if err := ctx.Err(); err != nil {
		return SendResult{}, err
	}

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to.Email},
		Subject: msg.Title,
		Html:    renderEmail(to.Name, msg),
	}
	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return SendResult{}, fmt.Errorf("failed to send email: %w", err)
	}
	return SendResult{ID: sent.Id}, nil
}

func renderEmail(name string, msg Message) string {
	greeting := "Hello"
	if name != "" {
		greeting = "Hello " + html.EscapeString(name)
	}
	return fmt.Sprintf(
		`<div style="font-family:sans-serif"><h2>%s</h2><p>%s,</p><p>%s</p><p>Thank you for using BloodSync.</p></div>`,
		html.EscapeString(msg.Title), greeting, html.EscapeString(msg.Body),
	)
}
