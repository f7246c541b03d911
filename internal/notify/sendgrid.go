package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridGateway sends email through the SendGrid v3 Mail Send API.
type SendGridGateway struct {
	client *sendgrid.Client
	from   *mail.Email
}

// NewSendGridGateway builds a gateway sending from the given address.
func NewSendGridGateway(apiKey, fromEmail, fromName string) *SendGridGateway {
	return &SendGridGateway{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromEmail),
	}
}

// Send delivers a plain-text email. The X-Message-Id response header is the
// provider reference.
func (g *SendGridGateway) Send(ctx context.Context, to, subject, body string) (string, error) {
	message := mail.NewSingleEmail(g.from, subject, mail.NewEmail("", to), body, body)

	resp, err := g.client.SendWithContext(ctx, message)
	if err != nil {
		return "", fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
	}
	if ids := resp.Headers["X-Message-Id"]; len(ids) > 0 {
		return ids[0], nil
	}
	return "", nil
}
