package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioGateway sends SMS through the Twilio Messages API.
type TwilioGateway struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioGateway builds a gateway with the client's HTTP timeout bounded.
func NewTwilioGateway(accountSID, authToken, fromNumber string, timeout time.Duration) *TwilioGateway {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &TwilioGateway{client: client, from: fromNumber}
}

// Send delivers body as an SMS to the given phone number. subject is ignored
// on this channel. ctx is advisory only: the Twilio client enforces its own
// timeout set at construction.
func (g *TwilioGateway) Send(_ context.Context, to, _ string, body string) (string, error) {
	params := &twilioapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(g.from)
	params.SetBody(body)

	resp, err := g.client.Api.CreateMessage(params)
	if err != nil {
		return "", fmt.Errorf("twilio create message: %w", err)
	}
	if resp.Sid == nil {
		return "", nil
	}
	return *resp.Sid, nil
}
