package call

import (
	"context"
	"errors"
	"fmt"

	"github.com/twilio/twilio-go"
	"github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// callCreator is the subset of the Twilio API the dialer uses
type callCreator interface {
	CreateCall(params *openapi.CreateCallParams) (*openapi.ApiV2010Call, error)
}

// TwilioConfig contains Twilio account credentials
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
}

// TwilioDialer places calls with the Twilio REST API
type TwilioDialer struct {
	api callCreator
}

// NewTwilioDialer creates a dialer for the given account
func NewTwilioDialer(config TwilioConfig) (*TwilioDialer, error) {
	if config.AccountSID == "" || config.AuthToken == "" {
		return nil, fmt.Errorf("twilio account SID and auth token are required")
	}

	c := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: config.AccountSID,
		Password: config.AuthToken,
	})
	return &TwilioDialer{api: c.Api}, nil
}

// Dial creates a call that runs the inline TwiML document
func (d *TwilioDialer) Dial(ctx context.Context, to, from, twiml string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	params := &openapi.CreateCallParams{}
	params.SetTo(to)
	params.SetFrom(from)
	params.SetTwiml(twiml)

	resp, err := d.api.CreateCall(params)
	if err != nil {
		return "", toProviderError(err)
	}
	if resp == nil || resp.Sid == nil {
		return "", &ProviderError{Message: "twilio returned no call SID"}
	}
	return *resp.Sid, nil
}

// toProviderError keeps Twilio's own message text
func toProviderError(err error) *ProviderError {
	var restErr *client.TwilioRestError
	if errors.As(err, &restErr) {
		return &ProviderError{
			Status:  restErr.Status,
			Code:    restErr.Code,
			Message: restErr.Message,
			Err:     err,
		}
	}
	return &ProviderError{Message: err.Error(), Err: err}
}
