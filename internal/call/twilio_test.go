package call

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

type fakeCreator struct {
	params *openapi.CreateCallParams
	resp   *openapi.ApiV2010Call
	err    error
}

func (f *fakeCreator) CreateCall(params *openapi.CreateCallParams) (*openapi.ApiV2010Call, error) {
	f.params = params
	return f.resp, f.err
}

func TestNewTwilioDialerRequiresCredentials(t *testing.T) {
	_, err := NewTwilioDialer(TwilioConfig{AccountSID: "AC123"})
	assert.Error(t, err)

	d, err := NewTwilioDialer(TwilioConfig{AccountSID: "AC123", AuthToken: "secret"})
	require.NoError(t, err)
	assert.NotNil(t, d.api)
}

func TestTwilioDialerSendsParams(t *testing.T) {
	sid := "CA42"
	fake := &fakeCreator{resp: &openapi.ApiV2010Call{Sid: &sid}}
	d := &TwilioDialer{api: fake}

	got, err := d.Dial(context.Background(), "+15551234567", "+15550000000", "<Response/>")
	require.NoError(t, err)
	assert.Equal(t, "CA42", got)

	require.NotNil(t, fake.params)
	assert.Equal(t, "+15551234567", *fake.params.To)
	assert.Equal(t, "+15550000000", *fake.params.From)
	assert.Equal(t, "<Response/>", *fake.params.Twiml)
}

func TestTwilioDialerExtractsRestError(t *testing.T) {
	restErr := &client.TwilioRestError{
		Code:    21211,
		Message: "Invalid 'To' Phone Number: +1555",
		Status:  400,
	}
	d := &TwilioDialer{api: &fakeCreator{err: fmt.Errorf("create call: %w", restErr)}}

	_, err := d.Dial(context.Background(), "+1555", "+15550000000", "<Response/>")
	var providerErr *ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, "Invalid 'To' Phone Number: +1555", providerErr.Error())
	assert.Equal(t, 21211, providerErr.Code)
	assert.Equal(t, 400, providerErr.Status)
}

func TestTwilioDialerOtherErrors(t *testing.T) {
	d := &TwilioDialer{api: &fakeCreator{err: errors.New("dial tcp: timeout")}}
	_, err := d.Dial(context.Background(), "+1555", "+1666", "<Response/>")
	assert.EqualError(t, err, "dial tcp: timeout")

	d = &TwilioDialer{api: &fakeCreator{resp: &openapi.ApiV2010Call{}}}
	_, err = d.Dial(context.Background(), "+1555", "+1666", "<Response/>")
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fake := &fakeCreator{}
	d = &TwilioDialer{api: fake}
	_, err = d.Dial(ctx, "+1555", "+1666", "<Response/>")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, fake.params)
}
