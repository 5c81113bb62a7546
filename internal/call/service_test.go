package call

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skypro1111/voice-gateway/internal/metrics"
)

type stubDialer struct {
	sid   string
	err   error
	calls int
	to    string
	from  string
	twiml string
}

func (d *stubDialer) Dial(ctx context.Context, to, from, twiml string) (string, error) {
	d.calls++
	d.to, d.from, d.twiml = to, from, twiml
	return d.sid, d.err
}

func TestNewServiceValidation(t *testing.T) {
	_, err := NewService(nil, ServiceConfig{FromNumber: "+15550000000"}, nil, nil)
	assert.Error(t, err)

	_, err = NewService(&stubDialer{}, ServiceConfig{FromNumber: "  "}, nil, nil)
	assert.Error(t, err)
}

func TestInitiateSuccess(t *testing.T) {
	dialer := &stubDialer{sid: "CA123"}
	m := metrics.NewMetrics(prometheus.NewRegistry())
	svc, err := NewService(dialer, ServiceConfig{FromNumber: "+15550000000"}, nil, m)
	require.NoError(t, err)

	result, err := svc.Initiate(context.Background(), Request{ToNumber: " +15551234567 ", MessageText: "Hello"})
	require.NoError(t, err)

	assert.Equal(t, &Result{Message: "Call initiated successfully!", CallSID: "CA123"}, result)
	assert.Equal(t, "+15551234567", dialer.to)
	assert.Equal(t, "+15550000000", dialer.from)
	assert.Equal(t, "<Response><Say>Hello</Say></Response>", dialer.twiml)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CallsRequested.WithLabelValues("success")))
}

func TestInitiateValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		missing []string
	}{
		{"both empty", Request{}, []string{"toNumber", "messageText"}},
		{"no number", Request{MessageText: "hi"}, []string{"toNumber"}},
		{"whitespace message", Request{ToNumber: "+1555", MessageText: "   "}, []string{"messageText"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dialer := &stubDialer{sid: "CA123"}
			svc, err := NewService(dialer, ServiceConfig{FromNumber: "+15550000000"}, nil, nil)
			require.NoError(t, err)

			_, err = svc.Initiate(context.Background(), tt.req)
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.missing, validationErr.Missing)
			assert.Equal(t, MsgMissingFields, err.Error())
			assert.Equal(t, 0, dialer.calls)
		})
	}
}

func TestInitiateProviderErrorIsUnmodified(t *testing.T) {
	raw := "The 'To' number +1555 is not a valid phone number."

	t.Run("plain error", func(t *testing.T) {
		svc, err := NewService(&stubDialer{err: errors.New(raw)}, ServiceConfig{FromNumber: "+15550000000"}, nil, nil)
		require.NoError(t, err)

		_, err = svc.Initiate(context.Background(), Request{ToNumber: "+1555", MessageText: "hi"})
		var providerErr *ProviderError
		require.ErrorAs(t, err, &providerErr)
		assert.Equal(t, raw, err.Error())
	})

	t.Run("provider error", func(t *testing.T) {
		dialErr := &ProviderError{Status: 400, Code: 21211, Message: raw}
		svc, err := NewService(&stubDialer{err: dialErr}, ServiceConfig{FromNumber: "+15550000000"}, nil, nil)
		require.NoError(t, err)

		_, err = svc.Initiate(context.Background(), Request{ToNumber: "+1555", MessageText: "hi"})
		assert.Same(t, dialErr, err)
	})
}

func TestRenderTwiML(t *testing.T) {
	verbatim, err := RenderTwiML("Hi <b>there</b> & bye", false)
	require.NoError(t, err)
	assert.Equal(t, "<Response><Say>Hi <b>there</b> & bye</Say></Response>", verbatim)

	escaped, err := RenderTwiML("Hi <b>there</b> & bye", true)
	require.NoError(t, err)
	assert.Contains(t, escaped, "<Response>")
	assert.Contains(t, escaped, "<Say>")
	assert.Contains(t, escaped, "&amp;")
	assert.Contains(t, escaped, "&lt;b")
	assert.NotContains(t, escaped, "<b>")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(escaped), "</Response>"))
}

func TestEscapedMessageReachesDialer(t *testing.T) {
	dialer := &stubDialer{sid: "CA1"}
	svc, err := NewService(dialer, ServiceConfig{FromNumber: "+15550000000", EscapeMessage: true}, nil, nil)
	require.NoError(t, err)

	_, err = svc.Initiate(context.Background(), Request{ToNumber: "+1555", MessageText: "a < b"})
	require.NoError(t, err)
	assert.Contains(t, dialer.twiml, "a &lt; b")
}
