package call

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/skypro1111/voice-gateway/internal/metrics"
)

// Request asks for an outbound call that reads MessageText to ToNumber
type Request struct {
	ToNumber    string `json:"toNumber"`
	MessageText string `json:"messageText"`
}

// Normalize trims surrounding whitespace from both fields
func (r Request) Normalize() Request {
	return Request{
		ToNumber:    strings.TrimSpace(r.ToNumber),
		MessageText: strings.TrimSpace(r.MessageText),
	}
}

// Validate reports a *ValidationError if either field is empty after trimming
func (r Request) Validate() error {
	n := r.Normalize()
	var missing []string
	if n.ToNumber == "" {
		missing = append(missing, "toNumber")
	}
	if n.MessageText == "" {
		missing = append(missing, "messageText")
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// Result is a successfully placed call
type Result struct {
	Message string `json:"message"`
	CallSID string `json:"callSid"`
}

// Dialer places a call that executes the given TwiML document
type Dialer interface {
	Dial(ctx context.Context, to, from, twiml string) (callSID string, err error)
}

// ServiceConfig contains call service configuration
type ServiceConfig struct {
	FromNumber    string
	EscapeMessage bool
}

// Service places outbound calls through a Dialer
type Service struct {
	dialer  Dialer
	config  ServiceConfig
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewService creates a call service. m may be nil.
func NewService(dialer Dialer, config ServiceConfig, logger *slog.Logger, m *metrics.Metrics) (*Service, error) {
	if dialer == nil {
		return nil, fmt.Errorf("dialer cannot be nil")
	}
	if strings.TrimSpace(config.FromNumber) == "" {
		return nil, fmt.Errorf("from number cannot be empty")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Service{
		dialer:  dialer,
		config:  config,
		logger:  logger,
		metrics: m,
	}, nil
}

// Initiate validates req, renders the TwiML and places the call.
// Provider failures are returned as *ProviderError.
func (s *Service) Initiate(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	if err := req.Validate(); err != nil {
		s.metrics.RecordCall("invalid", time.Since(start).Seconds())
		return nil, err
	}
	req = req.Normalize()

	doc, err := RenderTwiML(req.MessageText, s.config.EscapeMessage)
	if err != nil {
		s.metrics.RecordCall("invalid", time.Since(start).Seconds())
		return nil, err
	}

	sid, err := s.dialer.Dial(ctx, req.ToNumber, s.config.FromNumber, doc)
	if err != nil {
		s.metrics.RecordCall("provider_error", time.Since(start).Seconds())

		var providerErr *ProviderError
		if !errors.As(err, &providerErr) {
			providerErr = &ProviderError{Message: err.Error(), Err: err}
		}
		s.logger.Error("Failed to place call",
			slog.String("to", req.ToNumber),
			slog.Int("provider_status", providerErr.Status),
			slog.Int("provider_code", providerErr.Code),
			slog.String("error", providerErr.Message),
		)
		return nil, providerErr
	}

	s.metrics.RecordCall("success", time.Since(start).Seconds())
	s.logger.Info("Call placed",
		slog.String("to", req.ToNumber),
		slog.String("call_sid", sid),
		slog.Int("message_len", len(req.MessageText)),
	)

	return &Result{Message: MsgInitiated, CallSID: sid}, nil
}
