package call

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	// StatusMissingInput is shown when the user left a field empty
	StatusMissingInput = "Please provide both the phone number and the message."

	defaultClientTimeout = 30 * time.Second
)

// Client requests outbound calls from a call endpoint (POST /api/makeCall)
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a client for endpoint. hc may be nil.
func NewClient(endpoint string, hc *http.Client) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("call endpoint cannot be empty")
	}
	if hc == nil {
		hc = &http.Client{
			Timeout:   defaultClientTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &Client{endpoint: endpoint, httpClient: hc}, nil
}

// Initiate asks the endpoint to call to and read message.
// Empty input fails with *ValidationError before any request is sent.
// A non-200 answer fails with *ServerError carrying the server's text.
func (c *Client) Initiate(ctx context.Context, to, message string) (*Result, error) {
	req := Request{ToNumber: to, MessageText: message}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	req = req.Normalize()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errBody struct {
			Error string `json:"error"`
		}
		msg := string(respBody)
		if json.Unmarshal(respBody, &errBody) == nil && errBody.Error != "" {
			msg = errBody.Error
		}
		return nil, &ServerError{StatusCode: resp.StatusCode, Message: msg}
	}

	var result Result
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to decode call response: %w", err)
	}
	return &result, nil
}

// StatusLine renders the outcome of Initiate for display
func StatusLine(result *Result, err error) string {
	if err != nil {
		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			return StatusMissingInput
		}
		return "Error: " + err.Error()
	}
	return fmt.Sprintf("Call initiated successfully! Call SID: %s", result.CallSID)
}
