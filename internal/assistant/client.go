package assistant

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/skypro1111/voice-gateway/internal/metrics"
	"github.com/skypro1111/voice-gateway/internal/protocol"
)

const (
	DefaultFieldName = "audio_file"
	DefaultFileName  = "recording.wav"
	DefaultAudioMIME = "audio/mpeg"
	DefaultTimeout   = 30 * time.Second
	DefaultRetryWait = time.Second

	// maxResponseBytes bounds how much of a response body is read into memory
	maxResponseBytes = 32 << 20
	userAgent        = "voice-gateway/1.0"
)

// ResponseFormat selects how the assistant response body is parsed.
// It is fixed by the server contract, not negotiated.
type ResponseFormat string

const (
	// FormatJSON is a plain JSON body: {"assistant_response": "..."}
	FormatJSON ResponseFormat = "json"
	// FormatComposite is JSON text, a delimiter, then raw audio bytes
	FormatComposite ResponseFormat = "composite"
)

// ParseResponseFormat maps a config string to a ResponseFormat
func ParseResponseFormat(s string) (ResponseFormat, error) {
	switch ResponseFormat(s) {
	case FormatJSON, FormatComposite:
		return ResponseFormat(s), nil
	case "":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown response format %q (want json or composite)", s)
	}
}

// Config contains assistant client configuration
type Config struct {
	Endpoint   string
	APIKey     string // Optional bearer token
	Format     ResponseFormat
	FieldName  string // Multipart field carrying the WAV file
	FileName   string
	Delimiter  string // Composite delimiter, defaults to protocol.DefaultDelimiter
	AudioMIME  string // Assumed type of the composite audio part
	Timeout    time.Duration
	MaxRetries int           // 0 means a single attempt
	RetryWait  time.Duration // Initial backoff between attempts
}

// Client uploads recordings to the voice-assistant endpoint
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics

	// Statistics
	totalRequests   uint64
	successRequests uint64
	failedRequests  uint64
	totalRetries    uint64
	avgResponseTime time.Duration

	mu sync.RWMutex
}

// ClientStats represents client statistics
type ClientStats struct {
	TotalRequests   uint64        `json:"total_requests"`
	SuccessRequests uint64        `json:"success_requests"`
	FailedRequests  uint64        `json:"failed_requests"`
	SuccessRate     float64       `json:"success_rate"`
	TotalRetries    uint64        `json:"total_retries"`
	AvgResponseTime time.Duration `json:"avg_response_time"`
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the default instrumented HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithMetrics records request metrics on m
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a new assistant client
func NewClient(config Config, logger *slog.Logger, opts ...Option) (*Client, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("endpoint cannot be empty")
	}

	format, err := ParseResponseFormat(string(config.Format))
	if err != nil {
		return nil, err
	}
	config.Format = format

	if config.FieldName == "" {
		config.FieldName = DefaultFieldName
	}
	if config.FileName == "" {
		config.FileName = DefaultFileName
	}
	if config.Delimiter == "" {
		config.Delimiter = protocol.DefaultDelimiter
	}
	if config.AudioMIME == "" {
		config.AudioMIME = DefaultAudioMIME
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.RetryWait <= 0 {
		config.RetryWait = DefaultRetryWait
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	c := &Client{
		config: config,
		logger: logger,
		httpClient: &http.Client{
			Timeout: config.Timeout,
			Transport: otelhttp.NewTransport(&http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			}),
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Format returns the response format the client parses
func (c *Client) Format() ResponseFormat {
	return c.config.Format
}

// Send uploads one WAV file and parses the assistant's answer.
// Network failures and non-2xx statuses surface as *TransportError,
// malformed bodies as *ResponseFormatError.
func (c *Client) Send(ctx context.Context, wav []byte) (*Response, error) {
	requestID := uuid.NewString()
	startTime := time.Now()
	c.incrementTotalRequests()
	c.metrics.RecordAssistantRequest()

	logger := c.logger.With(slog.String("request_id", requestID))
	logger.Debug("Sending recording to assistant",
		slog.String("endpoint", c.config.Endpoint),
		slog.Int("wav_bytes", len(wav)),
		slog.String("format", string(c.config.Format)),
	)

	operation := func() (*Response, error) {
		resp, err := c.doRequest(ctx, requestID, wav)
		if err == nil {
			return resp, nil
		}
		if !isRetryableError(ctx, err) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.config.RetryWait
	policy.MaxInterval = 30 * time.Second

	resp, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(c.config.MaxRetries+1)),
		backoff.WithNotify(func(err error, wait time.Duration) {
			c.incrementTotalRetries()
			c.metrics.RecordAssistantRetry()
			logger.Warn("Assistant request failed, retrying",
				slog.String("error", err.Error()),
				slog.Duration("backoff", wait),
			)
		}),
	)

	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Err
	}

	elapsed := time.Since(startTime)
	if err != nil {
		c.incrementFailedRequests()
		c.metrics.RecordAssistantFailure(elapsed.Seconds())
		logger.Error("Assistant request failed", slog.String("error", err.Error()))
		return nil, err
	}

	resp.Latency = elapsed
	c.incrementSuccessRequests()
	c.updateAvgResponseTime(elapsed)
	c.metrics.RecordAssistantSuccess(elapsed.Seconds())
	logger.Info("Assistant responded",
		slog.Duration("latency", elapsed),
		slog.Int("text_len", len(resp.Text)),
		slog.Int("audio_bytes", len(resp.Audio)),
	)
	return resp, nil
}

// doRequest performs a single HTTP request to the assistant endpoint
func (c *Client) doRequest(ctx context.Context, requestID string, wav []byte) (*Response, error) {
	body, contentType, err := c.createMultipartRequest(wav)
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("User-Agent", userAgent)
	httpReq.Header.Set("X-Request-ID", requestID)
	if c.config.Format == FormatJSON {
		httpReq.Header.Set("Accept", "application/json")
	}
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	parsed, err := c.parseResponse(respBody)
	if err != nil {
		return nil, err
	}
	parsed.RequestID = requestID
	parsed.StatusCode = resp.StatusCode
	return parsed, nil
}

// parseResponse decodes the body according to the configured format
func (c *Client) parseResponse(body []byte) (*Response, error) {
	switch c.config.Format {
	case FormatComposite:
		payload, err := protocol.SplitComposite(body, []byte(c.config.Delimiter))
		if err != nil {
			return nil, &ResponseFormatError{Format: FormatComposite, Err: err}
		}
		text, err := decodeText(payload.Text)
		if err != nil {
			return nil, &ResponseFormatError{Format: FormatComposite, Err: err}
		}
		return &Response{
			Text:      text,
			Raw:       payload.Text,
			Audio:     payload.Audio,
			AudioMIME: c.config.AudioMIME,
		}, nil

	default:
		text, err := decodeText(body)
		if err != nil {
			return nil, &ResponseFormatError{Format: FormatJSON, Err: err}
		}
		return &Response{Text: text, Raw: body}, nil
	}
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// createMultipartRequest creates a multipart/form-data body with a single audio file part
func (c *Client) createMultipartRequest(wav []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(c.config.FieldName), quoteEscaper.Replace(c.config.FileName)))
	header.Set("Content-Type", "audio/wav")

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(wav); err != nil {
		return nil, "", fmt.Errorf("failed to write audio data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	return &buf, writer.FormDataContentType(), nil
}

// isRetryableError reports whether another attempt may succeed:
// connection failures, 5xx and 429. Format errors and 4xx are final.
func isRetryableError(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		return false
	}

	switch {
	case transportErr.StatusCode == 0:
		return true
	case transportErr.StatusCode == http.StatusTooManyRequests:
		return true
	case transportErr.StatusCode >= 500:
		return true
	default:
		return false
	}
}

// Statistics methods
func (c *Client) incrementTotalRequests() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalRequests++
}

func (c *Client) incrementSuccessRequests() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.successRequests++
}

func (c *Client) incrementFailedRequests() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failedRequests++
}

func (c *Client) incrementTotalRetries() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalRetries++
}

func (c *Client) updateAvgResponseTime(responseTime time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.avgResponseTime == 0 {
		c.avgResponseTime = responseTime
	} else {
		c.avgResponseTime = (c.avgResponseTime + responseTime) / 2
	}
}

// GetStats returns current client statistics
func (c *Client) GetStats() ClientStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	successRate := float64(0)
	if c.totalRequests > 0 {
		successRate = float64(c.successRequests) / float64(c.totalRequests) * 100
	}

	return ClientStats{
		TotalRequests:   c.totalRequests,
		SuccessRequests: c.successRequests,
		FailedRequests:  c.failedRequests,
		SuccessRate:     successRate,
		TotalRetries:    c.totalRetries,
		AvgResponseTime: c.avgResponseTime,
	}
}
