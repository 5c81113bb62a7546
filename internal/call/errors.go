package call

import (
	"fmt"
	"strings"
)

const (
	// MsgMissingFields is the error text for a request without a number or message
	MsgMissingFields = "Missing required fields: toNumber and messageText"

	// MsgInitiated is the success message returned with the call SID
	MsgInitiated = "Call initiated successfully!"
)

// ValidationError reports a request with an empty number or message.
// Missing lists the JSON names of the empty fields.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return MsgMissingFields
}

// Detail names exactly which fields were empty
func (e *ValidationError) Detail() string {
	return fmt.Sprintf("empty fields: %s", strings.Join(e.Missing, ", "))
}

// ProviderError is a failure reported by the telephony provider.
// Error returns the provider's message unmodified.
type ProviderError struct {
	Status  int    // HTTP status from the provider, if known
	Code    int    // Provider error code, if known
	Message string // Raw provider message
	Err     error
}

func (e *ProviderError) Error() string {
	return e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ServerError is a non-200 answer from the call endpoint.
// Error returns the server's error text unmodified.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return e.Message
}
