package assistant

import "fmt"

// TransportError reports a failed exchange with the assistant endpoint:
// either the request never completed (StatusCode is 0) or the server
// answered with a non-2xx status.
type TransportError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 && e.Err == nil {
		return fmt.Sprintf("assistant returned HTTP %d: %s", e.StatusCode, e.Body)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("assistant returned HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("assistant request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ResponseFormatError reports a 2xx body that does not match the expected format
type ResponseFormatError struct {
	Format ResponseFormat
	Err    error
}

func (e *ResponseFormatError) Error() string {
	return fmt.Sprintf("malformed %s assistant response: %v", e.Format, e.Err)
}

func (e *ResponseFormatError) Unwrap() error {
	return e.Err
}

// PublishedError marks a send error that the dispatcher already reported
// through its result callback
type PublishedError struct {
	Err error
}

func (e *PublishedError) Error() string {
	return e.Err.Error()
}

func (e *PublishedError) Unwrap() error {
	return e.Err
}
