package protocol

import (
	"bytes"
	"errors"
	"fmt"
)

// DefaultDelimiter separates the JSON text part from the audio part of a composite response.
// Layout: [JSON text:N][delimiter][audio:M]
const DefaultDelimiter = "\n--END_OF_TEXT--\n"

// ErrDelimiterNotFound is returned when a composite body carries no delimiter
var ErrDelimiterNotFound = errors.New("composite delimiter not found")

// CompositePayload is a composite response split into its two parts
type CompositePayload struct {
	Text  []byte // JSON-encoded text part
	Audio []byte // Raw audio bytes, format decided by the server
}

// SplitComposite scans body for the first occurrence of delim.
// Bytes before it form the text part, bytes after it the audio part.
// The audio part may itself contain the delimiter; only the first match splits.
func SplitComposite(body, delim []byte) (*CompositePayload, error) {
	if len(delim) == 0 {
		return nil, fmt.Errorf("composite delimiter cannot be empty")
	}

	idx := bytes.Index(body, delim)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %d bytes scanned for %q", ErrDelimiterNotFound, len(body), delim)
	}

	payload := &CompositePayload{
		Text:  make([]byte, idx),
		Audio: make([]byte, len(body)-idx-len(delim)),
	}
	copy(payload.Text, body[:idx])
	copy(payload.Audio, body[idx+len(delim):])

	return payload, nil
}

// BuildComposite assembles a composite body from its parts
func BuildComposite(text, audio, delim []byte) []byte {
	out := make([]byte, 0, len(text)+len(delim)+len(audio))
	out = append(out, text...)
	out = append(out, delim...)
	out = append(out, audio...)
	return out
}

// String returns a human-readable representation of the payload
func (p *CompositePayload) String() string {
	return fmt.Sprintf("CompositePayload{TextLen:%d, AudioLen:%d}", len(p.Text), len(p.Audio))
}
