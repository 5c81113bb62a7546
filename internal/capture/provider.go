package capture

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/skypro1111/voice-gateway/internal/audio"
)

var (
	// ErrSessionActive is returned by Start while another session is recording
	ErrSessionActive = errors.New("a recording session is already active")

	// ErrNoAudio is returned by Stop when the source produced no bytes
	ErrNoAudio = errors.New("no audio was captured")

	// ErrSessionStopped is returned when Stop or Abort is called twice
	ErrSessionStopped = errors.New("recording session already stopped")
)

// PermissionError reports that the audio device could not be opened,
// typically because access was denied or no device is present
type PermissionError struct {
	Device string
	Err    error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("cannot access audio device %q: %v", e.Device, e.Err)
}

func (e *PermissionError) Unwrap() error {
	return e.Err
}

// ChunkSource delivers encoded audio chunks for one recording.
// The channel is closed once the source is exhausted or closed.
type ChunkSource interface {
	Chunks() <-chan []byte
	Close() error
}

// Provider opens audio streams and decodes what they produced.
// The concatenated chunks of one stream form a single blob for Decode.
type Provider interface {
	StartStream(ctx context.Context) (ChunkSource, error)
	Decode(ctx context.Context, blob []byte) (audio.PCMBuffer, error)
}

// Sink receives each encoded WAV file
type Sink interface {
	Deliver(ctx context.Context, wav []byte) error
}

// SinkFunc adapts a function to Sink
type SinkFunc func(ctx context.Context, wav []byte) error

// Deliver calls f
func (f SinkFunc) Deliver(ctx context.Context, wav []byte) error {
	return f(ctx, wav)
}

// Clock supplies wall-clock time for session durations
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
