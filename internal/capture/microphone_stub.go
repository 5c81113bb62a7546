//go:build !portaudio

package capture

import (
	"context"
	"errors"

	"github.com/skypro1111/voice-gateway/internal/audio"
)

// ErrMicrophoneUnavailable is returned when the binary was built without PortAudio
var ErrMicrophoneUnavailable = errors.New("microphone capture requires building with -tags portaudio")

// MicrophoneProvider is unavailable in this build
type MicrophoneProvider struct {
	SampleRate      int
	FramesPerBuffer int
}

// StartStream always fails with a *PermissionError wrapping ErrMicrophoneUnavailable
func (p *MicrophoneProvider) StartStream(ctx context.Context) (ChunkSource, error) {
	return nil, &PermissionError{Device: "default input", Err: ErrMicrophoneUnavailable}
}

// Decode always fails
func (p *MicrophoneProvider) Decode(ctx context.Context, blob []byte) (audio.PCMBuffer, error) {
	return audio.PCMBuffer{}, ErrMicrophoneUnavailable
}
