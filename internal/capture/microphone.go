//go:build portaudio

package capture

import (
	"context"
	"fmt"

	"github.com/gordonklaus/portaudio"

	"github.com/skypro1111/voice-gateway/internal/audio"
)

const (
	// DefaultMicSampleRate is 16kHz, enough for speech
	DefaultMicSampleRate = 16000
	// DefaultFramesPerBuffer is 64ms of audio at 16kHz
	DefaultFramesPerBuffer = 1024
)

// MicrophoneProvider records mono 16-bit PCM from the default input device.
// Requires building with -tags portaudio.
type MicrophoneProvider struct {
	SampleRate      int
	FramesPerBuffer int
}

func (p *MicrophoneProvider) sampleRate() int {
	if p.SampleRate <= 0 {
		return DefaultMicSampleRate
	}
	return p.SampleRate
}

// StartStream opens the default input device. Any failure to open or
// start the device is reported as a *PermissionError.
func (p *MicrophoneProvider) StartStream(ctx context.Context) (ChunkSource, error) {
	frames := p.FramesPerBuffer
	if frames <= 0 {
		frames = DefaultFramesPerBuffer
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, &PermissionError{Device: "default input", Err: err}
	}

	buffer := make([]int16, frames)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(p.sampleRate()), len(buffer), buffer)
	if err != nil {
		portaudio.Terminate()
		return nil, &PermissionError{Device: "default input", Err: err}
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, &PermissionError{Device: "default input", Err: err}
	}

	produce := func(ctx context.Context, emit emitFunc) error {
		for ctx.Err() == nil {
			if err := stream.Read(); err != nil {
				return fmt.Errorf("failed to read from microphone: %w", err)
			}
			if !emit(int16SliceToBytes(buffer)) {
				return nil
			}
		}
		return nil
	}

	onClose := func() error {
		err := stream.Stop()
		if closeErr := stream.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		portaudio.Terminate()
		return err
	}

	return newChanSource(ctx, 64, produce, onClose), nil
}

// Decode interprets the captured bytes as mono little-endian PCM
func (p *MicrophoneProvider) Decode(ctx context.Context, blob []byte) (audio.PCMBuffer, error) {
	return audio.DecodePCM16(blob, p.sampleRate(), 1)
}

// int16SliceToBytes converts samples to a new little-endian byte slice
func int16SliceToBytes(in []int16) []byte {
	out := make([]byte, len(in)*2)
	for i, v := range in {
		out[2*i] = byte(v)
		out[2*i+1] = byte(v >> 8)
	}
	return out
}
