package audio

import (
	"fmt"
	"math"
	"time"
)

// PCMBuffer holds decoded audio as floating-point samples, one slice per channel.
// Samples are nominally in [-1, 1].
type PCMBuffer struct {
	SampleRate int
	Channels   [][]float32
}

// NewPCMBuffer allocates a silent buffer with the given shape
func NewPCMBuffer(sampleRate, channels, frames int) PCMBuffer {
	data := make([][]float32, channels)
	for i := range data {
		data[i] = make([]float32, frames)
	}
	return PCMBuffer{SampleRate: sampleRate, Channels: data}
}

// NumChannels returns the channel count
func (p PCMBuffer) NumChannels() int {
	return len(p.Channels)
}

// Len returns the number of frames (samples per channel)
func (p PCMBuffer) Len() int {
	if len(p.Channels) == 0 {
		return 0
	}
	return len(p.Channels[0])
}

// Duration returns the playback length of the buffer
func (p PCMBuffer) Duration() time.Duration {
	if p.SampleRate <= 0 {
		return 0
	}
	return time.Duration(p.Len()) * time.Second / time.Duration(p.SampleRate)
}

// Validate checks the buffer can be encoded
func (p PCMBuffer) Validate() error {
	if p.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", p.SampleRate)
	}
	if len(p.Channels) == 0 {
		return fmt.Errorf("pcm buffer has no channels")
	}
	frames := len(p.Channels[0])
	for i, ch := range p.Channels[1:] {
		if len(ch) != frames {
			return fmt.Errorf("channel %d has %d samples, channel 0 has %d", i+1, len(ch), frames)
		}
	}
	return nil
}

// MonoFold returns a single-channel copy of channel 0. Other channels are dropped, not mixed.
func (p PCMBuffer) MonoFold() PCMBuffer {
	if len(p.Channels) == 0 {
		return PCMBuffer{SampleRate: p.SampleRate, Channels: [][]float32{{}}}
	}
	mono := make([]float32, len(p.Channels[0]))
	copy(mono, p.Channels[0])
	return PCMBuffer{SampleRate: p.SampleRate, Channels: [][]float32{mono}}
}

// DecodePCM16 converts raw little-endian interleaved 16-bit PCM into a PCMBuffer
func DecodePCM16(raw []byte, sampleRate, channels int) (PCMBuffer, error) {
	if sampleRate <= 0 {
		return PCMBuffer{}, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}
	if channels < 1 {
		return PCMBuffer{}, fmt.Errorf("channels must be at least 1, got %d", channels)
	}
	blockAlign := channels * 2
	if len(raw)%blockAlign != 0 {
		return PCMBuffer{}, fmt.Errorf("pcm data length %d is not a multiple of block align %d", len(raw), blockAlign)
	}

	frames := len(raw) / blockAlign
	pcm := NewPCMBuffer(sampleRate, channels, frames)
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			off := i*blockAlign + ch*2
			v := int16(uint16(raw[off]) | uint16(raw[off+1])<<8)
			pcm.Channels[ch][i] = float32(v) / maxInt16
		}
	}
	return pcm, nil
}

// Level summarizes the loudness of one channel
type Level struct {
	RMS  float64 // root mean square, 0..1 for in-range audio
	Peak float64 // largest absolute sample
}

// Silent reports whether no sample exceeds threshold
func (l Level) Silent(threshold float64) bool {
	return l.Peak <= threshold
}

// ChannelLevel measures channel ch. Out-of-range channels measure as silence.
func (p PCMBuffer) ChannelLevel(ch int) Level {
	if ch < 0 || ch >= len(p.Channels) || len(p.Channels[ch]) == 0 {
		return Level{}
	}

	var energy, peak float64
	for _, s := range p.Channels[ch] {
		v := float64(s)
		energy += v * v
		peak = max(peak, math.Abs(v))
	}
	return Level{
		RMS:  math.Sqrt(energy / float64(len(p.Channels[ch]))),
		Peak: peak,
	}
}
