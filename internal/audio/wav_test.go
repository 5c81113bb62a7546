package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sineBuffer generates a 440Hz sine at half amplitude
func sineBuffer(sampleRate, channels, frames int) PCMBuffer {
	pcm := NewPCMBuffer(sampleRate, channels, frames)
	for ch := 0; ch < channels; ch++ {
		for i := 0; i < frames; i++ {
			tm := float64(i) / float64(sampleRate)
			pcm.Channels[ch][i] = float32(0.5 * math.Sin(2*math.Pi*440*tm+float64(ch)))
		}
	}
	return pcm
}

func TestEncodePCMHeader(t *testing.T) {
	sampleRate := 44100
	frames := 1000
	wav := EncodePCM(sineBuffer(sampleRate, 1, frames), OverflowWrap)

	require.Len(t, wav, 44+frames*2)

	le := binary.LittleEndian
	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.Equal(t, uint32(len(wav)-8), le.Uint32(wav[4:8]))
	assert.Equal(t, "WAVE", string(wav[8:12]))
	assert.Equal(t, "fmt ", string(wav[12:16]))
	assert.Equal(t, uint32(16), le.Uint32(wav[16:20]))
	assert.Equal(t, uint16(1), le.Uint16(wav[20:22]), "audio format")
	assert.Equal(t, uint16(1), le.Uint16(wav[22:24]), "channels")
	assert.Equal(t, uint32(sampleRate), le.Uint32(wav[24:28]), "sample rate")
	assert.Equal(t, uint32(sampleRate*2), le.Uint32(wav[28:32]), "byte rate")
	assert.Equal(t, uint16(2), le.Uint16(wav[32:34]), "block align")
	assert.Equal(t, uint16(16), le.Uint16(wav[34:36]), "bits per sample")
	assert.Equal(t, "data", string(wav[36:40]))
	assert.Equal(t, uint32(frames*2), le.Uint32(wav[40:44]), "data size")
}

func TestEncodePCMSizes(t *testing.T) {
	tests := []struct {
		name       string
		sampleRate int
		channels   int
		frames     int
	}{
		{"empty mono", 16000, 1, 0},
		{"single sample", 8000, 1, 1},
		{"mono 48k", 48000, 1, 4800},
		{"stereo", 22050, 2, 333},
		{"six channels", 48000, 6, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wav := EncodePCM(sineBuffer(tt.sampleRate, tt.channels, tt.frames), OverflowWrap)

			dataSize := tt.frames * tt.channels * 2
			require.Len(t, wav, HeaderSize+dataSize)
			assert.Equal(t, uint32(dataSize), binary.LittleEndian.Uint32(wav[40:44]))
			assert.Equal(t, uint32(36+dataSize), binary.LittleEndian.Uint32(wav[4:8]))
			assert.Equal(t, uint16(tt.channels), binary.LittleEndian.Uint16(wav[22:24]))
			assert.Equal(t, uint16(tt.channels*2), binary.LittleEndian.Uint16(wav[32:34]))
		})
	}
}

func TestEncodePCMInterleaves(t *testing.T) {
	pcm := PCMBuffer{
		SampleRate: 8000,
		Channels: [][]float32{
			{0.5, -0.5},
			{0.25, 1},
		},
	}
	wav := EncodePCM(pcm, OverflowWrap)

	le := binary.LittleEndian
	got := []int16{
		int16(le.Uint16(wav[44:46])),
		int16(le.Uint16(wav[46:48])),
		int16(le.Uint16(wav[48:50])),
		int16(le.Uint16(wav[50:52])),
	}
	// 0.5*32767 = 16383.5 truncates to 16383
	assert.Equal(t, []int16{16383, 8191, -16383, 32767}, got)
}

func TestRoundTrip(t *testing.T) {
	for _, channels := range []int{1, 2} {
		original := sineBuffer(16000, channels, 1600)

		decoded, err := DecodeWAV(EncodePCM(original, OverflowWrap))
		require.NoError(t, err)

		assert.Equal(t, original.SampleRate, decoded.SampleRate)
		assert.Equal(t, original.NumChannels(), decoded.NumChannels())
		assert.Equal(t, original.Len(), decoded.Len())

		for ch := range original.Channels {
			for i, want := range original.Channels[ch] {
				diff := math.Abs(float64(want - decoded.Channels[ch][i]))
				if diff > 1.0/32767+1e-6 {
					t.Fatalf("channel %d sample %d: want %f got %f (diff %g)", ch, i, want, decoded.Channels[ch][i], diff)
				}
			}
		}
	}
}

func TestRoundTripEmpty(t *testing.T) {
	decoded, err := DecodeWAV(EncodePCM(NewPCMBuffer(8000, 1, 0), OverflowWrap))
	require.NoError(t, err)
	assert.Equal(t, 8000, decoded.SampleRate)
	assert.Equal(t, 1, decoded.NumChannels())
	assert.Equal(t, 0, decoded.Len())
}

func TestQuantize(t *testing.T) {
	tests := []struct {
		name   string
		sample float32
		mode   OverflowMode
		want   int16
	}{
		{"zero", 0, OverflowWrap, 0},
		{"full scale", 1, OverflowWrap, 32767},
		{"negative full scale", -1, OverflowWrap, -32767},
		{"truncates toward zero", -0.5, OverflowWrap, -16383},
		{"wraps above range", 1.5, OverflowWrap, -16386},
		{"wraps below range", -1.5, OverflowWrap, 16386},
		{"wrap NaN", float32(math.NaN()), OverflowWrap, 0},
		{"wrap +Inf", float32(math.Inf(1)), OverflowWrap, 0},
		{"saturates above range", 1.5, OverflowSaturate, 32767},
		{"saturates below range", -1.5, OverflowSaturate, -32768},
		{"saturate +Inf", float32(math.Inf(1)), OverflowSaturate, 32767},
		{"saturate NaN", float32(math.NaN()), OverflowSaturate, 0},
		{"saturate in range", 0.25, OverflowSaturate, 8191},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Quantize(tt.sample, tt.mode))
		})
	}
}

func TestParseOverflowMode(t *testing.T) {
	mode, err := ParseOverflowMode("")
	require.NoError(t, err)
	assert.Equal(t, OverflowWrap, mode)

	mode, err = ParseOverflowMode("saturate")
	require.NoError(t, err)
	assert.Equal(t, OverflowSaturate, mode)
	assert.Equal(t, "saturate", mode.String())

	_, err = ParseOverflowMode("clip")
	assert.Error(t, err)
}

func TestEncoderUsesOverflowMode(t *testing.T) {
	pcm := PCMBuffer{SampleRate: 8000, Channels: [][]float32{{2}}}

	wrapped := Encoder{Overflow: OverflowWrap}.Encode(pcm)
	saturated := Encoder{Overflow: OverflowSaturate}.Encode(pcm)

	assert.Equal(t, int16(-2), int16(binary.LittleEndian.Uint16(wrapped[44:46])))
	assert.Equal(t, int16(32767), int16(binary.LittleEndian.Uint16(saturated[44:46])))
}

func TestDecodeWAVSkipsUnknownChunks(t *testing.T) {
	wav := EncodePCM(PCMBuffer{SampleRate: 8000, Channels: [][]float32{{0.5, -0.5, 0}}}, OverflowWrap)

	// Insert an odd-sized LIST chunk (padded to even) between fmt and data
	list := []byte{'L', 'I', 'S', 'T', 3, 0, 0, 0, 'a', 'b', 'c', 0}
	withList := append([]byte{}, wav[:36]...)
	withList = append(withList, list...)
	withList = append(withList, wav[36:]...)
	binary.LittleEndian.PutUint32(withList[4:8], uint32(len(withList)-8))

	decoded, err := DecodeWAV(withList)
	require.NoError(t, err)
	assert.Equal(t, 3, decoded.Len())
	assert.InDelta(t, 0.5, decoded.Channels[0][0], 1.0/32767)
}

func TestDecodeWAVErrors(t *testing.T) {
	valid := EncodePCM(PCMBuffer{SampleRate: 8000, Channels: [][]float32{{0.1, 0.2}}}, OverflowWrap)

	tests := []struct {
		name    string
		mutate  func([]byte) []byte
		wantErr string
	}{
		{"too short", func(b []byte) []byte { return b[:8] }, "too short"},
		{"bad riff", func(b []byte) []byte { copy(b[0:4], "FAKE"); return b }, "missing RIFF"},
		{"bad wave", func(b []byte) []byte { copy(b[8:12], "AVI "); return b }, "missing WAVE"},
		{"not pcm", func(b []byte) []byte { binary.LittleEndian.PutUint16(b[20:22], 3); return b }, "unsupported audio format"},
		{"8 bit", func(b []byte) []byte { binary.LittleEndian.PutUint16(b[34:36], 8); return b }, "unsupported bit depth"},
		{"truncated data", func(b []byte) []byte { return b[:len(b)-1] }, "truncated"},
		{"no data chunk", func(b []byte) []byte { return b[:36] }, "missing data chunk"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.mutate(append([]byte{}, valid...))
			_, err := DecodeWAV(data)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateWAV(t *testing.T) {
	assert.Error(t, ValidateWAV([]byte{1, 2, 3}))

	invalid := make([]byte, 50)
	copy(invalid[0:4], "FAKE")
	assert.Error(t, ValidateWAV(invalid))

	assert.NoError(t, ValidateWAV(EncodePCM(sineBuffer(8000, 1, 10), OverflowWrap)))
}

func TestGetWAVInfo(t *testing.T) {
	wav := EncodePCM(sineBuffer(8000, 2, 8000), OverflowWrap)

	info, err := GetWAVInfo(wav)
	require.NoError(t, err)
	assert.Equal(t, uint32(8000), info.SampleRate)
	assert.Equal(t, uint16(2), info.Channels)
	assert.Equal(t, uint16(16), info.BitsPerSample)
	assert.Equal(t, uint32(8000), info.NumSamples)
	assert.Equal(t, uint32(32000), info.DataSize)
	assert.InDelta(t, 1.0, info.Duration, 0.001)

	duration, err := GetWAVDuration(wav)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, duration, 0.001)
}

func TestEncodeWAVMatchesEncodePCM(t *testing.T) {
	samples := []int16{0, 16383, -16383, 32767, -32768}
	wav := EncodeWAV(samples, 16000)

	require.Len(t, wav, HeaderSize+len(samples)*2)
	assert.NoError(t, ValidateWAV(wav))

	info, err := GetWAVInfo(wav)
	require.NoError(t, err)
	assert.Equal(t, uint32(16000), info.SampleRate)
	assert.Equal(t, uint16(1), info.Channels)
	assert.Equal(t, uint32(len(samples)), info.NumSamples)

	for i, want := range samples {
		got := int16(binary.LittleEndian.Uint16(wav[HeaderSize+i*2:]))
		assert.Equal(t, want, got)
	}

	pcm := PCMBuffer{SampleRate: 16000, Channels: [][]float32{{0.5, -0.5}}}
	assert.Equal(t, EncodePCM(pcm, OverflowWrap), EncodeWAV([]int16{16383, -16383}, 16000))
}

func TestEncodedWAVReadsWithGoAudio(t *testing.T) {
	for _, channels := range []int{1, 2} {
		original := sineBuffer(22050, channels, 2205)
		encoded := EncodePCM(original, OverflowWrap)

		d := wav.NewDecoder(bytes.NewReader(encoded))
		require.True(t, d.IsValidFile(), "channels=%d", channels)

		buf, err := d.FullPCMBuffer()
		require.NoError(t, err)

		assert.Equal(t, uint16(channels), d.NumChans)
		assert.Equal(t, uint32(22050), d.SampleRate)
		assert.Equal(t, uint16(16), d.BitDepth)
		assert.Equal(t, original.Len(), buf.NumFrames())

		// Interleaved samples match our own quantization
		for i := 0; i < original.Len(); i++ {
			for ch := 0; ch < channels; ch++ {
				want := int(Quantize(original.Channels[ch][i], OverflowWrap))
				if got := buf.Data[i*channels+ch]; got != want {
					t.Fatalf("frame %d channel %d: want %d got %d", i, ch, want, got)
				}
			}
		}
	}
}
