package audio

import (
	"encoding/binary"
	"fmt"
	"math"
)

const (
	// HeaderSize is the size of the canonical PCM WAV header
	HeaderSize = 44

	// BitsPerSample is the only sample width this package writes
	BitsPerSample = 16

	formatPCM = 1
	maxInt16  = 32767
)

// WAVHeader represents the header structure of a canonical WAV file
type WAVHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // File size - 8 bytes
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for PCM
	NumChannels   uint16  // Number of channels
	SampleRate    uint32  // Sample rate
	ByteRate      uint32  // SampleRate * NumChannels * BitsPerSample / 8
	BlockAlign    uint16  // NumChannels * BitsPerSample / 8
	BitsPerSample uint16  // Bits per sample
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32  // Number of bytes in the data
}

// OverflowMode selects how samples outside [-1, 1] are quantized
type OverflowMode int

const (
	// OverflowWrap truncates the scaled value and wraps it into int16 range,
	// matching a DataView.setInt16 conversion. NaN and infinities become 0.
	OverflowWrap OverflowMode = iota
	// OverflowSaturate clamps the scaled value to [-32768, 32767].
	OverflowSaturate
)

// ParseOverflowMode maps a config string to an OverflowMode
func ParseOverflowMode(s string) (OverflowMode, error) {
	switch s {
	case "", "wrap":
		return OverflowWrap, nil
	case "saturate":
		return OverflowSaturate, nil
	default:
		return OverflowWrap, fmt.Errorf("unknown overflow mode %q (want wrap or saturate)", s)
	}
}

func (m OverflowMode) String() string {
	if m == OverflowSaturate {
		return "saturate"
	}
	return "wrap"
}

// Quantize scales a float sample by 32767 and truncates toward zero
func Quantize(sample float32, mode OverflowMode) int16 {
	scaled := math.Trunc(float64(sample) * maxInt16)
	if math.IsNaN(scaled) {
		return 0
	}

	if mode == OverflowSaturate {
		if scaled > math.MaxInt16 {
			return math.MaxInt16
		}
		if scaled < math.MinInt16 {
			return math.MinInt16
		}
		return int16(scaled)
	}

	if math.IsInf(scaled, 0) {
		return 0
	}
	return int16(int64(math.Mod(scaled, 1<<16)))
}

// Encoder writes PCM buffers as 16-bit WAV files
type Encoder struct {
	Overflow OverflowMode
}

// Encode encodes pcm, which must pass PCMBuffer.Validate
func (e Encoder) Encode(pcm PCMBuffer) []byte {
	return EncodePCM(pcm, e.Overflow)
}

// EncodePCM encodes float PCM into a canonical 16-bit WAV file with interleaved channels.
// The result is always HeaderSize + frames*channels*2 bytes long.
func EncodePCM(pcm PCMBuffer, mode OverflowMode) []byte {
	channels := pcm.NumChannels()
	frames := pcm.Len()
	dataSize := frames * channels * 2

	out := make([]byte, HeaderSize+dataSize)
	putHeader(out, newHeader(channels, pcm.SampleRate, dataSize))

	off := HeaderSize
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			binary.LittleEndian.PutUint16(out[off:], uint16(Quantize(pcm.Channels[ch][i], mode)))
			off += 2
		}
	}
	return out
}

// EncodeWAV wraps already-quantized mono samples in a canonical WAV header
func EncodeWAV(samples []int16, sampleRate int) []byte {
	dataSize := len(samples) * 2
	out := make([]byte, HeaderSize+dataSize)
	putHeader(out, newHeader(1, sampleRate, dataSize))

	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[HeaderSize+i*2:], uint16(s))
	}
	return out
}

func newHeader(channels, sampleRate, dataSize int) WAVHeader {
	blockAlign := channels * BitsPerSample / 8
	return WAVHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     uint32(36 + dataSize),
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   formatPCM,
		NumChannels:   uint16(channels),
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate * blockAlign),
		BlockAlign:    uint16(blockAlign),
		BitsPerSample: BitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: uint32(dataSize),
	}
}

func putHeader(dst []byte, h WAVHeader) {
	le := binary.LittleEndian
	copy(dst[0:4], h.ChunkID[:])
	le.PutUint32(dst[4:8], h.ChunkSize)
	copy(dst[8:12], h.Format[:])
	copy(dst[12:16], h.Subchunk1ID[:])
	le.PutUint32(dst[16:20], h.Subchunk1Size)
	le.PutUint16(dst[20:22], h.AudioFormat)
	le.PutUint16(dst[22:24], h.NumChannels)
	le.PutUint32(dst[24:28], h.SampleRate)
	le.PutUint32(dst[28:32], h.ByteRate)
	le.PutUint16(dst[32:34], h.BlockAlign)
	le.PutUint16(dst[34:36], h.BitsPerSample)
	copy(dst[36:40], h.Subchunk2ID[:])
	le.PutUint32(dst[40:44], h.Subchunk2Size)
}

// Format is the decoded "fmt " chunk of a WAV file
type Format struct {
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// parseWAV walks the RIFF chunk list and returns the format and the raw data chunk.
// Unknown chunks (LIST, fact, ...) are skipped.
func parseWAV(data []byte) (Format, []byte, error) {
	var format Format

	if len(data) < 12 {
		return format, nil, fmt.Errorf("WAV data too short: need at least 12 bytes, got %d", len(data))
	}
	if string(data[0:4]) != "RIFF" {
		return format, nil, fmt.Errorf("invalid WAV file: missing RIFF header")
	}
	if string(data[8:12]) != "WAVE" {
		return format, nil, fmt.Errorf("invalid WAV file: missing WAVE format")
	}

	haveFormat := false
	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		if size < 0 || body+size > len(data) {
			return format, nil, fmt.Errorf("invalid WAV file: chunk %q truncated (declared %d bytes, %d available)",
				id, size, len(data)-body)
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return format, nil, fmt.Errorf("invalid WAV file: fmt chunk too short (%d bytes)", size)
			}
			le := binary.LittleEndian
			format = Format{
				AudioFormat:   le.Uint16(data[body : body+2]),
				NumChannels:   le.Uint16(data[body+2 : body+4]),
				SampleRate:    le.Uint32(data[body+4 : body+8]),
				ByteRate:      le.Uint32(data[body+8 : body+12]),
				BlockAlign:    le.Uint16(data[body+12 : body+14]),
				BitsPerSample: le.Uint16(data[body+14 : body+16]),
			}
			haveFormat = true
		case "data":
			if !haveFormat {
				return format, nil, fmt.Errorf("invalid WAV file: data chunk before fmt chunk")
			}
			return format, data[body : body+size], nil
		}

		// chunks are word aligned
		off = body + size + size%2
	}

	if !haveFormat {
		return format, nil, fmt.Errorf("invalid WAV file: missing fmt chunk")
	}
	return format, nil, fmt.Errorf("invalid WAV file: missing data chunk")
}

// DecodeWAV decodes a 16-bit PCM WAV file into a PCMBuffer.
// Samples are scaled back by 1/32767, so EncodePCM followed by DecodeWAV
// reproduces every in-range sample to within one quantization step.
func DecodeWAV(data []byte) (PCMBuffer, error) {
	format, payload, err := parseWAV(data)
	if err != nil {
		return PCMBuffer{}, err
	}

	if format.AudioFormat != formatPCM {
		return PCMBuffer{}, fmt.Errorf("unsupported audio format: %d (only PCM is supported)", format.AudioFormat)
	}
	if format.BitsPerSample != BitsPerSample {
		return PCMBuffer{}, fmt.Errorf("unsupported bit depth: %d (only 16-bit is supported)", format.BitsPerSample)
	}
	if format.NumChannels == 0 {
		return PCMBuffer{}, fmt.Errorf("invalid channel count: 0")
	}

	blockAlign := int(format.NumChannels) * 2
	usable := len(payload) - len(payload)%blockAlign
	return DecodePCM16(payload[:usable], int(format.SampleRate), int(format.NumChannels))
}

// ValidateWAV validates a WAV file format without decoding the audio data
func ValidateWAV(data []byte) error {
	_, _, err := parseWAV(data)
	return err
}

// WAVInfo is basic information about a WAV file
type WAVInfo struct {
	SampleRate    uint32  `json:"sample_rate"`
	Channels      uint16  `json:"channels"`
	BitsPerSample uint16  `json:"bits_per_sample"`
	Duration      float64 `json:"duration_seconds"`
	DataSize      uint32  `json:"data_size_bytes"`
	NumSamples    uint32  `json:"num_samples"`
}

// GetWAVInfo extracts metadata from a WAV file. NumSamples counts frames.
func GetWAVInfo(data []byte) (*WAVInfo, error) {
	format, payload, err := parseWAV(data)
	if err != nil {
		return nil, err
	}
	if format.SampleRate == 0 {
		return nil, fmt.Errorf("invalid sample rate: 0")
	}
	if format.BlockAlign == 0 {
		return nil, fmt.Errorf("invalid block align: 0")
	}

	numSamples := uint32(len(payload)) / uint32(format.BlockAlign)
	return &WAVInfo{
		SampleRate:    format.SampleRate,
		Channels:      format.NumChannels,
		BitsPerSample: format.BitsPerSample,
		Duration:      float64(numSamples) / float64(format.SampleRate),
		DataSize:      uint32(len(payload)),
		NumSamples:    numSamples,
	}, nil
}

// GetWAVDuration calculates the duration of a WAV file in seconds
func GetWAVDuration(data []byte) (float64, error) {
	info, err := GetWAVInfo(data)
	if err != nil {
		return 0, err
	}
	return info.Duration, nil
}
