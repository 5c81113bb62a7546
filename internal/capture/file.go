package capture

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/skypro1111/voice-gateway/internal/audio"
)

// DefaultChunkSize is the number of bytes FileProvider emits per chunk
const DefaultChunkSize = 4096

// FileProvider replays a WAV file as if it were being recorded.
// With Realtime set, chunks are paced to the file's playback rate.
type FileProvider struct {
	Path      string
	ChunkSize int
	Realtime  bool
}

// StartStream reads the file and begins emitting it in chunks
func (p *FileProvider) StartStream(ctx context.Context) (ChunkSource, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, &PermissionError{Device: p.Path, Err: err}
		}
		return nil, fmt.Errorf("failed to read %s: %w", p.Path, err)
	}

	chunkSize := p.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	var interval time.Duration
	if p.Realtime {
		info, err := audio.GetWAVInfo(data)
		if err != nil {
			return nil, fmt.Errorf("failed to read WAV info: %w", err)
		}
		byteRate := float64(info.SampleRate) * float64(info.Channels) * float64(info.BitsPerSample) / 8
		if byteRate > 0 {
			interval = time.Duration(float64(chunkSize) / byteRate * float64(time.Second))
		}
	}

	produce := func(ctx context.Context, emit emitFunc) error {
		var ticker *time.Ticker
		if interval > 0 {
			ticker = time.NewTicker(interval)
			defer ticker.Stop()
		}

		for off := 0; off < len(data); off += chunkSize {
			end := min(off+chunkSize, len(data))
			if !emit(data[off:end]) {
				return nil
			}
			if ticker != nil {
				select {
				case <-ticker.C:
				case <-ctx.Done():
					return nil
				}
			}
		}
		return nil
	}

	return newChanSource(ctx, 16, produce, nil), nil
}

// Decode parses the replayed WAV file
func (p *FileProvider) Decode(ctx context.Context, blob []byte) (audio.PCMBuffer, error) {
	return audio.DecodeWAV(blob)
}
