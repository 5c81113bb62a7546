package audio

import (
	"sync"
	"time"
)

// Buffer accumulates raw audio chunks for one recording in arrival order.
// Chunks are opaque container bytes; decoding happens once the recording is finalized.
type Buffer struct {
	chunks     [][]byte
	size       int
	nextSeq    uint32    // Sequence number assigned to the next chunk
	dropped    uint32    // Empty chunks ignored
	firstChunk time.Time // Arrival time of the first chunk
	lastUpdate time.Time // Arrival time of the latest chunk

	mu sync.RWMutex
}

// BufferStats represents buffer statistics for monitoring
type BufferStats struct {
	Chunks       int       `json:"chunks"`
	Bytes        int       `json:"bytes"`
	EmptyDropped uint32    `json:"empty_dropped"`
	LastSequence uint32    `json:"last_sequence"`
	FirstChunkAt time.Time `json:"first_chunk_at"`
	LastUpdate   time.Time `json:"last_update"`
}

// NewBuffer creates an empty chunk buffer
func NewBuffer() *Buffer {
	return &Buffer{
		chunks: make([][]byte, 0, 64),
	}
}

// Append copies chunk into the buffer and returns its sequence number.
// Empty chunks are ignored and reported with ok=false.
func (b *Buffer) Append(chunk []byte) (seq uint32, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(chunk) == 0 {
		b.dropped++
		return 0, false
	}

	now := time.Now()
	if len(b.chunks) == 0 {
		b.firstChunk = now
	}
	b.lastUpdate = now

	stored := make([]byte, len(chunk))
	copy(stored, chunk)
	b.chunks = append(b.chunks, stored)
	b.size += len(stored)

	seq = b.nextSeq
	b.nextSeq++
	return seq, true
}

// Bytes concatenates all chunks in sequence order into a single blob
func (b *Buffer) Bytes() []byte {
	b.mu.RLock()
	defer b.mu.RUnlock()

	blob := make([]byte, 0, b.size)
	for _, c := range b.chunks {
		blob = append(blob, c...)
	}
	return blob
}

// Len returns the number of buffered chunks
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.chunks)
}

// Size returns the total number of buffered bytes
func (b *Buffer) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// Reset discards all buffered chunks
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.chunks = b.chunks[:0]
	b.size = 0
	b.nextSeq = 0
	b.dropped = 0
	b.firstChunk = time.Time{}
	b.lastUpdate = time.Time{}
}

// GetStats returns buffer statistics
func (b *Buffer) GetStats() BufferStats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var last uint32
	if b.nextSeq > 0 {
		last = b.nextSeq - 1
	}
	return BufferStats{
		Chunks:       len(b.chunks),
		Bytes:        b.size,
		EmptyDropped: b.dropped,
		LastSequence: last,
		FirstChunkAt: b.firstChunk,
		LastUpdate:   b.lastUpdate,
	}
}
