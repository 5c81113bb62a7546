package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/skypro1111/voice-gateway/internal/audio"
	"github.com/skypro1111/voice-gateway/internal/metrics"
)

// DefaultMinDuration is the shortest recording that is encoded and delivered
const DefaultMinDuration = time.Second

// Config contains recorder configuration
type Config struct {
	MinDuration time.Duration
	Overflow    audio.OverflowMode
}

// Outcome describes a finished recording
type Outcome struct {
	SessionID     string
	Duration      time.Duration // Wall-clock time between Start and Stop
	Discarded     bool          // Shorter than the minimum duration, nothing was decoded or sent
	Chunks        int
	AudioDuration time.Duration // Length of the decoded audio
	Level         audio.Level   // Loudness of the delivered mono channel
	WAV           []byte
}

// Recorder drives recording sessions. At most one session records at a time.
type Recorder struct {
	provider    Provider
	sink        Sink
	encoder     audio.Encoder
	minDuration time.Duration
	clock       Clock
	logger      *slog.Logger
	metrics     *metrics.Metrics

	mu     sync.Mutex
	active *Session
}

// Option customizes a Recorder
type Option func(*Recorder)

// WithClock replaces the system clock
func WithClock(c Clock) Option {
	return func(r *Recorder) {
		r.clock = c
	}
}

// WithMetrics records session metrics on m
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Recorder) {
		r.metrics = m
	}
}

// NewRecorder creates a recorder that delivers finished recordings to sink
func NewRecorder(provider Provider, sink Sink, config Config, logger *slog.Logger, opts ...Option) *Recorder {
	if config.MinDuration <= 0 {
		config.MinDuration = DefaultMinDuration
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	r := &Recorder{
		provider:    provider,
		sink:        sink,
		encoder:     audio.Encoder{Overflow: config.Overflow},
		minDuration: config.MinDuration,
		clock:       systemClock{},
		logger:      logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start opens a new audio stream and begins buffering its chunks.
// It fails with ErrSessionActive if a session is already recording,
// and with a *PermissionError if the device cannot be opened.
func (r *Recorder) Start(ctx context.Context) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != nil {
		return nil, ErrSessionActive
	}

	source, err := r.provider.StartStream(ctx)
	if err != nil {
		r.logger.Error("Failed to start audio stream", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to start audio stream: %w", err)
	}

	s := &Session{
		ID:        uuid.NewString(),
		StartTime: r.clock.Now(),
		recorder:  r,
		source:    source,
		buffer:    audio.NewBuffer(),
		drained:   make(chan struct{}),
	}
	go s.drain()

	r.active = s
	r.metrics.RecordRecordingStarted()
	r.logger.Info("Recording started", slog.String("session_id", s.ID))

	return s, nil
}

// Active returns the recording session, or nil when idle
func (r *Recorder) Active() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

func (r *Recorder) release(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == s {
		r.active = nil
		r.metrics.RecordRecordingEnded()
	}
}

// Session is one recording in progress
type Session struct {
	ID        string
	StartTime time.Time

	recorder *Recorder
	source   ChunkSource
	buffer   *audio.Buffer
	drained  chan struct{}

	mu      sync.Mutex
	stopped bool
}

// drain copies chunks from the source into the buffer in arrival order
func (s *Session) drain() {
	defer close(s.drained)
	for chunk := range s.source.Chunks() {
		s.buffer.Append(chunk)
	}
}

// Exhausted is closed once the source has delivered its last chunk
func (s *Session) Exhausted() <-chan struct{} {
	return s.drained
}

// Stats returns the session's buffer statistics
func (s *Session) Stats() audio.BufferStats {
	return s.buffer.GetStats()
}

// Stop ends the recording. Recordings shorter than the minimum duration
// are discarded without decoding. Otherwise the buffered audio is decoded,
// folded to mono, encoded as WAV and handed to the sink.
// The recorder accepts a new Start as soon as capture has ended,
// before delivery completes.
func (s *Session) Stop(ctx context.Context) (*Outcome, error) {
	if err := s.markStopped(); err != nil {
		return nil, err
	}

	r := s.recorder
	elapsed := r.clock.Now().Sub(s.StartTime)
	logger := r.logger.With(slog.String("session_id", s.ID))

	closeErr := s.closeSource(ctx)
	r.release(s)

	outcome := &Outcome{
		SessionID: s.ID,
		Duration:  elapsed,
		Chunks:    s.buffer.Len(),
	}

	if closeErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(closeErr, ctxErr) {
			// The buffer may still be filling; nothing is decoded or sent
			r.metrics.RecordRecordingFailed("capture", elapsed.Seconds())
			logger.Warn("Recording stopped before capture settled", slog.String("error", closeErr.Error()))
			return outcome, fmt.Errorf("recording stopped before capture settled: %w", closeErr)
		}
		logger.Warn("Audio source reported an error", slog.String("error", closeErr.Error()))
	}

	if elapsed < r.minDuration {
		outcome.Discarded = true
		r.metrics.RecordRecordingDiscarded(elapsed.Seconds())
		logger.Info("Recording too short, discarded",
			slog.Duration("duration", elapsed),
			slog.Duration("min_duration", r.minDuration),
		)
		return outcome, nil
	}

	blob := s.buffer.Bytes()
	if len(blob) == 0 {
		r.metrics.RecordRecordingFailed("capture", elapsed.Seconds())
		logger.Warn("Recording produced no audio")
		return outcome, ErrNoAudio
	}

	pcm, err := r.provider.Decode(ctx, blob)
	if err == nil {
		err = pcm.Validate()
	}
	if err != nil {
		r.metrics.RecordRecordingFailed("decode", elapsed.Seconds())
		logger.Error("Failed to decode recording", slog.String("error", err.Error()))
		return outcome, fmt.Errorf("failed to decode recording: %w", err)
	}

	mono := pcm.MonoFold()
	wav := r.encoder.Encode(mono)
	outcome.WAV = wav
	outcome.AudioDuration = mono.Duration()
	outcome.Level = mono.ChannelLevel(0)

	if outcome.Level.Silent(0) {
		logger.Warn("Recording is silent, check the input device")
	}

	logger.Debug("Recording encoded",
		slog.Int("chunks", outcome.Chunks),
		slog.Int("source_channels", pcm.NumChannels()),
		slog.Int("sample_rate", mono.SampleRate),
		slog.Duration("audio_duration", outcome.AudioDuration),
		slog.Float64("rms", outcome.Level.RMS),
		slog.Float64("peak", outcome.Level.Peak),
		slog.Int("wav_bytes", len(wav)),
	)

	if err := r.sink.Deliver(ctx, wav); err != nil {
		r.metrics.RecordRecordingFailed("deliver", elapsed.Seconds())
		logger.Error("Failed to deliver recording", slog.String("error", err.Error()))
		return outcome, fmt.Errorf("failed to deliver recording: %w", err)
	}

	r.metrics.RecordRecordingDelivered(elapsed.Seconds(), len(wav))
	logger.Info("Recording delivered",
		slog.Duration("duration", elapsed),
		slog.Int("wav_bytes", len(wav)),
	)
	return outcome, nil
}

// Abort ends the recording and drops everything it captured
func (s *Session) Abort(ctx context.Context) error {
	if err := s.markStopped(); err != nil {
		return err
	}

	r := s.recorder
	err := s.closeSource(ctx)
	r.release(s)
	s.buffer.Reset()

	r.metrics.RecordRecordingFailed("aborted", r.clock.Now().Sub(s.StartTime).Seconds())
	r.logger.Info("Recording aborted", slog.String("session_id", s.ID))
	return err
}

func (s *Session) markStopped() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrSessionStopped
	}
	s.stopped = true
	return nil
}

// closeSource closes the source and waits for buffered chunks to drain
func (s *Session) closeSource(ctx context.Context) error {
	err := s.source.Close()
	select {
	case <-s.drained:
		return err
	case <-ctx.Done():
	}

	// Prefer a completed drain over the context error
	select {
	case <-s.drained:
		return err
	default:
		return ctx.Err()
	}
}
