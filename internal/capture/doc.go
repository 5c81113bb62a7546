// Package capture records audio and turns each recording into a WAV file.
//
// A Recorder owns at most one Session at a time. Chunks produced by the
// Provider's stream are buffered in arrival order; on Stop the buffer is
// decoded once, folded to mono (channel 0), encoded as 16-bit PCM WAV and
// handed to a Sink. Recordings shorter than Config.MinDuration are
// discarded before decoding.
//
// FileProvider replays a WAV file. MicrophoneProvider reads the default
// input device through PortAudio when built with -tags portaudio.
package capture
