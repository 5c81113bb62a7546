// Package audio handles PCM buffers, chunk accumulation, and WAV encoding.
// It converts decoded float samples into canonical 16-bit WAV files for the
// assistant upload and reads WAV files back for tests and file playback.
package audio
