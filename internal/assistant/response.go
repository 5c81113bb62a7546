package assistant

import (
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"
)

// Response is a parsed assistant answer
type Response struct {
	RequestID  string
	StatusCode int
	Text       string          // Display text
	Raw        json.RawMessage // JSON as received
	Audio      []byte          // Reply audio, composite format only
	AudioMIME  string
	Latency    time.Duration
}

// HasAudio reports whether the response carries playable audio
func (r *Response) HasAudio() bool {
	return len(r.Audio) > 0
}

var audioExtensions = map[string]string{
	"audio/mpeg":  ".mp3",
	"audio/mp3":   ".mp3",
	"audio/wav":   ".wav",
	"audio/x-wav": ".wav",
	"audio/ogg":   ".ogg",
	"audio/webm":  ".webm",
	"audio/mp4":   ".m4a",
}

// SaveAudio writes the reply audio into dir and returns the file path
func (r *Response) SaveAudio(dir string) (string, error) {
	if !r.HasAudio() {
		return "", fmt.Errorf("response has no audio")
	}

	ext, ok := audioExtensions[r.AudioMIME]
	if !ok {
		ext = ".bin"
		if exts, err := mime.ExtensionsByType(r.AudioMIME); err == nil && len(exts) > 0 {
			ext = exts[0]
		}
	}

	name := "response"
	if r.RequestID != "" {
		name += "-" + r.RequestID
	}
	path := filepath.Join(dir, name+ext)

	if err := os.WriteFile(path, r.Audio, 0o644); err != nil {
		return "", fmt.Errorf("failed to write response audio: %w", err)
	}
	return path, nil
}

// decodeText extracts display text from the JSON part of a response.
// {"assistant_response": "..."} is the documented shape. A bare JSON
// string or an object with a "text" field are accepted as well, and
// any other valid JSON is shown verbatim.
func decodeText(raw []byte) (string, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", fmt.Errorf("invalid JSON: %w", err)
	}

	switch val := v.(type) {
	case string:
		return val, nil
	case map[string]any:
		if s, ok := val["assistant_response"].(string); ok {
			return s, nil
		}
		if s, ok := val["text"].(string); ok {
			return s, nil
		}
		if _, ok := val["assistant_response"]; !ok {
			return "", nil
		}
	}
	return string(raw), nil
}
