package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete service configuration
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Assistant AssistantConfig `yaml:"assistant"`
	Capture   CaptureConfig   `yaml:"capture"`
	Audio     AudioConfig     `yaml:"audio"`
	Call      CallConfig      `yaml:"call"`
	Telephony TelephonyConfig `yaml:"-"` // Environment only
	Logging   LoggingConfig   `yaml:"logging"`
}

// HTTPConfig contains HTTP API server configuration
type HTTPConfig struct {
	Port    int    `yaml:"port"`
	Address string `yaml:"address"`
	Enabled bool   `yaml:"enabled"`
}

// AssistantConfig contains voice-assistant endpoint configuration
type AssistantConfig struct {
	Endpoint       string `yaml:"endpoint"`
	APIKey         string `yaml:"api_key"`
	Timeout        int    `yaml:"timeout"` // seconds
	MaxRetries     int    `yaml:"max_retries"`
	ResponseFormat string `yaml:"response_format"` // json or composite
	FieldName      string `yaml:"field_name"`
	FileName       string `yaml:"file_name"`
	AudioMIME      string `yaml:"audio_mime"`
	Delimiter      string `yaml:"delimiter"`
}

// CaptureConfig contains recording configuration
type CaptureConfig struct {
	Source          string  `yaml:"source"`       // microphone or file
	MinDuration     float64 `yaml:"min_duration"` // seconds
	SampleRate      int     `yaml:"sample_rate"`
	FramesPerBuffer int     `yaml:"frames_per_buffer"`
	ChunkSize       int     `yaml:"chunk_size"` // bytes, file source
	Realtime        bool    `yaml:"realtime"`   // pace file source to playback rate
}

// AudioConfig contains WAV encoding parameters
type AudioConfig struct {
	Overflow string `yaml:"overflow"` // wrap or saturate
}

// CallConfig contains outbound call configuration
type CallConfig struct {
	Endpoint      string `yaml:"endpoint"` // Used by voicectl call
	EscapeMessage bool   `yaml:"escape_message"`
	Timeout       int    `yaml:"timeout"` // seconds
}

// TelephonyConfig contains Twilio credentials. It is never read from or
// written to YAML.
type TelephonyConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Default returns the configuration used for keys a file does not set
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Port:    8080,
			Address: "0.0.0.0",
			Enabled: true,
		},
		Assistant: AssistantConfig{
			Endpoint:       "http://localhost:8000/v1/voice-assistant-without-speech",
			Timeout:        30,
			MaxRetries:     0,
			ResponseFormat: "json",
			FieldName:      "audio_file",
			FileName:       "recording.wav",
			AudioMIME:      "audio/mpeg",
		},
		Capture: CaptureConfig{
			Source:          "microphone",
			MinDuration:     1.0,
			SampleRate:      16000,
			FramesPerBuffer: 1024,
			ChunkSize:       4096,
			Realtime:        true,
		},
		Audio: AudioConfig{
			Overflow: "wrap",
		},
		Call: CallConfig{
			Endpoint:      "http://localhost:8080/api/makeCall",
			EscapeMessage: true,
			Timeout:       30,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// Load reads the configuration file over the defaults, applies environment
// overrides and validates the result. An empty path uses defaults only.
func Load(path string) (*Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	config.ApplyEnv(os.Getenv)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// ApplyEnv overlays environment variables. Telephony credentials come only
// from here; ACCOUNT_SID takes precedence over TWILIO_ACCOUNT_SID.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("ACCOUNT_SID"); v != "" {
		c.Telephony.AccountSID = v
	} else if v := getenv("TWILIO_ACCOUNT_SID"); v != "" {
		c.Telephony.AccountSID = v
	}
	if v := getenv("TWILIO_AUTH_TOKEN"); v != "" {
		c.Telephony.AuthToken = v
	}
	if v := getenv("TWILIO_FROM_NUMBER"); v != "" {
		c.Telephony.FromNumber = v
	}

	if v := getenv("ASSISTANT_ENDPOINT"); v != "" {
		c.Assistant.Endpoint = v
	}
	if v := getenv("ASSISTANT_API_KEY"); v != "" {
		c.Assistant.APIKey = v
	}
	if v := getenv("CALL_ENDPOINT"); v != "" {
		c.Call.Endpoint = v
	}
}

// Validate performs validation of every section except Telephony,
// which only the server requires
func (c *Config) Validate() error {
	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http config: %w", err)
	}

	if err := c.Assistant.Validate(); err != nil {
		return fmt.Errorf("assistant config: %w", err)
	}

	if err := c.Capture.Validate(); err != nil {
		return fmt.Errorf("capture config: %w", err)
	}

	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}

	if err := c.Call.Validate(); err != nil {
		return fmt.Errorf("call config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates HTTP configuration
func (h *HTTPConfig) Validate() error {
	if h.Enabled {
		if h.Port < 1 || h.Port > 65535 {
			return fmt.Errorf("http port must be between 1 and 65535, got %d", h.Port)
		}

		if h.Address == "" {
			return fmt.Errorf("http address cannot be empty when HTTP is enabled")
		}
	}

	return nil
}

// Validate validates assistant configuration
func (a *AssistantConfig) Validate() error {
	if a.Endpoint == "" {
		return fmt.Errorf("endpoint cannot be empty")
	}

	if !strings.HasPrefix(a.Endpoint, "http://") && !strings.HasPrefix(a.Endpoint, "https://") {
		return fmt.Errorf("endpoint must be an http or https URL, got '%s'", a.Endpoint)
	}

	if a.Timeout < 1 {
		return fmt.Errorf("timeout must be at least 1 second, got %d", a.Timeout)
	}

	if a.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative, got %d", a.MaxRetries)
	}

	validFormats := map[string]bool{"json": true, "composite": true}
	if !validFormats[a.ResponseFormat] {
		return fmt.Errorf("response_format must be 'json' or 'composite', got '%s'", a.ResponseFormat)
	}

	if a.FieldName == "" {
		return fmt.Errorf("field_name cannot be empty")
	}

	return nil
}

// Validate validates capture configuration
func (c *CaptureConfig) Validate() error {
	validSources := map[string]bool{"microphone": true, "file": true}
	if !validSources[c.Source] {
		return fmt.Errorf("source must be 'microphone' or 'file', got '%s'", c.Source)
	}

	if c.MinDuration <= 0 {
		return fmt.Errorf("min_duration must be positive, got %f", c.MinDuration)
	}

	if c.SampleRate < 8000 || c.SampleRate > 192000 {
		return fmt.Errorf("sample_rate must be between 8000 and 192000 Hz, got %d", c.SampleRate)
	}

	if c.FramesPerBuffer < 64 {
		return fmt.Errorf("frames_per_buffer must be at least 64, got %d", c.FramesPerBuffer)
	}

	if c.ChunkSize < 1 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize)
	}

	return nil
}

// Validate validates audio configuration
func (a *AudioConfig) Validate() error {
	validModes := map[string]bool{"wrap": true, "saturate": true}
	if !validModes[a.Overflow] {
		return fmt.Errorf("overflow must be 'wrap' or 'saturate', got '%s'", a.Overflow)
	}

	return nil
}

// Validate validates call configuration
func (c *CallConfig) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint cannot be empty")
	}

	if c.Timeout < 1 {
		return fmt.Errorf("timeout must be at least 1 second, got %d", c.Timeout)
	}

	return nil
}

// Validate checks that all Twilio credentials are present
func (t *TelephonyConfig) Validate() error {
	var missing []string
	if t.AccountSID == "" {
		missing = append(missing, "ACCOUNT_SID")
	}
	if t.AuthToken == "" {
		missing = append(missing, "TWILIO_AUTH_TOKEN")
	}
	if t.FromNumber == "" {
		missing = append(missing, "TWILIO_FROM_NUMBER")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing environment variables: %s", strings.Join(missing, ", "))
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	// Output may be stdout, stderr or a file path
	return nil
}

// GetTimeoutDuration returns the assistant timeout as a time.Duration
func (a *AssistantConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(a.Timeout) * time.Second
}

// GetMinDuration returns the minimum recording duration as a time.Duration
func (c *CaptureConfig) GetMinDuration() time.Duration {
	return time.Duration(c.MinDuration * float64(time.Second))
}

// GetTimeoutDuration returns the call request timeout as a time.Duration
func (c *CallConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}
