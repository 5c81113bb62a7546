package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*Config)
		expectError bool
		errorMsg    string
	}{
		{
			name:        "defaults are valid",
			modify:      func(c *Config) {},
			expectError: false,
		},
		{
			name:        "invalid http port",
			modify:      func(c *Config) { c.HTTP.Port = 70000 },
			expectError: true,
			errorMsg:    "http port must be between 1 and 65535",
		},
		{
			name: "disabled http skips port check",
			modify: func(c *Config) {
				c.HTTP.Enabled = false
				c.HTTP.Port = 0
			},
			expectError: false,
		},
		{
			name:        "empty assistant endpoint",
			modify:      func(c *Config) { c.Assistant.Endpoint = "" },
			expectError: true,
			errorMsg:    "assistant config: endpoint cannot be empty",
		},
		{
			name:        "non-http assistant endpoint",
			modify:      func(c *Config) { c.Assistant.Endpoint = "ftp://example.com" },
			expectError: true,
			errorMsg:    "must be an http or https URL",
		},
		{
			name:        "unknown response format",
			modify:      func(c *Config) { c.Assistant.ResponseFormat = "xml" },
			expectError: true,
			errorMsg:    "response_format must be 'json' or 'composite'",
		},
		{
			name:        "negative retries",
			modify:      func(c *Config) { c.Assistant.MaxRetries = -1 },
			expectError: true,
			errorMsg:    "max_retries cannot be negative",
		},
		{
			name:        "unknown capture source",
			modify:      func(c *Config) { c.Capture.Source = "bluetooth" },
			expectError: true,
			errorMsg:    "source must be 'microphone' or 'file'",
		},
		{
			name:        "zero min duration",
			modify:      func(c *Config) { c.Capture.MinDuration = 0 },
			expectError: true,
			errorMsg:    "min_duration must be positive",
		},
		{
			name:        "unknown overflow mode",
			modify:      func(c *Config) { c.Audio.Overflow = "clip" },
			expectError: true,
			errorMsg:    "overflow must be 'wrap' or 'saturate'",
		},
		{
			name:        "invalid log level",
			modify:      func(c *Config) { c.Logging.Level = "trace" },
			expectError: true,
			errorMsg:    "level must be one of",
		},
		{
			name:        "log file output",
			modify:      func(c *Config) { c.Logging.Output = "/var/log/voice-gateway.log" },
			expectError: false,
		},
		{
			name:        "missing telephony is not a config error",
			modify:      func(c *Config) { c.Telephony = TelephonyConfig{} },
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Default()
			tt.modify(config)

			err := config.Validate()
			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				} else if tt.errorMsg != "" && !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error to contain '%s', got '%s'", tt.errorMsg, err.Error())
				}
			} else {
				if err != nil {
					t.Errorf("Expected no error but got: %v", err)
				}
			}
		})
	}
}

func TestConfigLoad(t *testing.T) {
	tempDir := t.TempDir()

	tests := []struct {
		name        string
		configYAML  string
		expectError bool
		errorMsg    string
		check       func(*testing.T, *Config)
	}{
		{
			name: "valid config file",
			configYAML: `
http:
  port: 9090
  address: "127.0.0.1"
  enabled: true
assistant:
  endpoint: "https://assistant.example.com/v1/voice"
  timeout: 10
  max_retries: 2
  response_format: "composite"
capture:
  source: "file"
  min_duration: 1.5
audio:
  overflow: "saturate"
call:
  escape_message: false
logging:
  level: "debug"
  format: "json"
  output: "stderr"
`,
			check: func(t *testing.T, c *Config) {
				if c.HTTP.Port != 9090 {
					t.Errorf("Expected port 9090, got %d", c.HTTP.Port)
				}
				if c.Assistant.ResponseFormat != "composite" {
					t.Errorf("Expected composite format, got %s", c.Assistant.ResponseFormat)
				}
				if c.Call.EscapeMessage {
					t.Errorf("Expected escape_message to be false")
				}
				// Keys absent from the file keep their defaults
				if c.Assistant.FieldName != "audio_file" {
					t.Errorf("Expected default field name, got %s", c.Assistant.FieldName)
				}
				if c.Capture.SampleRate != 16000 {
					t.Errorf("Expected default sample rate, got %d", c.Capture.SampleRate)
				}
			},
		},
		{
			name: "partial file keeps defaults",
			configYAML: `
logging:
  level: "warn"
`,
			check: func(t *testing.T, c *Config) {
				if !c.Call.EscapeMessage {
					t.Errorf("Expected escape_message to default to true")
				}
				if c.Audio.Overflow != "wrap" {
					t.Errorf("Expected default overflow wrap, got %s", c.Audio.Overflow)
				}
			},
		},
		{
			name:        "invalid yaml",
			configYAML:  "http: [unclosed",
			expectError: true,
			errorMsg:    "failed to parse config file",
		},
		{
			name: "invalid values",
			configYAML: `
assistant:
  timeout: 0
`,
			expectError: true,
			errorMsg:    "timeout must be at least 1 second",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(tempDir, strings.ReplaceAll(tt.name, " ", "_")+".yaml")
			err := os.WriteFile(configPath, []byte(tt.configYAML), 0644)
			if err != nil {
				t.Fatalf("Failed to create test config file: %v", err)
			}

			config, err := Load(configPath)
			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				} else if tt.errorMsg != "" && !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error to contain '%s', got '%s'", tt.errorMsg, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error but got: %v", err)
			}
			if tt.check != nil {
				tt.check(t, config)
			}
		})
	}
}

func TestConfigLoadNonexistentFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Errorf("Expected error for nonexistent file but got none")
	}
	if err != nil && !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("Expected error about reading file, got: %v", err)
	}
}

func TestConfigLoadEmptyPathUsesDefaults(t *testing.T) {
	config, err := Load("")
	if err != nil {
		t.Fatalf("Expected defaults to load, got: %v", err)
	}
	if config.HTTP.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", config.HTTP.Port)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"TWILIO_ACCOUNT_SID": "AC-fallback",
		"TWILIO_AUTH_TOKEN":  "token",
		"TWILIO_FROM_NUMBER": "+15550000000",
		"ASSISTANT_ENDPOINT": "https://override.example.com/voice",
	}
	getenv := func(k string) string { return env[k] }

	config := Default()
	config.ApplyEnv(getenv)

	if config.Telephony.AccountSID != "AC-fallback" {
		t.Errorf("Expected TWILIO_ACCOUNT_SID fallback, got %s", config.Telephony.AccountSID)
	}
	if config.Assistant.Endpoint != "https://override.example.com/voice" {
		t.Errorf("Expected endpoint override, got %s", config.Assistant.Endpoint)
	}
	if err := config.Telephony.Validate(); err != nil {
		t.Errorf("Expected telephony to be complete, got: %v", err)
	}

	env["ACCOUNT_SID"] = "AC-primary"
	config.ApplyEnv(getenv)
	if config.Telephony.AccountSID != "AC-primary" {
		t.Errorf("Expected ACCOUNT_SID to take precedence, got %s", config.Telephony.AccountSID)
	}
}

func TestTelephonyValidation(t *testing.T) {
	telephony := TelephonyConfig{AccountSID: "AC123"}
	err := telephony.Validate()
	if err == nil {
		t.Fatalf("Expected error for missing credentials")
	}
	if !strings.Contains(err.Error(), "TWILIO_AUTH_TOKEN") || !strings.Contains(err.Error(), "TWILIO_FROM_NUMBER") {
		t.Errorf("Expected both missing variables to be named, got: %v", err)
	}
}

func TestDurationHelpers(t *testing.T) {
	assistant := AssistantConfig{Timeout: 30}
	if assistant.GetTimeoutDuration() != 30*time.Second {
		t.Errorf("Expected 30 seconds, got %v", assistant.GetTimeoutDuration())
	}

	capture := CaptureConfig{MinDuration: 1.5}
	if capture.GetMinDuration() != 1500*time.Millisecond {
		t.Errorf("Expected 1.5 seconds, got %v", capture.GetMinDuration())
	}

	call := CallConfig{Timeout: 5}
	if call.GetTimeoutDuration() != 5*time.Second {
		t.Errorf("Expected 5 seconds, got %v", call.GetTimeoutDuration())
	}
}

func TestShippedConfigIsValid(t *testing.T) {
	t.Setenv("ASSISTANT_ENDPOINT", "")
	t.Setenv("CALL_ENDPOINT", "")

	config, err := Load(filepath.Join("..", "..", "configs", "config.yaml"))
	if err != nil {
		t.Fatalf("Expected shipped config to load, got: %v", err)
	}

	if config.Assistant.FieldName != "audio_file" {
		t.Errorf("Expected field_name audio_file, got %s", config.Assistant.FieldName)
	}
	if config.Capture.GetMinDuration() != time.Second {
		t.Errorf("Expected 1s minimum duration, got %v", config.Capture.GetMinDuration())
	}
	if !config.Call.EscapeMessage {
		t.Errorf("Expected escape_message to default to true")
	}
}
