package main

import (
	"fmt"
	"io"

	"github.com/skypro1111/voice-gateway/internal/assistant"
	"github.com/skypro1111/voice-gateway/internal/metrics"
)

// newAssistantClient builds a client from the loaded config. m may be nil.
func newAssistantClient(m *metrics.Metrics) (*assistant.Client, error) {
	return assistant.NewClient(assistant.Config{
		Endpoint:   cfg.Assistant.Endpoint,
		APIKey:     cfg.Assistant.APIKey,
		Format:     assistant.ResponseFormat(cfg.Assistant.ResponseFormat),
		FieldName:  cfg.Assistant.FieldName,
		FileName:   cfg.Assistant.FileName,
		Delimiter:  cfg.Assistant.Delimiter,
		AudioMIME:  cfg.Assistant.AudioMIME,
		Timeout:    cfg.Assistant.GetTimeoutDuration(),
		MaxRetries: cfg.Assistant.MaxRetries,
	}, logger, assistant.WithMetrics(m))
}

// printResponse writes the assistant's answer and saves any reply audio to saveDir
func printResponse(w io.Writer, resp *assistant.Response, saveDir string) error {
	fmt.Fprintf(w, "Assistant: %s\n", resp.Text)

	if !resp.HasAudio() {
		return nil
	}
	if saveDir == "" {
		fmt.Fprintf(w, "Reply audio: %d bytes (%s), use --save-audio to keep it\n", len(resp.Audio), resp.AudioMIME)
		return nil
	}

	path, err := resp.SaveAudio(saveDir)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Reply audio saved to %s\n", path)
	return nil
}
