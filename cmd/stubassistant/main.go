package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/skypro1111/voice-gateway/internal/audio"
	"github.com/skypro1111/voice-gateway/internal/config"
	"github.com/skypro1111/voice-gateway/internal/logging"
	"github.com/skypro1111/voice-gateway/internal/protocol"
)

const defaultPath = "/v1/voice-assistant-without-speech"

// AssistantResponse is the JSON text part of every reply
type AssistantResponse struct {
	AssistantResponse string `json:"assistant_response"`
}

type assistantHandler struct {
	format     string
	fieldName  string
	replyAudio []byte
	delay      time.Duration
	logger     *slog.Logger
}

func (h *assistantHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile(h.fieldName)
	if err != nil {
		http.Error(w, "Error getting audio file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	audioData, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Error reading audio file", http.StatusInternalServerError)
		return
	}

	info, err := audio.GetWAVInfo(audioData)
	if err != nil {
		h.logger.Warn("Rejected upload", slog.String("error", err.Error()))
		http.Error(w, "Invalid WAV file: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	h.logger.Info("Recording received",
		slog.String("request_id", r.Header.Get("X-Request-ID")),
		slog.String("filename", header.Filename),
		slog.String("content_type", header.Header.Get("Content-Type")),
		slog.Int("bytes", len(audioData)),
		slog.Int("sample_rate", int(info.SampleRate)),
		slog.Int("channels", int(info.Channels)),
		slog.Float64("duration_seconds", info.Duration),
	)

	// Simulate processing time
	time.Sleep(h.delay)

	text, _ := json.Marshal(AssistantResponse{
		AssistantResponse: fmt.Sprintf("I heard %.2f seconds of audio.", info.Duration),
	})

	if h.format == "composite" {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(protocol.BuildComposite(text, h.replyAudio, []byte(protocol.DefaultDelimiter)))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(text)
}

// beep returns a short 440Hz WAV used as the composite reply audio
func beep() []byte {
	const sampleRate = 16000
	pcm := audio.NewPCMBuffer(sampleRate, 1, sampleRate/4)
	for i := range pcm.Channels[0] {
		pcm.Channels[0][i] = float32(0.3 * math.Sin(2*math.Pi*440*float64(i)/sampleRate))
	}
	return audio.EncodePCM(pcm, audio.OverflowSaturate)
}

func main() {
	addr := flag.String("addr", ":8000", "Listen address")
	path := flag.String("path", defaultPath, "Endpoint path")
	format := flag.String("format", "json", "Response format: json or composite")
	audioFile := flag.String("audio", "", "Reply audio file for composite responses (default: generated beep)")
	delay := flag.Duration("delay", 200*time.Millisecond, "Simulated processing time")
	flag.Parse()

	logger := logging.New(config.LoggingConfig{Level: "info", Format: "text", Output: "stdout"})

	if *format != "json" && *format != "composite" {
		logger.Error("Unknown format", slog.String("format", *format))
		os.Exit(1)
	}

	replyAudio := beep()
	if *audioFile != "" {
		data, err := os.ReadFile(*audioFile)
		if err != nil {
			logger.Error("Failed to read reply audio", slog.String("error", err.Error()))
			os.Exit(1)
		}
		replyAudio = data
	}

	mux := http.NewServeMux()
	mux.Handle(*path, &assistantHandler{
		format:     *format,
		fieldName:  "audio_file",
		replyAudio: replyAudio,
		delay:      *delay,
		logger:     logger,
	})

	logger.Info("Stub assistant starting",
		slog.String("address", *addr),
		slog.String("endpoint", fmt.Sprintf("http://localhost%s%s", *addr, *path)),
		slog.String("format", *format),
	)

	if err := http.ListenAndServe(*addr, mux); err != nil {
		logger.Error("Server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
