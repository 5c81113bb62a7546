package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/skypro1111/voice-gateway/internal/assistant"
	"github.com/skypro1111/voice-gateway/internal/audio"
	"github.com/skypro1111/voice-gateway/internal/capture"
	"github.com/skypro1111/voice-gateway/internal/metrics"
)

var (
	recordFile        string
	recordSaveDir     string
	recordMetricsAddr string

	// recordRegistry holds the collectors of the last record run
	recordRegistry *prometheus.Registry
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record speech and send it to the assistant",
	Long: `Record toggles recording with the Enter key. Each finished recording
of at least capture.min_duration is folded to mono, encoded as WAV and
sent to the assistant. Ctrl+D or Ctrl+C quits.

With --file, the WAV file is replayed as a single recording instead of
opening the microphone. Recording length is wall-clock time, so keep
capture.realtime enabled or short files will be discarded.`,
	Args: cobra.NoArgs,
	RunE: runRecord,
}

func init() {
	recordCmd.Flags().StringVarP(&recordFile, "file", "f", "", "Replay this WAV file instead of the microphone")
	recordCmd.Flags().StringVar(&recordSaveDir, "save-audio", "", "Directory for reply audio (composite format)")
	recordCmd.Flags().StringVar(&recordMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while recording (e.g. :9091)")
	rootCmd.AddCommand(recordCmd)
}

func newProvider() capture.Provider {
	if recordFile != "" || cfg.Capture.Source == "file" {
		return &capture.FileProvider{
			Path:      recordFile,
			ChunkSize: cfg.Capture.ChunkSize,
			Realtime:  cfg.Capture.Realtime,
		}
	}
	return &capture.MicrophoneProvider{
		SampleRate:      cfg.Capture.SampleRate,
		FramesPerBuffer: cfg.Capture.FramesPerBuffer,
	}
}

func newRecorder(out io.Writer, m *metrics.Metrics) (*capture.Recorder, error) {
	client, err := newAssistantClient(m)
	if err != nil {
		return nil, err
	}

	overflow, err := audio.ParseOverflowMode(cfg.Audio.Overflow)
	if err != nil {
		return nil, err
	}

	dispatcher := assistant.NewDispatcher(client, nil, func(r assistant.Result) {
		if r.Err != nil {
			fmt.Fprintf(out, "Error: %v\n", r.Err)
			return
		}
		if err := printResponse(out, r.Response, recordSaveDir); err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
		}
	})

	return capture.NewRecorder(newProvider(), dispatcher, capture.Config{
		MinDuration: cfg.Capture.GetMinDuration(),
		Overflow:    overflow,
	}, logger, capture.WithMetrics(m)), nil
}

func runRecord(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	recordRegistry = prometheus.NewRegistry()
	m := metrics.NewMetrics(recordRegistry)

	if recordMetricsAddr != "" {
		server, addr, err := serveMetrics(recordMetricsAddr, recordRegistry)
		if err != nil {
			return err
		}
		defer server.Close()
		logger.Info("Serving metrics", slog.String("address", addr.String()))
	}

	recorder, err := newRecorder(out, m)
	if err != nil {
		return err
	}

	if recordFile != "" || cfg.Capture.Source == "file" {
		if recordFile == "" {
			return fmt.Errorf("capture.source is file but no --file was given")
		}
		err = replayOnce(ctx, recorder, out)
		if alreadyReported(err) {
			cmd.SilenceErrors = true
		}
		return err
	}

	err = interactive(ctx, recorder, cmd.InOrStdin(), out)
	if alreadyReported(err) {
		cmd.SilenceErrors = true
	}
	return err
}

// replayOnce records the whole file as one session
func replayOnce(ctx context.Context, recorder *capture.Recorder, out io.Writer) error {
	session, err := recorder.Start(ctx)
	if err != nil {
		return err
	}

	select {
	case <-session.Exhausted():
	case <-ctx.Done():
		return session.Abort(context.Background())
	}

	return finish(ctx, session, out)
}

// interactive toggles recording on every line read from in
func interactive(ctx context.Context, recorder *capture.Recorder, in io.Reader, out io.Writer) error {
	lines := make(chan struct{})
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- struct{}{}
		}
	}()

	fmt.Fprintln(out, "Press Enter to start recording, Enter again to stop. Ctrl+D quits.")

	var session *capture.Session
	for {
		select {
		case <-ctx.Done():
			if session != nil {
				return session.Abort(context.Background())
			}
			return nil

		case _, ok := <-lines:
			if !ok {
				if session != nil {
					return finish(ctx, session, out)
				}
				return nil
			}

			if session == nil {
				s, err := recorder.Start(ctx)
				if err != nil {
					var permErr *capture.PermissionError
					if errors.As(err, &permErr) {
						return err
					}
					fmt.Fprintf(out, "Error: %v\n", err)
					continue
				}
				session = s
				fmt.Fprintln(out, "Recording... press Enter to stop.")
				continue
			}

			if err := finish(ctx, session, out); err != nil && !alreadyReported(err) {
				fmt.Fprintf(out, "Error: %v\n", err)
			}
			session = nil
			fmt.Fprintln(out, "Press Enter to record again.")
		}
	}
}

// alreadyReported reports whether the dispatcher has printed err
func alreadyReported(err error) bool {
	var published *assistant.PublishedError
	return errors.As(err, &published)
}

// finish stops the session and reports discarded recordings.
// Delivered responses are printed by the dispatcher.
func finish(ctx context.Context, session *capture.Session, out io.Writer) error {
	outcome, err := session.Stop(ctx)
	if err != nil {
		return err
	}
	if outcome.Discarded {
		fmt.Fprintf(out, "Recording too short (%s), not sent.\n", outcome.Duration.Round(time.Millisecond))
	}
	return nil
}
