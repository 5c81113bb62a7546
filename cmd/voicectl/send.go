package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/skypro1111/voice-gateway/internal/audio"
)

var sendSaveDir string

var sendCmd = &cobra.Command{
	Use:   "send FILE.wav",
	Short: "Send an existing WAV file to the assistant",
	Long: `Send uploads a WAV file as-is, without recording or re-encoding,
and prints the assistant's answer.`,
	Args: cobra.ExactArgs(1),
	RunE: runSend,
}

func init() {
	sendCmd.Flags().StringVar(&sendSaveDir, "save-audio", "", "Directory for reply audio (composite format)")
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	info, err := audio.GetWAVInfo(data)
	if err != nil {
		return fmt.Errorf("%s is not a usable WAV file: %w", args[0], err)
	}
	logger.Debug("Sending WAV file",
		slog.String("path", args[0]),
		slog.Int("channels", int(info.Channels)),
		slog.Float64("duration_seconds", info.Duration),
	)

	client, err := newAssistantClient(nil)
	if err != nil {
		return err
	}

	resp, err := client.Send(cmd.Context(), data)
	if err != nil {
		return err
	}
	return printResponse(cmd.OutOrStdout(), resp, sendSaveDir)
}
