package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/skypro1111/voice-gateway/internal/config"
	"github.com/skypro1111/voice-gateway/internal/logging"
)

var (
	configPath string
	envFile    string
	verbose    bool

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "voicectl",
	Short:         "Record, send and call from the command line",
	SilenceUsage:  true,
	SilenceErrors: false,
	Long: `voicectl records speech, encodes it as WAV and sends it to the
voice-assistant endpoint, printing the assistant's answer.

It can also ask a running voice-gateway server to place an outbound
call that reads a message aloud.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}

		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if verbose {
			loaded.Logging.Level = "debug"
		}
		// Keep stdout for results
		if loaded.Logging.Output == "stdout" {
			loaded.Logging.Output = "stderr"
		}

		cfg = loaded
		logger = logging.New(cfg.Logging)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (defaults only when empty)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Error already printed by cobra
		os.Exit(1)
	}
}
