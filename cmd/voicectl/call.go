package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skypro1111/voice-gateway/internal/call"
)

var (
	callTo      string
	callMessage string
)

var callCmd = &cobra.Command{
	Use:   "call",
	Short: "Ask the server to place an outbound call",
	Long: `Call sends the number and message to the voice-gateway call endpoint
(call.endpoint, or CALL_ENDPOINT) and prints the resulting call SID.`,
	Args: cobra.NoArgs,
	RunE: runCall,
}

func init() {
	callCmd.Flags().StringVar(&callTo, "to", "", "Phone number to call")
	callCmd.Flags().StringVarP(&callMessage, "message", "m", "", "Message to read aloud")
	rootCmd.AddCommand(callCmd)
}

func runCall(cmd *cobra.Command, args []string) error {
	client, err := call.NewClient(cfg.Call.Endpoint, nil)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Call.GetTimeoutDuration())
	defer cancel()

	result, err := client.Initiate(ctx, callTo, callMessage)
	fmt.Fprintln(cmd.OutOrStdout(), call.StatusLine(result, err))
	if err != nil {
		// The status line already describes the failure
		cmd.SilenceErrors = true
	}
	return err
}
