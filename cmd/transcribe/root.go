package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"diarist/internal/poller"
)

func newRootCommand() *cobra.Command {
	var serverURL string
	var interval time.Duration
	var timeout time.Duration

	rootCmd := &cobra.Command{
		Use:           "transcribe <media-file>",
		Short:         "Submit a video for diarized transcription and wait for the result",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			return run(ctx, cmd, args[0], serverURL, interval)
		},
	}

	rootCmd.Flags().StringVar(&serverURL, "server", "http://localhost:3000", "Base URL of the transcription service")
	rootCmd.Flags().DurationVar(&interval, "interval", 3*time.Second, "Status polling interval")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 30*time.Minute, "Overall deadline, 0 to wait indefinitely")

	return rootCmd
}

func run(ctx context.Context, cmd *cobra.Command, path, serverURL string, interval time.Duration) error {
	p := poller.New(poller.Options{
		BaseURL:  serverURL,
		Interval: interval,
		OnProgress: func(percent int) {
			fmt.Fprintf(cmd.OutOrStdout(), "Progress: %d%%\n", percent)
		},
	})

	fmt.Fprintf(cmd.OutOrStdout(), "Uploading %s...\n", path)
	if err := p.Submit(ctx, path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Transcription %s submitted, waiting...\n", p.JobID())

	state, err := p.Run(ctx)
	if err != nil {
		return err
	}
	if state != poller.StateDone {
		return fmt.Errorf("transcription ended in state %s: %s", state, p.Message())
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderTranscript(p.Segments()))
	return nil
}
