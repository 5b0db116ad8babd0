package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/storyloom/jobpulse"
	"github.com/storyloom/jobpulse/config"
)

// newLogger creates a JSON logger for CLI use.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// watchCmd watches one job until it reaches a terminal outcome.
var watchCmd = &cobra.Command{
	Use:   "watch JOB_ID",
	Short: "Watch a job until it finishes",
	Long: `Watch an asynchronous job through its status endpoint.

The command polls until the job completes or fails, the retry budget is
exhausted, or the process is interrupted (Ctrl+C). Progress and status
messages are printed as the job advances.

Exit codes:
  0  job completed (or watch was cancelled)
  1  job failed or the polling budget was exhausted

Example:
  jobpulse watch -c config.yaml 4f7f3a2e-91c4-4b5e-9f7a-2d2c8a1b0c3d`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	watchCmd.Flags().BoolP("verbose", "v", false, "log every poll attempt")
	_ = watchCmd.MarkFlagRequired("config")
}

func runWatch(cmd *cobra.Command, args []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger := newLogger(verbose)

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	jobID := args[0]

	opts := config.BuildOptions(cfg)
	opts = append(opts,
		jobpulse.WithLogger(logger),
		jobpulse.WithEvents(jobpulse.Events{
			Notify: func(message string, severity jobpulse.NotifySeverity) {
				fmt.Fprintf(cmd.ErrOrStderr(), "[%s] %s\n", severity, message)
			},
		}),
	)

	w, err := jobpulse.New(cfg.StatusURL, opts...)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	// cancel on SIGINT/SIGTERM so an in-flight request is aborted cleanly
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	snapshots := w.Subscribe(ctx)

	session := w.Watch(ctx, jobpulse.Signal{JobID: jobID, Active: true})
	if session == nil {
		return fmt.Errorf("no active job to watch")
	}

	renderSnapshots(cmd, snapshots, session)

	outcome, ok := session.Outcome()
	if !ok {
		// unreachable once Done has closed, but fail loudly if it happens
		return fmt.Errorf("session ended without an outcome")
	}

	switch outcome {
	case jobpulse.OutcomeSucceeded:
		fmt.Fprintf(cmd.OutOrStdout(), "job %s completed after %d attempts\n",
			jobID, session.Attempts())
		return nil
	case jobpulse.OutcomeCancelled:
		fmt.Fprintf(cmd.OutOrStdout(), "watch cancelled\n")
		return nil
	default:
		return fmt.Errorf("job %s did not complete: %s", jobID, outcome)
	}
}

// renderSnapshots prints one line per observation until the session ends.
func renderSnapshots(cmd *cobra.Command, snapshots <-chan jobpulse.Snapshot, session *jobpulse.Session) {
	var lastLine string
	for {
		select {
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			line := fmt.Sprintf("%3d%%  attempt %2d  %-10s %s",
				snap.Progress, snap.Attempt, snap.State, snap.Message)
			if line != lastLine {
				fmt.Fprintln(cmd.OutOrStdout(), line)
				lastLine = line
			}
		case <-session.Done():
			return
		}
	}
}
