// Package main is the entry point for the jobpulse CLI.
//
// jobpulse can be used either as a library (SDK) or as a standalone binary
// with YAML configuration. This CLI provides the standalone binary approach.
//
// Usage:
//
//	jobpulse watch -c config.yaml JOB_ID  # Watch a job to completion
//	jobpulse validate -c config.yaml      # Validate configuration
//	jobpulse version                      # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "jobpulse",
	Short: "Watch an asynchronous job to completion",
	Long: `jobpulse watches a server-side asynchronous job through its status
endpoint until the job completes, fails, or the retry budget runs out.

It retries transient failures with jittered exponential backoff, honors
Retry-After on 429, stops immediately on terminal HTTP statuses, and prints
classified, human-readable progress instead of raw codes.

Quick start:
  1. Create a config file (jobpulse.yaml)
  2. Run: jobpulse watch -c jobpulse.yaml TASK_ID

Example config:
  status_url: https://story.example.com/api/v1/tasks/{job_id}/status/
  headers:
    X-CSRFToken: ${CSRF_TOKEN}
  max_attempts: 20
  total_timeout: 5m`,
	// No Run/RunE means this just shows help when called without subcommands
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this jobpulse binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("jobpulse %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	// Register subcommands with root
	rootCmd.AddCommand(versionCmd)
}
