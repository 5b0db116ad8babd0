package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/storyloom/jobpulse"
	"github.com/storyloom/jobpulse/config"
)

// validateCmd checks a configuration file without issuing any requests.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Validate a jobpulse configuration file.

Checks YAML syntax, expands environment variables, verifies the status URL
and its {job_id} placeholder, and confirms the options construct a watcher.
No status requests are issued.

Example:
  jobpulse validate -c config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("config is invalid: %w", err)
	}

	// dry-run construction so option-level validation also runs
	w, err := jobpulse.New(cfg.StatusURL, config.BuildOptions(cfg)...)
	if err != nil {
		return fmt.Errorf("config is invalid: %w", err)
	}
	w.Close()

	fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", configFile)
	fmt.Fprintf(cmd.OutOrStdout(), "  status_url: %s\n", cfg.StatusURL)
	return nil
}
