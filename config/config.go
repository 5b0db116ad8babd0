// Package config provides YAML configuration parsing for jobpulse.
//
// This package enables running the watcher as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	status_url: https://story.example.com/api/v1/tasks/{job_id}/status/
//	request_timeout: 10s
//	max_attempts: 20
//	total_timeout: 5m
//	headers:
//	  X-CSRFToken: ${CSRF_TOKEN}
//	decoder: json:status,error_message
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// jobIDPlaceholder must appear in the status URL so the watcher can resolve
// it per job. Mirrors jobpulse.JobIDPlaceholder; duplicated here to keep the
// config package importable without the SDK.
const jobIDPlaceholder = "{job_id}"

// minRequestTimeout prevents configs from hammering the endpoint with
// requests that cannot realistically complete.
const minRequestTimeout = 1 * time.Second

// Config is the root configuration structure for jobpulse.
//
// It maps directly to the YAML configuration file. Use [Load] or [Parse] to
// create a Config from YAML. Zero fields mean "use the SDK default"; the
// builder only emits options for values that were actually set.
type Config struct {
	// StatusURL is the status endpoint template. It must be an absolute
	// http(s) URL containing the {job_id} placeholder. Supports environment
	// variable substitution: ${VAR} or ${VAR:-default}.
	StatusURL string `yaml:"status_url"`

	// Headers are sent with every status request. Values support
	// environment variable substitution, which keeps tokens out of the
	// config file.
	Headers map[string]string `yaml:"headers"`

	// RequestTimeout bounds each individual request. Defaults to 10s.
	RequestTimeout Duration `yaml:"request_timeout"`

	// MaxAttempts is the per-session request budget. Defaults to 20.
	MaxAttempts int `yaml:"max_attempts"`

	// TotalTimeout is the per-session wall-clock budget. Defaults to 5m.
	TotalTimeout Duration `yaml:"total_timeout"`

	// InitialDelay is the base retry delay. Defaults to 1s.
	InitialDelay Duration `yaml:"initial_delay"`

	// MaxDelay caps the retry delay. Defaults to 32s.
	MaxDelay Duration `yaml:"max_delay"`

	// ReloadDelay is the pause between success and the reload signal.
	ReloadDelay Duration `yaml:"reload_delay"`

	// Decoder selects how 2xx response bodies are interpreted.
	Decoder DecoderConfig `yaml:"decoder"`
}

// DecoderConfig specifies how to read the job status out of a response.
//
// It supports two formats in YAML:
//
// Shorthand string:
//
//	decoder: default
//	decoder: json:status
//	decoder: json:task.state,task.error
//
// Structured object:
//
//	decoder:
//	  type: json
//	  status_path: task.state
//	  error_path: task.error
type DecoderConfig struct {
	// Type is the decoder type: "default" or "json".
	Type string

	// StatusPath is the dot-notation path to the job status field.
	StatusPath string

	// ErrorPath is the dot-notation path to the job error message field.
	ErrorPath string
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// UnmarshalYAML implements yaml.Unmarshaler for DecoderConfig.
func (c *DecoderConfig) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		return c.parseShorthand(s)
	}

	if node.Kind == yaml.MappingNode {
		// temporary struct to avoid infinite recursion
		var raw struct {
			Type       string `yaml:"type"`
			StatusPath string `yaml:"status_path"`
			ErrorPath  string `yaml:"error_path"`
		}
		if err := node.Decode(&raw); err != nil {
			return err
		}
		c.Type = raw.Type
		c.StatusPath = raw.StatusPath
		c.ErrorPath = raw.ErrorPath
		return nil
	}

	return fmt.Errorf("decoder must be a string or object, got %v", node.Kind)
}

// parseShorthand parses decoder shorthand syntax.
//
// Supported formats:
//   - "default" → use the default decoder
//   - "json:statusPath" → custom status field, default error field
//   - "json:statusPath,errorPath" → custom status and error fields
func (c *DecoderConfig) parseShorthand(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	if idx := strings.Index(s, ":"); idx != -1 {
		c.Type = s[:idx]
		if c.Type != "json" {
			return fmt.Errorf("unknown decoder type %q", c.Type)
		}
		paths := strings.SplitN(s[idx+1:], ",", 2)
		c.StatusPath = strings.TrimSpace(paths[0])
		if len(paths) == 2 {
			c.ErrorPath = strings.TrimSpace(paths[1])
		}
		if c.StatusPath == "" {
			return errors.New("decoder type 'json' requires a status path")
		}
		return nil
	}

	if s != "default" {
		return fmt.Errorf("unknown decoder %q (expected 'default' or 'json:path[,errorPath]')", s)
	}
	c.Type = s
	return nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment
// values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before validation.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in StatusURL and Header values.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.StatusURL == "" {
		return errors.New("status_url is required")
	}

	expanded, err := expandEnvVars(c.StatusURL)
	if err != nil {
		return fmt.Errorf("status_url: %w", err)
	}
	c.StatusURL = expanded

	parsedURL, err := url.Parse(c.StatusURL)
	if err != nil {
		return fmt.Errorf("invalid status_url: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("status_url scheme must be http or https, got %q", parsedURL.Scheme)
	}
	if !strings.Contains(c.StatusURL, jobIDPlaceholder) {
		return fmt.Errorf("status_url must contain the %s placeholder", jobIDPlaceholder)
	}

	for k, v := range c.Headers {
		expanded, err := expandEnvVars(v)
		if err != nil {
			return fmt.Errorf("headers[%s]: %w", k, err)
		}
		c.Headers[k] = expanded
	}

	if c.RequestTimeout != 0 && c.RequestTimeout.Duration() < minRequestTimeout {
		return fmt.Errorf("request_timeout must be at least %s if specified, got %s",
			minRequestTimeout, c.RequestTimeout.Duration())
	}

	if c.MaxAttempts < 0 {
		return fmt.Errorf("max_attempts cannot be negative, got %d", c.MaxAttempts)
	}

	if c.TotalTimeout != 0 && c.TotalTimeout.Duration() <= 0 {
		return fmt.Errorf("total_timeout must be positive, got %s", c.TotalTimeout.Duration())
	}

	if c.InitialDelay != 0 && c.InitialDelay.Duration() <= 0 {
		return fmt.Errorf("initial_delay must be positive, got %s", c.InitialDelay.Duration())
	}

	if c.MaxDelay != 0 && c.MaxDelay.Duration() <= 0 {
		return fmt.Errorf("max_delay must be positive, got %s", c.MaxDelay.Duration())
	}

	if c.InitialDelay != 0 && c.MaxDelay != 0 &&
		c.MaxDelay.Duration() < c.InitialDelay.Duration() {
		return fmt.Errorf("max_delay %s is below initial_delay %s",
			c.MaxDelay.Duration(), c.InitialDelay.Duration())
	}

	if c.ReloadDelay.Duration() < 0 {
		return fmt.Errorf("reload_delay cannot be negative, got %s", c.ReloadDelay.Duration())
	}

	return validateDecoder(&c.Decoder)
}

// validateDecoder validates a decoder configuration.
func validateDecoder(d *DecoderConfig) error {
	switch d.Type {
	case "", "default":
		// empty means default, which is valid
	case "json":
		if d.StatusPath == "" {
			return errors.New("decoder type 'json' requires a status_path")
		}
	default:
		return fmt.Errorf("unknown decoder type %q", d.Type)
	}
	return nil
}
