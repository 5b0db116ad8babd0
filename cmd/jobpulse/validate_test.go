package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunValidate_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
status_url: https://story.example.com/api/v1/tasks/{job_id}/status/
max_attempts: 10
`)

	cmd := validateCmd
	if err := cmd.Flags().Set("config", path); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	cmd.SetOut(&out)

	if err := runValidate(cmd, nil); err != nil {
		t.Fatalf("runValidate() error = %v", err)
	}
	if !strings.Contains(out.String(), "is valid") {
		t.Errorf("output = %q, want confirmation", out.String())
	}
	if !strings.Contains(out.String(), "story.example.com") {
		t.Errorf("output = %q, want the resolved status_url", out.String())
	}
}

func TestRunValidate_InvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing placeholder", "status_url: https://story.example.com/api/status/\n"},
		{"bad delay ordering", "status_url: https://x.example.com/{job_id}/\ninitial_delay: 10s\nmax_delay: 1s\n"},
		{"not yaml", "{{{{"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)

			cmd := validateCmd
			if err := cmd.Flags().Set("config", path); err != nil {
				t.Fatal(err)
			}
			cmd.SetOut(new(bytes.Buffer))

			if err := runValidate(cmd, nil); err == nil {
				t.Error("runValidate() error = nil, want error")
			}
		})
	}
}

func TestRunValidate_MissingFile(t *testing.T) {
	cmd := validateCmd
	if err := cmd.Flags().Set("config", filepath.Join(t.TempDir(), "nope.yaml")); err != nil {
		t.Fatal(err)
	}
	cmd.SetOut(new(bytes.Buffer))

	if err := runValidate(cmd, nil); err == nil {
		t.Error("runValidate() error = nil, want file error")
	}
}
