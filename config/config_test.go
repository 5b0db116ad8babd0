package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const validYAML = `
status_url: https://story.example.com/api/v1/tasks/{job_id}/status/
request_timeout: 10s
max_attempts: 20
total_timeout: 5m
initial_delay: 1s
max_delay: 32s
reload_delay: 500ms
headers:
  X-CSRFToken: token123
  X-Requested-With: XMLHttpRequest
decoder: default
`

func TestParse_FullConfig(t *testing.T) {
	cfg, err := Parse([]byte(validYAML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.StatusURL != "https://story.example.com/api/v1/tasks/{job_id}/status/" {
		t.Errorf("StatusURL = %q", cfg.StatusURL)
	}
	if cfg.RequestTimeout.Duration() != 10*time.Second {
		t.Errorf("RequestTimeout = %v, want 10s", cfg.RequestTimeout.Duration())
	}
	if cfg.MaxAttempts != 20 {
		t.Errorf("MaxAttempts = %d, want 20", cfg.MaxAttempts)
	}
	if cfg.TotalTimeout.Duration() != 5*time.Minute {
		t.Errorf("TotalTimeout = %v, want 5m", cfg.TotalTimeout.Duration())
	}
	if cfg.ReloadDelay.Duration() != 500*time.Millisecond {
		t.Errorf("ReloadDelay = %v, want 500ms", cfg.ReloadDelay.Duration())
	}
	if got := cfg.Headers["X-CSRFToken"]; got != "token123" {
		t.Errorf("Headers[X-CSRFToken] = %q, want %q", got, "token123")
	}
	if cfg.Decoder.Type != "default" {
		t.Errorf("Decoder.Type = %q, want %q", cfg.Decoder.Type, "default")
	}
}

func TestParse_MinimalConfig(t *testing.T) {
	cfg, err := Parse([]byte("status_url: http://localhost:8000/tasks/{job_id}/status/\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	// everything else stays zero so SDK defaults apply
	if cfg.MaxAttempts != 0 || cfg.RequestTimeout != 0 || cfg.TotalTimeout != 0 {
		t.Errorf("expected zero values for unset fields, got %+v", cfg)
	}
}

func TestParse_ValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing status_url", "max_attempts: 5\n"},
		{"status_url without placeholder", "status_url: https://x.example.com/status/\n"},
		{"bad scheme", "status_url: ftp://x.example.com/{job_id}/\n"},
		{"request_timeout too small", "status_url: https://x.example.com/{job_id}/\nrequest_timeout: 100ms\n"},
		{"negative max_attempts", "status_url: https://x.example.com/{job_id}/\nmax_attempts: -1\n"},
		{"max_delay below initial_delay", "status_url: https://x.example.com/{job_id}/\ninitial_delay: 10s\nmax_delay: 1s\n"},
		{"invalid duration", "status_url: https://x.example.com/{job_id}/\ntotal_timeout: soon\n"},
		{"unknown decoder", "status_url: https://x.example.com/{job_id}/\ndecoder: xml\n"},
		{"json decoder without path", "status_url: https://x.example.com/{job_id}/\ndecoder:\n  type: json\n"},
		{"not yaml", "{{{{"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Error("Parse() error = nil, want error")
			}
		})
	}
}

func TestParse_DecoderShorthand(t *testing.T) {
	tests := []struct {
		name       string
		yaml       string
		wantType   string
		wantStatus string
		wantError  string
	}{
		{
			name:     "default",
			yaml:     "decoder: default",
			wantType: "default",
		},
		{
			name:       "json with status path",
			yaml:       "decoder: json:task.state",
			wantType:   "json",
			wantStatus: "task.state",
		},
		{
			name:       "json with both paths",
			yaml:       "decoder: json:task.state,task.error",
			wantType:   "json",
			wantStatus: "task.state",
			wantError:  "task.error",
		},
	}

	base := "status_url: https://x.example.com/{job_id}/\n"
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(base + tt.yaml + "\n"))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if cfg.Decoder.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", cfg.Decoder.Type, tt.wantType)
			}
			if cfg.Decoder.StatusPath != tt.wantStatus {
				t.Errorf("StatusPath = %q, want %q", cfg.Decoder.StatusPath, tt.wantStatus)
			}
			if cfg.Decoder.ErrorPath != tt.wantError {
				t.Errorf("ErrorPath = %q, want %q", cfg.Decoder.ErrorPath, tt.wantError)
			}
		})
	}
}

func TestParse_DecoderStructured(t *testing.T) {
	yaml := `
status_url: https://x.example.com/{job_id}/
decoder:
  type: json
  status_path: data.status
  error_path: data.detail
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Decoder.Type != "json" || cfg.Decoder.StatusPath != "data.status" || cfg.Decoder.ErrorPath != "data.detail" {
		t.Errorf("Decoder = %+v", cfg.Decoder)
	}
}

func TestParse_EnvExpansion(t *testing.T) {
	t.Setenv("JP_TEST_HOST", "story.example.com")
	t.Setenv("JP_TEST_TOKEN", "secret-token")

	yaml := `
status_url: https://${JP_TEST_HOST}/api/v1/tasks/{job_id}/status/
headers:
  X-CSRFToken: ${JP_TEST_TOKEN}
  X-Region: ${JP_TEST_MISSING:-eu-west}
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !strings.Contains(cfg.StatusURL, "story.example.com") {
		t.Errorf("StatusURL = %q, env var not expanded", cfg.StatusURL)
	}
	if got := cfg.Headers["X-CSRFToken"]; got != "secret-token" {
		t.Errorf("Headers[X-CSRFToken] = %q, want %q", got, "secret-token")
	}
	if got := cfg.Headers["X-Region"]; got != "eu-west" {
		t.Errorf("Headers[X-Region] = %q, want default %q", got, "eu-west")
	}
}

func TestParse_MissingEnvVarFails(t *testing.T) {
	yaml := "status_url: https://x.example.com/{job_id}/\nheaders:\n  X-Token: ${JP_TEST_DEFINITELY_UNSET}\n"
	if _, err := Parse([]byte(yaml)); err == nil {
		t.Error("Parse() error = nil, want missing env var error")
	}
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(validYAML), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MaxAttempts != 20 {
		t.Errorf("MaxAttempts = %d, want 20", cfg.MaxAttempts)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() error = nil, want read error")
	}
}
