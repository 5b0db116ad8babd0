package jobpulse

import (
	"encoding/json"
	"strconv"
	"strings"
)

// StatusDecoder interprets a successful (2xx) status-endpoint response body
// as a job status plus an optional job-reported error message.
//
// StatusDecoder is a pure function: the same body always produces the same
// result. This keeps decoders easy to test and compose. Decoders are only
// consulted for 2xx responses; HTTP-level failures are classified separately
// by the retry policy.
//
// If the body cannot be interpreted, a decoder returns an empty [JobStatus].
// The session treats anything outside the four canonical statuses as
// pending (retry) and logs it as unexpected rather than failing the session.
type StatusDecoder func(body []byte) (JobStatus, string)

// DefaultDecoder is the [StatusDecoder] used when no decoder is specified.
//
// It reads the top-level "status" and "error_message" fields, the contract
// used by the reference generation backend:
//
//	{"status": "processing", "error_message": null}
var DefaultDecoder = JSONFieldDecoder("status", "error_message")

// JSONFieldDecoder returns a [StatusDecoder] that extracts the job status and
// error message from JSON fields addressed with dot notation.
//
// For example, JSONFieldDecoder("task.state", "task.error") navigates
// {"task": {"state": "SUCCESS", "error": ""}}. Extracted status values are
// normalized via [NormalizeJobStatus], so Celery-style state names work
// without a custom decoder.
//
// Example:
//
//	decoder := jobpulse.JSONFieldDecoder("data.status", "data.detail")
func JSONFieldDecoder(statusPath, errorPath string) StatusDecoder {
	statusParts := strings.Split(statusPath, ".")
	errorParts := strings.Split(errorPath, ".")

	return func(body []byte) (JobStatus, string) {
		var data interface{}
		if err := json.Unmarshal(body, &data); err != nil {
			return "", ""
		}

		raw := extractJSONPath(data, statusParts)
		if raw == "" {
			return "", ""
		}

		return NormalizeJobStatus(raw), extractJSONPath(data, errorParts)
	}
}

// NormalizeJobStatus maps producer-specific state names onto the four
// canonical job statuses.
//
// Recognized aliases follow common task-queue conventions, notably Celery's
// uppercase states:
//   - [JobPending]: "pending", "received", "queued", "waiting"
//   - [JobProcessing]: "processing", "started", "running", "retry", "in_progress"
//   - [JobCompleted]: "completed", "success", "succeeded", "done"
//   - [JobFailed]: "failed", "failure", "error", "revoked"
//
// Unrecognized values are returned lowercased and trimmed so the session can
// flag them as unexpected.
func NormalizeJobStatus(raw string) JobStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending", "received", "queued", "waiting":
		return JobPending
	case "processing", "started", "running", "retry", "in_progress":
		return JobProcessing
	case "completed", "success", "succeeded", "done":
		return JobCompleted
	case "failed", "failure", "error", "revoked":
		return JobFailed
	default:
		return JobStatus(strings.ToLower(strings.TrimSpace(raw)))
	}
}

// extractJSONPath walks a JSON structure using dot notation parts.
func extractJSONPath(data interface{}, parts []string) string {
	current := data

	for _, part := range parts {
		obj, ok := current.(map[string]interface{})
		if !ok {
			return ""
		}
		current, ok = obj[part]
		if !ok {
			return ""
		}
	}

	switch v := current.(type) {
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}
