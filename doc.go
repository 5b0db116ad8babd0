// Package jobpulse watches a single asynchronous server-side job (an LLM
// generation task, a long import, any work item observable only through a
// status endpoint) until it reaches a terminal outcome.
//
// The library owns the entire observation lifecycle: scheduling requests,
// classifying responses, computing retry delays with jittered exponential
// backoff, enforcing attempt and wall-clock budgets, and emitting
// already-classified, human-readable lifecycle events to a consumer. The
// consumer never sees raw status codes or transport errors.
//
// # Quick Start
//
// Create a watcher for a status endpoint and observe a job:
//
//	w, _ := jobpulse.New("https://api.example.com/v1/tasks/{job_id}/status/",
//	    jobpulse.WithHeaders("X-CSRFToken", token),
//	    jobpulse.WithEvents(jobpulse.Events{
//	        Progress: func(pct int) { render(pct) },
//	        Notify:   func(msg string, sev jobpulse.NotifySeverity) { toast(msg, sev) },
//	    }),
//	)
//
//	session := w.Watch(ctx, jobpulse.Signal{JobID: id, Active: true})
//	<-session.Done()
//	outcome, _ := session.Outcome()
//
// The watcher polls the endpoint until the job reports completed or failed,
// the retry budget (20 attempts or 5 minutes, whichever fires first) is
// exhausted, or the caller cancels. Cancellation aborts an in-flight request
// and any pending retry, and is never surfaced as a failure.
//
// # Status Contract
//
// The status endpoint is a credentialed GET returning JSON:
//
//	{"status": "pending"|"processing"|"completed"|"failed", "error_message": "..."}
//
// Response interpretation is pluggable via [StatusDecoder]. The built-in
// [DefaultDecoder] reads the top-level "status" and "error_message" fields;
// [JSONFieldDecoder] navigates nested payloads with dot notation. Producer
// state names such as Celery's SUCCESS/FAILURE/STARTED are normalized to the
// four job statuses.
//
// # Retry Policy
//
// HTTP 400, 401, 403, 404 and 422 are terminal: the session fails immediately
// with a code-specific message. Every other failure (network errors, 429,
// 5xx) is retried under capped exponential backoff with jitter. A 429 with a
// Retry-After header is honored literally. Budget exhaustion degrades to a
// single "taking longer than expected" timeout regardless of what the
// individual failures were.
//
// # Architecture
//
// The root package holds the public API and the session state machine.
// Internal packages (under internal/) may change without notice:
//
//   - internal/poller: HTTP client wrapper, backoff policy, status-code classification
//   - internal/store: per-job snapshot storage with pub/sub for out-of-band observers
package jobpulse
