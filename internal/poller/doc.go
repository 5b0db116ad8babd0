// Package poller provides the transport-level building blocks for watching
// an asynchronous job: an HTTP client wrapper tuned for repeated polling of
// one endpoint, a capped exponential backoff policy with jitter, and the
// closed classification of HTTP status codes into terminal and retryable.
//
// This package is internal to jobpulse. The public API is in the root
// package; these types may change without notice.
package poller
