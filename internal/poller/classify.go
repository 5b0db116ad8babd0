package poller

// Class indicates whether an HTTP status code ends the session or permits a
// retry.
type Class int

const (
	// ClassRetryable covers every status code outside the closed terminal
	// set, notably 429 and all 5xx.
	ClassRetryable Class = iota

	// ClassTerminal ends the session immediately; remaining retry budget is
	// discarded.
	ClassTerminal
)

// Reason identifies why a status code is terminal, so the caller can pick an
// appropriate user-facing message without ever exposing raw codes.
type Reason int

const (
	// ReasonNone accompanies ClassRetryable.
	ReasonNone Reason = iota

	// ReasonNotFound: the job does not exist (404). The consumer should
	// start a new generation rather than retry.
	ReasonNotFound

	// ReasonAccessDenied: authentication or authorization failed (401, 403).
	ReasonAccessDenied

	// ReasonRejected: the request itself was invalid (400, 422). Retrying
	// an identical request cannot succeed.
	ReasonRejected
)

// Classify maps an HTTP status code onto the retry policy.
//
// The terminal set is closed: 400, 401, 403, 404 and 422. Everything else is
// retryable, which deliberately includes unexpected 2xx-adjacent codes and
// unknown 4xx; only codes known to be unrecoverable skip the retry budget.
// Classify is the single source of truth for the policy and is independent
// of any transport.
func Classify(statusCode int) (Class, Reason) {
	switch statusCode {
	case 404:
		return ClassTerminal, ReasonNotFound
	case 401, 403:
		return ClassTerminal, ReasonAccessDenied
	case 400, 422:
		return ClassTerminal, ReasonRejected
	default:
		return ClassRetryable, ReasonNone
	}
}
