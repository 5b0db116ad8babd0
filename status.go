package jobpulse

// JobStatus is the job's own lifecycle phase as reported by the status
// endpoint.
//
// The four canonical values cover the producer contract. Decoders normalize
// producer-specific spellings (Celery's SUCCESS, FAILURE, STARTED and so on)
// onto these values; anything that cannot be normalized passes through
// unchanged and is handled by the session as an unknown status.
type JobStatus string

const (
	// JobPending indicates the job is queued and has not started running.
	JobPending JobStatus = "pending"

	// JobProcessing indicates the job is actively running.
	JobProcessing JobStatus = "processing"

	// JobCompleted indicates the job finished successfully.
	JobCompleted JobStatus = "completed"

	// JobFailed indicates the job itself failed. This is a property of the
	// job, not of the transport used to observe it.
	JobFailed JobStatus = "failed"
)

// String returns the string representation of the job status.
// This implements the fmt.Stringer interface.
func (s JobStatus) String() string {
	return string(s)
}

// State is the lifecycle state of a [Session].
//
// A session starts idle, becomes active when polling begins, and moves
// monotonically into exactly one terminal state. No transition ever leaves a
// terminal state.
type State string

const (
	// StateIdle is the state before polling has started.
	StateIdle State = "idle"

	// StateActive indicates the polling loop is running.
	StateActive State = "active"

	// StateSucceeded indicates the job reported completion.
	StateSucceeded State = "succeeded"

	// StateFailed indicates a terminal failure: an invalid job id, a
	// terminal HTTP status, or the job reporting its own failure.
	StateFailed State = "failed"

	// StateTimedOut indicates the attempt or wall-clock budget was
	// exhausted before the job reached a terminal status.
	StateTimedOut State = "timed-out"

	// StateCancelled indicates the caller tore the session down.
	StateCancelled State = "cancelled"
)

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// Terminal reports whether the state is final. Terminal sessions never poll
// again and ignore further transitions.
func (s State) Terminal() bool {
	switch s {
	case StateSucceeded, StateFailed, StateTimedOut, StateCancelled:
		return true
	default:
		return false
	}
}

// Outcome is the terminal result of a session, available once
// [Session.Done] is closed.
type Outcome string

const (
	// OutcomeSucceeded means the job completed and the consumer should
	// refresh its view.
	OutcomeSucceeded Outcome = "succeeded"

	// OutcomeFailed means the session ended in a non-retryable failure.
	OutcomeFailed Outcome = "failed"

	// OutcomeTimedOut means the retry budget was exhausted.
	OutcomeTimedOut Outcome = "timed-out"

	// OutcomeCancelled means the caller cancelled the session. This is a
	// normal teardown, not a failure, and emits no notifications.
	OutcomeCancelled Outcome = "cancelled"
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	return string(o)
}

// MessageSeverity styles an inline status message.
type MessageSeverity string

const (
	// SeverityNormal is the default styling for in-progress messages.
	SeverityNormal MessageSeverity = "normal"

	// SeveritySuccess styles the completion message.
	SeveritySuccess MessageSeverity = "success"

	// SeverityError styles terminal failure messages.
	SeverityError MessageSeverity = "error"
)

// NotifySeverity styles a side-channel notification (a toast, a log line, a
// desktop notification; whatever the consumer renders them as).
type NotifySeverity string

const (
	// NotifySuccess announces a completed job.
	NotifySuccess NotifySeverity = "success"

	// NotifyWarning announces a degraded but non-fatal condition, such as
	// budget exhaustion.
	NotifyWarning NotifySeverity = "warning"

	// NotifyError announces a terminal failure.
	NotifyError NotifySeverity = "error"

	// NotifyInfo announces neutral information.
	NotifyInfo NotifySeverity = "info"
)
