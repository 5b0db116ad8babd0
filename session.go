package jobpulse

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/storyloom/jobpulse/internal/poller"
	"github.com/storyloom/jobpulse/internal/store"
)

// Display pacing. Progress while polling is min(10 + attempt*4, 90); the
// remaining headroom is reserved for the jump to 100 on success. After five
// attempts the phase-specific messages give way to a generic one so the UI
// communicates that it has not stalled.
const (
	baseProgress        = 10
	progressPerAttempt  = 4
	maxDisplayProgress  = 90
	genericMessageAfter = 5

	// elapsedTickInterval is the period of the display-only elapsed
	// reporter.
	elapsedTickInterval = time.Second
)

// Session is one bounded-lifetime observation of a job, from start to
// terminal outcome.
//
// A session is created by [Watcher.Watch] and drives a request/classify/
// schedule loop against the status endpoint. Exactly one request is ever in
// flight; attempt N's outcome is fully processed before attempt N+1 is
// issued. The session suspends only while a request is outstanding or while
// waiting out a retry delay, and both suspension points are cancellable.
//
// All methods are safe for concurrent use.
type Session struct {
	jobID        string
	url          string
	client       *poller.Client
	decoder      StatusDecoder
	events       Events
	logger       *slog.Logger
	backoff      poller.Backoff
	maxAttempts  int
	totalTimeout time.Duration
	reloadDelay  time.Duration
	snapshots    store.Store

	cancel context.CancelFunc
	runCtx context.Context
	done   chan struct{}

	mu        sync.Mutex
	state     State
	attempt   int
	startedAt time.Time
	progress  int
	message   string
	status    JobStatus
	lastError string
	outcome   Outcome
	hasOut    bool
}

// newSession builds a session bound to the watcher's policy. The session is
// idle until start (or failPreflight) is called.
func (w *Watcher) newSession(ctx context.Context, jobID string) *Session {
	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancel := context.WithCancel(ctx)

	return &Session{
		jobID:        jobID,
		url:          w.statusURLFor(jobID),
		client:       w.client,
		decoder:      w.decoder,
		events:       w.events,
		logger:       w.logger,
		backoff:      w.backoff,
		maxAttempts:  w.maxAttempts,
		totalTimeout: w.totalTimeout,
		reloadDelay:  w.reloadDelay,
		snapshots:    w.store,
		cancel:       cancel,
		runCtx:       runCtx,
		done:         make(chan struct{}),
		state:        StateIdle,
	}
}

// JobID returns the id of the job under observation.
func (s *Session) JobID() string {
	return s.jobID
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Attempts returns the number of status requests issued so far.
func (s *Session) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempt
}

// Outcome returns the terminal outcome. The boolean is false while the
// session is still running.
func (s *Session) Outcome() (Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome, s.hasOut
}

// Done returns a channel that is closed once the session reaches a terminal
// state and all its events have been emitted.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Cancel tears the session down: it aborts an in-flight request, prevents
// any pending retry from firing, and moves the session to
// [StateCancelled].
//
// Cancellation is not a failure and emits no notifications. Safe to call
// multiple times and from any state, including terminal states (no-op).
func (s *Session) Cancel() {
	s.cancel()
}

// start flips the session to active and launches the polling loop plus the
// elapsed-time reporter.
func (s *Session) start() {
	s.mu.Lock()
	s.state = StateActive
	s.startedAt = time.Now()
	s.mu.Unlock()

	go s.run(s.runCtx)
	go s.reportElapsed(s.runCtx)
}

// run is the polling loop. Each iteration enforces the budgets, issues one
// request, classifies the response, and either finishes the session or
// schedules the next attempt.
func (s *Session) run(ctx context.Context) {
	defer close(s.done)
	defer s.cancel()

	for {
		if ctx.Err() != nil {
			s.finishCancelled()
			return
		}

		attempt, elapsed := s.counters()
		if attempt >= s.maxAttempts || elapsed >= s.totalTimeout {
			s.finishTimedOut(msgTimedOut)
			return
		}

		attempt = s.beginAttempt()

		res := s.client.FetchStatus(ctx, s.url)
		s.logger.Debug("status poll",
			"job_id", s.jobID,
			"attempt", attempt,
			"code", res.StatusCode,
			"latency_ms", res.Latency.Milliseconds(),
			"error", res.Error,
		)

		var delay time.Duration

		switch {
		case res.Error != nil:
			if ctx.Err() != nil {
				// the failure was caused by teardown, stop silently
				s.finishCancelled()
				return
			}
			s.logger.Warn("status request failed",
				"job_id", s.jobID, "attempt", attempt, "error", res.Error)
			if s.budgetExhausted() {
				s.finishTimedOut(msgConnectivity)
				return
			}
			delay = s.backoff.Delay(attempt - 1)

		case res.StatusCode >= 200 && res.StatusCode < 300:
			status, jobErr := s.decoder(res.Body)
			switch status {
			case JobCompleted:
				s.finishSucceeded(ctx)
				return
			case JobFailed:
				// terminal by the job's own report, not by transport
				if jobErr == "" {
					jobErr = msgUnknownError
				}
				s.finishFailed(JobFailed, jobErr)
				return
			case JobPending:
				s.observe(JobPending, msgQueued, attempt)
				delay = s.backoff.Delay(attempt - 1)
			case JobProcessing:
				s.observe(JobProcessing, msgGenerating, attempt)
				delay = s.backoff.Delay(attempt - 1)
			default:
				// Unknown statuses retry as pending. This can mask new
				// producer states; the log line is the observability hook.
				s.logger.Warn("unexpected job status",
					"job_id", s.jobID, "status", status.String(), "attempt", attempt)
				s.observe(JobPending, msgQueued, attempt)
				delay = s.backoff.Delay(attempt - 1)
			}

		default:
			class, reason := poller.Classify(res.StatusCode)
			if class == poller.ClassTerminal {
				s.finishFailed("", terminalMessage(reason, res.StatusCode))
				return
			}
			s.logger.Warn("retryable status code",
				"job_id", s.jobID, "code", res.StatusCode, "attempt", attempt)
			delay = s.retryDelay(res, attempt)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.finishCancelled()
			return
		case <-timer.C:
		}
	}
}

// counters returns the attempt count and elapsed wall-clock time.
func (s *Session) counters() (int, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempt, time.Since(s.startedAt)
}

// budgetExhausted reports whether either retry budget has run out. The two
// limits are independent; either one firing ends the session.
func (s *Session) budgetExhausted() bool {
	attempt, elapsed := s.counters()
	return attempt >= s.maxAttempts || elapsed >= s.totalTimeout
}

// beginAttempt increments the request counter and reports the paced progress
// estimate. It returns the new 1-based attempt number.
func (s *Session) beginAttempt() int {
	s.mu.Lock()
	s.attempt++
	attempt := s.attempt
	s.mu.Unlock()

	s.emitProgress(progressEstimate(attempt))
	if attempt > genericMessageAfter {
		s.emitStatusMessage(msgStillWorking, SeverityNormal)
	}
	return attempt
}

// observe records a non-terminal job status and updates the inline message.
// Once the generic message has taken over, phase messages stop overriding it.
func (s *Session) observe(status JobStatus, message string, attempt int) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()

	if attempt <= genericMessageAfter {
		s.emitStatusMessage(message, SeverityNormal)
	} else {
		s.publish()
	}
}

// retryDelay picks the wait after a retryable HTTP status: a literal
// Retry-After on 429 when the server sent one, otherwise the standard
// backoff keyed to the 0-based count of the request that just completed.
func (s *Session) retryDelay(res poller.Result, attempt int) time.Duration {
	if res.StatusCode == http.StatusTooManyRequests && res.RetryAfter > 0 {
		return res.RetryAfter
	}
	return s.backoff.Delay(attempt - 1)
}

// terminalMessage maps a terminal classification to its user-facing message.
func terminalMessage(reason poller.Reason, statusCode int) string {
	switch reason {
	case poller.ReasonNotFound:
		return msgNotFound
	case poller.ReasonAccessDenied:
		return msgAccessDenied
	default:
		return msgRequestFailed(statusCode)
	}
}

// progressEstimate maps the attempt count onto a bounded display percentage.
// It is a pacing heuristic, not a measurement of real job progress.
func progressEstimate(attempt int) int {
	p := baseProgress + attempt*progressPerAttempt
	if p > maxDisplayProgress {
		return maxDisplayProgress
	}
	return p
}

// transition moves the session into a terminal state. It returns false when
// the session is already terminal, which makes every finish path idempotent
// and enforces the monotonic state machine.
func (s *Session) transition(state State, outcome Outcome) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return false
	}
	s.state = state
	s.outcome = outcome
	s.hasOut = true
	return true
}

// finishSucceeded completes the session: progress snaps to 100, the success
// notification fires, and after a short delay (letting the success state
// render first) the consumer is signalled to reload.
func (s *Session) finishSucceeded(ctx context.Context) {
	if !s.transition(StateSucceeded, OutcomeSucceeded) {
		return
	}
	s.mu.Lock()
	s.status = JobCompleted
	s.mu.Unlock()

	s.logger.Info("job completed", "job_id", s.jobID, "attempts", s.Attempts())
	s.emitProgress(100)
	s.emitStatusMessage(msgCompleted, SeveritySuccess)
	s.emitNotify(msgCompleted, NotifySuccess)

	timer := time.NewTimer(s.reloadDelay)
	select {
	case <-ctx.Done():
		timer.Stop()
	case <-timer.C:
	}
	s.emitTerminal(OutcomeSucceeded, true)
}

// finishFailed ends the session on a terminal failure with the given
// user-facing message.
func (s *Session) finishFailed(status JobStatus, message string) {
	if !s.transition(StateFailed, OutcomeFailed) {
		return
	}
	s.mu.Lock()
	if status != "" {
		s.status = status
	}
	s.lastError = message
	s.mu.Unlock()

	s.logger.Error("job failed", "job_id", s.jobID, "reason", message)
	s.emitProgress(0)
	s.emitStatusMessage(message, SeverityError)
	s.emitNotify(message, NotifyError)
	s.emitTerminal(OutcomeFailed, false)
}

// finishTimedOut ends the session when either budget is exhausted. Every
// flavor of exhaustion (many 500s, no response at all, a slow job) degrades
// to the same timeout; only the notification text varies for connectivity.
func (s *Session) finishTimedOut(notifyMessage string) {
	if !s.transition(StateTimedOut, OutcomeTimedOut) {
		return
	}
	s.mu.Lock()
	s.lastError = notifyMessage
	s.mu.Unlock()

	s.logger.Warn("polling budget exhausted",
		"job_id", s.jobID, "attempts", s.Attempts())
	s.emitStatusMessage(msgTimedOut, SeverityNormal)
	s.emitNotify(notifyMessage, NotifyWarning)
	s.emitTerminal(OutcomeTimedOut, false)
}

// finishCancelled ends the session on teardown. No notifications: the
// consumer asked for this.
func (s *Session) finishCancelled() {
	if !s.transition(StateCancelled, OutcomeCancelled) {
		return
	}
	s.logger.Debug("session cancelled", "job_id", s.jobID)
	s.publish()
	s.emitTerminal(OutcomeCancelled, false)
}

// failPreflight fails the session synchronously before any request is
// issued, for signals carrying an unusable job id.
func (s *Session) failPreflight() {
	if !s.transition(StateFailed, OutcomeFailed) {
		return
	}
	s.mu.Lock()
	s.lastError = msgMissingJobID
	s.mu.Unlock()

	s.logger.Error("missing or invalid job id", "job_id", s.jobID)
	s.emitNotify(msgMissingJobID, NotifyError)
	s.emitTerminal(OutcomeFailed, false)
	close(s.done)
}

// reportElapsed ticks once per second with the wall-clock duration since the
// session started. Display only; it reads startedAt and performs no state
// transitions.
func (s *Session) reportElapsed(ctx context.Context) {
	ticker := time.NewTicker(elapsedTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			since := time.Since(s.startedAt)
			s.mu.Unlock()
			if s.events.Elapsed != nil {
				invokeSafe(s.logger, "elapsed", func() { s.events.Elapsed(since) })
			}
			s.publish()
		}
	}
}

// emitProgress records and delivers a progress update.
func (s *Session) emitProgress(percent int) {
	s.mu.Lock()
	s.progress = percent
	s.mu.Unlock()

	if s.events.Progress != nil {
		invokeSafe(s.logger, "progress", func() { s.events.Progress(percent) })
	}
	s.publish()
}

// emitStatusMessage records and delivers the inline status line.
func (s *Session) emitStatusMessage(text string, severity MessageSeverity) {
	s.mu.Lock()
	s.message = text
	s.mu.Unlock()

	if s.events.StatusMessage != nil {
		invokeSafe(s.logger, "status_message", func() { s.events.StatusMessage(text, severity) })
	}
	s.publish()
}

// emitNotify delivers a side-channel notification.
func (s *Session) emitNotify(message string, severity NotifySeverity) {
	if s.events.Notify != nil {
		invokeSafe(s.logger, "notify", func() { s.events.Notify(message, severity) })
	}
}

// emitTerminal delivers the once-only terminal signal.
func (s *Session) emitTerminal(outcome Outcome, shouldReload bool) {
	if s.events.Terminal != nil {
		invokeSafe(s.logger, "terminal", func() { s.events.Terminal(outcome, shouldReload) })
	}
	s.publish()
}

// publish records the current observation in the snapshot store.
func (s *Session) publish() {
	s.mu.Lock()
	var elapsed time.Duration
	if !s.startedAt.IsZero() {
		elapsed = time.Since(s.startedAt)
	}
	var errMsg *string
	if s.lastError != "" {
		e := s.lastError
		errMsg = &e
	}
	snap := store.Snapshot{
		JobID:     s.jobID,
		State:     s.state.String(),
		Status:    s.status.String(),
		Progress:  s.progress,
		Message:   s.message,
		Attempt:   s.attempt,
		ElapsedMs: elapsed.Milliseconds(),
		UpdatedAt: time.Now(),
		Error:     errMsg,
	}
	s.mu.Unlock()

	s.snapshots.Update(snap)
}
