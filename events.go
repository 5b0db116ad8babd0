package jobpulse

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
)

// Events carries the consumer-facing lifecycle callbacks for a session.
//
// All fields are optional; nil callbacks are skipped. Progress, StatusMessage,
// Notify and Terminal are invoked from the session's polling goroutine in
// request order: attempt N's events are always delivered before attempt N+1
// is issued. Elapsed is invoked from an independent once-per-second display
// tick and carries no state information beyond the wall-clock duration.
//
// # Panic Safety
//
// Callbacks are invoked within a panic recovery boundary. If a callback
// panics, the panic is logged with a correlation ID and full stack trace, and
// the session continues. A misbehaving renderer cannot kill the polling loop.
//
// Callbacks should return quickly. A blocking callback delays the next poll,
// stretching the session's effective schedule.
type Events struct {
	// Progress receives a display percentage in [0, 100]. While polling it
	// is a bounded pacing heuristic, not a measurement; it jumps to exactly
	// 100 on success and to 0 on terminal failure.
	Progress func(percent int)

	// StatusMessage receives the human-readable inline status line.
	StatusMessage func(text string, severity MessageSeverity)

	// Notify receives short side-channel messages (success, warning, error).
	// Cancellation never notifies; teardown is not a failure.
	Notify func(message string, severity NotifySeverity)

	// Terminal fires exactly once when the session reaches a terminal
	// state. shouldReload is true only on success, after a short delay that
	// lets the success state render first.
	Terminal func(outcome Outcome, shouldReload bool)

	// Elapsed receives the time since the session started, once per second.
	// Display only; it performs no state transitions.
	Elapsed func(since time.Duration)
}

// invokeSafe calls an event callback with panic recovery.
// If the callback panics, it logs the full stack trace with a correlation ID
// so the consumer-side bug is diagnosable without crashing the session.
func invokeSafe(logger *slog.Logger, callback string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			logger.Error("event callback panic",
				"callback", callback,
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	fn()
}
