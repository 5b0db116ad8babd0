package jobpulse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/storyloom/jobpulse/internal/poller"
	"github.com/storyloom/jobpulse/internal/store"
)

// JobIDPlaceholder is the token in the status URL template that gets
// replaced with the (path-escaped) job id.
const JobIDPlaceholder = "{job_id}"

// snapshotBuffer is the capacity of channels returned by [Watcher.Subscribe].
const snapshotBuffer = 100

// Signal is the input from the presentation layer describing whether there
// is a job to observe.
//
// The layer that embeds job state in its markup or model may hand over stale
// or missing identifiers; Watch validates the signal before any request is
// issued.
type Signal struct {
	// JobID identifies the async job to observe.
	JobID string

	// Active reports whether a job is actually in flight. When false, no
	// session is created.
	Active bool
}

// Watcher creates and tracks poll sessions against one status endpoint.
//
// A Watcher is created with [New] and is safe for concurrent use. It
// guarantees at most one active [Session] per job id: calling
// [Watcher.Watch] again for a job that is already being observed returns the
// existing session instead of spawning a competing one.
//
// The typical lifecycle is:
//
//	w, err := jobpulse.New("https://host/api/v1/tasks/{job_id}/status/")
//	if err != nil {
//	    slog.Error("failed to create watcher", "error", err)
//	    os.Exit(1)
//	}
//	defer w.Close()
//
//	session := w.Watch(ctx, jobpulse.Signal{JobID: id, Active: true})
//	<-session.Done()
type Watcher struct {
	statusURL    string
	client       *poller.Client
	maxAttempts  int
	totalTimeout time.Duration
	backoff      poller.Backoff
	reloadDelay  time.Duration
	decoder      StatusDecoder
	events       Events
	logger       *slog.Logger
	store        store.Store

	mu       sync.Mutex
	sessions map[string]*Session
}

// New creates a [Watcher] for the given status URL template.
//
// statusURL must be an absolute http(s) URL containing the [JobIDPlaceholder]
// token, for example:
//
//	https://api.example.com/v1/tasks/{job_id}/status/
//
// Options have sensible defaults matching the reference polling policy:
// 20 attempts, 5 minute total budget, 1s initial delay doubling to a 32s cap,
// 10s per-request timeout.
//
// Returns an error if the URL is invalid or any option fails validation.
func New(statusURL string, opts ...Option) (*Watcher, error) {
	if err := validateStatusURL(statusURL); err != nil {
		return nil, err
	}

	cfg := &wConfig{
		headers:        make(map[string]string),
		requestTimeout: defaultRequestTimeout,
		maxAttempts:    defaultMaxAttempts,
		totalTimeout:   defaultTotalTimeout,
		backoff:        poller.DefaultBackoff(),
		reloadDelay:    defaultReloadDelay,
		decoder:        DefaultDecoder,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		statusURL:    statusURL,
		client:       poller.NewClient(cfg.headers, cfg.requestTimeout),
		maxAttempts:  cfg.maxAttempts,
		totalTimeout: cfg.totalTimeout,
		backoff:      cfg.backoff,
		reloadDelay:  cfg.reloadDelay,
		decoder:      cfg.decoder,
		events:       cfg.events,
		logger:       logger,
		store:        store.NewMemoryStore(),
		sessions:     make(map[string]*Session),
	}, nil
}

// validateStatusURL checks the template before any session can exist.
func validateStatusURL(statusURL string) error {
	if statusURL == "" {
		return errors.New("status URL is required")
	}
	if !strings.Contains(statusURL, JobIDPlaceholder) {
		return fmt.Errorf("status URL must contain the %s placeholder", JobIDPlaceholder)
	}
	parsed, err := url.Parse(statusURL)
	if err != nil {
		return fmt.Errorf("invalid status URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("status URL scheme must be http or https, got %q", parsed.Scheme)
	}
	return nil
}

// Watch begins observing the job described by sig.
//
// Behavior by signal:
//   - Active is false: no job is in flight. Watch returns nil and issues no
//     request.
//   - Active is true with a missing or placeholder job id ("", "None",
//     "null", or whitespace): Watch returns a session that is already failed,
//     emits an error notification, and never contacts the endpoint. Polling
//     with such an id would burn the whole retry budget before surfacing
//     anything diagnosable.
//   - Otherwise: Watch returns the session observing the job. If one is
//     already active for this job id, that same session is returned (start
//     is idempotent; the attempt counter is not doubled and no second
//     in-flight request is created).
//
// The session runs in background goroutines and stops when it reaches a
// terminal outcome, when ctx is cancelled, or when [Session.Cancel] is
// called.
func (w *Watcher) Watch(ctx context.Context, sig Signal) *Session {
	if !sig.Active {
		return nil
	}

	if invalidJobID(sig.JobID) {
		s := w.newSession(ctx, sig.JobID)
		s.failPreflight()
		return s
	}

	w.mu.Lock()
	if existing, ok := w.sessions[sig.JobID]; ok && !existing.State().Terminal() {
		w.mu.Unlock()
		return existing
	}
	s := w.newSession(ctx, sig.JobID)
	w.sessions[sig.JobID] = s
	w.mu.Unlock()

	s.start()
	return s
}

// invalidJobID reports whether the caller handed us a placeholder instead of
// a real task id. Server-rendered markup frequently leaks "None" or "null"
// when no task exists.
func invalidJobID(id string) bool {
	trimmed := strings.TrimSpace(id)
	return trimmed == "" || trimmed == "None" || trimmed == "null"
}

// statusURLFor resolves the template for one job.
func (w *Watcher) statusURLFor(jobID string) string {
	return strings.ReplaceAll(w.statusURL, JobIDPlaceholder, url.PathEscape(jobID))
}

// Snapshot is the latest observed state of one watched job, as exposed to
// consumers outside the session's callback stream.
type Snapshot struct {
	// JobID identifies the watched job.
	JobID string

	// State is the session lifecycle state.
	State State

	// Status is the last job status reported by the endpoint, if any.
	Status JobStatus

	// Progress is the display percentage in [0, 100].
	Progress int

	// Message is the current human-readable status line.
	Message string

	// Attempt is the number of requests issued so far.
	Attempt int

	// Elapsed is the wall-clock time since the session started.
	Elapsed time.Duration

	// UpdatedAt is when this snapshot was recorded.
	UpdatedAt time.Time

	// Error is the user-facing failure message, empty while healthy.
	Error string
}

// Snapshot returns the latest snapshot for a job, if the watcher has
// observed it.
func (w *Watcher) Snapshot(jobID string) (Snapshot, bool) {
	snap, ok := w.store.Get(jobID)
	if !ok {
		return Snapshot{}, false
	}
	return toPublicSnapshot(snap), true
}

// Subscribe returns a channel that receives a [Snapshot] every time any of
// the watcher's sessions records an observation.
//
// The subscription lives until ctx is cancelled, at which point the channel
// is closed. The channel is buffered; if the consumer falls behind, updates
// are dropped rather than blocking the session.
func (w *Watcher) Subscribe(ctx context.Context) <-chan Snapshot {
	in := w.store.Subscribe()
	out := make(chan Snapshot, snapshotBuffer)

	go func() {
		defer close(out)
		defer w.store.Unsubscribe(in)
		for {
			select {
			case <-ctx.Done():
				return
			case snap, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- toPublicSnapshot(snap):
				default:
					// consumer is slow, drop the update
				}
			}
		}
	}()

	return out
}

// toPublicSnapshot converts the storage representation to the public type.
func toPublicSnapshot(snap store.Snapshot) Snapshot {
	var errMsg string
	if snap.Error != nil {
		errMsg = *snap.Error
	}
	return Snapshot{
		JobID:     snap.JobID,
		State:     State(snap.State),
		Status:    JobStatus(snap.Status),
		Progress:  snap.Progress,
		Message:   snap.Message,
		Attempt:   snap.Attempt,
		Elapsed:   time.Duration(snap.ElapsedMs) * time.Millisecond,
		UpdatedAt: snap.UpdatedAt,
		Error:     errMsg,
	}
}

// Close releases the watcher's idle HTTP connections. Sessions already
// running are unaffected; cancel them via their contexts or
// [Session.Cancel].
//
// Safe to call multiple times.
func (w *Watcher) Close() {
	w.client.Close()
}
