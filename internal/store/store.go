package store

import "time"

// Snapshot is the latest observed state of one watched job.
//
// Snapshot is the storage representation, optimized for JSON serialization.
// It is decoupled from the session's internal state so the two can evolve
// independently.
type Snapshot struct {
	// JobID identifies the watched job.
	JobID string `json:"job_id"`

	// State is the session lifecycle state (active, succeeded, ...).
	State string `json:"state"`

	// Status is the last job status reported by the endpoint, if any.
	Status string `json:"status"`

	// Progress is the display percentage in [0, 100].
	Progress int `json:"progress"`

	// Message is the current human-readable status line.
	Message string `json:"message"`

	// Attempt is the number of requests issued so far.
	Attempt int `json:"attempt"`

	// ElapsedMs is the wall-clock time since the session started.
	ElapsedMs int64 `json:"elapsed_ms"`

	// UpdatedAt is when this snapshot was recorded.
	UpdatedAt time.Time `json:"updated_at"`

	// Error is the user-facing failure message, if the session failed.
	// nil while the session is healthy.
	Error *string `json:"error"`
}

// Store defines the interface for recording and subscribing to job snapshots.
//
// Store implementations must be safe for concurrent access: the polling loop
// and the elapsed-time reporter both publish, and any number of observers
// may subscribe.
type Store interface {
	// Update stores a snapshot and notifies all subscribers.
	// Snapshots are keyed by JobID; subsequent updates replace previous values.
	Update(snap Snapshot)

	// Get returns the latest snapshot for a job, if one exists.
	Get(jobID string) (Snapshot, bool)

	// GetAll returns all currently stored snapshots.
	// The returned slice is a copy; modifications do not affect the store.
	GetAll() []Snapshot

	// Subscribe returns a channel that receives snapshot updates.
	// The channel is buffered; slow consumers may miss updates.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan Snapshot

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan Snapshot)
}
