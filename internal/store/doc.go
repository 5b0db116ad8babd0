// Package store provides per-job snapshot storage with a publish-subscribe
// mechanism, so out-of-band observers (the CLI renderer, a future dashboard)
// can follow a session without wiring event callbacks.
//
// This package is internal to jobpulse; the root package re-exports the
// snapshot shape through its public API.
package store
