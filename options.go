package jobpulse

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/storyloom/jobpulse/internal/poller"
)

const (
	defaultRequestTimeout = 10 * time.Second
	defaultMaxAttempts    = 20
	defaultTotalTimeout   = 5 * time.Minute
	defaultReloadDelay    = 500 * time.Millisecond
)

// wConfig holds mutable state during Watcher construction.
type wConfig struct {
	headers        map[string]string
	requestTimeout time.Duration
	maxAttempts    int
	totalTimeout   time.Duration
	backoff        poller.Backoff
	reloadDelay    time.Duration
	decoder        StatusDecoder
	events         Events
	logger         *slog.Logger
}

// Option is a function that configures a [Watcher] during construction.
//
// Option implements the functional options pattern. Options return an error
// if validation fails.
//
// Built-in options: [WithHeaders], [WithRequestTimeout], [WithMaxAttempts],
// [WithTotalTimeout], [WithInitialDelay], [WithMaxDelay], [WithReloadDelay],
// [WithDecoder], [WithEvents], [WithLogger].
type Option func(*wConfig) error

// WithHeaders sets HTTP headers sent with every status request, as
// alternating key-value pairs.
//
// Use this for the endpoint's authentication mechanism: a CSRF token header,
// an Authorization bearer, an API key.
//
// Example:
//
//	w, err := jobpulse.New(url,
//	    jobpulse.WithHeaders("X-CSRFToken", token, "X-Requested-With", "XMLHttpRequest"),
//	)
//
// Returns an error if an odd number of arguments is provided or a key is
// empty.
func WithHeaders(pairs ...string) Option {
	return func(cfg *wConfig) error {
		if len(pairs)%2 != 0 {
			return errors.New("headers must be provided as key-value pairs")
		}
		for i := 0; i < len(pairs); i += 2 {
			if pairs[i] == "" {
				return errors.New("header key cannot be empty")
			}
			cfg.headers[pairs[i]] = pairs[i+1]
		}
		return nil
	}
}

// WithRequestTimeout sets the per-request timeout for each individual poll.
//
// This is independent of the session's total wall-clock budget (see
// [WithTotalTimeout]). Defaults to 10 seconds.
//
// Returns an error if the duration is zero or negative.
func WithRequestTimeout(d time.Duration) Option {
	return func(cfg *wConfig) error {
		if d <= 0 {
			return errors.New("request timeout must be positive")
		}
		cfg.requestTimeout = d
		return nil
	}
}

// WithMaxAttempts sets the maximum number of status requests per session.
//
// When the budget is exhausted the session times out with a "taking longer
// than expected" outcome. Defaults to 20.
//
// Returns an error if the value is zero or negative.
func WithMaxAttempts(n int) Option {
	return func(cfg *wConfig) error {
		if n <= 0 {
			return errors.New("max attempts must be positive")
		}
		cfg.maxAttempts = n
		return nil
	}
}

// WithTotalTimeout sets the absolute wall-clock budget for a session,
// measured from session start.
//
// The budget is not reset by successful responses: a job that keeps
// reporting "processing" forever is still bounded. Defaults to 5 minutes.
//
// Returns an error if the duration is zero or negative.
func WithTotalTimeout(d time.Duration) Option {
	return func(cfg *wConfig) error {
		if d <= 0 {
			return errors.New("total timeout must be positive")
		}
		cfg.totalTimeout = d
		return nil
	}
}

// WithInitialDelay sets the base retry delay before exponential growth.
// Defaults to 1 second.
//
// Returns an error if the duration is zero or negative.
func WithInitialDelay(d time.Duration) Option {
	return func(cfg *wConfig) error {
		if d <= 0 {
			return errors.New("initial delay must be positive")
		}
		cfg.backoff.Initial = d
		return nil
	}
}

// WithMaxDelay caps the retry delay, jitter included. Defaults to 32 seconds.
//
// Returns an error if the duration is zero or negative.
func WithMaxDelay(d time.Duration) Option {
	return func(cfg *wConfig) error {
		if d <= 0 {
			return errors.New("max delay must be positive")
		}
		cfg.backoff.Max = d
		return nil
	}
}

// WithReloadDelay sets how long a successful session waits before emitting
// the reload signal, so the consumer can render the success state first.
// Defaults to 500 milliseconds.
//
// Returns an error if the duration is negative.
func WithReloadDelay(d time.Duration) Option {
	return func(cfg *wConfig) error {
		if d < 0 {
			return errors.New("reload delay cannot be negative")
		}
		cfg.reloadDelay = d
		return nil
	}
}

// WithDecoder sets the [StatusDecoder] used to interpret 2xx response bodies.
// Defaults to [DefaultDecoder].
//
// Returns an error if the decoder is nil.
func WithDecoder(d StatusDecoder) Option {
	return func(cfg *wConfig) error {
		if d == nil {
			return errors.New("decoder cannot be nil")
		}
		cfg.decoder = d
		return nil
	}
}

// WithEvents sets the lifecycle callbacks invoked by every session created
// from this watcher. See [Events] for ordering and panic-safety guarantees.
//
// Nil callback fields are simply skipped, so a zero Events is valid.
func WithEvents(ev Events) Option {
	return func(cfg *wConfig) error {
		cfg.events = ev
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the watcher and its sessions.
//
// If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *wConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// validate checks cross-field constraints after all options have applied.
func (cfg *wConfig) validate() error {
	if cfg.backoff.Max < cfg.backoff.Initial {
		return fmt.Errorf("max delay %s is below initial delay %s",
			cfg.backoff.Max, cfg.backoff.Initial)
	}
	return nil
}
