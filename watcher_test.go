package jobpulse

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestNew_ValidatesStatusURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"valid https", "https://api.example.com/tasks/{job_id}/status/", false},
		{"valid http", "http://localhost:8000/tasks/{job_id}/status/", false},
		{"empty", "", true},
		{"missing placeholder", "https://api.example.com/tasks/status/", true},
		{"bad scheme", "ftp://api.example.com/tasks/{job_id}/status/", true},
		{"relative", "/tasks/{job_id}/status/", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := New(tt.url, WithLogger(quietLogger()))
			if tt.wantErr {
				if err == nil {
					t.Error("New() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			w.Close()
		})
	}
}

func TestNew_OptionValidation(t *testing.T) {
	const validURL = "https://api.example.com/tasks/{job_id}/status/"

	tests := []struct {
		name string
		opts []Option
	}{
		{"zero max attempts", []Option{WithMaxAttempts(0)}},
		{"negative request timeout", []Option{WithRequestTimeout(-time.Second)}},
		{"zero total timeout", []Option{WithTotalTimeout(0)}},
		{"odd header pairs", []Option{WithHeaders("X-CSRFToken")}},
		{"empty header key", []Option{WithHeaders("", "value")}},
		{"nil decoder", []Option{WithDecoder(nil)}},
		{"nil logger", []Option{WithLogger(nil)}},
		{"negative reload delay", []Option{WithReloadDelay(-time.Second)}},
		{"max delay below initial", []Option{WithInitialDelay(5 * time.Second), WithMaxDelay(time.Second)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(validURL, tt.opts...); err == nil {
				t.Error("New() error = nil, want validation error")
			}
		})
	}
}

func TestWatch_InactiveSignalIsNoOp(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer server.Close()

	log := &eventLog{}
	w := newTestWatcher(t, server.URL, log)

	s := w.Watch(context.Background(), Signal{JobID: "job-1", Active: false})
	if s != nil {
		t.Errorf("Watch() = %v, want nil for inactive signal", s)
	}

	time.Sleep(20 * time.Millisecond)
	if got := requests.Load(); got != 0 {
		t.Errorf("requests = %d, want 0", got)
	}
	if notifies := log.Notifies(); len(notifies) != 0 {
		t.Errorf("notifies = %+v, want none", notifies)
	}
}

func TestWatch_InvalidJobIDFailsWithoutRequest(t *testing.T) {
	ids := []string{"", "None", "null", "   ", "\tNone "}

	for _, id := range ids {
		t.Run("id="+strings.TrimSpace(id)+"_", func(t *testing.T) {
			var requests atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				requests.Add(1)
			}))
			defer server.Close()

			log := &eventLog{}
			w := newTestWatcher(t, server.URL, log)

			s := w.Watch(context.Background(), Signal{JobID: id, Active: true})
			if s == nil {
				t.Fatal("Watch() = nil, want a failed session")
			}

			// preflight failure is synchronous
			select {
			case <-s.Done():
			default:
				t.Fatal("Done() not closed for preflight failure")
			}

			if got := s.State(); got != StateFailed {
				t.Errorf("State() = %v, want %v", got, StateFailed)
			}
			outcome, ok := s.Outcome()
			if !ok || outcome != OutcomeFailed {
				t.Errorf("Outcome() = %v, %v, want %v, true", outcome, ok, OutcomeFailed)
			}
			if got := requests.Load(); got != 0 {
				t.Errorf("requests = %d, want 0", got)
			}

			notifies := log.Notifies()
			if len(notifies) != 1 || notifies[0].message != msgMissingJobID || notifies[0].severity != NotifyError {
				t.Errorf("notifies = %+v, want one error %q", notifies, msgMissingJobID)
			}
		})
	}
}

func TestWatch_IdempotentPerJobID(t *testing.T) {
	block := make(chan struct{})
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		select {
		case <-block:
		case <-r.Context().Done():
		}
		_, _ = io.WriteString(w, statusBody("completed"))
	}))
	defer server.Close()
	defer close(block)

	log := &eventLog{}
	w := newTestWatcher(t, server.URL, log, WithRequestTimeout(time.Minute))

	first := w.Watch(context.Background(), Signal{JobID: "job-1", Active: true})
	second := w.Watch(context.Background(), Signal{JobID: "job-1", Active: true})

	if first != second {
		t.Error("Watch() spawned a second session for the same job id")
	}

	other := w.Watch(context.Background(), Signal{JobID: "job-2", Active: true})
	if other == first {
		t.Error("Watch() reused a session across different job ids")
	}

	first.Cancel()
	other.Cancel()
	waitDone(t, first)
	waitDone(t, other)
}

func TestWatch_NewSessionAfterTerminal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, statusBody("completed"))
	}))
	defer server.Close()

	log := &eventLog{}
	w := newTestWatcher(t, server.URL, log)

	first := w.Watch(context.Background(), Signal{JobID: "job-1", Active: true})
	waitDone(t, first)

	second := w.Watch(context.Background(), Signal{JobID: "job-1", Active: true})
	if second == first {
		t.Error("Watch() returned a terminal session instead of starting fresh")
	}
	waitDone(t, second)
}

func TestWatcher_StatusURLEscapesJobID(t *testing.T) {
	w, err := New("https://api.example.com/tasks/{job_id}/status/", WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Close()

	got := w.statusURLFor("a/b c")
	want := "https://api.example.com/tasks/a%2Fb%20c/status/"
	if got != want {
		t.Errorf("statusURLFor() = %q, want %q", got, want)
	}
}

func TestWatcher_SnapshotReflectsOutcome(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, statusBody("completed"))
	}))
	defer server.Close()

	log := &eventLog{}
	w := newTestWatcher(t, server.URL, log)

	if _, ok := w.Snapshot("job-1"); ok {
		t.Error("Snapshot() ok = true before any observation")
	}

	s := w.Watch(context.Background(), Signal{JobID: "job-1", Active: true})
	waitDone(t, s)

	snap, ok := w.Snapshot("job-1")
	if !ok {
		t.Fatal("Snapshot() ok = false after session finished")
	}
	if snap.State != StateSucceeded {
		t.Errorf("snapshot State = %v, want %v", snap.State, StateSucceeded)
	}
	if snap.Progress != 100 {
		t.Errorf("snapshot Progress = %d, want 100", snap.Progress)
	}
	if snap.Status != JobCompleted {
		t.Errorf("snapshot Status = %v, want %v", snap.Status, JobCompleted)
	}
	if snap.Error != "" {
		t.Errorf("snapshot Error = %q, want empty", snap.Error)
	}
}

func TestWatcher_SubscribeDeliversSnapshots(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, statusBody("completed"))
	}))
	defer server.Close()

	log := &eventLog{}
	w := newTestWatcher(t, server.URL, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates := w.Subscribe(ctx)

	s := w.Watch(context.Background(), Signal{JobID: "job-1", Active: true})
	waitDone(t, s)

	deadline := time.After(5 * time.Second)
	for {
		select {
		case snap, ok := <-updates:
			if !ok {
				t.Fatal("subscription closed before a terminal snapshot arrived")
			}
			if snap.JobID != "job-1" {
				t.Errorf("snapshot JobID = %q, want %q", snap.JobID, "job-1")
			}
			if snap.State == StateSucceeded {
				return // saw the terminal observation
			}
		case <-deadline:
			t.Fatal("timeout waiting for terminal snapshot")
		}
	}
}

func TestWatcher_SubscribeClosesOnContextCancel(t *testing.T) {
	w, err := New("https://api.example.com/tasks/{job_id}/status/", WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	updates := w.Subscribe(ctx)
	cancel()

	select {
	case _, ok := <-updates:
		if ok {
			t.Error("expected channel close, got a snapshot")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for subscription channel to close")
	}
}
