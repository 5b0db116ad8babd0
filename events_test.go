package jobpulse

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestInvokeSafe_RecoversAndLogsPanic(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	invokeSafe(logger, "progress", func() {
		panic("renderer exploded")
	})

	out := buf.String()
	if !strings.Contains(out, "event callback panic") {
		t.Errorf("log output missing panic record: %q", out)
	}
	if !strings.Contains(out, "progress") {
		t.Errorf("log output missing callback name: %q", out)
	}
	if !strings.Contains(out, "renderer exploded") {
		t.Errorf("log output missing panic value: %q", out)
	}
	if !strings.Contains(out, "correlation_id") {
		t.Errorf("log output missing correlation id: %q", out)
	}
}

func TestInvokeSafe_PassesThroughNormally(t *testing.T) {
	called := false
	invokeSafe(quietLogger(), "notify", func() { called = true })
	if !called {
		t.Error("callback was not invoked")
	}
}

func TestSession_SurvivesPanickingCallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, statusBody("completed"))
	}))
	defer server.Close()

	terminal := make(chan Outcome, 1)
	w, err := New(server.URL+"/api/v1/tasks/{job_id}/status/",
		WithLogger(quietLogger()),
		WithReloadDelay(0),
		WithEvents(Events{
			Progress: func(int) { panic("every progress update panics") },
			Terminal: func(outcome Outcome, _ bool) { terminal <- outcome },
		}),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Close()

	s := w.Watch(context.Background(), Signal{JobID: "job-1", Active: true})
	waitDone(t, s)

	if got := s.State(); got != StateSucceeded {
		t.Errorf("State() = %v, want %v despite panicking callback", got, StateSucceeded)
	}
	select {
	case outcome := <-terminal:
		if outcome != OutcomeSucceeded {
			t.Errorf("terminal outcome = %v, want %v", outcome, OutcomeSucceeded)
		}
	default:
		t.Error("terminal callback never fired")
	}
}
