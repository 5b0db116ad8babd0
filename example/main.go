package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/storyloom/jobpulse"
)

func main() {
	// start mock generation server (see mock_server.go)
	go StartMockGenerationServer(":9999")
	time.Sleep(100 * time.Millisecond)

	w, err := jobpulse.New("http://localhost:9999/api/v1/tasks/{job_id}/status/",
		jobpulse.WithEvents(jobpulse.Events{
			Progress: func(pct int) {
				fmt.Printf("  progress: %d%%\n", pct)
			},
			StatusMessage: func(text string, severity jobpulse.MessageSeverity) {
				fmt.Printf("  status:   %s\n", text)
			},
			Notify: func(message string, severity jobpulse.NotifySeverity) {
				fmt.Printf("  [%s] %s\n", severity, message)
			},
			Terminal: func(outcome jobpulse.Outcome, shouldReload bool) {
				fmt.Printf("  terminal: %s (reload=%v)\n", outcome, shouldReload)
			},
		}),
	)
	if err != nil {
		slog.Error("failed to create watcher", "error", err)
		os.Exit(1)
	}
	defer w.Close()

	fmt.Println()
	fmt.Println("jobpulse demo: watching a mock generation task")
	fmt.Println("the mock job moves pending -> processing -> completed over ~6s")
	fmt.Println()

	// cancel on Ctrl+C so the in-flight request is aborted cleanly
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session := w.Watch(ctx, jobpulse.Signal{JobID: "demo-chapter-1", Active: true})
	<-session.Done()

	outcome, _ := session.Outcome()
	fmt.Printf("\nfinished: %s after %d attempts\n", outcome, session.Attempts())
}
