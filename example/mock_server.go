package main

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"
)

// mockJob tracks when a job was first observed so its lifecycle can be
// derived from elapsed time.
type mockJob struct {
	firstSeen time.Time
}

// StartMockGenerationServer serves a fake task-status endpoint for the demo.
//
// Every job moves pending -> processing -> completed based on time since it
// was first polled: pending for 2s, processing for 4s, completed after.
func StartMockGenerationServer(addr string) {
	var mu sync.Mutex
	jobs := make(map[string]*mockJob)

	http.HandleFunc("/api/v1/tasks/", func(w http.ResponseWriter, r *http.Request) {
		// path: /api/v1/tasks/{id}/status/
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) < 4 {
			http.NotFound(w, r)
			return
		}
		jobID := parts[3]

		mu.Lock()
		job, ok := jobs[jobID]
		if !ok {
			job = &mockJob{firstSeen: time.Now()}
			jobs[jobID] = job
		}
		mu.Unlock()

		status := "pending"
		switch elapsed := time.Since(job.firstSeen); {
		case elapsed > 6*time.Second:
			status = "completed"
		case elapsed > 2*time.Second:
			status = "processing"
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":        status,
			"error_message": nil,
		})
	})

	log.Printf("mock generation server listening on %s", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatalf("mock server error: %v", err)
	}
}
