package jobpulse

import "fmt"

// User-facing message text. The session is the only component that turns
// classified outcomes into words; consumers receive these strings and never
// see raw status codes or transport errors.
const (
	// msgMissingJobID is emitted when polling is requested without a usable
	// job id. No request is ever issued in that case.
	msgMissingJobID = "Generation task not found. Please try again."

	// msgQueued is shown while the job waits to start.
	msgQueued = "Queued, waiting to start..."

	// msgGenerating is shown while the job is running.
	msgGenerating = "Generating content..."

	// msgStillWorking replaces the phase-specific messages once polling has
	// gone on long enough that the UI should acknowledge the wait.
	msgStillWorking = "Still working on it. This can take a little while..."

	// msgTimedOut covers every flavor of budget exhaustion where the server
	// kept answering. Many 500s, a job stuck in processing and a slow queue
	// all degrade to this same message.
	msgTimedOut = "Generation is taking longer than expected. Please try again later."

	// msgConnectivity is the timeout variant for exhausting the budget on
	// network failures.
	msgConnectivity = "Could not reach the server. Please check your connection and try again."

	// msgNotFound is the terminal message for a 404 from the status endpoint.
	msgNotFound = "Generation task not found. Please start a new generation."

	// msgAccessDenied is the terminal message for 401 and 403.
	msgAccessDenied = "Access denied. Please log in and try again."

	// msgCompleted announces success.
	msgCompleted = "Chapter generated successfully!"

	// msgUnknownError is used when the job reports failure without detail.
	msgUnknownError = "Generation failed due to an unknown error."
)

// msgRequestFailed covers terminal HTTP statuses without a dedicated message.
func msgRequestFailed(statusCode int) string {
	return fmt.Sprintf("Generation request failed (%d). Please try again.", statusCode)
}
