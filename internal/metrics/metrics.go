// Package metrics provides instrumentation hooks for the blog API.
package metrics

import "time"

// Outcome labels for media operations.
const (
	OutcomeSuccess  = "success"
	OutcomeFailed   = "failed"
	OutcomeSkipped  = "skipped"
	OutcomeEnqueued = "enqueued"
	OutcomeDropped  = "dropped"
)

// Recorder captures metric events for the application.
type Recorder interface {
	// Content lifecycle
	IncPostCreated()
	IncPostUpdated()
	IncPostDeleted()
	IncCommentCreated()
	IncCommentDeleted()
	IncUserRegistered()
	IncLogin(outcome string)

	// Media pipeline
	IncImageStored(outcome string)
	IncImageResize(outcome string)
	IncImageCleanup(outcome string)

	// HTTP
	ObserveHTTPRequest(method, route string, status int, duration time.Duration)
}
