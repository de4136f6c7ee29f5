package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return NoopRecorder{}
}

func (NoopRecorder) IncPostCreated() {}
func (NoopRecorder) IncPostUpdated() {}
func (NoopRecorder) IncPostDeleted() {}
func (NoopRecorder) IncCommentCreated() {}
func (NoopRecorder) IncCommentDeleted() {}
func (NoopRecorder) IncUserRegistered() {}
func (NoopRecorder) IncLogin(string) {}
func (NoopRecorder) IncImageStored(string) {}
func (NoopRecorder) IncImageResize(string) {}
func (NoopRecorder) IncImageCleanup(string) {}
func (NoopRecorder) ObserveHTTPRequest(string, string, int, time.Duration) {}
