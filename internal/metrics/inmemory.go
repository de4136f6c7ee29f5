package metrics

import (
	"sync"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	PostsCreated    uint64
	PostsUpdated    uint64
	PostsDeleted    uint64
	CommentsCreated uint64
	CommentsDeleted uint64
	UsersRegistered uint64
	Logins          map[string]uint64
	ImagesStored    map[string]uint64
	ImageResizes    map[string]uint64
	ImageCleanups   map[string]uint64
	HTTPRequests    uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	mu   sync.Mutex
	snap Snapshot
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{snap: Snapshot{
		Logins:        map[string]uint64{},
		ImagesStored:  map[string]uint64{},
		ImageResizes:  map[string]uint64{},
		ImageCleanups: map[string]uint64{},
	}}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := m.snap
	out.Logins = copyCounts(m.snap.Logins)
	out.ImagesStored = copyCounts(m.snap.ImagesStored)
	out.ImageResizes = copyCounts(m.snap.ImageResizes)
	out.ImageCleanups = copyCounts(m.snap.ImageCleanups)
	return out
}

func copyCounts(in map[string]uint64) map[string]uint64 {
	out := make(map[string]uint64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (m *InMemoryRecorder) inc(f func(*Snapshot)) {
	m.mu.Lock()
	f(&m.snap)
	m.mu.Unlock()
}

func (m *InMemoryRecorder) IncPostCreated() { m.inc(func(s *Snapshot) { s.PostsCreated++ }) }
func (m *InMemoryRecorder) IncPostUpdated() { m.inc(func(s *Snapshot) { s.PostsUpdated++ }) }
func (m *InMemoryRecorder) IncPostDeleted() { m.inc(func(s *Snapshot) { s.PostsDeleted++ }) }
func (m *InMemoryRecorder) IncCommentCreated() { m.inc(func(s *Snapshot) { s.CommentsCreated++ }) }
func (m *InMemoryRecorder) IncCommentDeleted() { m.inc(func(s *Snapshot) { s.CommentsDeleted++ }) }
func (m *InMemoryRecorder) IncUserRegistered() { m.inc(func(s *Snapshot) { s.UsersRegistered++ }) }

func (m *InMemoryRecorder) IncLogin(outcome string) {
	m.inc(func(s *Snapshot) { s.Logins[outcome]++ })
}

func (m *InMemoryRecorder) IncImageStored(outcome string) {
	m.inc(func(s *Snapshot) { s.ImagesStored[outcome]++ })
}

func (m *InMemoryRecorder) IncImageResize(outcome string) {
	m.inc(func(s *Snapshot) { s.ImageResizes[outcome]++ })
}

func (m *InMemoryRecorder) IncImageCleanup(outcome string) {
	m.inc(func(s *Snapshot) { s.ImageCleanups[outcome]++ })
}

func (m *InMemoryRecorder) ObserveHTTPRequest(string, string, int, time.Duration) {
	m.inc(func(s *Snapshot) { s.HTTPRequests++ })
}
