// Package connectivity tracks online/offline transitions and a coarse
// connection-quality estimate, and triggers the sync layer when a connection
// comes back. The shared state is an explicitly constructed object injected
// into its writers (the monitor and the sync orchestrator), not a package
// singleton.
package connectivity

import (
	"sync"
	"time"
)

// Quality is a coarse connection-quality classification.
type Quality string

const (
	QualityUnknown   Quality = "unknown"
	QualityExcellent Quality = "excellent"
	QualityGood      Quality = "good"
	QualityPoor      Quality = "poor"
)

// Latency thresholds for quality classification.
const (
	ExcellentLatency = 150 * time.Millisecond
	GoodLatency      = 500 * time.Millisecond
)

// ClassifyLatency maps a round-trip latency onto a Quality bucket.
func ClassifyLatency(d time.Duration) Quality {
	switch {
	case d < ExcellentLatency:
		return QualityExcellent
	case d < GoodLatency:
		return QualityGood
	default:
		return QualityPoor
	}
}

// Snapshot is a point-in-time copy of the shared connectivity state, safe to
// hand to the presentation layer.
type Snapshot struct {
	Online          bool
	Syncing         bool
	PendingCount    int
	LastSyncAttempt time.Time
	Quality         Quality
}

// State holds process-wide connectivity facts. It is not persisted; each
// start reinitializes it from live probes and a fresh queue count.
type State struct {
	mu   sync.RWMutex
	snap Snapshot
}

func NewState() *State {
	return &State{snap: Snapshot{Quality: QualityUnknown}}
}

// SetOnline records the reachability flag and reports whether it changed.
func (s *State) SetOnline(online bool) (changed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed = s.snap.Online != online
	s.snap.Online = online
	return changed
}

func (s *State) SetSyncing(syncing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Syncing = syncing
}

func (s *State) SetPendingCount(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.PendingCount = n
}

func (s *State) SetLastSyncAttempt(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.LastSyncAttempt = t
}

func (s *State) SetQuality(q Quality) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Quality = q
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}
