package core

import (
	"sync"
	"time"

	"github.com/spaghettifunk/anima-scenes/engine/containers"
)

const AVG_COUNT int = 30

// MetricsSnapshot is a copy of the counters at a point in time.
type MetricsSnapshot struct {
	GroupsLoaded       uint64
	ResourcesLoaded    uint64
	ResourcesUnloaded  uint64
	DuplicatesSkipped  uint64
	LastCycle          time.Duration
	LastCyclePolls     int
	AverageCycle       time.Duration
	RecentCycleSamples int
}

// LoadMetrics tracks how load cycles behave over time. Safe for concurrent use.
type LoadMetrics struct {
	mu       sync.Mutex
	cycles   *containers.RingQueue[time.Duration]
	snapshot MetricsSnapshot
}

func NewLoadMetrics() *LoadMetrics {
	return &LoadMetrics{
		cycles: containers.NewRingQueue[time.Duration](AVG_COUNT),
	}
}

func (m *LoadMetrics) RecordLoad() {
	m.mu.Lock()
	m.snapshot.ResourcesLoaded++
	m.mu.Unlock()
}

func (m *LoadMetrics) RecordUnload() {
	m.mu.Lock()
	m.snapshot.ResourcesUnloaded++
	m.mu.Unlock()
}

func (m *LoadMetrics) RecordSkip() {
	m.mu.Lock()
	m.snapshot.DuplicatesSkipped++
	m.mu.Unlock()
}

// RecordCycle stores the duration and poll count of one settled group load.
func (m *LoadMetrics) RecordCycle(d time.Duration, polls int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.snapshot.GroupsLoaded++
	m.snapshot.LastCycle = d
	m.snapshot.LastCyclePolls = polls
	m.cycles.Push(d)

	var total time.Duration
	samples := m.cycles.Items()
	for _, s := range samples {
		total += s
	}
	m.snapshot.AverageCycle = total / time.Duration(len(samples))
	m.snapshot.RecentCycleSamples = len(samples)
}

func (m *LoadMetrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot
}
