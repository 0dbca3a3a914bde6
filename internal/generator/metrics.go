package generator

import (
	"math"
	"sync"
	"time"
)

// FailureReason classifies a discarded attempt
type FailureReason string

const (
	ReasonSimulation FailureReason = "simulation"
	ReasonUnstable   FailureReason = "unstable"
	ReasonExport     FailureReason = "export"
)

// MarginStats summarizes observed stability margins
type MarginStats struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Sum   float64 `json:"sum"`
}

// Mean returns the average margin, 0 when nothing was observed
func (s MarginStats) Mean() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.Sum / float64(s.Count)
}

func (s *MarginStats) add(margin float64) {
	if s.Count == 0 {
		s.Min, s.Max = margin, margin
	} else {
		s.Min = math.Min(s.Min, margin)
		s.Max = math.Max(s.Max, margin)
	}
	s.Count++
	s.Sum += margin
}

// MetricsSnapshot is a point-in-time copy of the collected metrics
type MetricsSnapshot struct {
	Accepted       MarginStats           `json:"accepted"`
	Rejected       MarginStats           `json:"rejected"`
	Failures       map[FailureReason]int `json:"failures"`
	AcceptanceRate float64               `json:"acceptance_rate"` // 0-100%
	Elapsed        time.Duration         `json:"elapsed"`
}

// Metrics collects per-attempt outcomes of a generation run
type Metrics struct {
	startTime time.Time

	accepted MarginStats
	rejected MarginStats
	failures map[FailureReason]int

	mu sync.RWMutex
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	return &Metrics{
		startTime: time.Now(),
		failures:  make(map[FailureReason]int),
	}
}

// RecordAccepted records an accepted configuration's margin
func (m *Metrics) RecordAccepted(margin float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.accepted.add(margin)
}

// RecordRejected records a configuration that failed the stability gate
func (m *Metrics) RecordRejected(margin float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rejected.add(margin)
	m.failures[ReasonUnstable]++
}

// RecordFailure records an attempt discarded for reason
func (m *Metrics) RecordFailure(reason FailureReason) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.failures[reason]++
}

// Snapshot returns a copy of the current metrics
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := MetricsSnapshot{
		Accepted: m.accepted,
		Rejected: m.rejected,
		Failures: make(map[FailureReason]int, len(m.failures)),
		Elapsed:  time.Since(m.startTime),
	}

	total := m.accepted.Count
	for reason, n := range m.failures {
		s.Failures[reason] = n
		total += n
	}
	if total > 0 {
		s.AcceptanceRate = float64(m.accepted.Count) / float64(total) * 100
	}
	return s
}
