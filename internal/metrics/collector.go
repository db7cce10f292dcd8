// Package metrics provides in-memory statistics for a chat session.
package metrics

import (
	"math"
	"sync"
	"time"
)

// Operation names for the collector.
const (
	OpExtract = "extract"
	OpAnalyze = "analyze"
	OpHealth  = "health"
)

// OperationMetrics holds aggregated metrics for a single operation type.
type OperationMetrics struct {
	Count     int64
	Failures  int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration

	// Query size in words (only for analyze)
	TotalWords int64
	MinWords   int64
	MaxWords   int64
}

// OperationSnapshot provides computed stats from raw metrics.
type OperationSnapshot struct {
	Count       int64
	Failures    int64
	TotalTimeMs int64
	AvgTimeMs   float64
	MinTimeMs   int64
	MaxTimeMs   int64

	// Word stats (nil if not applicable)
	TotalWords *int64
	AvgWords   *float64
	MinWords   *int64
	MaxWords   *int64
}

// Snapshot represents the session statistics at a point in time.
type Snapshot struct {
	UptimeSeconds float64
	Extract       *OperationSnapshot
	Analyze       *OperationSnapshot
	Health        *OperationSnapshot
}

// Collector aggregates in-memory statistics.
// All methods are thread-safe.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	ops       map[string]*OperationMetrics
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		ops:       make(map[string]*OperationMetrics),
	}
}

// getOrCreate returns existing metrics or creates new ones for an operation.
// Caller must hold write lock.
func (c *Collector) getOrCreate(op string) *OperationMetrics {
	m, ok := c.ops[op]
	if !ok {
		m = &OperationMetrics{
			MinTime:  time.Duration(math.MaxInt64),
			MinWords: math.MaxInt64,
		}
		c.ops[op] = m
	}
	return m
}

func (m *OperationMetrics) observe(d time.Duration, failed bool) {
	m.Count++
	if failed {
		m.Failures++
	}
	m.TotalTime += d
	if d < m.MinTime {
		m.MinTime = d
	}
	if d > m.MaxTime {
		m.MaxTime = d
	}
}

// RecordTiming records timing for an operation.
func (c *Collector) RecordTiming(op string, duration time.Duration, failed bool) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.getOrCreate(op).observe(duration, failed)
}

// RecordQuery records timing and query size for an analyze call.
func (c *Collector) RecordQuery(duration time.Duration, words int64, failed bool) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.getOrCreate(OpAnalyze)
	m.observe(duration, failed)

	m.TotalWords += words
	if words < m.MinWords {
		m.MinWords = words
	}
	if words > m.MaxWords {
		m.MaxWords = words
	}
}

// snapshotOp creates a snapshot for an operation, returning nil if no data.
func snapshotOp(m *OperationMetrics, includeWords bool) *OperationSnapshot {
	if m == nil || m.Count == 0 {
		return nil
	}

	snap := &OperationSnapshot{
		Count:       m.Count,
		Failures:    m.Failures,
		TotalTimeMs: m.TotalTime.Milliseconds(),
		AvgTimeMs:   float64(m.TotalTime.Milliseconds()) / float64(m.Count),
		MinTimeMs:   m.MinTime.Milliseconds(),
		MaxTimeMs:   m.MaxTime.Milliseconds(),
	}

	if includeWords && m.TotalWords > 0 {
		total := m.TotalWords
		avg := float64(m.TotalWords) / float64(m.Count)
		minW := m.MinWords
		maxW := m.MaxWords
		if minW == math.MaxInt64 {
			minW = 0
		}
		snap.TotalWords = &total
		snap.AvgWords = &avg
		snap.MinWords = &minW
		snap.MaxWords = &maxW
	}

	return snap
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Snapshot{
		UptimeSeconds: time.Since(c.startTime).Seconds(),
		Extract:       snapshotOp(c.ops[OpExtract], false),
		Analyze:       snapshotOp(c.ops[OpAnalyze], true),
		Health:        snapshotOp(c.ops[OpHealth], false),
	}
}
