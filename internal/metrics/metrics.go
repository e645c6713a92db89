package metrics

import (
	"sync"
	"time"
)

// Metrics tracks run counters exposed on the monitoring endpoints.
type Metrics struct {
	mu sync.RWMutex

	// Counters
	LinesCollected     int64
	RecordsAnalyzed    int64
	PairsCompared      int64
	DuplicatesFound    int64
	TruncatedScans     int64
	BriefingsGenerated int64
	BriefingsSent      int64
	DeliveriesSkipped  int64
	ProviderErrors     int64

	// Timings
	LastRunDuration    time.Duration
	TotalRunDuration   time.Duration
	AverageRunDuration time.Duration
	RunCount           int64

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = &Metrics{IsHealthy: true}

func (m *Metrics) AddLinesCollected(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LinesCollected += int64(n)
}

func (m *Metrics) RecordAnalysis(records, pairs, duplicates int, truncated bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RecordsAnalyzed += int64(records)
	m.PairsCompared += int64(pairs)
	m.DuplicatesFound += int64(duplicates)
	if truncated {
		m.TruncatedScans++
	}
}

func (m *Metrics) IncrementBriefingsGenerated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BriefingsGenerated++
}

func (m *Metrics) IncrementBriefingsSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BriefingsSent++
}

func (m *Metrics) IncrementDeliveriesSkipped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeliveriesSkipped++
}

func (m *Metrics) IncrementProviderErrors() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ProviderErrors++
}

func (m *Metrics) RecordRunDuration(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastRunDuration = duration
	m.TotalRunDuration += duration
	m.RunCount++

	if m.RunCount > 0 {
		m.AverageRunDuration = m.TotalRunDuration / time.Duration(m.RunCount)
	}
}

func (m *Metrics) SetLastRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"lines_collected":         m.LinesCollected,
		"records_analyzed":        m.RecordsAnalyzed,
		"pairs_compared":          m.PairsCompared,
		"duplicates_found":        m.DuplicatesFound,
		"truncated_scans":         m.TruncatedScans,
		"briefings_generated":     m.BriefingsGenerated,
		"briefings_sent":          m.BriefingsSent,
		"deliveries_skipped":      m.DeliveriesSkipped,
		"provider_errors":         m.ProviderErrors,
		"last_run_duration_ms":    m.LastRunDuration.Milliseconds(),
		"average_run_duration_ms": m.AverageRunDuration.Milliseconds(),
		"last_run_time":           m.LastRunTime.Format(time.RFC3339),
		"last_error_time":         m.LastErrorTime.Format(time.RFC3339),
		"last_error":              m.LastError,
		"is_healthy":              m.IsHealthy,
	}
}
