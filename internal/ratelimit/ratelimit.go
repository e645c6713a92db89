package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"github.com/macrodesk/macrobrief/internal/logger"
)

// Budget enforces daily request caps per external API plus a global cap.
// Counters reset 24h after creation and then daily.
type Budget struct {
	mu        sync.Mutex
	used      map[string]int
	limits    map[string]int
	total     int
	maxTotal  int
	resetTime time.Time
}

// NewBudget creates a budget. A limit of 0 means unlimited for that
// provider; providers never registered are unlimited too (only the global
// cap applies).
func NewBudget(limits map[string]int, maxTotal int) *Budget {
	l := make(map[string]int, len(limits))
	for name, limit := range limits {
		l[name] = limit
	}
	return &Budget{
		used:      map[string]int{},
		limits:    l,
		maxTotal:  maxTotal,
		resetTime: time.Now().Add(24 * time.Hour),
	}
}

// Allow checks whether one more request to provider fits the budget.
func (b *Budget) Allow(provider string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.checkReset()

	if limit := b.limits[provider]; limit > 0 && b.used[provider] >= limit {
		logger.Warn("provider rate limit reached", "provider", provider, "used", b.used[provider], "limit", limit)
		return false
	}
	if b.maxTotal > 0 && b.total >= b.maxTotal {
		logger.Warn("total API rate limit reached", "used", b.total, "limit", b.maxTotal)
		return false
	}
	return true
}

// Use records one request against provider, failing when over budget.
func (b *Budget) Use(provider string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.checkReset()

	if limit := b.limits[provider]; limit > 0 && b.used[provider] >= limit {
		return fmt.Errorf("%s rate limit exceeded (%d/%d)", provider, b.used[provider], limit)
	}
	if b.maxTotal > 0 && b.total >= b.maxTotal {
		return fmt.Errorf("total API rate limit exceeded (%d/%d)", b.total, b.maxTotal)
	}

	b.used[provider]++
	b.total++
	return nil
}

// GetStats returns current usage for the monitoring endpoint.
func (b *Budget) GetStats() map[string]interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()

	stats := map[string]interface{}{
		"total_used":  b.total,
		"total_limit": b.maxTotal,
		"reset_time":  b.resetTime,
	}
	for name, used := range b.used {
		stats[name+"_used"] = used
	}
	for name, limit := range b.limits {
		stats[name+"_limit"] = limit
	}
	return stats
}

func (b *Budget) checkReset() {
	if time.Now().After(b.resetTime) {
		logger.Info("resetting API budget counters")
		b.used = map[string]int{}
		b.total = 0
		b.resetTime = time.Now().Add(24 * time.Hour)
	}
}
