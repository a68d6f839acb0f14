// Package session tracks per-session activity counters and persists
// session history in SQLite.
package session

import (
	"sync"
	"time"
)

// Stats is a point-in-time snapshot of the session counters.
type Stats struct {
	ExchangeCount  int64         `json:"exchange_count"`
	FilesProcessed int64         `json:"files_processed"`
	StartedAt      time.Time     `json:"started_at"`
	LastRefresh    time.Time     `json:"last_refresh"`
	Uptime         time.Duration `json:"uptime"`
}

// Counters accumulates activity for the current session. Safe for
// concurrent use.
type Counters struct {
	mu             sync.Mutex
	exchangeCount  int64
	filesProcessed int64
	startedAt      time.Time
	lastRefresh    time.Time
}

// NewCounters starts a fresh session clock.
func NewCounters() *Counters {
	now := time.Now()
	return &Counters{startedAt: now, lastRefresh: now}
}

// RecordExchange counts one context exchange (a validate, chunk, detect
// or format operation).
func (c *Counters) RecordExchange() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exchangeCount++
}

// RecordFile counts one processed file.
func (c *Counters) RecordFile() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filesProcessed++
}

// Refresh marks the last time context was rebuilt for the assistant.
func (c *Counters) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastRefresh = time.Now()
}

// Reset zeroes the counters and restarts the session clock.
func (c *Counters) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	c.exchangeCount = 0
	c.filesProcessed = 0
	c.startedAt = now
	c.lastRefresh = now
}

// Snapshot returns the current stats.
func (c *Counters) Snapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		ExchangeCount:  c.exchangeCount,
		FilesProcessed: c.filesProcessed,
		StartedAt:      c.startedAt,
		LastRefresh:    c.lastRefresh,
		Uptime:         time.Since(c.startedAt),
	}
}
