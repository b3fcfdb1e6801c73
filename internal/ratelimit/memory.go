package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Memory is the process-local Limiter: a mutex-guarded map from connection
// identifier to the unix-millisecond timestamp of its last accepted send.
//
// Entries are never purged, not even on disconnect, so the map grows with
// the number of distinct connections seen over the process lifetime. State
// is lost on restart, which resets throttling for everyone. In a
// multi-instance deployment the throttle is per-instance; swap in Redis via
// the Limiter interface for a shared window.
type Memory struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]int64
}

// NewMemory builds a Memory limiter. A non-positive window falls back to
// DefaultWindow.
func NewMemory(window time.Duration) *Memory {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Memory{
		window: window,
		last:   make(map[string]int64),
	}
}

// Allow implements Limiter. The mutex serializes same-connection calls, so
// two near-simultaneous sends from one connection cannot both pass.
func (m *Memory) Allow(_ context.Context, connection string, now time.Time) bool {
	nowMs := now.UnixMilli()

	m.mu.Lock()
	defer m.mu.Unlock()

	if last, ok := m.last[connection]; ok && nowMs-last < m.window.Milliseconds() {
		return false
	}
	m.last[connection] = nowMs
	return true
}
