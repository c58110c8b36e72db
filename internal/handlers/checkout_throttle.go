package handlers

import (
	"strings"
	"sync"
	"time"
)

// rateLimiter gates order submissions per client key.
type rateLimiter interface {
	Allow(key string) bool
}

// submitThrottle counts submissions per client IP over a fixed window. A
// client's window opens on its first submission and lapses after the
// configured duration; lapsed entries are dropped as they are revisited.
type submitThrottle struct {
	perWindow int
	window    time.Duration
	clock     func() time.Time

	mu      sync.Mutex
	clients map[string]*submitWindow
}

type submitWindow struct {
	openedAt time.Time
	hits     int
}

func newSubmitThrottle(perWindow int, window time.Duration, clock func() time.Time) rateLimiter {
	if perWindow <= 0 || window <= 0 {
		return nil
	}
	if clock == nil {
		clock = time.Now
	}
	return &submitThrottle{
		perWindow: perWindow,
		window:    window,
		clock:     clock,
		clients:   make(map[string]*submitWindow),
	}
}

func (t *submitThrottle) Allow(key string) bool {
	if t == nil {
		return true
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = "anonymous"
	}

	now := t.clock()
	t.mu.Lock()
	defer t.mu.Unlock()

	t.dropLapsedLocked(now)

	current, ok := t.clients[key]
	if !ok {
		t.clients[key] = &submitWindow{openedAt: now, hits: 1}
		return true
	}
	if current.hits >= t.perWindow {
		return false
	}
	current.hits++
	return true
}

func (t *submitThrottle) dropLapsedLocked(now time.Time) {
	for key, current := range t.clients {
		if now.Sub(current.openedAt) >= t.window {
			delete(t.clients, key)
		}
	}
}
