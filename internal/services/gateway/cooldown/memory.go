package cooldown

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Memory is a process-local cooldown store. Entries survive until the
// periodic sweep evicts those older than the window, so the map stays
// bounded by the set of recently alerted recipients.
type Memory struct {
	mu       sync.RWMutex
	lastSent map[string]time.Time

	window time.Duration
	stop   chan struct{}
	once   sync.Once
}

// NewMemory creates the store and starts the sweep loop. sweepInterval
// <= 0 disables sweeping.
func NewMemory(window, sweepInterval time.Duration) *Memory {
	m := &Memory{
		lastSent: make(map[string]time.Time),
		window:   window,
		stop:     make(chan struct{}),
	}

	if sweepInterval > 0 {
		go m.sweepLoop(sweepInterval)
	}

	return m
}

func (m *Memory) LastSent(_ context.Context, key string) (time.Time, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.lastSent[key]
	return t, ok, nil
}

func (m *Memory) MarkSent(_ context.Context, key string, t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastSent[key] = t
	return nil
}

// Len returns the number of live entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.lastSent)
}

// Close stops the sweep loop.
func (m *Memory) Close() {
	m.once.Do(func() { close(m.stop) })
}

func (m *Memory) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.sweep(time.Now())
		}
	}
}

// sweep drops entries whose window has fully elapsed.
func (m *Memory) sweep(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, t := range m.lastSent {
		if now.Sub(t) >= m.window {
			delete(m.lastSent, key)
			removed++
		}
	}

	if removed > 0 {
		log.Debug().
			Int("removed", removed).
			Int("remaining", len(m.lastSent)).
			Msg("Cooldown sweep completed")
	}
}
