// Package cache is a small in-process LRU+TTL cache used for computed reports.
package cache

import (
	"context"
	"time"

	applog "finboard/internal/log"
)

// Cache is the read-through surface the services depend on.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	// DeletePrefix drops every key starting with prefix and returns how many went.
	DeletePrefix(prefix string) int
	Size() int
}

type Cleaner interface {
	CleanExpired() int
}

// Manager sweeps expired entries of the registered caches on an interval.
type Manager struct {
	caches []Cleaner
	logger *applog.Logger
}

func NewManager(logger *applog.Logger) *Manager {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Manager{logger: logger.WithComponent(applog.ComponentCache)}
}

func (m *Manager) Register(cache Cleaner) {
	m.caches = append(m.caches, cache)
}

// Run sweeps until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.logger.Debug("Expired cache entries removed", "count", n)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) Sweep() int {
	total := 0
	for _, c := range m.caches {
		total += c.CleanExpired()
	}
	return total
}
